package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/voltline/voltline-backend/api/responses"
	"github.com/voltline/voltline-backend/api/validators"
	"github.com/voltline/voltline-backend/internal/analytics"
	analyticstypes "github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/internal/orders"
	product "github.com/voltline/voltline-backend/internal/products"
	"github.com/voltline/voltline-backend/internal/quotes"
	"github.com/voltline/voltline-backend/internal/suppliers"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/google/uuid"
)

// GetSupplierProfile returns the caller's supplier record.
func GetSupplierProfile(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetByID(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type updateSupplierRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	ContactEmail     *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	PayoutAccountRef *string `json:"payout_account_ref,omitempty" validate:"omitempty,max=200"`
}

// UpdateSupplierProfile patches the caller's supplier record.
func UpdateSupplierProfile(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateSupplierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), supplierID, suppliers.UpdateSupplierInput{
			Name:             req.Name,
			ContactEmail:     req.ContactEmail,
			PayoutAccountRef: req.PayoutAccountRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListSupplierProducts returns the caller's full catalog, active or not.
func ListSupplierProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListSupplierProducts(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type volumeDiscountRequest struct {
	MinQty         int `json:"min_qty" validate:"required,min=2"`
	UnitPriceCents int `json:"unit_price_cents" validate:"required,min=1"`
}

type inventoryRequest struct {
	AvailableQty int `json:"available_qty" validate:"min=0"`
	ReservedQty  int `json:"reserved_qty" validate:"min=0"`
}

type createProductRequest struct {
	SKU                      string                  `json:"sku" validate:"required,max=64"`
	Title                    string                  `json:"title" validate:"required,max=200"`
	Description              *string                 `json:"description,omitempty" validate:"omitempty,max=5000"`
	Chemistry                string                  `json:"chemistry" validate:"required"`
	Voltage                  string                  `json:"voltage" validate:"required"`
	CapacityMAH              int                     `json:"capacity_mah" validate:"required,min=1"`
	FormFactor               string                  `json:"form_factor" validate:"required"`
	Certifications           []string                `json:"certifications,omitempty"`
	PriceCents               int                     `json:"price_cents" validate:"required,min=1"`
	CompareAtPriceCents      *int                    `json:"compare_at_price_cents,omitempty" validate:"omitempty,min=1"`
	MOQ                      int                     `json:"moq" validate:"min=0"`
	MaxQty                   int                     `json:"max_qty" validate:"min=0"`
	IsActive                 bool                    `json:"is_active"`
	IsFeatured               bool                    `json:"is_featured"`
	SupportsEngraving        bool                    `json:"supports_engraving"`
	EngravingSetupFeeCents   int                     `json:"engraving_setup_fee_cents" validate:"min=0"`
	EngravingPerCharFeeCents int                     `json:"engraving_per_char_fee_cents" validate:"min=0"`
	EngravingMaxChars        int                     `json:"engraving_max_chars" validate:"min=0"`
	Inventory                inventoryRequest        `json:"inventory"`
	VolumeDiscounts          []volumeDiscountRequest `json:"volume_discounts,omitempty" validate:"dive"`
}

// CreateSupplierProduct adds a product to the caller's catalog.
func CreateSupplierProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		chemistry, err := enums.ParseBatteryChemistry(req.Chemistry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown chemistry"))
			return
		}
		formFactor, err := enums.ParseFormFactor(req.FormFactor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown form factor"))
			return
		}

		input := product.CreateProductInput{
			SKU:                      req.SKU,
			Title:                    req.Title,
			Description:              req.Description,
			Chemistry:                chemistry,
			Voltage:                  req.Voltage,
			CapacityMAH:              req.CapacityMAH,
			FormFactor:               formFactor,
			Certifications:           req.Certifications,
			PriceCents:               req.PriceCents,
			CompareAtPriceCents:      req.CompareAtPriceCents,
			MOQ:                      req.MOQ,
			MaxQty:                   req.MaxQty,
			IsActive:                 req.IsActive,
			IsFeatured:               req.IsFeatured,
			SupportsEngraving:        req.SupportsEngraving,
			EngravingSetupFeeCents:   req.EngravingSetupFeeCents,
			EngravingPerCharFeeCents: req.EngravingPerCharFeeCents,
			EngravingMaxChars:        req.EngravingMaxChars,
			Inventory: product.InventoryInput{
				AvailableQty: req.Inventory.AvailableQty,
				ReservedQty:  req.Inventory.ReservedQty,
			},
			VolumeDiscounts: buildVolumeDiscounts(req.VolumeDiscounts),
		}

		dto, err := svc.CreateProduct(r.Context(), supplierID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type updateProductRequest struct {
	SKU                      *string                  `json:"sku,omitempty" validate:"omitempty,max=64"`
	Title                    *string                  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description              *string                  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Chemistry                *string                  `json:"chemistry,omitempty"`
	Voltage                  *string                  `json:"voltage,omitempty"`
	CapacityMAH              *int                     `json:"capacity_mah,omitempty" validate:"omitempty,min=1"`
	FormFactor               *string                  `json:"form_factor,omitempty"`
	Certifications           *[]string                `json:"certifications,omitempty"`
	PriceCents               *int                     `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	CompareAtPriceCents      *int                     `json:"compare_at_price_cents,omitempty" validate:"omitempty,min=1"`
	MOQ                      *int                     `json:"moq,omitempty" validate:"omitempty,min=0"`
	MaxQty                   *int                     `json:"max_qty,omitempty" validate:"omitempty,min=0"`
	IsActive                 *bool                    `json:"is_active,omitempty"`
	IsFeatured               *bool                    `json:"is_featured,omitempty"`
	SupportsEngraving        *bool                    `json:"supports_engraving,omitempty"`
	EngravingSetupFeeCents   *int                     `json:"engraving_setup_fee_cents,omitempty" validate:"omitempty,min=0"`
	EngravingPerCharFeeCents *int                     `json:"engraving_per_char_fee_cents,omitempty" validate:"omitempty,min=0"`
	EngravingMaxChars        *int                     `json:"engraving_max_chars,omitempty" validate:"omitempty,min=0"`
	Inventory                *inventoryRequest        `json:"inventory,omitempty"`
	VolumeDiscounts          *[]volumeDiscountRequest `json:"volume_discounts,omitempty" validate:"omitempty,dive"`
}

// UpdateSupplierProduct patches one of the caller's products.
func UpdateSupplierProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := product.UpdateProductInput{
			SKU:                      req.SKU,
			Title:                    req.Title,
			Description:              req.Description,
			Voltage:                  req.Voltage,
			CapacityMAH:              req.CapacityMAH,
			Certifications:           req.Certifications,
			PriceCents:               req.PriceCents,
			CompareAtPriceCents:      req.CompareAtPriceCents,
			MOQ:                      req.MOQ,
			MaxQty:                   req.MaxQty,
			IsActive:                 req.IsActive,
			IsFeatured:               req.IsFeatured,
			SupportsEngraving:        req.SupportsEngraving,
			EngravingSetupFeeCents:   req.EngravingSetupFeeCents,
			EngravingPerCharFeeCents: req.EngravingPerCharFeeCents,
			EngravingMaxChars:        req.EngravingMaxChars,
		}
		if req.Chemistry != nil {
			chemistry, err := enums.ParseBatteryChemistry(*req.Chemistry)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown chemistry"))
				return
			}
			input.Chemistry = &chemistry
		}
		if req.FormFactor != nil {
			formFactor, err := enums.ParseFormFactor(*req.FormFactor)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown form factor"))
				return
			}
			input.FormFactor = &formFactor
		}
		if req.Inventory != nil {
			input.Inventory = &product.InventoryInput{
				AvailableQty: req.Inventory.AvailableQty,
				ReservedQty:  req.Inventory.ReservedQty,
			}
		}
		if req.VolumeDiscounts != nil {
			tiers := buildVolumeDiscounts(*req.VolumeDiscounts)
			input.VolumeDiscounts = &tiers
		}

		dto, err := svc.UpdateProduct(r.Context(), supplierID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DeleteSupplierProduct soft-deletes one of the caller's products.
func DeleteSupplierProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), supplierID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListSupplierQuotes returns the caller's inbound quotes, optionally filtered
// by status.
func ListSupplierQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.QuoteStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseQuoteStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown quote status"))
				return
			}
			status = &parsed
		}

		rows, err := svc.ListSupplierQuotes(r.Context(), supplierID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteDTOs(rows))
	}
}

type issueQuoteLineRequest struct {
	LineItemID           string `json:"line_item_id" validate:"required,uuid4"`
	QuotedUnitPriceCents int    `json:"quoted_unit_price_cents" validate:"required,min=1"`
}

type issueQuoteRequest struct {
	Lines      []issueQuoteLineRequest `json:"lines" validate:"required,min=1,dive"`
	ValidUntil time.Time               `json:"valid_until" validate:"required"`
	Notes      *string                 `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// IssueQuote prices every line of a pending quote and starts its validity
// window.
func IssueQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req issueQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := quotes.IssueQuoteInput{
			ValidUntil: req.ValidUntil,
			Notes:      req.Notes,
			Lines:      make([]quotes.IssueQuoteLine, 0, len(req.Lines)),
		}
		for _, line := range req.Lines {
			lineID, err := uuid.Parse(line.LineItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid line item id").
					WithDetails(map[string]any{"field": "line_item_id"}))
				return
			}
			input.Lines = append(input.Lines, quotes.IssueQuoteLine{
				LineItemID:           lineID,
				QuotedUnitPriceCents: line.QuotedUnitPriceCents,
			})
		}

		quote, err := svc.IssueQuote(r.Context(), supplierID, quoteID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteDTO(quote))
	}
}

type declineQuoteRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// DeclineQuote rejects a pending quote with a reason for the buyer.
func DeclineQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req declineQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.DeclineQuote(r.Context(), supplierID, quoteID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteDTO(quote))
	}
}

// ListSupplierOrders returns paid or fulfilled orders containing the caller's
// products.
func ListSupplierOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListSupplierOrders(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderDTOs(rows))
	}
}

// FulfillOrder marks a paid order as fulfilled.
func FulfillOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.FulfillOrder(r.Context(), supplierID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderDTO(order))
	}
}

// SupplierAnalytics runs the supplier KPI queries for a date range. The range
// defaults to the trailing 30 days.
func SupplierAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := currentSupplierID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := analyticstypes.SupplierQueryRequest{SupplierID: supplierID}
		if req.Start, req.End, err = parseAnalyticsRange(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Query(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseAnalyticsRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if raw := strings.TrimSpace(q.Get("start")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "start must be YYYY-MM-DD")
		}
		start = parsed
	}
	if raw := strings.TrimSpace(q.Get("end")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be YYYY-MM-DD")
		}
		end = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start")
	}
	return start, end, nil
}

func buildVolumeDiscounts(tiers []volumeDiscountRequest) []product.VolumeDiscountInput {
	out := make([]product.VolumeDiscountInput, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, product.VolumeDiscountInput{
			MinQty:         tier.MinQty,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}
	return out
}
