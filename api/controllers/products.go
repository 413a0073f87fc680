package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/voltline/voltline-backend/api/responses"
	"github.com/voltline/voltline-backend/api/validators"
	"github.com/voltline/voltline-backend/internal/engraving"
	product "github.com/voltline/voltline-backend/internal/products"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/pagination"
	"github.com/voltline/voltline-backend/pkg/types"
	"github.com/google/uuid"
)

const maxListLimit = 100

// ListProducts serves the filterable storefront catalog.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListProductsQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListStorefront(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetProduct serves the buyer-facing product detail page.
func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetStorefrontProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type productDetailLoader interface {
	GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, *product.SupplierSummary, error)
}

type engravingPreviewRecorder interface {
	RecordEngravingPreview(ctx context.Context, userID *uuid.UUID, productID uuid.UUID, charCount, feeCents int) error
}

type engravingPreviewRequest struct {
	Text     string `json:"text" validate:"required"`
	Font     string `json:"font" validate:"required"`
	SizePt   int    `json:"size_pt" validate:"required"`
	Position string `json:"position" validate:"required"`
	Finish   string `json:"finish" validate:"required"`
}

// EngravingPreview validates a nameplate spec against the product and returns
// the computed layout plus fee.
func EngravingPreview(loader productDetailLoader, recorder engravingPreviewRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req engravingPreviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		spec, err := buildEngravingSpec(req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prod, _, err := loader.GetProductDetail(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found"))
			return
		}
		if !prod.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		layout, err := engraving.Preview(*spec, prod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Best effort; the preview itself never fails on analytics.
		if recorder != nil {
			var userID *uuid.UUID
			if id, err := currentUserID(r); err == nil {
				userID = &id
			}
			if err := recorder.RecordEngravingPreview(r.Context(), userID, productID, layout.CharCount, layout.FeeCents); err != nil && logg != nil {
				ctx := logg.WithFields(r.Context(), map[string]any{"product_id": productID.String()})
				logg.Warn(ctx, "engraving preview event not recorded")
			}
		}

		responses.WriteSuccess(w, layout)
	}
}

func buildEngravingSpec(req engravingPreviewRequest) (*types.EngravingSpec, error) {
	font, err := enums.ParseEngravingFont(req.Font)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown engraving font")
	}
	position, err := enums.ParseEngravingPosition(req.Position)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown engraving position")
	}
	finish, err := enums.ParseEngravingFinish(req.Finish)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown engraving finish")
	}
	return &types.EngravingSpec{
		Text:     req.Text,
		Font:     font,
		SizePt:   req.SizePt,
		Position: position,
		Finish:   finish,
	}, nil
}

func parseListProductsQuery(r *http.Request) (*product.ListProductsInput, error) {
	q := r.URL.Query()
	input := product.ListProductsInput{}

	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
	if err != nil {
		return nil, err
	}
	input.Pagination = pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(q.Get("cursor")),
	}

	filters := product.ProductListFilters{
		Query: validators.SanitizeString(q.Get("q"), 200),
	}

	if raw := strings.TrimSpace(q.Get("chemistry")); raw != "" {
		chem, err := enums.ParseBatteryChemistry(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown chemistry filter")
		}
		filters.Chemistry = &chem
	}
	if raw := strings.TrimSpace(q.Get("form_factor")); raw != "" {
		ff, err := enums.ParseFormFactor(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown form factor filter")
		}
		filters.FormFactor = &ff
	}
	if raw := strings.TrimSpace(q.Get("supplier")); raw != "" {
		filters.SupplierSlug = &raw
	}
	if raw := strings.TrimSpace(q.Get("voltage_min")); raw != "" {
		filters.VoltageMin = &raw
	}
	if raw := strings.TrimSpace(q.Get("voltage_max")); raw != "" {
		filters.VoltageMax = &raw
	}

	intFilters := map[string]**int{
		"capacity_min_mah": &filters.CapacityMinMAH,
		"capacity_max_mah": &filters.CapacityMaxMAH,
		"price_min_cents":  &filters.PriceMinCents,
		"price_max_cents":  &filters.PriceMaxCents,
	}
	for key, dest := range intFilters {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "filter must be a non-negative integer").
				WithDetails(map[string]any{"field": key})
		}
		*dest = &value
	}

	boolFilters := map[string]**bool{
		"supports_engraving": &filters.SupportsEngraving,
		"in_stock":           &filters.InStock,
		"has_volume_pricing": &filters.HasVolumePricing,
	}
	for key, dest := range boolFilters {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "filter must be a boolean").
				WithDetails(map[string]any{"field": key})
		}
		*dest = &value
	}

	input.Filters = filters
	return &input, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").
			WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
