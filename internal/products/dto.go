package product

import (
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ProductDTO represents the supplier product payload returned to clients.
type ProductDTO struct {
	ID                       uuid.UUID           `json:"id"`
	SKU                      string              `json:"sku"`
	Title                    string              `json:"title"`
	Description              *string             `json:"description,omitempty"`
	Chemistry                string              `json:"chemistry"`
	Voltage                  string              `json:"voltage"`
	CapacityMAH              int                 `json:"capacity_mah"`
	FormFactor               string              `json:"form_factor"`
	Certifications           []string            `json:"certifications"`
	PriceCents               int                 `json:"price_cents"`
	CompareAtPriceCents      *int                `json:"compare_at_price_cents,omitempty"`
	MOQ                      int                 `json:"moq"`
	MaxQty                   int                 `json:"max_qty"`
	IsActive                 bool                `json:"is_active"`
	IsFeatured               bool                `json:"is_featured"`
	SupportsEngraving        bool                `json:"supports_engraving"`
	EngravingSetupFeeCents   int                 `json:"engraving_setup_fee_cents"`
	EngravingPerCharFeeCents int                 `json:"engraving_per_char_fee_cents"`
	EngravingMaxChars        int                 `json:"engraving_max_chars"`
	Inventory                *InventoryDTO       `json:"inventory,omitempty"`
	VolumeDiscounts          []VolumeDiscountDTO `json:"volume_discounts,omitempty"`
	Supplier                 SupplierSummaryDTO  `json:"supplier"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
}

// InventoryDTO exposes inventory counts.
type InventoryDTO struct {
	AvailableQty int       `json:"available_qty"`
	ReservedQty  int       `json:"reserved_qty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VolumeDiscountDTO represents a tiered unit price.
type VolumeDiscountDTO struct {
	ID             uuid.UUID `json:"id"`
	MinQty         int       `json:"min_qty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

// SupplierSummaryDTO surfaces limited supplier data for product responses.
type SupplierSummaryDTO struct {
	SupplierID uuid.UUID `json:"supplier_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
}

// ProductSummary is the storefront listing row.
type ProductSummary struct {
	ID                  uuid.UUID `json:"id"`
	SKU                 string    `json:"sku"`
	Title               string    `json:"title"`
	Chemistry           string    `json:"chemistry"`
	Voltage             string    `json:"voltage"`
	CapacityMAH         int       `json:"capacity_mah"`
	FormFactor          string    `json:"form_factor"`
	PriceCents          int       `json:"price_cents"`
	CompareAtPriceCents *int      `json:"compare_at_price_cents,omitempty"`
	MOQ                 int       `json:"moq"`
	MaxQty              int       `json:"max_qty"`
	SupportsEngraving   bool      `json:"supports_engraving"`
	IsFeatured          bool      `json:"is_featured"`
	HasVolumePricing    bool      `json:"has_volume_pricing"`
	InStock             bool      `json:"in_stock"`
	SupplierID          uuid.UUID `json:"supplier_id"`
	SupplierName        string    `json:"supplier_name"`
	SupplierSlug        string    `json:"supplier_slug"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ProductListResult bundles a page of summaries with the next cursor.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model and supplier summary.
func NewProductDTO(product *models.Product, summary *SupplierSummary) *ProductDTO {
	dto := &ProductDTO{
		ID:                       product.ID,
		SKU:                      product.SKU,
		Title:                    product.Title,
		Description:              product.Description,
		Chemistry:                string(product.Chemistry),
		Voltage:                  product.Voltage,
		CapacityMAH:              product.CapacityMAH,
		FormFactor:               string(product.FormFactor),
		Certifications:           append([]string{}, product.Certifications...),
		PriceCents:               product.PriceCents,
		CompareAtPriceCents:      product.CompareAtPriceCents,
		MOQ:                      product.MOQ,
		MaxQty:                   product.MaxQty,
		IsActive:                 product.IsActive,
		IsFeatured:               product.IsFeatured,
		SupportsEngraving:        product.SupportsEngraving,
		EngravingSetupFeeCents:   product.EngravingSetupFeeCents,
		EngravingPerCharFeeCents: product.EngravingPerCharFeeCents,
		EngravingMaxChars:        product.EngravingMaxChars,
		CreatedAt:                product.CreatedAt,
		UpdatedAt:                product.UpdatedAt,
	}

	if product.Inventory != nil {
		dto.Inventory = &InventoryDTO{
			AvailableQty: product.Inventory.AvailableQty,
			ReservedQty:  product.Inventory.ReservedQty,
			UpdatedAt:    product.Inventory.UpdatedAt,
		}
	}

	if len(product.VolumeDiscounts) > 0 {
		dto.VolumeDiscounts = make([]VolumeDiscountDTO, len(product.VolumeDiscounts))
		for i, tier := range product.VolumeDiscounts {
			dto.VolumeDiscounts[i] = VolumeDiscountDTO{
				ID:             tier.ID,
				MinQty:         tier.MinQty,
				UnitPriceCents: tier.UnitPriceCents,
				CreatedAt:      tier.CreatedAt,
			}
		}
	}

	if summary != nil {
		dto.Supplier = SupplierSummaryDTO{
			SupplierID: summary.SupplierID,
			Name:       summary.Name,
			Slug:       summary.Slug,
		}
	}

	return dto
}
