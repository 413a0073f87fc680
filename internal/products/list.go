package product

import (
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the storefront listing.
type ProductListFilters struct {
	Chemistry         *enums.BatteryChemistry `json:"chemistry,omitempty"`
	FormFactor        *enums.FormFactor       `json:"form_factor,omitempty"`
	SupplierSlug      *string                 `json:"supplier,omitempty"`
	VoltageMin        *string                 `json:"voltage_min,omitempty"`
	VoltageMax        *string                 `json:"voltage_max,omitempty"`
	CapacityMinMAH    *int                    `json:"capacity_min_mah,omitempty"`
	CapacityMaxMAH    *int                    `json:"capacity_max_mah,omitempty"`
	PriceMinCents     *int                    `json:"price_min_cents,omitempty"`
	PriceMaxCents     *int                    `json:"price_max_cents,omitempty"`
	SupportsEngraving *bool                   `json:"supports_engraving,omitempty"`
	InStock           *bool                   `json:"in_stock,omitempty"`
	HasVolumePricing  *bool                   `json:"has_volume_pricing,omitempty"`
	Query             string                  `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter the storefront.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}
