package types

import (
	"time"

	"github.com/google/uuid"
)

// SupplierQueryRequest carries the input parameters for supplier KPI queries.
type SupplierQueryRequest struct {
	SupplierID uuid.UUID
	Start      time.Time
	End        time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as a product.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SupplierQueryResponse wraps the supplier KPIs for the portal dashboard.
type SupplierQueryResponse struct {
	OrdersSeries     []TimeSeriesPoint `json:"orders"`
	GrossRevenue     []TimeSeriesPoint `json:"gross_revenue"`
	EngravingRevenue []TimeSeriesPoint `json:"engraving_revenue"`
	TopProducts      []LabelValue      `json:"top_products"`
	AOV              float64           `json:"aov"`
}
