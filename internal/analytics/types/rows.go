package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// StorefrontEventRow mirrors the storefront_events BigQuery schema. Every
// analytics event lands in this one table; columns that don't apply to a
// given event type stay NULL.
type StorefrontEventRow struct {
	EventID        string             `bigquery:"event_id"`
	EventType      string             `bigquery:"event_type"`
	OccurredAt     time.Time          `bigquery:"occurred_at"`
	UserID         *string            `bigquery:"user_id"`
	ProductID      *string            `bigquery:"product_id"`
	CartID         *string            `bigquery:"cart_id"`
	OrderID        *string            `bigquery:"order_id"`
	QuoteID        *string            `bigquery:"quote_id"`
	SupplierID     *string            `bigquery:"supplier_id"`
	TotalCents     *int64             `bigquery:"total_cents"`
	EngravingCents *int64             `bigquery:"engraving_cents"`
	Items          cbigquery.NullJSON `bigquery:"items"`
	Payload        cbigquery.NullJSON `bigquery:"payload"`
}
