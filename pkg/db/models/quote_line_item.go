package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteLineItem captures the quantity and supplier-quoted unit price for one
// product on a quote.
type QuoteLineItem struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID              uuid.UUID `gorm:"column:quote_id;type:uuid;not null"`
	ProductID            uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity             int       `gorm:"column:quantity;not null"`
	QuotedUnitPriceCents int       `gorm:"column:quoted_unit_price_cents;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
