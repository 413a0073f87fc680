package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltline/voltline-backend/pkg/types"
)

// OrderLineItem captures the product and engraving snapshot of each item at
// the moment the order was placed.
type OrderLineItem struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	ProductID         *uuid.UUID           `gorm:"column:product_id;type:uuid"`
	SupplierID        uuid.UUID            `gorm:"column:supplier_id;type:uuid;not null"`
	SKU               string               `gorm:"column:sku;not null"`
	Title             string               `gorm:"column:title;not null"`
	Quantity          int                  `gorm:"column:quantity;not null"`
	UnitPriceCents    int                  `gorm:"column:unit_price_cents;not null"`
	Engraving         *types.EngravingSpec `gorm:"column:engraving;type:jsonb;serializer:json"`
	EngravingFeeCents int                  `gorm:"column:engraving_fee_cents;not null;default:0"`
	LineSubtotalCents int                  `gorm:"column:line_subtotal_cents;not null"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
