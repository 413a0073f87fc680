package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltline/voltline-backend/pkg/types"
)

// CartItem persists product-level snapshots tied to a Cart. The engraving
// fingerprint keeps two lines of the same product with different engravings
// distinct while blocking exact duplicates.
type CartItem struct {
	ID                    uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID                uuid.UUID                    `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_product_engraving"`
	ProductID             uuid.UUID                    `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_product_engraving"`
	SupplierID            uuid.UUID                    `gorm:"column:supplier_id;type:uuid;not null"`
	Quantity              int                          `gorm:"column:quantity;not null"`
	UnitPriceCents        int                          `gorm:"column:unit_price_cents;not null"`
	AppliedVolumeDiscount *types.AppliedVolumeDiscount `gorm:"column:applied_volume_discount;type:jsonb;serializer:json"`
	Engraving             *types.EngravingSpec         `gorm:"column:engraving;type:jsonb;serializer:json"`
	EngravingFingerprint  string                       `gorm:"column:engraving_fingerprint;not null;default:'';uniqueIndex:ux_cart_items_product_engraving"`
	EngravingFeeCents     int                          `gorm:"column:engraving_fee_cents;not null;default:0"`
	LineSubtotalCents     int                          `gorm:"column:line_subtotal_cents;not null"`
	CreatedAt             time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}
