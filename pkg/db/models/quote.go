package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltline/voltline-backend/pkg/enums"
)

// Quote represents a buyer-requested, supplier-priced quote.
type Quote struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	SupplierID       uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null"`
	Status           enums.QuoteStatus `gorm:"column:status;type:quote_status;not null;default:'draft'"`
	Currency         enums.Currency    `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents    int               `gorm:"column:subtotal_cents;not null;default:0"`
	TotalCents       int               `gorm:"column:total_cents;not null;default:0"`
	ValidUntil       *time.Time        `gorm:"column:valid_until"`
	IssuedAt         *time.Time        `gorm:"column:issued_at"`
	ExpiryNotifiedAt *time.Time        `gorm:"column:expiry_notified_at"`
	Notes            *string           `gorm:"column:notes"`
	Items            []QuoteLineItem   `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
