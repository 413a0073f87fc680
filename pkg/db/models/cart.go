package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltline/voltline-backend/pkg/enums"
)

// Cart is the buyer's working cart. A partial unique index enforces at most
// one active cart per user and per anonymous session.
type Cart struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                *uuid.UUID       `gorm:"column:user_id;type:uuid"`
	SessionID             *string          `gorm:"column:session_id"`
	Status                enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Currency              enums.Currency   `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents         int              `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountsCents        int              `gorm:"column:discounts_cents;not null;default:0"`
	EngravingCents        int              `gorm:"column:engraving_cents;not null;default:0"`
	TotalCents            int              `gorm:"column:total_cents;not null;default:0"`
	AbandonmentNotifiedAt *time.Time       `gorm:"column:abandonment_notified_at"`
	ConvertedAt           *time.Time       `gorm:"column:converted_at"`
	Items                 []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
