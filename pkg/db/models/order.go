package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltline/voltline-backend/pkg/enums"
)

// Order is created at checkout and settled by the Stripe webhook.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	CartID                uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	Status                enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending_payment'"`
	Currency              enums.Currency    `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents         int               `gorm:"column:subtotal_cents;not null"`
	DiscountsCents        int               `gorm:"column:discounts_cents;not null;default:0"`
	EngravingCents        int               `gorm:"column:engraving_cents;not null;default:0"`
	TotalCents            int               `gorm:"column:total_cents;not null"`
	StripeSessionID       *string           `gorm:"column:stripe_session_id;uniqueIndex"`
	StripePaymentIntentID *string           `gorm:"column:stripe_payment_intent_id"`
	PaidAt                *time.Time        `gorm:"column:paid_at"`
	FulfilledAt           *time.Time        `gorm:"column:fulfilled_at"`
	CanceledAt            *time.Time        `gorm:"column:canceled_at"`
	Items                 []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
