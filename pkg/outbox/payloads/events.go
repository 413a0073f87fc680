package payloads

import (
	"time"

	"github.com/google/uuid"
)

// CartAbandonmentNudgeEvent fires once when an active cart has idled past the
// nudge threshold.
type CartAbandonmentNudgeEvent struct {
	CartID     uuid.UUID `json:"cart_id"`
	UserID     uuid.UUID `json:"user_id"`
	ItemCount  int       `json:"item_count"`
	TotalCents int       `json:"total_cents"`
	IdleSince  time.Time `json:"idle_since"`
}

// CartExpiredEvent reports a cart that idled past the expiry window and was
// marked abandoned.
type CartExpiredEvent struct {
	CartID    uuid.UUID  `json:"cart_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	ExpiredAt time.Time  `json:"expired_at"`
}

// CartConvertedEvent marks a cart that became an order at checkout.
type CartConvertedEvent struct {
	CartID      uuid.UUID `json:"cart_id"`
	UserID      uuid.UUID `json:"user_id"`
	OrderID     uuid.UUID `json:"order_id"`
	TotalCents  int       `json:"total_cents"`
	ConvertedAt time.Time `json:"converted_at"`
}

// BrowseNudgeEvent fires when a buyer viewed a product but went quiet.
type BrowseNudgeEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	ProductID    uuid.UUID `json:"product_id"`
	LastViewedAt time.Time `json:"last_viewed_at"`
}

// QuoteIssuedEvent is emitted when a supplier prices and issues a quote.
type QuoteIssuedEvent struct {
	QuoteID    uuid.UUID `json:"quote_id"`
	UserID     uuid.UUID `json:"user_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	TotalCents int       `json:"total_cents"`
	ValidUntil time.Time `json:"valid_until"`
}

// QuoteAcceptedEvent is emitted when the buyer accepts an issued quote.
type QuoteAcceptedEvent struct {
	QuoteID    uuid.UUID `json:"quote_id"`
	UserID     uuid.UUID `json:"user_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// QuoteDeclinedEvent is emitted when a supplier declines a quote request.
type QuoteDeclinedEvent struct {
	QuoteID    uuid.UUID `json:"quote_id"`
	UserID     uuid.UUID `json:"user_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	DeclinedAt time.Time `json:"declined_at"`
	Reason     string    `json:"reason,omitempty"`
}

// QuoteExpiringSoonEvent warns the buyer before valid_until passes.
type QuoteExpiringSoonEvent struct {
	QuoteID        uuid.UUID `json:"quote_id"`
	UserID         uuid.UUID `json:"user_id"`
	SupplierID     uuid.UUID `json:"supplier_id"`
	ValidUntil     time.Time `json:"valid_until"`
	HoursRemaining int       `json:"hours_remaining"`
}

// QuoteExpiredEvent reports a quote that lapsed unaccepted.
type QuoteExpiredEvent struct {
	QuoteID    uuid.UUID `json:"quote_id"`
	UserID     uuid.UUID `json:"user_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	ExpiredAt  time.Time `json:"expired_at"`
}

// OrderCreatedEvent signals a new order awaiting payment. Line items are
// embedded so analytics can attribute revenue per supplier.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID          `json:"order_id"`
	UserID     uuid.UUID          `json:"user_id"`
	CartID     uuid.UUID          `json:"cart_id"`
	TotalCents int                `json:"total_cents"`
	Items      []OrderCreatedItem `json:"items,omitempty"`
}

// OrderCreatedItem is the per-line snapshot carried on OrderCreatedEvent.
type OrderCreatedItem struct {
	ProductID         *uuid.UUID `json:"product_id,omitempty"`
	SupplierID        uuid.UUID  `json:"supplier_id"`
	Title             string     `json:"title"`
	Quantity          int        `json:"quantity"`
	UnitPriceCents    int        `json:"unit_price_cents"`
	EngravingFeeCents int        `json:"engraving_fee_cents"`
	LineSubtotalCents int        `json:"line_subtotal_cents"`
}

// OrderPaidEvent is emitted when the Stripe webhook settles payment.
type OrderPaidEvent struct {
	OrderID               uuid.UUID `json:"order_id"`
	UserID                uuid.UUID `json:"user_id"`
	AmountCents           int       `json:"amount_cents"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id,omitempty"`
	PaidAt                time.Time `json:"paid_at"`
}

// OrderFulfilledEvent is emitted when a supplier marks the order fulfilled.
type OrderFulfilledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}

// OrderCanceledEvent is emitted when a pending order is abandoned or voided.
type OrderCanceledEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	CanceledAt time.Time `json:"canceled_at"`
	Reason     string    `json:"reason,omitempty"`
}

// PaymentFailedEvent reports a failed Stripe payment attempt.
type PaymentFailedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	UserID          uuid.UUID `json:"user_id"`
	StripeSessionID string    `json:"stripe_session_id,omitempty"`
	FailedAt        time.Time `json:"failed_at"`
	Reason          string    `json:"reason,omitempty"`
}

// ProductViewedEvent is a storefront behavioral event recorded per detail view.
type ProductViewedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// CartViewedEvent is a storefront behavioral event for cart page views.
type CartViewedEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	CartID   uuid.UUID `json:"cart_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// CheckoutStartedEvent fires when the buyer begins checkout.
type CheckoutStartedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	CartID     uuid.UUID `json:"cart_id"`
	TotalCents int       `json:"total_cents"`
	StartedAt  time.Time `json:"started_at"`
}

// EngravingPreviewedEvent records a nameplate preview request.
type EngravingPreviewedEvent struct {
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	ProductID   uuid.UUID  `json:"product_id"`
	TextLength  int        `json:"text_length"`
	FeeCents    int        `json:"fee_cents"`
	PreviewedAt time.Time  `json:"previewed_at"`
}
