package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCart         OutboxAggregateType = "cart"
	AggregateQuote        OutboxAggregateType = "quote"
	AggregateOrder        OutboxAggregateType = "order"
	AggregateUser         OutboxAggregateType = "user"
	AggregateProduct      OutboxAggregateType = "product"
	AggregateSupplier     OutboxAggregateType = "supplier"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCart,
	AggregateQuote,
	AggregateOrder,
	AggregateUser,
	AggregateProduct,
	AggregateSupplier,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventCartAbandonmentNudge OutboxEventType = "cart_abandonment_nudge"
	EventCartExpired          OutboxEventType = "cart_expired"
	EventCartConverted        OutboxEventType = "cart_converted"
	EventBrowseNudge          OutboxEventType = "browse_abandonment_nudge"
	EventQuoteIssued          OutboxEventType = "quote_issued"
	EventQuoteAccepted        OutboxEventType = "quote_accepted"
	EventQuoteDeclined        OutboxEventType = "quote_declined"
	EventQuoteExpiringSoon    OutboxEventType = "quote_expiring_soon"
	EventQuoteExpired         OutboxEventType = "quote_expired"
	EventOrderCreated         OutboxEventType = "order_created"
	EventOrderPaid            OutboxEventType = "order_paid"
	EventOrderFulfilled       OutboxEventType = "order_fulfilled"
	EventOrderCanceled        OutboxEventType = "order_canceled"
	EventPaymentFailed        OutboxEventType = "payment_failed"
	EventProductViewed        OutboxEventType = "product_viewed"
	EventCartViewed           OutboxEventType = "cart_viewed"
	EventCheckoutStarted      OutboxEventType = "checkout_started"
	EventEngravingPreviewed   OutboxEventType = "engraving_previewed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCartAbandonmentNudge,
	EventCartExpired,
	EventCartConverted,
	EventBrowseNudge,
	EventQuoteIssued,
	EventQuoteAccepted,
	EventQuoteDeclined,
	EventQuoteExpiringSoon,
	EventQuoteExpired,
	EventOrderCreated,
	EventOrderPaid,
	EventOrderFulfilled,
	EventOrderCanceled,
	EventPaymentFailed,
	EventProductViewed,
	EventCartViewed,
	EventCheckoutStarted,
	EventEngravingPreviewed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
