package enums

import "fmt"

// AnalyticsEventType is the canonical event_type for storefront analytics routing.
type AnalyticsEventType string

const (
	AnalyticsEventProductViewed       AnalyticsEventType = "product_viewed"
	AnalyticsEventCartViewed          AnalyticsEventType = "cart_viewed"
	AnalyticsEventCheckoutStarted     AnalyticsEventType = "checkout_started"
	AnalyticsEventEngravingPreviewed  AnalyticsEventType = "engraving_previewed"
	AnalyticsEventOrderCreated        AnalyticsEventType = "order_created"
	AnalyticsEventOrderPaid           AnalyticsEventType = "order_paid"
	AnalyticsEventOrderCanceled       AnalyticsEventType = "order_canceled"
	AnalyticsEventCartAbandonmentSent AnalyticsEventType = "cart_abandonment_nudge"
	AnalyticsEventQuoteExpired        AnalyticsEventType = "quote_expired"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventProductViewed,
	AnalyticsEventCartViewed,
	AnalyticsEventCheckoutStarted,
	AnalyticsEventEngravingPreviewed,
	AnalyticsEventOrderCreated,
	AnalyticsEventOrderPaid,
	AnalyticsEventOrderCanceled,
	AnalyticsEventCartAbandonmentSent,
	AnalyticsEventQuoteExpired,
}

// IsValid reports whether the value matches the canonical analytics event_type enum.
func (a AnalyticsEventType) IsValid() bool {
	for _, candidate := range validAnalyticsEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventType converts the raw string to AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	for _, candidate := range validAnalyticsEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event type %q", value)
}
