package notifications

import (
	"encoding/json"
	"fmt"
	"html"

	"github.com/shopspring/decimal"

	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// draft is the composed content for one notification before delivery.
type draft struct {
	UserID  uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Link    *string
}

func formatCents(cents int) string {
	return "$" + decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func linkTo(path string) *string {
	return &path
}

func composeCartNudge(data json.RawMessage) (draft, error) {
	var event payloads.CartAbandonmentNudgeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode cart nudge payload: %w", err)
	}
	noun := "items"
	if event.ItemCount == 1 {
		noun = "item"
	}
	return draft{
		UserID: event.UserID,
		Type:   enums.NotificationTypeCartNudge,
		Title:  "Your cart is waiting",
		Message: fmt.Sprintf("You left %d %s worth %s in your cart. Pick up where you left off before stock moves.",
			event.ItemCount, noun, formatCents(event.TotalCents)),
		Link: linkTo("/cart"),
	}, nil
}

func composeBrowseNudge(data json.RawMessage) (draft, error) {
	var event payloads.BrowseNudgeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode browse nudge payload: %w", err)
	}
	return draft{
		UserID:  event.UserID,
		Type:    enums.NotificationTypeBrowseNudge,
		Title:   "Still comparing batteries?",
		Message: "A product you viewed recently is still available. Come back to check specs and volume pricing.",
		Link:    linkTo("/products/" + event.ProductID.String()),
	}, nil
}

func composeQuoteIssued(data json.RawMessage) (draft, error) {
	var event payloads.QuoteIssuedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode quote issued payload: %w", err)
	}
	return draft{
		UserID: event.UserID,
		Type:   enums.NotificationTypeQuoteIssued,
		Title:  "Your quote is ready",
		Message: fmt.Sprintf("A supplier priced your request at %s. The quote is valid until %s.",
			formatCents(event.TotalCents), event.ValidUntil.Format("Jan 2, 2006")),
		Link: linkTo("/quotes/" + event.QuoteID.String()),
	}, nil
}

func composeQuoteExpiring(data json.RawMessage) (draft, error) {
	var event payloads.QuoteExpiringSoonEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode quote expiring payload: %w", err)
	}
	return draft{
		UserID: event.UserID,
		Type:   enums.NotificationTypeQuoteExpiring,
		Title:  "Quote expiring soon",
		Message: fmt.Sprintf("Your quote expires in about %d hours. Accept it before %s to lock in the price.",
			event.HoursRemaining, event.ValidUntil.Format("Jan 2, 2006 15:04 MST")),
		Link: linkTo("/quotes/" + event.QuoteID.String()),
	}, nil
}

func composeQuoteExpired(data json.RawMessage) (draft, error) {
	var event payloads.QuoteExpiredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode quote expired payload: %w", err)
	}
	return draft{
		UserID:  event.UserID,
		Type:    enums.NotificationTypeQuoteExpired,
		Title:   "Your quote has expired",
		Message: "The validity window on your quote has passed. Request a fresh quote to get current pricing.",
		Link:    linkTo("/quotes/" + event.QuoteID.String()),
	}, nil
}

func composeOrderConfirmed(data json.RawMessage) (draft, error) {
	var event payloads.OrderPaidEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode order paid payload: %w", err)
	}
	return draft{
		UserID: event.UserID,
		Type:   enums.NotificationTypeOrderConfirmed,
		Title:  "Order confirmed",
		Message: fmt.Sprintf("Payment of %s received. Your order is confirmed and will be prepared for shipment.",
			formatCents(event.AmountCents)),
		Link: linkTo("/orders/" + event.OrderID.String()),
	}, nil
}

func composeOrderFulfilled(data json.RawMessage) (draft, error) {
	var event payloads.OrderFulfilledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode order fulfilled payload: %w", err)
	}
	return draft{
		UserID:  event.UserID,
		Type:    enums.NotificationTypeOrderFulfilled,
		Title:   "Order fulfilled",
		Message: "Your order has shipped. Track progress from your order history.",
		Link:    linkTo("/orders/" + event.OrderID.String()),
	}, nil
}

func composePaymentFailed(data json.RawMessage) (draft, error) {
	var event payloads.PaymentFailedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return draft{}, fmt.Errorf("decode payment failed payload: %w", err)
	}
	message := "We could not process payment for your order. Update your payment method and try again."
	if event.Reason != "" {
		message = fmt.Sprintf("We could not process payment for your order (%s). Update your payment method and try again.", event.Reason)
	}
	return draft{
		UserID:  event.UserID,
		Type:    enums.NotificationTypePaymentFailed,
		Title:   "Payment failed",
		Message: message,
		Link:    linkTo("/orders/" + event.OrderID.String()),
	}, nil
}

func renderHTML(d draft) string {
	body := fmt.Sprintf("<p>%s</p>", html.EscapeString(d.Message))
	if d.Link != nil {
		body += fmt.Sprintf(`<p><a href=%q>View details</a></p>`, *d.Link)
	}
	return body
}
