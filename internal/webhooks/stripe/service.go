package stripewebhook

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

// OrderSettler is the slice of the order service the webhook needs.
type OrderSettler interface {
	SettlePaidSession(ctx context.Context, sessionID, paymentIntentID string) error
	ExpireSession(ctx context.Context, sessionID string) error
	FailPayment(ctx context.Context, sessionID, reason string) error
}

type ServiceParams struct {
	Orders OrderSettler
}

// Service routes verified Checkout Session events to order settlement.
type Service struct {
	orders OrderSettler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order settler required")
	}
	return &Service{orders: params.Orders}, nil
}

// HandleEvent processes one Stripe event. Event types outside the Checkout
// Session lifecycle are acknowledged without action so Stripe stops retrying.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.orders.SettlePaidSession(ctx, session.ID, paymentIntentID(session))
	case stripe.EventTypeCheckoutSessionExpired:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.orders.ExpireSession(ctx, session.ID)
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.orders.FailPayment(ctx, session.ID, "async payment failed")
	default:
		return nil
	}
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return &session, nil
}

func paymentIntentID(session *stripe.CheckoutSession) string {
	if session.PaymentIntent == nil {
		return ""
	}
	return session.PaymentIntent.ID
}
