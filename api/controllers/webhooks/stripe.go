package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/voltline/voltline-backend/pkg/logger"
)

// Stripe caps event payloads well below this; anything larger is hostile.
const maxWebhookBody = 1 << 20

// StripeWebhookService consumes verified Stripe events.
type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeClient interface {
	SigningSecret() string
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// StripeWebhook verifies the event signature, dedupes by event id, and hands
// the event to the service. Handler failures release the dedupe key so Stripe
// retries land on a clean slate.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard stripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			logg.Error(ctx, "stripe webhook: read body", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), client.SigningSecret())
		if err != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"error": err.Error()}), "stripe webhook: signature verification failed")
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}

		ctx = logg.WithFields(ctx, map[string]any{
			"event_id":   event.ID,
			"event_type": string(event.Type),
		})

		duplicate, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			logg.Error(ctx, "stripe webhook: idempotency check", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if duplicate {
			logg.Info(ctx, "stripe webhook: duplicate event skipped")
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if delErr := guard.Delete(ctx, event.ID); delErr != nil {
				logg.Error(ctx, "stripe webhook: release idempotency key", delErr)
			}
			logg.Error(ctx, "stripe webhook: handle event", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
