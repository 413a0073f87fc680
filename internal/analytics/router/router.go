package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	outboxpayloads "github.com/voltline/voltline-backend/pkg/outbox/payloads"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	Insert(ctx context.Context, row types.StorefrontEventRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope types.Envelope, payload any) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope, payload)
}

type handlerEntry struct {
	factory func() any
	handler Handler
}

// Router dispatches analytics envelopes to the configured handler per event type.
type Router struct {
	handlers map[enums.AnalyticsEventType]handlerEntry
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.AnalyticsEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	entries := map[enums.AnalyticsEventType]handlerEntry{
		enums.AnalyticsEventProductViewed: {
			factory: func() any { return &outboxpayloads.ProductViewedEvent{} },
			handler: newProductViewedHandler(writer),
		},
		enums.AnalyticsEventCartViewed: {
			factory: func() any { return &outboxpayloads.CartViewedEvent{} },
			handler: newCartViewedHandler(writer),
		},
		enums.AnalyticsEventCheckoutStarted: {
			factory: func() any { return &outboxpayloads.CheckoutStartedEvent{} },
			handler: newCheckoutStartedHandler(writer),
		},
		enums.AnalyticsEventEngravingPreviewed: {
			factory: func() any { return &outboxpayloads.EngravingPreviewedEvent{} },
			handler: newEngravingPreviewedHandler(writer),
		},
		enums.AnalyticsEventOrderCreated: {
			factory: func() any { return &outboxpayloads.OrderCreatedEvent{} },
			handler: newOrderCreatedHandler(writer),
		},
		enums.AnalyticsEventOrderPaid: {
			factory: func() any { return &outboxpayloads.OrderPaidEvent{} },
			handler: newOrderPaidHandler(writer),
		},
		enums.AnalyticsEventOrderCanceled: {
			factory: func() any { return &outboxpayloads.OrderCanceledEvent{} },
			handler: newOrderCanceledHandler(writer),
		},
		enums.AnalyticsEventCartAbandonmentSent: {
			factory: func() any { return &outboxpayloads.CartAbandonmentNudgeEvent{} },
			handler: newCartNudgeHandler(writer),
		},
		enums.AnalyticsEventQuoteExpired: {
			factory: func() any { return &outboxpayloads.QuoteExpiredEvent{} },
			handler: newQuoteExpiredHandler(writer),
		},
	}

	for event, custom := range overrides {
		entry, ok := entries[event]
		if !ok || custom == nil {
			continue
		}
		entry.handler = custom
		entries[event] = entry
	}

	return &Router{
		handlers: entries,
		logg:     logg,
	}, nil
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	payload := entry.factory()
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	return entry.handler.Handle(ctx, envelope, payload)
}
