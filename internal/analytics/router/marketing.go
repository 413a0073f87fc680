package router

import (
	"context"
	"fmt"

	"github.com/voltline/voltline-backend/internal/analytics/types"
	outboxpayloads "github.com/voltline/voltline-backend/pkg/outbox/payloads"
)

type cartNudgeHandler struct {
	writer Writer
}

func newCartNudgeHandler(writer Writer) Handler {
	return &cartNudgeHandler{writer: writer}
}

func (h *cartNudgeHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.CartAbandonmentNudgeEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	row.UserID = uuidPtr(event.UserID)
	row.CartID = uuidPtr(event.CartID)
	row.TotalCents = int64Ptr(int64(event.TotalCents))
	return h.writer.Insert(ctx, row)
}

type quoteExpiredHandler struct {
	writer Writer
}

func newQuoteExpiredHandler(writer Writer) Handler {
	return &quoteExpiredHandler{writer: writer}
}

func (h *quoteExpiredHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.QuoteExpiredEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	row.QuoteID = uuidPtr(event.QuoteID)
	row.UserID = uuidPtr(event.UserID)
	row.SupplierID = uuidPtr(event.SupplierID)
	return h.writer.Insert(ctx, row)
}
