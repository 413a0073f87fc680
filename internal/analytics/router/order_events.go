package router

import (
	"context"
	"fmt"

	"github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/internal/analytics/writer"
	outboxpayloads "github.com/voltline/voltline-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
}

func newOrderCreatedHandler(writer Writer) Handler {
	return &orderCreatedHandler{writer: writer}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.UserID = uuidPtr(event.UserID)
	row.CartID = uuidPtr(event.CartID)
	row.TotalCents = int64Ptr(int64(event.TotalCents))
	if len(event.Items) > 0 {
		items, err := writer.EncodeJSON(event.Items)
		if err != nil {
			return fmt.Errorf("encode order items: %w", err)
		}
		row.Items = items
	}
	return h.writer.Insert(ctx, row)
}

type orderPaidHandler struct {
	writer Writer
}

func newOrderPaidHandler(writer Writer) Handler {
	return &orderPaidHandler{writer: writer}
}

func (h *orderPaidHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderPaidEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	// Revenue rows carry the settlement time, not the publish time.
	if !event.PaidAt.IsZero() {
		row.OccurredAt = event.PaidAt.UTC()
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.UserID = uuidPtr(event.UserID)
	row.TotalCents = int64Ptr(int64(event.AmountCents))
	return h.writer.Insert(ctx, row)
}

type orderCanceledHandler struct {
	writer Writer
}

func newOrderCanceledHandler(writer Writer) Handler {
	return &orderCanceledHandler{writer: writer}
}

func (h *orderCanceledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderCanceledEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.UserID = uuidPtr(event.UserID)
	return h.writer.Insert(ctx, row)
}
