package router

import (
	"context"
	"fmt"

	"github.com/voltline/voltline-backend/internal/analytics/types"
	outboxpayloads "github.com/voltline/voltline-backend/pkg/outbox/payloads"
)

type productViewedHandler struct {
	writer Writer
}

func newProductViewedHandler(writer Writer) Handler {
	return &productViewedHandler{writer: writer}
}

func (h *productViewedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.ProductViewedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	row.UserID = uuidPtr(event.UserID)
	row.ProductID = uuidPtr(event.ProductID)
	return h.writer.Insert(ctx, row)
}

type cartViewedHandler struct {
	writer Writer
}

func newCartViewedHandler(writer Writer) Handler {
	return &cartViewedHandler{writer: writer}
}

func (h *cartViewedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.CartViewedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	row.UserID = uuidPtr(event.UserID)
	row.CartID = uuidPtr(event.CartID)
	return h.writer.Insert(ctx, row)
}

type checkoutStartedHandler struct {
	writer Writer
}

func newCheckoutStartedHandler(writer Writer) Handler {
	return &checkoutStartedHandler{writer: writer}
}

func (h *checkoutStartedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.CheckoutStartedEvent)
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

type engravingPreviewedHandler struct {
	writer Writer
}

func newEngravingPreviewedHandler(writer Writer) Handler {
	return &engravingPreviewedHandler{writer: writer}
}

func (h *engravingPreviewedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.EngravingPreviewedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", payload, envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return err
	}
	row.UserID = optionalUUIDPtr(event.UserID)
	row.ProductID = uuidPtr(event.ProductID)
	row.EngravingCents = int64Ptr(int64(event.FeeCents))
	return h.writer.Insert(ctx, row)
}
