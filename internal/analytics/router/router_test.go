package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	outboxpayloads "github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func newTestRouter(t *testing.T, writer Writer) *Router {
	t.Helper()
	r, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "test"}), nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func mustEnvelope(t *testing.T, eventType enums.AnalyticsEventType, aggregate enums.OutboxAggregateType, payload any) types.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.NewString(),
		OccurredAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Payload:       data,
	}
}

func TestRouterRejectsUnknownEvent(t *testing.T) {
	r := newTestRouter(t, &fakeWriter{})
	env := types.Envelope{EventType: "something_else", Payload: json.RawMessage(`{}`)}

	err := r.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported event error, got %v", err)
	}
}

func TestRouterRejectsEmptyPayload(t *testing.T) {
	r := newTestRouter(t, &fakeWriter{})
	env := types.Envelope{EventType: enums.AnalyticsEventProductViewed}

	if err := r.Handle(context.Background(), env); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestRouterWritesProductViewedRow(t *testing.T) {
	writer := &fakeWriter{}
	r := newTestRouter(t, writer)

	userID := uuid.New()
	productID := uuid.New()
	env := mustEnvelope(t, enums.AnalyticsEventProductViewed, enums.AggregateProduct, outboxpayloads.ProductViewedEvent{
		UserID:    userID,
		ProductID: productID,
		ViewedAt:  time.Now().UTC(),
	})

	if err := r.Handle(context.Background(), env); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(writer.inserted) != 1 {
		t.Fatalf("expected 1 row, got %d", len(writer.inserted))
	}
	row := writer.inserted[0]
	if row.EventType != "product_viewed" {
		t.Fatalf("unexpected event type %s", row.EventType)
	}
	if row.UserID == nil || *row.UserID != userID.String() {
		t.Fatalf("unexpected user id %v", row.UserID)
	}
	if row.ProductID == nil || *row.ProductID != productID.String() {
		t.Fatalf("unexpected product id %v", row.ProductID)
	}
	if !row.Payload.Valid {
		t.Fatal("expected raw payload stored")
	}
}

func TestRouterWritesOrderCreatedRowWithItems(t *testing.T) {
	writer := &fakeWriter{}
	r := newTestRouter(t, writer)

	orderID := uuid.New()
	supplierID := uuid.New()
	productID := uuid.New()
	env := mustEnvelope(t, enums.AnalyticsEventOrderCreated, enums.AggregateOrder, outboxpayloads.OrderCreatedEvent{
		OrderID:    orderID,
		UserID:     uuid.New(),
		CartID:     uuid.New(),
		TotalCents: 125000,
		Items: []outboxpayloads.OrderCreatedItem{
			{
				ProductID:         &productID,
				SupplierID:        supplierID,
				Title:             "21700 Cell 5000mAh",
				Quantity:          100,
				UnitPriceCents:    1250,
				LineSubtotalCents: 125000,
			},
		},
	})

	if err := r.Handle(context.Background(), env); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	row := writer.inserted[0]
	if row.OrderID == nil || *row.OrderID != orderID.String() {
		t.Fatalf("unexpected order id %v", row.OrderID)
	}
	if row.TotalCents == nil || *row.TotalCents != 125000 {
		t.Fatalf("unexpected total %v", row.TotalCents)
	}
	if !row.Items.Valid {
		t.Fatal("expected items json on order_created row")
	}
}

func TestRouterUsesPaidAtForOrderPaidRows(t *testing.T) {
	writer := &fakeWriter{}
	r := newTestRouter(t, writer)

	paidAt := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	env := mustEnvelope(t, enums.AnalyticsEventOrderPaid, enums.AggregateOrder, outboxpayloads.OrderPaidEvent{
		OrderID:     uuid.New(),
		UserID:      uuid.New(),
		AmountCents: 99000,
		PaidAt:      paidAt,
	})

	if err := r.Handle(context.Background(), env); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	row := writer.inserted[0]
	if !row.OccurredAt.Equal(paidAt) {
		t.Fatalf("expected paid_at as occurred_at, got %v", row.OccurredAt)
	}
	if row.TotalCents == nil || *row.TotalCents != 99000 {
		t.Fatalf("unexpected amount %v", row.TotalCents)
	}
}

func TestRouterWritesQuoteExpiredRow(t *testing.T) {
	writer := &fakeWriter{}
	r := newTestRouter(t, writer)

	quoteID := uuid.New()
	supplierID := uuid.New()
	env := mustEnvelope(t, enums.AnalyticsEventQuoteExpired, enums.AggregateQuote, outboxpayloads.QuoteExpiredEvent{
		QuoteID:    quoteID,
		UserID:     uuid.New(),
		SupplierID: supplierID,
		ExpiredAt:  time.Now().UTC(),
	})

	if err := r.Handle(context.Background(), env); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	row := writer.inserted[0]
	if row.QuoteID == nil || *row.QuoteID != quoteID.String() {
		t.Fatalf("unexpected quote id %v", row.QuoteID)
	}
	if row.SupplierID == nil || *row.SupplierID != supplierID.String() {
		t.Fatalf("unexpected supplier id %v", row.SupplierID)
	}
}

func TestRouterOverrideReplacesHandler(t *testing.T) {
	writer := &fakeWriter{}
	called := false
	override := HandlerFunc(func(context.Context, types.Envelope, any) error {
		called = true
		return nil
	})
	r, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "test"}), map[enums.AnalyticsEventType]Handler{
		enums.AnalyticsEventCartViewed: override,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	env := mustEnvelope(t, enums.AnalyticsEventCartViewed, enums.AggregateCart, outboxpayloads.CartViewedEvent{
		UserID:   uuid.New(),
		CartID:   uuid.New(),
		ViewedAt: time.Now().UTC(),
	})
	if err := r.Handle(context.Background(), env); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !called {
		t.Fatal("override handler should be invoked")
	}
	if len(writer.inserted) != 0 {
		t.Fatal("default handler should not run")
	}
}
