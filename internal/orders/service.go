package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voltline/voltline-backend/internal/checkout/reservation"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultListLimit = 50

// Service exposes order reads, supplier fulfillment, and the Stripe
// settlement transitions driven by webhook events.
type Service interface {
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)

	ListSupplierOrders(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error)
	FulfillOrder(ctx context.Context, supplierID, orderID uuid.UUID) (*models.Order, error)

	SettlePaidSession(ctx context.Context, sessionID, paymentIntentID string) error
	ExpireSession(ctx context.Context, sessionID string) error
	FailPayment(ctx context.Context, sessionID, reason string) error
}

type releaseFunc func(ctx context.Context, tx *gorm.DB, requests []reservation.InventoryReleaseRequest) error

type service struct {
	logg    *logger.Logger
	repo    OrderRepository
	tx      txRunner
	outbox  outboxEmitter
	release releaseFunc
	commit  releaseFunc
	now     func() time.Time
}

// NewService builds an order service backed by the provided stack.
func NewService(logg *logger.Logger, repo OrderRepository, tx txRunner, emitter outboxEmitter) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		logg:    logg,
		repo:    repo,
		tx:      tx,
		outbox:  emitter,
		release: reservation.ReleaseInventory,
		commit:  reservation.CommitReservation,
		now:     time.Now,
	}, nil
}

// ListOrders returns the buyer's orders.
func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// GetOrder returns an order owned by the buyer.
func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ListSupplierOrders returns orders containing the supplier's lines.
func (s *service) ListSupplierOrders(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.ListBySupplier(ctx, supplierID, defaultListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier orders")
	}
	return orders, nil
}

// FulfillOrder marks a paid order fulfilled on behalf of a supplier with
// lines on it.
func (s *service) FulfillOrder(ctx context.Context, supplierID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	owned := false
	for _, item := range order.Items {
		if item.SupplierID == supplierID {
			owned = true
			break
		}
	}
	if !owned {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s, only paid orders can be fulfilled", order.Status))
	}

	now := s.now().UTC()
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		// Fulfillment burns the reserved units for good; expiry is the
		// path that returns them to available stock.
		if err := s.commit(ctx, tx, releaseRequests(order.Items)); err != nil {
			return err
		}
		if err := txRepo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusFulfilled,
			"fulfilled_at": now,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFulfilled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderFulfilledEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				SupplierID:  supplierID,
				FulfilledAt: now,
			},
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfill order")
	}
	order.Status = enums.OrderStatusFulfilled
	order.FulfilledAt = &now
	return order, nil
}

// SettlePaidSession transitions the order behind a completed Stripe Checkout
// Session to paid. Repeated deliveries of the same event are no-ops.
func (s *service) SettlePaidSession(ctx context.Context, sessionID, paymentIntentID string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByStripeSessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logCtx := s.logg.WithFields(ctx, map[string]any{"session_id": sessionID})
				s.logg.Warn(logCtx, "stripe session has no matching order")
				return nil
			}
			return err
		}
		if order.Status != enums.OrderStatusPendingPayment {
			return nil
		}

		now := s.now().UTC()
		updates := map[string]any{
			"status":  enums.OrderStatusPaid,
			"paid_at": now,
		}
		if paymentIntentID != "" {
			updates["stripe_payment_intent_id"] = paymentIntentID
		}
		if err := txRepo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderPaidEvent{
				OrderID:               order.ID,
				UserID:                order.UserID,
				AmountCents:           order.TotalCents,
				StripePaymentIntentID: paymentIntentID,
				PaidAt:                now,
			},
		})
	})
}

// ExpireSession cancels the order behind an expired Stripe Checkout Session
// and returns its reserved inventory.
func (s *service) ExpireSession(ctx context.Context, sessionID string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByStripeSessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if order.Status != enums.OrderStatusPendingPayment {
			return nil
		}

		if err := s.release(ctx, tx, releaseRequests(order.Items)); err != nil {
			return err
		}

		now := s.now().UTC()
		if err := txRepo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":      enums.OrderStatusCanceled,
			"canceled_at": now,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderCanceledEvent{
				OrderID:    order.ID,
				UserID:     order.UserID,
				CanceledAt: now,
				Reason:     "checkout session expired",
			},
		})
	})
}

// FailPayment records a failed payment attempt. The session stays open on
// Stripe's side, so the reservation is kept for a retry.
func (s *service) FailPayment(ctx context.Context, sessionID, reason string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByStripeSessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if order.Status != enums.OrderStatusPendingPayment {
			return nil
		}

		now := s.now().UTC()
		if err := txRepo.UpdateOrder(ctx, order.ID, map[string]any{
			"status": enums.OrderStatusPaymentFailed,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.PaymentFailedEvent{
				OrderID:         order.ID,
				UserID:          order.UserID,
				StripeSessionID: sessionID,
				FailedAt:        now,
				Reason:          reason,
			},
		})
	})
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func releaseRequests(items []models.OrderLineItem) []reservation.InventoryReleaseRequest {
	requests := make([]reservation.InventoryReleaseRequest, 0, len(items))
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		requests = append(requests, reservation.InventoryReleaseRequest{
			ProductID: *item.ProductID,
			Qty:       item.Quantity,
		})
	}
	return requests
}
