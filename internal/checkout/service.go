package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voltline/voltline-backend/internal/cart"
	"github.com/voltline/voltline-backend/internal/checkout/helpers"
	"github.com/voltline/voltline-backend/internal/checkout/reservation"
	"github.com/voltline/voltline-backend/internal/orders"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.InventoryReservationRequest) ([]reservation.InventoryReservationResult, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.InventoryReservationRequest) ([]reservation.InventoryReservationResult, error) {
	return reservation.ReserveInventory(ctx, tx, requests)
}

// Service executes checkout orchestration: cart validation, inventory
// reservation, order creation, and the Stripe Checkout Session handoff.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

// CheckoutInput carries the client's redirect targets.
type CheckoutInput struct {
	SuccessURL string
	CancelURL  string
}

// CheckoutResult is the created order plus the Stripe-hosted payment URL the
// client redirects to.
type CheckoutResult struct {
	Order       *models.Order
	RedirectURL string
}

type service struct {
	tx          txRunner
	cartRepo    cart.CartRepository
	ordersRepo  orders.OrderRepository
	productRepo productLoader
	reservation reservationRunner
	stripe      StripeCheckoutClient
	outbox      outboxPublisher
	now         func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.OrderRepository,
	productRepo productLoader,
	reservationRunner reservationRunner,
	stripeClient StripeCheckoutClient,
	publisher outboxPublisher,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if reservationRunner == nil {
		reservationRunner = reservationEngine{}
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		productRepo: productRepo,
		reservation: reservationRunner,
		stripe:      stripeClient,
		outbox:      publisher,
		now:         time.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.SuccessURL) == "" || strings.TrimSpace(input.CancelURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "success and cancel URLs are required")
	}

	record, err := s.cartRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	if _, err := s.ordersRepo.FindPendingByCartID(ctx, record.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress for this cart")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending orders")
	}

	products, err := s.loadProducts(ctx, record.Items)
	if err != nil {
		return nil, err
	}
	if err := helpers.ValidateCartForCheckout(record.Items, products); err != nil {
		return nil, err
	}

	var result *CheckoutResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		requests := make([]reservation.InventoryReservationRequest, len(record.Items))
		for i, item := range record.Items {
			requests[i] = reservation.InventoryReservationRequest{
				CartItemID: item.ID,
				ProductID:  item.ProductID,
				Qty:        item.Quantity,
			}
		}
		reservations, err := s.reservation.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}
		for _, res := range reservations {
			if !res.Reserved {
				return pkgerrors.New(pkgerrors.CodeConflict, res.Reason)
			}
		}

		order := &models.Order{
			UserID:         userID,
			CartID:         record.ID,
			Status:         enums.OrderStatusPendingPayment,
			Currency:       record.Currency,
			SubtotalCents:  record.SubtotalCents,
			DiscountsCents: record.DiscountsCents,
			EngravingCents: record.EngravingCents,
			TotalCents:     record.TotalCents,
			Items:          helpers.BuildOrderLineItems(record.Items, products),
		}
		created, err := ordersRepo.Create(ctx, order)
		if err != nil {
			return err
		}

		session, err := s.stripe.CreateSession(ctx, s.sessionParams(created, input))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe checkout session")
		}
		if err := ordersRepo.UpdateOrder(ctx, created.ID, map[string]any{
			"stripe_session_id": session.ID,
		}); err != nil {
			return err
		}
		created.StripeSessionID = &session.ID

		now := s.now().UTC()
		if err := cartRepo.UpdateCart(ctx, record.ID, map[string]any{
			"status":       enums.CartStatusConverted,
			"converted_at": now,
		}); err != nil {
			return err
		}

		if err := s.emitCheckoutEvents(ctx, tx, record, created, now); err != nil {
			return err
		}

		result = &CheckoutResult{Order: created, RedirectURL: session.URL}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute checkout")
	}
	return result, nil
}

func (s *service) loadProducts(ctx context.Context, items []models.CartItem) (map[uuid.UUID]*models.Product, error) {
	products := make(map[uuid.UUID]*models.Product, len(items))
	for _, item := range items {
		if _, ok := products[item.ProductID]; ok {
			continue
		}
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("product %s is no longer available", item.ProductID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		products[item.ProductID] = product
	}
	return products, nil
}

func (s *service) sessionParams(order *models.Order, input CheckoutInput) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.Title
		if item.Engraving != nil {
			name = fmt.Sprintf("%s (engraved)", name)
		}
		// Engraving fees fold into the unit amount so Stripe's total matches
		// the order total.
		unitAmount := int64(item.UnitPriceCents + item.EngravingFeeCents)
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(string(order.Currency))),
				UnitAmount: stripe.Int64(unitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(input.SuccessURL),
		CancelURL:         stripe.String(input.CancelURL),
		ClientReferenceID: stripe.String(order.ID.String()),
		LineItems:         lineItems,
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("cart_id", order.CartID.String())
	return params
}

func (s *service) emitCheckoutEvents(ctx context.Context, tx *gorm.DB, record *models.Cart, order *models.Order, now time.Time) error {
	items := make([]payloads.OrderCreatedItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, payloads.OrderCreatedItem{
			ProductID:         line.ProductID,
			SupplierID:        line.SupplierID,
			Title:             line.Title,
			Quantity:          line.Quantity,
			UnitPriceCents:    line.UnitPriceCents,
			EngravingFeeCents: line.EngravingFeeCents,
			LineSubtotalCents: line.LineSubtotalCents,
		})
	}
	events := []outbox.DomainEvent{
		{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				UserID:     order.UserID,
				CartID:     order.CartID,
				TotalCents: order.TotalCents,
				Items:      items,
			},
		},
		{
			EventType:     enums.EventCheckoutStarted,
			AggregateType: enums.AggregateCart,
			AggregateID:   record.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.CheckoutStartedEvent{
				UserID:     order.UserID,
				CartID:     record.ID,
				TotalCents: order.TotalCents,
				StartedAt:  now,
			},
		},
		{
			EventType:     enums.EventCartConverted,
			AggregateType: enums.AggregateCart,
			AggregateID:   record.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.CartConvertedEvent{
				CartID:      record.ID,
				UserID:      order.UserID,
				OrderID:     order.ID,
				TotalCents:  order.TotalCents,
				ConvertedAt: now,
			},
		},
	}
	for _, event := range events {
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}
