package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	minValidity      = 24 * time.Hour
	maxValidity      = 90 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type activeCartLoader interface {
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

// Service exposes the buyer and supplier quote workflows.
type Service interface {
	RequestQuotes(ctx context.Context, userID uuid.UUID, notes *string) ([]models.Quote, error)
	ListQuotes(ctx context.Context, userID uuid.UUID) ([]models.Quote, error)
	GetQuote(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error)
	AcceptQuote(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error)

	ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, status *enums.QuoteStatus) ([]models.Quote, error)
	IssueQuote(ctx context.Context, supplierID, quoteID uuid.UUID, input IssueQuoteInput) (*models.Quote, error)
	DeclineQuote(ctx context.Context, supplierID, quoteID uuid.UUID, reason string) (*models.Quote, error)
}

// IssueQuoteInput carries the supplier's pricing decision.
type IssueQuoteInput struct {
	Lines      []IssueQuoteLine
	ValidUntil time.Time
	Notes      *string
}

// IssueQuoteLine prices one requested line.
type IssueQuoteLine struct {
	LineItemID           uuid.UUID
	QuotedUnitPriceCents int
}

type service struct {
	repo   QuoteRepository
	tx     txRunner
	carts  activeCartLoader
	outbox outboxEmitter
	now    func() time.Time
}

// NewService builds a quote service backed by the provided stack.
func NewService(repo QuoteRepository, tx txRunner, carts activeCartLoader, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{repo: repo, tx: tx, carts: carts, outbox: emitter, now: time.Now}, nil
}

// RequestQuotes converts the buyer's active cart into draft quotes, one per
// supplier. Cart prices seed the requested lines; suppliers reprice on issue.
func (s *service) RequestQuotes(ctx context.Context, userID uuid.UUID, notes *string) ([]models.Quote, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.carts.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items to quote")
	}

	bySupplier := map[uuid.UUID][]models.CartItem{}
	order := []uuid.UUID{}
	for _, item := range cart.Items {
		if _, seen := bySupplier[item.SupplierID]; !seen {
			order = append(order, item.SupplierID)
		}
		bySupplier[item.SupplierID] = append(bySupplier[item.SupplierID], item)
	}

	var created []models.Quote
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, supplierID := range order {
			items := bySupplier[supplierID]
			quote := &models.Quote{
				UserID:     userID,
				SupplierID: supplierID,
				Status:     enums.QuoteStatusDraft,
				Currency:   cart.Currency,
				Notes:      notes,
			}
			subtotal := 0
			for _, item := range items {
				quote.Items = append(quote.Items, models.QuoteLineItem{
					ProductID:            item.ProductID,
					Quantity:             item.Quantity,
					QuotedUnitPriceCents: item.UnitPriceCents,
				})
				subtotal += item.Quantity * item.UnitPriceCents
			}
			quote.SubtotalCents = subtotal
			quote.TotalCents = subtotal
			saved, err := txRepo.Create(ctx, quote)
			if err != nil {
				return err
			}
			created = append(created, *saved)
		}
		return nil
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quotes")
	}
	return created, nil
}

// ListQuotes returns the buyer's quotes.
func (s *service) ListQuotes(ctx context.Context, userID uuid.UUID) ([]models.Quote, error) {
	quotes, err := s.repo.ListByUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	return quotes, nil
}

// GetQuote returns a quote owned by the buyer.
func (s *service) GetQuote(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return quote, nil
}

// AcceptQuote transitions an issued, unexpired quote to accepted.
func (s *service) AcceptQuote(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.GetQuote(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != enums.QuoteStatusIssued {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("quote is %s, only issued quotes can be accepted", quote.Status))
	}
	now := s.now().UTC()
	if quote.ValidUntil != nil && !quote.ValidUntil.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote validity window has passed")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateQuote(ctx, quote.ID, map[string]any{"status": enums.QuoteStatusAccepted}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteAccepted,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.QuoteAcceptedEvent{
				QuoteID:    quote.ID,
				UserID:     quote.UserID,
				SupplierID: quote.SupplierID,
				AcceptedAt: now,
			},
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept quote")
	}
	quote.Status = enums.QuoteStatusAccepted
	return quote, nil
}

// ListSupplierQuotes returns quotes addressed to the supplier.
func (s *service) ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, status *enums.QuoteStatus) ([]models.Quote, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quote status filter")
	}
	quotes, err := s.repo.ListBySupplier(ctx, supplierID, status, defaultListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier quotes")
	}
	return quotes, nil
}

// IssueQuote prices a draft quote and opens its validity window.
func (s *service) IssueQuote(ctx context.Context, supplierID, quoteID uuid.UUID, input IssueQuoteInput) (*models.Quote, error) {
	quote, err := s.loadSupplierQuote(ctx, supplierID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != enums.QuoteStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("quote is %s, only draft quotes can be issued", quote.Status))
	}

	now := s.now().UTC()
	if input.ValidUntil.Before(now.Add(minValidity)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be at least 24 hours out")
	}
	if input.ValidUntil.After(now.Add(maxValidity)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be within 90 days")
	}

	prices := map[uuid.UUID]int{}
	for _, line := range input.Lines {
		if line.QuotedUnitPriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quoted unit price must be positive")
		}
		prices[line.LineItemID] = line.QuotedUnitPriceCents
	}

	subtotal := 0
	for i := range quote.Items {
		if price, ok := prices[quote.Items[i].ID]; ok {
			quote.Items[i].QuotedUnitPriceCents = price
			delete(prices, quote.Items[i].ID)
		}
		subtotal += quote.Items[i].Quantity * quote.Items[i].QuotedUnitPriceCents
	}
	if len(prices) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "priced line does not belong to quote")
	}

	validUntil := input.ValidUntil.UTC()
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for i := range quote.Items {
			if err := txRepo.UpdateLineItem(ctx, &quote.Items[i]); err != nil {
				return err
			}
		}
		updates := map[string]any{
			"status":         enums.QuoteStatusIssued,
			"subtotal_cents": subtotal,
			"total_cents":    subtotal,
			"valid_until":    validUntil,
			"issued_at":      now,
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if err := txRepo.UpdateQuote(ctx, quote.ID, updates); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteIssued,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.QuoteIssuedEvent{
				QuoteID:    quote.ID,
				UserID:     quote.UserID,
				SupplierID: quote.SupplierID,
				TotalCents: subtotal,
				ValidUntil: validUntil,
			},
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue quote")
	}

	quote.Status = enums.QuoteStatusIssued
	quote.SubtotalCents = subtotal
	quote.TotalCents = subtotal
	quote.ValidUntil = &validUntil
	quote.IssuedAt = &now
	if input.Notes != nil {
		quote.Notes = input.Notes
	}
	return quote, nil
}

// DeclineQuote closes out a draft or issued quote on the supplier's side.
func (s *service) DeclineQuote(ctx context.Context, supplierID, quoteID uuid.UUID, reason string) (*models.Quote, error) {
	quote, err := s.loadSupplierQuote(ctx, supplierID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != enums.QuoteStatusDraft && quote.Status != enums.QuoteStatusIssued {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("quote is %s and can no longer be declined", quote.Status))
	}

	now := s.now().UTC()
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateQuote(ctx, quote.ID, map[string]any{"status": enums.QuoteStatusDeclined}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteDeclined,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.QuoteDeclinedEvent{
				QuoteID:    quote.ID,
				UserID:     quote.UserID,
				SupplierID: quote.SupplierID,
				DeclinedAt: now,
				Reason:     reason,
			},
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decline quote")
	}
	quote.Status = enums.QuoteStatusDeclined
	return quote, nil
}

func (s *service) loadQuote(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.FindQuote(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return quote, nil
}

func (s *service) loadSupplierQuote(ctx context.Context, supplierID, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.SupplierID != supplierID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return quote, nil
}
