package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// IngestEventInput is a behavioral event reported by the storefront client.
type IngestEventInput struct {
	Type      enums.AnalyticsEventType
	ProductID *uuid.UUID
	CartID    *uuid.UUID
}

// IngestService accepts client-side behavioral events, persists browse state,
// and forwards everything to the outbox for the analytics pipeline.
type IngestService interface {
	Record(ctx context.Context, userID uuid.UUID, input IngestEventInput) error
	RecordEngravingPreview(ctx context.Context, userID *uuid.UUID, productID uuid.UUID, charCount, feeCents int) error
}

type browseRepoFactory func(tx *gorm.DB) *BrowseRepository

type ingestService struct {
	tx          txRunner
	outbox      outboxEmitter
	repoFactory browseRepoFactory
	now         func() time.Time
}

// NewIngestService builds the client event ingest service.
func NewIngestService(tx txRunner, publisher outboxEmitter) (IngestService, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &ingestService{
		tx:          tx,
		outbox:      publisher,
		repoFactory: NewBrowseRepository,
		now:         time.Now,
	}, nil
}

func (s *ingestService) Record(ctx context.Context, userID uuid.UUID, input IngestEventInput) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	switch input.Type {
	case enums.AnalyticsEventProductViewed:
		return s.recordProductView(ctx, userID, input)
	case enums.AnalyticsEventCartViewed:
		return s.recordCartView(ctx, userID, input)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("event type %q cannot be reported by clients", input.Type))
	}
}

// RecordEngravingPreview forwards a rendered nameplate preview to the
// analytics pipeline. Previews are served without auth, so the user is
// optional.
func (s *ingestService) RecordEngravingPreview(ctx context.Context, userID *uuid.UUID, productID uuid.UUID, charCount, feeCents int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required for engraving_previewed")
	}
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEngravingPreviewed,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.EngravingPreviewedEvent{
				UserID:      userID,
				ProductID:   productID,
				TextLength:  charCount,
				FeeCents:    feeCents,
				PreviewedAt: now,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record engraving preview")
	}
	return nil
}

func (s *ingestService) recordProductView(ctx context.Context, userID uuid.UUID, input IngestEventInput) error {
	if input.ProductID == nil || *input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required for product_viewed")
	}
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFactory(tx)
		if _, err := repo.RecordView(ctx, userID, *input.ProductID, now); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductViewed,
			AggregateType: enums.AggregateProduct,
			AggregateID:   *input.ProductID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.ProductViewedEvent{
				UserID:    userID,
				ProductID: *input.ProductID,
				ViewedAt:  now,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record product view")
	}
	return nil
}

func (s *ingestService) recordCartView(ctx context.Context, userID uuid.UUID, input IngestEventInput) error {
	if input.CartID == nil || *input.CartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id is required for cart_viewed")
	}
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartViewed,
			AggregateType: enums.AggregateCart,
			AggregateID:   *input.CartID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.CartViewedEvent{
				UserID:   userID,
				CartID:   *input.CartID,
				ViewedAt: now,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record cart view")
	}
	return nil
}
