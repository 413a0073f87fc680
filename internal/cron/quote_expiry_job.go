package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/voltline/voltline-backend/internal/quotes"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const defaultQuoteWarningWindow = 72 * time.Hour

// QuoteExpiryJobParams configure the quote expiry scheduler.
type QuoteExpiryJobParams struct {
	Logger                   *logger.Logger
	DB                       txRunner
	QuoteReader              issuedQuoteReader
	Outbox                   outboxEmitter
	OutboxRepo               outboxExistenceChecker
	WarningWindow            time.Duration
	TransactionalRepoFactory quoteRepoFactory
}

type issuedQuoteReader interface {
	FindIssuedQuotesExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Quote, error)
}

type transactionalQuoteRepo interface {
	FindQuote(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
	UpdateQuote(ctx context.Context, quoteID uuid.UUID, updates map[string]any) error
}

type quoteRepoFactory func(tx *gorm.DB) transactionalQuoteRepo

func defaultQuoteRepo(tx *gorm.DB) transactionalQuoteRepo {
	return quotes.NewRepository(tx)
}

// NewQuoteExpiryJob builds the cron job that warns on quotes nearing
// valid_until and expires quotes past it.
func NewQuoteExpiryJob(params QuoteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.QuoteReader == nil {
		return nil, fmt.Errorf("quote reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	warning := params.WarningWindow
	if warning <= 0 {
		warning = defaultQuoteWarningWindow
	}
	repoFactory := params.TransactionalRepoFactory
	if repoFactory == nil {
		repoFactory = defaultQuoteRepo
	}
	return &quoteExpiryJob{
		logg:        params.Logger,
		db:          params.DB,
		quoteReader: params.QuoteReader,
		outbox:      params.Outbox,
		outboxRepo:  params.OutboxRepo,
		warning:     warning,
		repoFactory: repoFactory,
		now:         time.Now,
	}, nil
}

type quoteExpiryJob struct {
	logg        *logger.Logger
	db          txRunner
	quoteReader issuedQuoteReader
	outbox      outboxEmitter
	outboxRepo  outboxExistenceChecker
	warning     time.Duration
	repoFactory quoteRepoFactory
	now         func() time.Time
}

func (j *quoteExpiryJob) Name() string { return "quote-expiry" }

func (j *quoteExpiryJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.warnExpiringQuotes(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.expireQuotes(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *quoteExpiryJob) warnExpiringQuotes(ctx context.Context) error {
	now := j.now().UTC()
	quotes, err := j.quoteReader.FindIssuedQuotesExpiringBefore(ctx, now.Add(j.warning))
	if err != nil {
		return fmt.Errorf("query quotes for expiry warning: %w", err)
	}
	count := 0
	for _, q := range quotes {
		if q.ValidUntil == nil || q.ExpiryNotifiedAt != nil {
			continue
		}
		// Already past valid_until; the expire loop owns it.
		if !q.ValidUntil.After(now) {
			continue
		}
		if err := j.emitExpiryWarning(ctx, q); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "quote expiry warning loop complete")
	return nil
}

func (j *quoteExpiryJob) emitExpiryWarning(ctx context.Context, q models.Quote) error {
	exists, err := j.outboxRepo.Exists(ctx, enums.EventQuoteExpiringSoon, enums.AggregateQuote, q.ID)
	if err != nil {
		return fmt.Errorf("check quote warning existence: %w", err)
	}
	if exists {
		return nil
	}
	now := j.now().UTC()
	remaining := int(q.ValidUntil.Sub(now).Hours())
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		if err := repo.UpdateQuote(ctx, q.ID, map[string]any{"expiry_notified_at": now}); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventQuoteExpiringSoon,
			AggregateType: enums.AggregateQuote,
			AggregateID:   q.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.QuoteExpiringSoonEvent{
				QuoteID:        q.ID,
				UserID:         q.UserID,
				SupplierID:     q.SupplierID,
				ValidUntil:     q.ValidUntil.UTC(),
				HoursRemaining: remaining,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}

func (j *quoteExpiryJob) expireQuotes(ctx context.Context) error {
	now := j.now().UTC()
	quotes, err := j.quoteReader.FindIssuedQuotesExpiringBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("query quotes for expiration: %w", err)
	}
	count := 0
	for _, q := range quotes {
		if err := j.expireQuote(ctx, q); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "quote expiration loop complete")
	return nil
}

func (j *quoteExpiryJob) expireQuote(ctx context.Context, q models.Quote) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindQuote(ctx, q.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.QuoteStatusIssued {
			return nil
		}
		now := j.now().UTC()
		if err := repo.UpdateQuote(ctx, q.ID, map[string]any{"status": enums.QuoteStatusExpired}); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventQuoteExpired,
			AggregateType: enums.AggregateQuote,
			AggregateID:   q.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.QuoteExpiredEvent{
				QuoteID:    q.ID,
				UserID:     q.UserID,
				SupplierID: q.SupplierID,
				ExpiredAt:  now,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
