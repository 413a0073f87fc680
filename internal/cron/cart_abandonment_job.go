package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/voltline/voltline-backend/internal/cart"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultCartNudgeAfter  = 24 * time.Hour
	defaultCartExpireAfter = 14 * 24 * time.Hour
)

// CartAbandonmentJobParams configure the cart abandonment scheduler.
type CartAbandonmentJobParams struct {
	Logger                   *logger.Logger
	DB                       txRunner
	CartReader               idleCartReader
	Outbox                   outboxEmitter
	OutboxRepo               outboxExistenceChecker
	NudgeAfter               time.Duration
	ExpireAfter              time.Duration
	TransactionalRepoFactory cartRepoFactory
}

type idleCartReader interface {
	FindActiveCartsIdleBefore(ctx context.Context, cutoff time.Time) ([]models.Cart, error)
}

type transactionalCartRepo interface {
	FindCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error
}

type cartRepoFactory func(tx *gorm.DB) transactionalCartRepo

func defaultCartRepo(tx *gorm.DB) transactionalCartRepo {
	return cart.NewRepository(tx)
}

// NewCartAbandonmentJob builds the cron job that nudges idle carts and marks
// long-idle carts abandoned.
func NewCartAbandonmentJob(params CartAbandonmentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.CartReader == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	nudgeAfter := params.NudgeAfter
	if nudgeAfter <= 0 {
		nudgeAfter = defaultCartNudgeAfter
	}
	expireAfter := params.ExpireAfter
	if expireAfter <= 0 {
		expireAfter = defaultCartExpireAfter
	}
	if expireAfter <= nudgeAfter {
		return nil, fmt.Errorf("expire window must exceed nudge window")
	}
	repoFactory := params.TransactionalRepoFactory
	if repoFactory == nil {
		repoFactory = defaultCartRepo
	}
	return &cartAbandonmentJob{
		logg:        params.Logger,
		db:          params.DB,
		cartReader:  params.CartReader,
		outbox:      params.Outbox,
		outboxRepo:  params.OutboxRepo,
		nudgeAfter:  nudgeAfter,
		expireAfter: expireAfter,
		repoFactory: repoFactory,
		now:         time.Now,
	}, nil
}

type cartAbandonmentJob struct {
	logg        *logger.Logger
	db          txRunner
	cartReader  idleCartReader
	outbox      outboxEmitter
	outboxRepo  outboxExistenceChecker
	nudgeAfter  time.Duration
	expireAfter time.Duration
	repoFactory cartRepoFactory
	now         func() time.Time
}

func (j *cartAbandonmentJob) Name() string { return "cart-abandonment" }

func (j *cartAbandonmentJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.nudgeIdleCarts(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.expireIdleCarts(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *cartAbandonmentJob) nudgeIdleCarts(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.nudgeAfter)
	carts, err := j.cartReader.FindActiveCartsIdleBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query idle carts for nudge: %w", err)
	}
	count := 0
	for _, c := range carts {
		// Anonymous session carts have no address to nudge.
		if c.UserID == nil || c.AbandonmentNotifiedAt != nil {
			continue
		}
		if err := j.emitCartNudge(ctx, c); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "cart nudge loop complete")
	return nil
}

func (j *cartAbandonmentJob) emitCartNudge(ctx context.Context, c models.Cart) error {
	exists, err := j.outboxRepo.Exists(ctx, enums.EventCartAbandonmentNudge, enums.AggregateCart, c.ID)
	if err != nil {
		return fmt.Errorf("check cart nudge existence: %w", err)
	}
	if exists {
		return nil
	}
	itemCount := 0
	for _, item := range c.Items {
		itemCount += item.Quantity
	}
	now := j.now().UTC()
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		if err := repo.UpdateCart(ctx, c.ID, map[string]any{"abandonment_notified_at": now}); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCartAbandonmentNudge,
			AggregateType: enums.AggregateCart,
			AggregateID:   c.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.CartAbandonmentNudgeEvent{
				CartID:     c.ID,
				UserID:     *c.UserID,
				ItemCount:  itemCount,
				TotalCents: c.TotalCents,
				IdleSince:  c.UpdatedAt.UTC(),
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}

func (j *cartAbandonmentJob) expireIdleCarts(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.expireAfter)
	carts, err := j.cartReader.FindActiveCartsIdleBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query idle carts for expiration: %w", err)
	}
	count := 0
	for _, c := range carts {
		if err := j.expireCart(ctx, c); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "cart expiration loop complete")
	return nil
}

func (j *cartAbandonmentJob) expireCart(ctx context.Context, c models.Cart) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindCart(ctx, c.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.CartStatusActive {
			return nil
		}
		now := j.now().UTC()
		if err := repo.UpdateCart(ctx, c.ID, map[string]any{"status": enums.CartStatusAbandoned}); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCartExpired,
			AggregateType: enums.AggregateCart,
			AggregateID:   c.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.CartExpiredEvent{
				CartID:    c.ID,
				UserID:    c.UserID,
				ExpiredAt: now,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
