package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/voltline/voltline-backend/internal/analytics"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultBrowseNudgeAfter = 48 * time.Hour

// browseNudgeNamespace seeds the deterministic aggregate id that scopes nudge
// dedupe to one user+product pair.
var browseNudgeNamespace = uuid.MustParse("7c9e3a1d-44f2-4b6a-9c58-2d0f8e5b7a16")

func browseNudgeAggregateID(userID, productID uuid.UUID) uuid.UUID {
	data := make([]byte, 0, 32)
	data = append(data, userID[:]...)
	data = append(data, productID[:]...)
	return uuid.NewSHA1(browseNudgeNamespace, data)
}

// BrowseAbandonmentJobParams configure the browse abandonment scheduler.
type BrowseAbandonmentJobParams struct {
	Logger                   *logger.Logger
	DB                       txRunner
	BrowseReader             browseCandidateReader
	CartActivity             cartActivityChecker
	Outbox                   outboxEmitter
	OutboxRepo               outboxExistenceChecker
	NudgeAfter               time.Duration
	TransactionalRepoFactory browseRepoFactory
}

type browseCandidateReader interface {
	FindNudgeCandidatesBefore(ctx context.Context, cutoff time.Time) ([]models.BrowseEvent, error)
}

type cartActivityChecker interface {
	HasCartActivitySince(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error)
}

type transactionalBrowseRepo interface {
	MarkNotified(ctx context.Context, eventID uuid.UUID, at time.Time) error
}

type browseRepoFactory func(tx *gorm.DB) transactionalBrowseRepo

func defaultBrowseRepo(tx *gorm.DB) transactionalBrowseRepo {
	return analytics.NewBrowseRepository(tx)
}

// NewBrowseAbandonmentJob builds the cron job that nudges buyers who viewed
// a product but never touched a cart afterwards.
func NewBrowseAbandonmentJob(params BrowseAbandonmentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.BrowseReader == nil {
		return nil, fmt.Errorf("browse reader required")
	}
	if params.CartActivity == nil {
		return nil, fmt.Errorf("cart activity checker required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	nudgeAfter := params.NudgeAfter
	if nudgeAfter <= 0 {
		nudgeAfter = defaultBrowseNudgeAfter
	}
	repoFactory := params.TransactionalRepoFactory
	if repoFactory == nil {
		repoFactory = defaultBrowseRepo
	}
	return &browseAbandonmentJob{
		logg:         params.Logger,
		db:           params.DB,
		browseReader: params.BrowseReader,
		cartActivity: params.CartActivity,
		outbox:       params.Outbox,
		outboxRepo:   params.OutboxRepo,
		nudgeAfter:   nudgeAfter,
		repoFactory:  repoFactory,
		now:          time.Now,
	}, nil
}

type browseAbandonmentJob struct {
	logg         *logger.Logger
	db           txRunner
	browseReader browseCandidateReader
	cartActivity cartActivityChecker
	outbox       outboxEmitter
	outboxRepo   outboxExistenceChecker
	nudgeAfter   time.Duration
	repoFactory  browseRepoFactory
	now          func() time.Time
}

func (j *browseAbandonmentJob) Name() string { return "browse-abandonment" }

func (j *browseAbandonmentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.nudgeAfter)
	events, err := j.browseReader.FindNudgeCandidatesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query browse nudge candidates: %w", err)
	}
	count := 0
	for _, event := range events {
		sent, err := j.emitBrowseNudge(ctx, event)
		if err != nil {
			return err
		}
		if sent {
			count++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "browse nudge loop complete")
	return nil
}

func (j *browseAbandonmentJob) emitBrowseNudge(ctx context.Context, event models.BrowseEvent) (bool, error) {
	// A buyer who touched a cart after the view is shopping, not stalled.
	active, err := j.cartActivity.HasCartActivitySince(ctx, event.UserID, event.ViewedAt)
	if err != nil {
		return false, fmt.Errorf("check cart activity: %w", err)
	}
	if active {
		return false, nil
	}
	// One nudge per user and product while the prior outbox row is
	// retained. Per-view dedupe rides on browse_events.notified_at.
	aggregateID := browseNudgeAggregateID(event.UserID, event.ProductID)
	exists, err := j.outboxRepo.Exists(ctx, enums.EventBrowseNudge, enums.AggregateUser, aggregateID)
	if err != nil {
		return false, fmt.Errorf("check browse nudge existence: %w", err)
	}
	if exists {
		return false, nil
	}
	now := j.now().UTC()
	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		if err := repo.MarkNotified(ctx, event.ID, now); err != nil {
			return err
		}
		domainEvent := outbox.DomainEvent{
			EventType:     enums.EventBrowseNudge,
			AggregateType: enums.AggregateUser,
			AggregateID:   aggregateID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.BrowseNudgeEvent{
				UserID:       event.UserID,
				ProductID:    event.ProductID,
				LastViewedAt: event.ViewedAt.UTC(),
			},
		}
		return j.outbox.Emit(ctx, tx, domainEvent)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
