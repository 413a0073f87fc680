package cron

import (
	"context"
	"testing"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestBrowseAbandonmentJob_emitsNudgeAndMarksEvent(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	view := models.BrowseEvent{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		ViewedAt:  now.Add(-72 * time.Hour),
	}
	helper := newBrowseAbandonmentJobTest(t, []models.BrowseEvent{view})
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	event := helper.outboxSvc.events[0]
	if event.EventType != enums.EventBrowseNudge {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.AggregateID != browseNudgeAggregateID(view.UserID, view.ProductID) {
		t.Fatalf("unexpected aggregate id: %s", event.AggregateID)
	}
	payload, ok := event.Data.(payloads.BrowseNudgeEvent)
	if !ok {
		t.Fatal("expected browse nudge payload")
	}
	if payload.ProductID != view.ProductID {
		t.Fatalf("unexpected product id: %s", payload.ProductID)
	}
	if len(helper.repo.marked) != 1 {
		t.Fatalf("expected 1 marked event, got %d", len(helper.repo.marked))
	}
	if helper.repo.marked[0] != view.ID {
		t.Fatalf("unexpected marked event id: %s", helper.repo.marked[0])
	}
}

func TestBrowseAbandonmentJob_skipsUsersWithCartActivity(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	view := models.BrowseEvent{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		ViewedAt:  now.Add(-72 * time.Hour),
	}
	helper := newBrowseAbandonmentJobTest(t, []models.BrowseEvent{view})
	helper.job.now = func() time.Time { return now }
	helper.cartActivity.active = true

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
	if len(helper.repo.marked) != 0 {
		t.Fatalf("expected no marked events, got %d", len(helper.repo.marked))
	}
}

func TestBrowseAbandonmentJob_skipsWhenNudgeAlreadyOutstanding(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	view := models.BrowseEvent{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		ViewedAt:  now.Add(-72 * time.Hour),
	}
	helper := newBrowseAbandonmentJobTest(t, []models.BrowseEvent{view})
	helper.job.now = func() time.Time { return now }
	helper.outboxRepo.exists = true

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
	if len(helper.repo.marked) != 0 {
		t.Fatalf("expected no marked events, got %d", len(helper.repo.marked))
	}
}

func TestBrowseAbandonmentJob_nudgesEachProductSeparately(t *testing.T) {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	userID := uuid.New()
	notified := models.BrowseEvent{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: uuid.New(),
		ViewedAt:  now.Add(-96 * time.Hour),
	}
	fresh := models.BrowseEvent{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: uuid.New(),
		ViewedAt:  now.Add(-72 * time.Hour),
	}
	helper := newBrowseAbandonmentJobTest(t, []models.BrowseEvent{notified, fresh})
	helper.job.now = func() time.Time { return now }
	// The first product already has an outstanding nudge; the second must
	// still go out.
	helper.outboxRepo.existsFor = map[uuid.UUID]bool{
		browseNudgeAggregateID(userID, notified.ProductID): true,
	}

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	payload, ok := helper.outboxSvc.events[0].Data.(payloads.BrowseNudgeEvent)
	if !ok {
		t.Fatal("expected browse nudge payload")
	}
	if payload.ProductID != fresh.ProductID {
		t.Fatalf("expected nudge for the second product, got %s", payload.ProductID)
	}
	if len(helper.repo.marked) != 1 || helper.repo.marked[0] != fresh.ID {
		t.Fatalf("expected only the second view marked, got %+v", helper.repo.marked)
	}
}

type browseAbandonmentJobTestHelper struct {
	job          *browseAbandonmentJob
	outboxSvc    *fakeOutboxService
	outboxRepo   *fakeOutboxRepo
	cartActivity *fakeCartActivityChecker
	repo         *fakeBrowseRepo
}

func newBrowseAbandonmentJobTest(t *testing.T, candidates []models.BrowseEvent) *browseAbandonmentJobTestHelper {
	t.Helper()
	outboxSvc := &fakeOutboxService{}
	outboxRepo := &fakeOutboxRepo{}
	cartActivity := &fakeCartActivityChecker{}
	repo := &fakeBrowseRepo{}
	jobIface, err := NewBrowseAbandonmentJob(BrowseAbandonmentJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		DB:           fakeTxRunner{},
		BrowseReader: &fakeBrowseReader{candidates: candidates},
		CartActivity: cartActivity,
		Outbox:       outboxSvc,
		OutboxRepo:   outboxRepo,
		TransactionalRepoFactory: func(tx *gorm.DB) transactionalBrowseRepo {
			return repo
		},
	})
	if err != nil {
		t.Fatalf("NewBrowseAbandonmentJob: %v", err)
	}
	job, ok := jobIface.(*browseAbandonmentJob)
	if !ok {
		t.Fatalf("expected browseAbandonmentJob, got %T", jobIface)
	}
	return &browseAbandonmentJobTestHelper{
		job:          job,
		outboxSvc:    outboxSvc,
		outboxRepo:   outboxRepo,
		cartActivity: cartActivity,
		repo:         repo,
	}
}

type fakeBrowseReader struct {
	candidates []models.BrowseEvent
}

func (f *fakeBrowseReader) FindNudgeCandidatesBefore(ctx context.Context, cutoff time.Time) ([]models.BrowseEvent, error) {
	return f.candidates, nil
}

type fakeCartActivityChecker struct {
	active bool
}

func (f *fakeCartActivityChecker) HasCartActivitySince(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error) {
	return f.active, nil
}

type fakeBrowseRepo struct {
	marked []uuid.UUID
}

func (f *fakeBrowseRepo) MarkNotified(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	f.marked = append(f.marked, eventID)
	return nil
}
