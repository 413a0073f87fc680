package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestCartAbandonmentJob_nudgeEmitsEventAndStampsCart(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()
	idleCart := models.Cart{
		ID:         uuid.New(),
		UserID:     &userID,
		Status:     enums.CartStatusActive,
		TotalCents: 12500,
		UpdatedAt:  now.Add(-30 * time.Hour),
		Items: []models.CartItem{
			{ProductID: uuid.New(), Quantity: 4},
			{ProductID: uuid.New(), Quantity: 2},
		},
	}
	reader := &fakeIdleCartReader{
		nudgeCutoff:  now.Add(-defaultCartNudgeAfter),
		expireCutoff: now.Add(-defaultCartExpireAfter),
		nudgeCarts:   []models.Cart{idleCart},
	}
	helper := newCartAbandonmentJobTest(t, reader)
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	event := helper.outboxSvc.events[0]
	if event.EventType != enums.EventCartAbandonmentNudge {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.CartAbandonmentNudgeEvent)
	if !ok {
		t.Fatal("expected cart nudge payload")
	}
	if payload.CartID != idleCart.ID {
		t.Fatalf("unexpected cart id: %s", payload.CartID)
	}
	if payload.ItemCount != 6 {
		t.Fatalf("unexpected item count: %d", payload.ItemCount)
	}
	if payload.TotalCents != 12500 {
		t.Fatalf("unexpected total: %d", payload.TotalCents)
	}
	if len(helper.repo.cartUpdates) != 1 {
		t.Fatalf("expected cart update, got %d", len(helper.repo.cartUpdates))
	}
	update := helper.repo.cartUpdates[0]
	if _, ok := update.updates["abandonment_notified_at"]; !ok {
		t.Fatal("expected abandonment_notified_at to be stamped")
	}
}

func TestCartAbandonmentJob_nudgeSkipsNotifiedAndAnonymousCarts(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()
	notified := now.Add(-2 * time.Hour)
	sessionID := "sess-9f2"
	reader := &fakeIdleCartReader{
		nudgeCutoff:  now.Add(-defaultCartNudgeAfter),
		expireCutoff: now.Add(-defaultCartExpireAfter),
		nudgeCarts: []models.Cart{
			{ID: uuid.New(), UserID: &userID, Status: enums.CartStatusActive, AbandonmentNotifiedAt: &notified},
			{ID: uuid.New(), SessionID: &sessionID, Status: enums.CartStatusActive},
		},
	}
	helper := newCartAbandonmentJobTest(t, reader)
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
}

func TestCartAbandonmentJob_nudgeSkipsWhenEventExists(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()
	reader := &fakeIdleCartReader{
		nudgeCutoff:  now.Add(-defaultCartNudgeAfter),
		expireCutoff: now.Add(-defaultCartExpireAfter),
		nudgeCarts: []models.Cart{
			{ID: uuid.New(), UserID: &userID, Status: enums.CartStatusActive},
		},
	}
	helper := newCartAbandonmentJobTest(t, reader)
	helper.job.now = func() time.Time { return now }
	helper.outboxRepo.exists = true

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
	if len(helper.repo.cartUpdates) != 0 {
		t.Fatalf("expected no cart updates, got %d", len(helper.repo.cartUpdates))
	}
}

func TestCartAbandonmentJob_expireMarksCartAbandoned(t *testing.T) {
	now := time.Date(2026, 3, 20, 6, 0, 0, 0, time.UTC)
	userID := uuid.New()
	staleCart := models.Cart{
		ID:     uuid.New(),
		UserID: &userID,
		Status: enums.CartStatusActive,
	}
	reader := &fakeIdleCartReader{
		nudgeCutoff:  now.Add(-defaultCartNudgeAfter),
		expireCutoff: now.Add(-defaultCartExpireAfter),
		expireCarts:  []models.Cart{staleCart},
	}
	helper := newCartAbandonmentJobTest(t, reader)
	helper.job.now = func() time.Time { return now }
	helper.repo.cart = &staleCart

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	event := helper.outboxSvc.events[0]
	if event.EventType != enums.EventCartExpired {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.CartExpiredEvent)
	if !ok {
		t.Fatal("expected cart expired payload")
	}
	if payload.CartID != staleCart.ID {
		t.Fatalf("unexpected cart id: %s", payload.CartID)
	}
	if len(helper.repo.cartUpdates) != 1 {
		t.Fatalf("expected cart update, got %d", len(helper.repo.cartUpdates))
	}
	status, _ := helper.repo.cartUpdates[0].updates["status"].(enums.CartStatus)
	if status != enums.CartStatusAbandoned {
		t.Fatalf("expected status abandoned, got %s", status)
	}
}

func TestCartAbandonmentJob_expireSkipsConvertedCart(t *testing.T) {
	now := time.Date(2026, 3, 20, 6, 0, 0, 0, time.UTC)
	userID := uuid.New()
	staleCart := models.Cart{
		ID:     uuid.New(),
		UserID: &userID,
		Status: enums.CartStatusActive,
	}
	reader := &fakeIdleCartReader{
		nudgeCutoff:  now.Add(-defaultCartNudgeAfter),
		expireCutoff: now.Add(-defaultCartExpireAfter),
		expireCarts:  []models.Cart{staleCart},
	}
	helper := newCartAbandonmentJobTest(t, reader)
	helper.job.now = func() time.Time { return now }
	converted := staleCart
	converted.Status = enums.CartStatusConverted
	helper.repo.cart = &converted

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
	if len(helper.repo.cartUpdates) != 0 {
		t.Fatalf("expected no cart updates, got %d", len(helper.repo.cartUpdates))
	}
}

type cartAbandonmentJobTestHelper struct {
	job        *cartAbandonmentJob
	outboxSvc  *fakeOutboxService
	outboxRepo *fakeOutboxRepo
	repo       *fakeCartRepo
}

func newCartAbandonmentJobTest(t *testing.T, reader idleCartReader) *cartAbandonmentJobTestHelper {
	t.Helper()
	outboxSvc := &fakeOutboxService{}
	outboxRepo := &fakeOutboxRepo{}
	repo := &fakeCartRepo{}
	jobIface, err := NewCartAbandonmentJob(CartAbandonmentJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         fakeTxRunner{},
		CartReader: reader,
		Outbox:     outboxSvc,
		OutboxRepo: outboxRepo,
		TransactionalRepoFactory: func(tx *gorm.DB) transactionalCartRepo {
			return repo
		},
	})
	if err != nil {
		t.Fatalf("NewCartAbandonmentJob: %v", err)
	}
	job, ok := jobIface.(*cartAbandonmentJob)
	if !ok {
		t.Fatalf("expected cartAbandonmentJob, got %T", jobIface)
	}
	return &cartAbandonmentJobTestHelper{
		job:        job,
		outboxSvc:  outboxSvc,
		outboxRepo: outboxRepo,
		repo:       repo,
	}
}

type fakeIdleCartReader struct {
	nudgeCutoff  time.Time
	expireCutoff time.Time
	nudgeCarts   []models.Cart
	expireCarts  []models.Cart
}

func (f *fakeIdleCartReader) FindActiveCartsIdleBefore(ctx context.Context, cutoff time.Time) ([]models.Cart, error) {
	switch {
	case cutoff.Equal(f.nudgeCutoff):
		return f.nudgeCarts, nil
	case cutoff.Equal(f.expireCutoff):
		return f.expireCarts, nil
	default:
		return nil, fmt.Errorf("unexpected cutoff: %s", cutoff)
	}
}

type fakeCartRepo struct {
	cart        *models.Cart
	cartUpdates []cartUpdateCall
}

type cartUpdateCall struct {
	cartID  uuid.UUID
	updates map[string]any
}

func (f *fakeCartRepo) FindCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartRepo) UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error {
	f.cartUpdates = append(f.cartUpdates, cartUpdateCall{cartID: cartID, updates: updates})
	return nil
}

type fakeOutboxRepo struct {
	exists    bool
	existsFor map[uuid.UUID]bool
}

func (f *fakeOutboxRepo) Exists(ctx context.Context, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	if f.existsFor != nil {
		return f.existsFor[aggregateID], nil
	}
	return f.exists, nil
}

type fakeOutboxService struct {
	events []outbox.DomainEvent
}

func (f *fakeOutboxService) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
