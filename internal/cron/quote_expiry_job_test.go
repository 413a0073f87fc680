package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestQuoteExpiryJob_warnEmitsExpiringSoonEvent(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	validUntil := now.Add(48 * time.Hour)
	quote := models.Quote{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		SupplierID: uuid.New(),
		Status:     enums.QuoteStatusIssued,
		ValidUntil: &validUntil,
	}
	reader := &fakeIssuedQuoteReader{
		warnCutoff:   now.Add(defaultQuoteWarningWindow),
		expireCutoff: now,
		warnQuotes:   []models.Quote{quote},
	}
	helper := newQuoteExpiryJobTest(t, reader)
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	event := helper.outboxSvc.events[0]
	if event.EventType != enums.EventQuoteExpiringSoon {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.QuoteExpiringSoonEvent)
	if !ok {
		t.Fatal("expected expiring soon payload")
	}
	if payload.QuoteID != quote.ID {
		t.Fatalf("unexpected quote id: %s", payload.QuoteID)
	}
	if payload.HoursRemaining != 48 {
		t.Fatalf("unexpected hours remaining: %d", payload.HoursRemaining)
	}
	if len(helper.repo.quoteUpdates) != 1 {
		t.Fatalf("expected quote update, got %d", len(helper.repo.quoteUpdates))
	}
	if _, ok := helper.repo.quoteUpdates[0].updates["expiry_notified_at"]; !ok {
		t.Fatal("expected expiry_notified_at to be stamped")
	}
}

func TestQuoteExpiryJob_warnSkipsNotifiedQuotes(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	validUntil := now.Add(24 * time.Hour)
	notified := now.Add(-6 * time.Hour)
	reader := &fakeIssuedQuoteReader{
		warnCutoff:   now.Add(defaultQuoteWarningWindow),
		expireCutoff: now,
		warnQuotes: []models.Quote{
			{ID: uuid.New(), Status: enums.QuoteStatusIssued, ValidUntil: &validUntil, ExpiryNotifiedAt: &notified},
		},
	}
	helper := newQuoteExpiryJobTest(t, reader)
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
}

func TestQuoteExpiryJob_expireMarksQuoteExpired(t *testing.T) {
	now := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	validUntil := now.Add(-1 * time.Hour)
	quote := models.Quote{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		SupplierID: uuid.New(),
		Status:     enums.QuoteStatusIssued,
		ValidUntil: &validUntil,
	}
	reader := &fakeIssuedQuoteReader{
		warnCutoff:   now.Add(defaultQuoteWarningWindow),
		expireCutoff: now,
		expireQuotes: []models.Quote{quote},
	}
	helper := newQuoteExpiryJobTest(t, reader)
	helper.job.now = func() time.Time { return now }
	helper.repo.quote = &quote

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	event := helper.outboxSvc.events[0]
	if event.EventType != enums.EventQuoteExpired {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.QuoteExpiredEvent)
	if !ok {
		t.Fatal("expected expired payload")
	}
	if payload.QuoteID != quote.ID {
		t.Fatalf("unexpected quote id: %s", payload.QuoteID)
	}
	if len(helper.repo.quoteUpdates) != 1 {
		t.Fatalf("expected quote update, got %d", len(helper.repo.quoteUpdates))
	}
	status, _ := helper.repo.quoteUpdates[0].updates["status"].(enums.QuoteStatus)
	if status != enums.QuoteStatusExpired {
		t.Fatalf("expected status expired, got %s", status)
	}
}

func TestQuoteExpiryJob_expireSkipsAcceptedQuote(t *testing.T) {
	now := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	validUntil := now.Add(-1 * time.Hour)
	quote := models.Quote{
		ID:         uuid.New(),
		Status:     enums.QuoteStatusIssued,
		ValidUntil: &validUntil,
	}
	reader := &fakeIssuedQuoteReader{
		warnCutoff:   now.Add(defaultQuoteWarningWindow),
		expireCutoff: now,
		expireQuotes: []models.Quote{quote},
	}
	helper := newQuoteExpiryJobTest(t, reader)
	helper.job.now = func() time.Time { return now }
	accepted := quote
	accepted.Status = enums.QuoteStatusAccepted
	helper.repo.quote = &accepted

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
	if len(helper.repo.quoteUpdates) != 0 {
		t.Fatalf("expected no quote updates, got %d", len(helper.repo.quoteUpdates))
	}
}

type quoteExpiryJobTestHelper struct {
	job        *quoteExpiryJob
	outboxSvc  *fakeOutboxService
	outboxRepo *fakeOutboxRepo
	repo       *fakeQuoteRepo
}

func newQuoteExpiryJobTest(t *testing.T, reader issuedQuoteReader) *quoteExpiryJobTestHelper {
	t.Helper()
	outboxSvc := &fakeOutboxService{}
	outboxRepo := &fakeOutboxRepo{}
	repo := &fakeQuoteRepo{}
	jobIface, err := NewQuoteExpiryJob(QuoteExpiryJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          fakeTxRunner{},
		QuoteReader: reader,
		Outbox:      outboxSvc,
		OutboxRepo:  outboxRepo,
		TransactionalRepoFactory: func(tx *gorm.DB) transactionalQuoteRepo {
			return repo
		},
	})
	if err != nil {
		t.Fatalf("NewQuoteExpiryJob: %v", err)
	}
	job, ok := jobIface.(*quoteExpiryJob)
	if !ok {
		t.Fatalf("expected quoteExpiryJob, got %T", jobIface)
	}
	return &quoteExpiryJobTestHelper{
		job:        job,
		outboxSvc:  outboxSvc,
		outboxRepo: outboxRepo,
		repo:       repo,
	}
}

type fakeIssuedQuoteReader struct {
	warnCutoff   time.Time
	expireCutoff time.Time
	warnQuotes   []models.Quote
	expireQuotes []models.Quote
}

func (f *fakeIssuedQuoteReader) FindIssuedQuotesExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Quote, error) {
	switch {
	case cutoff.Equal(f.warnCutoff):
		return f.warnQuotes, nil
	case cutoff.Equal(f.expireCutoff):
		return f.expireQuotes, nil
	default:
		return nil, fmt.Errorf("unexpected cutoff: %s", cutoff)
	}
}

type fakeQuoteRepo struct {
	quote        *models.Quote
	quoteUpdates []quoteUpdateCall
}

type quoteUpdateCall struct {
	quoteID uuid.UUID
	updates map[string]any
}

func (f *fakeQuoteRepo) FindQuote(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	return f.quote, nil
}

func (f *fakeQuoteRepo) UpdateQuote(ctx context.Context, quoteID uuid.UUID, updates map[string]any) error {
	f.quoteUpdates = append(f.quoteUpdates, quoteUpdateCall{quoteID: quoteID, updates: updates})
	return nil
}
