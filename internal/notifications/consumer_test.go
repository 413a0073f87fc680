package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/email"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/voltline/voltline-backend/pkg/outbox/payloads"
)

type stubUserReader struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserReader) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

type stubSender struct {
	sent []email.Message
	err  error
}

func (s *stubSender) Send(_ context.Context, msg email.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubIdempotency struct {
	checkResult bool
	checkErr    error
	checked     []uuid.UUID
	deleted     []uuid.UUID
}

func (s *stubIdempotency) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	s.checked = append(s.checked, eventID)
	return s.checkResult, s.checkErr
}

func (s *stubIdempotency) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

type consumerFixture struct {
	consumer *Consumer
	repo     *fakeNotificationRepo
	sender   *stubSender
	manager  *stubIdempotency
	user     *models.User
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     "buyer@example.com",
		FirstName: "Dana",
		LastName:  "Reyes",
		IsActive:  true,
	}
	repo := &fakeNotificationRepo{}
	sender := &stubSender{}
	manager := &stubIdempotency{}
	consumer := &Consumer{
		repo:    repo,
		users:   &stubUserReader{users: map[uuid.UUID]*models.User{user.ID: user}},
		sender:  sender,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "notifications-test"}),
		now:     func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) },
	}
	return &consumerFixture{consumer: consumer, repo: repo, sender: sender, manager: manager, user: user}
}

func buildEventMessage(t *testing.T, eventType enums.OutboxEventType, payload any) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		ID:         "msg-1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerDeliversOrderConfirmed(t *testing.T) {
	fix := newConsumerFixture(t)
	orderID := uuid.New()
	msg := buildEventMessage(t, enums.EventOrderPaid, payloads.OrderPaidEvent{
		OrderID:     orderID,
		UserID:      fix.user.ID,
		AmountCents: 125000,
		PaidAt:      time.Now().UTC(),
	})

	res := fix.consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatal("expected ack")
	}

	if len(fix.sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(fix.sender.sent))
	}
	sent := fix.sender.sent[0]
	if sent.ToEmail != fix.user.Email || sent.Subject != "Order confirmed" {
		t.Fatalf("unexpected email %+v", sent)
	}

	if len(fix.repo.created) != 1 {
		t.Fatalf("expected 1 notification row, got %d", len(fix.repo.created))
	}
	row := fix.repo.created[0]
	if row.Type != enums.NotificationTypeOrderConfirmed {
		t.Fatalf("unexpected type %s", row.Type)
	}
	if row.SentAt == nil {
		t.Fatal("expected sent_at to be recorded")
	}
	if row.Link == nil || *row.Link != "/orders/"+orderID.String() {
		t.Fatalf("unexpected link %v", row.Link)
	}
}

func TestConsumerSkipsUnrelatedEvents(t *testing.T) {
	fix := newConsumerFixture(t)
	msg := buildEventMessage(t, enums.EventCartConverted, payloads.CartConvertedEvent{
		CartID: uuid.New(),
		UserID: fix.user.ID,
	})

	res := fix.consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatal("unrelated events should ack")
	}
	if len(fix.manager.checked) != 0 {
		t.Fatal("idempotency should not run for skipped events")
	}
	if len(fix.sender.sent) != 0 || len(fix.repo.created) != 0 {
		t.Fatal("nothing should be delivered")
	}
}

func TestConsumerSkipsAlreadyProcessed(t *testing.T) {
	fix := newConsumerFixture(t)
	fix.manager.checkResult = true
	msg := buildEventMessage(t, enums.EventOrderPaid, payloads.OrderPaidEvent{
		OrderID: uuid.New(),
		UserID:  fix.user.ID,
	})

	res := fix.consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(fix.sender.sent) != 0 || len(fix.repo.created) != 0 {
		t.Fatal("already processed events must not deliver again")
	}
}

func TestConsumerNacksOnSendFailure(t *testing.T) {
	fix := newConsumerFixture(t)
	fix.sender.err = errors.New("sendgrid down")
	msg := buildEventMessage(t, enums.EventQuoteIssued, payloads.QuoteIssuedEvent{
		QuoteID:    uuid.New(),
		UserID:     fix.user.ID,
		TotalCents: 50000,
		ValidUntil: time.Now().Add(7 * 24 * time.Hour),
	})

	res := fix.consumer.process(context.Background(), msg)
	if !res.nack {
		t.Fatal("expected nack on delivery failure")
	}
	if len(fix.manager.deleted) != 1 {
		t.Fatal("idempotency mark should be released for retry")
	}
	if len(fix.repo.created) != 0 {
		t.Fatal("no row should persist when the email failed")
	}
}

func TestConsumerInactiveUserGetsRowWithoutEmail(t *testing.T) {
	fix := newConsumerFixture(t)
	fix.user.IsActive = false
	msg := buildEventMessage(t, enums.EventBrowseNudge, payloads.BrowseNudgeEvent{
		UserID:    fix.user.ID,
		ProductID: uuid.New(),
	})

	res := fix.consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(fix.sender.sent) != 0 {
		t.Fatal("inactive accounts must not receive email")
	}
	if len(fix.repo.created) != 1 {
		t.Fatalf("expected in-app row, got %d", len(fix.repo.created))
	}
	if fix.repo.created[0].SentAt != nil {
		t.Fatal("sent_at must stay empty without an email")
	}
}

func TestConsumerAcksMissingRecipient(t *testing.T) {
	fix := newConsumerFixture(t)
	msg := buildEventMessage(t, enums.EventPaymentFailed, payloads.PaymentFailedEvent{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
	})

	res := fix.consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatal("missing recipients should not trigger retries")
	}
	if len(fix.sender.sent) != 0 || len(fix.repo.created) != 0 {
		t.Fatal("nothing should be delivered for a missing user")
	}
}

func TestComposeCartNudgeFormatsMoney(t *testing.T) {
	payload, _ := json.Marshal(payloads.CartAbandonmentNudgeEvent{
		CartID:     uuid.New(),
		UserID:     uuid.New(),
		ItemCount:  1,
		TotalCents: 249950,
	})

	content, err := composeCartNudge(payload)
	if err != nil {
		t.Fatalf("composeCartNudge: %v", err)
	}
	if content.Type != enums.NotificationTypeCartNudge {
		t.Fatalf("unexpected type %s", content.Type)
	}
	want := "You left 1 item worth $2499.50 in your cart. Pick up where you left off before stock moves."
	if content.Message != want {
		t.Fatalf("unexpected message %q", content.Message)
	}
	if content.Link == nil || *content.Link != "/cart" {
		t.Fatalf("unexpected link %v", content.Link)
	}
}
