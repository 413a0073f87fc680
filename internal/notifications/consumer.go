package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/email"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/voltline/voltline-backend/pkg/outbox"
	"github.com/google/uuid"
)

const notificationConsumerName = "notifications"

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type composeFunc func(data json.RawMessage) (draft, error)

// composers maps domain events to the notification they produce. Events not
// listed here are acked and skipped.
var composers = map[enums.OutboxEventType]composeFunc{
	enums.EventCartAbandonmentNudge: composeCartNudge,
	enums.EventBrowseNudge:          composeBrowseNudge,
	enums.EventQuoteIssued:          composeQuoteIssued,
	enums.EventQuoteExpiringSoon:    composeQuoteExpiring,
	enums.EventQuoteExpired:         composeQuoteExpired,
	enums.EventOrderPaid:            composeOrderConfirmed,
	enums.EventOrderFulfilled:       composeOrderFulfilled,
	enums.EventPaymentFailed:        composePaymentFailed,
}

// Consumer turns domain events into notification rows and outbound emails.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	repo         Repository
	users        userReader
	sender       email.Sender
	manager      idempotencyChecker
	logg         *logger.Logger
	now          func() time.Time
}

// ConsumerParams carries the dependencies for NewConsumer.
type ConsumerParams struct {
	Subscription *gcppubsub.Subscriber
	Repo         Repository
	Users        userReader
	Sender       email.Sender
	Idempotency  idempotencyChecker
	Logger       *logger.Logger
}

// NewConsumer validates dependencies and builds the notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, errors.New("notification subscription is required")
	}
	if params.Repo == nil {
		return nil, errors.New("notifications repository is required")
	}
	if params.Users == nil {
		return nil, errors.New("user reader is required")
	}
	if params.Sender == nil {
		return nil, errors.New("email sender is required")
	}
	if params.Idempotency == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	return &Consumer{
		subscription: params.Subscription,
		repo:         params.Repo,
		users:        params.Users,
		sender:       params.Sender,
		manager:      params.Idempotency,
		logg:         params.Logger,
		now:          time.Now,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes notification-relevant events until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := c.logg.WithFields(ctx, fields)

	eventTypeStr := strings.TrimSpace(msg.Attributes["event_type"])
	eventType, err := enums.ParseOutboxEventType(eventTypeStr)
	if err != nil {
		fields["event_type"] = eventTypeStr
		c.logg.Warn(logCtx, "unknown event type")
		return processResult{}
	}
	fields["event_type"] = eventType

	compose, ok := composers[eventType]
	if !ok {
		return processResult{}
	}

	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		fields["error"] = err.Error()
		c.logg.Warn(logCtx, "invalid payload envelope")
		return processResult{}
	}
	eventID, err := uuid.Parse(strings.TrimSpace(stored.EventID))
	if err != nil {
		c.logg.Warn(logCtx, "invalid event id")
		return processResult{}
	}
	fields["event_id"] = eventID
	logCtx = c.logg.WithFields(ctx, fields)

	already, err := c.manager.CheckAndMarkProcessed(logCtx, notificationConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	content, err := compose(stored.Data)
	if err != nil {
		c.logg.Warn(logCtx, "malformed event payload")
		return processResult{}
	}

	if err := c.deliver(logCtx, content); err != nil {
		c.logg.Error(logCtx, "notification delivery failed", err)
		_ = c.manager.Delete(logCtx, notificationConsumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification delivered")
	return processResult{}
}

func (c *Consumer) deliver(ctx context.Context, content draft) error {
	if content.UserID == uuid.Nil {
		return errors.New("notification has no recipient")
	}

	user, err := c.users.FindByID(ctx, content.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Warn(ctx, "recipient no longer exists")
			return nil
		}
		return fmt.Errorf("load recipient: %w", err)
	}

	notification := &models.Notification{
		UserID:  user.ID,
		Type:    content.Type,
		Title:   content.Title,
		Message: content.Message,
		Link:    content.Link,
	}

	// Inactive accounts keep the in-app record but receive no email.
	if user.IsActive {
		msg := email.Message{
			ToEmail:  user.Email,
			ToName:   strings.TrimSpace(user.FirstName + " " + user.LastName),
			Subject:  content.Title,
			TextBody: content.Message,
			HTMLBody: renderHTML(content),
		}
		if err := c.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		sentAt := c.now().UTC()
		notification.SentAt = &sentAt
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	return nil
}
