package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
)

func newNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ddl := `CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		link TEXT,
		sent_at DATETIME,
		read_at DATETIME,
		created_at DATETIME
	)`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create notifications: %v", err)
	}
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		UserID:    userID,
		Type:      enums.NotificationTypeCartNudge,
		Title:     "Your cart is waiting",
		Message:   "Come back",
		CreatedAt: createdAt,
	}
	if err := db.Create(notification).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return notification
}

func TestNotificationRepositoryListPaginates(t *testing.T) {
	t.Parallel()

	db := newNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedNotification(t, db, userID, base.Add(time.Duration(i)*time.Hour))
	}
	seedNotification(t, db, uuid.New(), base)

	first, cursor, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(first))
	}
	if cursor == nil {
		t.Fatal("expected a cursor for the next page")
	}
	if !first[0].CreatedAt.After(first[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}

	rest, next, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 remaining row, got %d", len(rest))
	}
	if next != nil {
		t.Fatal("expected no further cursor")
	}
}

func TestNotificationRepositoryUnreadFilterAndMarkRead(t *testing.T) {
	t.Parallel()

	db := newNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

	target := seedNotification(t, db, userID, now)
	seedNotification(t, db, userID, now.Add(time.Minute))

	result, err := repo.MarkRead(ctx, userID, target.ID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !result.Found || !result.Updated {
		t.Fatalf("expected found+updated, got %+v", result)
	}

	// Second mark is a no-op but the row is still found.
	again, err := repo.MarkRead(ctx, userID, target.ID, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("MarkRead repeat: %v", err)
	}
	if !again.Found || again.Updated {
		t.Fatalf("expected found without update, got %+v", again)
	}

	unread, _, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 10, UnreadOnly: true})
	if err != nil {
		t.Fatalf("List unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread row, got %d", len(unread))
	}

	missing, err := repo.MarkRead(ctx, uuid.New(), target.ID, now)
	if err != nil {
		t.Fatalf("MarkRead other user: %v", err)
	}
	if missing.Found {
		t.Fatal("other users must not see the notification")
	}
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	t.Parallel()

	db := newNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)

	seedNotification(t, db, userID, now)
	seedNotification(t, db, userID, now.Add(time.Minute))
	seedNotification(t, db, uuid.New(), now)

	count, err := repo.MarkAllRead(ctx, userID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 updated rows, got %d", count)
	}

	unread, _, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 10, UnreadOnly: true})
	if err != nil {
		t.Fatalf("List unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread rows, got %d", len(unread))
	}
}
