package analytics

import (
	"context"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrowseRepository persists product-detail views and feeds the browse
// abandonment scheduler.
type BrowseRepository struct {
	db *gorm.DB
}

// NewBrowseRepository constructs a browse repo bound to the provided GORM DB.
func NewBrowseRepository(db *gorm.DB) *BrowseRepository {
	return &BrowseRepository{db: db}
}

// RecordView inserts a browse event for the user/product pair.
func (r *BrowseRepository) RecordView(ctx context.Context, userID, productID uuid.UUID, at time.Time) (*models.BrowseEvent, error) {
	event := &models.BrowseEvent{
		UserID:    userID,
		ProductID: productID,
		ViewedAt:  at.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// FindNudgeCandidatesBefore returns un-notified views older than the cutoff
// where the user has no newer browse activity. A user who kept browsing is
// not stalled, so only the trailing view of a session qualifies.
func (r *BrowseRepository) FindNudgeCandidatesBefore(ctx context.Context, cutoff time.Time) ([]models.BrowseEvent, error) {
	var events []models.BrowseEvent
	err := r.db.WithContext(ctx).
		Where("notified_at IS NULL").
		Where("viewed_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM browse_events newer WHERE newer.user_id = browse_events.user_id AND newer.viewed_at > browse_events.viewed_at)").
		Order("viewed_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// MarkNotified stamps the browse event so it is never nudged twice.
func (r *BrowseRepository) MarkNotified(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.BrowseEvent{}).
		Where("id = ?", eventID).
		UpdateColumn("notified_at", at.UTC()).Error
}
