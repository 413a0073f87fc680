package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrowseEvent records a product-detail view and feeds browse abandonment.
type BrowseEvent struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:ix_browse_events_user_viewed"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	ViewedAt   time.Time  `gorm:"column:viewed_at;not null;index:ix_browse_events_user_viewed"`
	NotifiedAt *time.Time `gorm:"column:notified_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the id client-side so inserts also work on databases
// without gen_random_uuid.
func (e *BrowseEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
