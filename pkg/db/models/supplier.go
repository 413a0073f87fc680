package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltline/voltline-backend/pkg/enums"
)

// Supplier represents the canonical vendor tenant.
type Supplier struct {
	ID               uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string               `gorm:"column:name;not null"`
	Slug             string               `gorm:"column:slug;not null;uniqueIndex"`
	ContactEmail     string               `gorm:"column:contact_email;not null"`
	Status           enums.SupplierStatus `gorm:"column:status;type:supplier_status;not null;default:'active'"`
	PayoutAccountRef *string              `gorm:"column:payout_account_ref"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
