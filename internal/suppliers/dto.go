package suppliers

import (
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/google/uuid"
)

// SupplierDTO is the supplier payload returned to clients.
type SupplierDTO struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	ContactEmail     string    `json:"contact_email"`
	Status           string    `json:"status"`
	PayoutAccountRef *string   `json:"payout_account_ref,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FromModel maps the persisted supplier onto the DTO.
func FromModel(m *models.Supplier) *SupplierDTO {
	if m == nil {
		return nil
	}
	return &SupplierDTO{
		ID:               m.ID,
		Name:             m.Name,
		Slug:             m.Slug,
		ContactEmail:     m.ContactEmail,
		Status:           string(m.Status),
		PayoutAccountRef: m.PayoutAccountRef,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
