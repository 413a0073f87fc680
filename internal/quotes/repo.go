package quotes

import (
	"context"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuoteRepository abstracts quote persistence so services and jobs can run
// against transactions or fakes.
type QuoteRepository interface {
	WithTx(tx *gorm.DB) QuoteRepository
	Create(ctx context.Context, quote *models.Quote) (*models.Quote, error)
	FindQuote(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
	UpdateQuote(ctx context.Context, quoteID uuid.UUID, updates map[string]any) error
	UpdateLineItem(ctx context.Context, item *models.QuoteLineItem) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Quote, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.QuoteStatus, limit int) ([]models.Quote, error)
	FindIssuedQuotesExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Quote, error)
}

// Repository exposes persistence operations for quotes and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a quote repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) QuoteRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a quote together with its lines.
func (r *Repository) Create(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

// FindQuote loads a quote with its lines.
func (r *Repository) FindQuote(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&quote, "id = ?", quoteID).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// UpdateQuote applies a column map to the quote row.
func (r *Repository) UpdateQuote(ctx context.Context, quoteID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", quoteID).
		Updates(updates).Error
}

// UpdateLineItem saves one quote line.
func (r *Repository) UpdateLineItem(ctx context.Context, item *models.QuoteLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// ListByUser returns the buyer's quotes, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&quotes).Error
	return quotes, err
}

// ListBySupplier returns quotes addressed to the supplier, optionally filtered
// by status, newest first.
func (r *Repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.QuoteStatus, limit int) ([]models.Quote, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("supplier_id = ?", supplierID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var quotes []models.Quote
	err := query.Order("created_at DESC").Limit(limit).Find(&quotes).Error
	return quotes, err
}

// FindIssuedQuotesExpiringBefore returns issued quotes whose valid_until falls
// before the cutoff. Feeds the expiry warning and expiration loops.
func (r *Repository) FindIssuedQuotesExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", enums.QuoteStatusIssued, cutoff).
		Order("valid_until ASC").
		Find(&quotes).Error
	return quotes, err
}
