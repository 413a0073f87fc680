package cart

import (
	"context"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository abstracts cart persistence so services and jobs can run
// against transactions or fakes.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindActiveCartsIdleBefore(ctx context.Context, cutoff time.Time) ([]models.Cart, error)
	HasCartActivitySince(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error)
}
