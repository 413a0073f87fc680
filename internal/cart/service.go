package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/voltline/voltline-backend/internal/engraving"
	product "github.com/voltline/voltline-backend/internal/products"
	"github.com/voltline/voltline-backend/pkg/db/models"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, *product.SupplierSummary, error)
}

// Service exposes buyer cart operations. All pricing is computed server-side
// from the product catalog; client-sent prices are never trusted.
type Service interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ReplaceCart(ctx context.Context, userID uuid.UUID, input ReplaceCartInput) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, input ItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// ItemInput is one requested cart line.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Engraving *types.EngravingSpec
}

// ReplaceCartInput carries the full desired cart snapshot.
type ReplaceCartInput struct {
	Items []ItemInput
}

// GetActiveCart returns the buyer's active cart, or not-found.
func (s *service) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// ReplaceCart swaps the full cart snapshot atomically, repricing every line.
func (s *service) ReplaceCart(ctx context.Context, userID uuid.UUID, input ReplaceCartInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}

	items := make([]models.CartItem, 0, len(input.Items))
	seen := map[string]struct{}{}
	for _, payload := range input.Items {
		line, err := s.priceLine(ctx, payload)
		if err != nil {
			return nil, err
		}
		key := payload.ProductID.String() + "|" + line.EngravingFingerprint
		if _, dup := seen[key]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate cart line for product and engraving")
		}
		seen[key] = struct{}{}
		items = append(items, *line)
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := s.findOrCreateActive(ctx, txRepo, userID)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].CartID = cart.ID
		}
		if err := txRepo.ReplaceItems(ctx, cart.ID, items); err != nil {
			return err
		}
		if err := txRepo.UpdateCart(ctx, cart.ID, totalsUpdate(items)); err != nil {
			return err
		}
		saved, err = txRepo.FindCart(ctx, cart.ID)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return saved, nil
}

// AddItem appends a line, merging quantity into an existing line when the
// product and engraving fingerprint match.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input ItemInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	line, err := s.priceLine(ctx, input)
	if err != nil {
		return nil, err
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := s.findOrCreateActive(ctx, txRepo, userID)
		if err != nil {
			return err
		}

		merged := false
		for i := range cart.Items {
			existing := &cart.Items[i]
			if existing.ProductID == line.ProductID && existing.EngravingFingerprint == line.EngravingFingerprint {
				repriced, err := s.priceLine(ctx, ItemInput{
					ProductID: input.ProductID,
					Quantity:  existing.Quantity + input.Quantity,
					Engraving: input.Engraving,
				})
				if err != nil {
					return err
				}
				repriced.ID = existing.ID
				repriced.CartID = cart.ID
				repriced.CreatedAt = existing.CreatedAt
				if err := txRepo.UpdateItem(ctx, repriced); err != nil {
					return err
				}
				cart.Items[i] = *repriced
				merged = true
				break
			}
		}
		if !merged {
			line.CartID = cart.ID
			if err := txRepo.CreateItem(ctx, line); err != nil {
				return err
			}
			cart.Items = append(cart.Items, *line)
		}

		if err := txRepo.UpdateCart(ctx, cart.ID, totalsUpdate(cart.Items)); err != nil {
			return err
		}
		saved, err = txRepo.FindCart(ctx, cart.ID)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart item")
	}
	return saved, nil
}

// UpdateItemQuantity reprices a single line at the new quantity.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	cart, err := s.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var target *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			target = &cart.Items[i]
			break
		}
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	repriced, err := s.priceLine(ctx, ItemInput{
		ProductID: target.ProductID,
		Quantity:  quantity,
		Engraving: target.Engraving,
	})
	if err != nil {
		return nil, err
	}
	repriced.ID = target.ID
	repriced.CartID = cart.ID
	repriced.CreatedAt = target.CreatedAt

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateItem(ctx, repriced); err != nil {
			return err
		}
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				cart.Items[i] = *repriced
			}
		}
		if err := txRepo.UpdateCart(ctx, cart.ID, totalsUpdate(cart.Items)); err != nil {
			return err
		}
		saved, err = txRepo.FindCart(ctx, cart.ID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return saved, nil
}

// RemoveItem drops a line and recomputes totals.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		remaining = append(remaining, item)
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return err
		}
		if err := txRepo.UpdateCart(ctx, cart.ID, totalsUpdate(remaining)); err != nil {
			return err
		}
		saved, err = txRepo.FindCart(ctx, cart.ID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return saved, nil
}

// ClearCart empties the active cart in place.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.GetActiveCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ReplaceItems(ctx, cart.ID, nil); err != nil {
			return err
		}
		return txRepo.UpdateCart(ctx, cart.ID, totalsUpdate(nil))
	})
}

func (s *service) findOrCreateActive(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return repo.Create(ctx, &models.Cart{UserID: &userID})
}

// priceLine validates the request against the catalog and prices the line.
func (s *service) priceLine(ctx context.Context, input ItemInput) (*models.CartItem, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	prod, _, err := s.products.GetProductDetail(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !prod.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if input.Quantity < prod.MOQ {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity below minimum order quantity of %d", prod.MOQ))
	}
	if prod.MaxQty > 0 && input.Quantity > prod.MaxQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity exceeds maximum order quantity of %d", prod.MaxQty))
	}
	if prod.Inventory != nil {
		// available_qty is already net of reservations; the reservation
		// engine moves reserved units out of it.
		if input.Quantity > prod.Inventory.AvailableQty {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient inventory for product")
		}
	}

	unitPrice := prod.PriceCents
	var applied *types.AppliedVolumeDiscount
	if tier := selectVolumeTier(input.Quantity, prod.VolumeDiscounts); tier != nil {
		unitPrice = tier.UnitPriceCents
		applied = &types.AppliedVolumeDiscount{
			MinQty:         tier.MinQty,
			UnitPriceCents: tier.UnitPriceCents,
			AmountCents:    (prod.PriceCents - tier.UnitPriceCents) * input.Quantity,
		}
	}

	engravingFee := 0
	fingerprint := ""
	var spec *types.EngravingSpec
	if input.Engraving != nil {
		if err := engraving.Validate(*input.Engraving, prod); err != nil {
			return nil, err
		}
		copied := *input.Engraving
		spec = &copied
		engravingFee = engraving.Fee(copied, prod)
		fingerprint = copied.Fingerprint()
	}

	return &models.CartItem{
		ProductID:             prod.ID,
		SupplierID:            prod.SupplierID,
		Quantity:              input.Quantity,
		UnitPriceCents:        unitPrice,
		AppliedVolumeDiscount: applied,
		Engraving:             spec,
		EngravingFingerprint:  fingerprint,
		EngravingFeeCents:     engravingFee,
		LineSubtotalCents:     input.Quantity*unitPrice + input.Quantity*engravingFee,
	}, nil
}

// totalsUpdate recomputes cart money columns from the lines. Subtotal is at
// base catalog prices; volume savings surface in discounts_cents.
func totalsUpdate(items []models.CartItem) map[string]any {
	subtotal := 0
	discounts := 0
	engravingTotal := 0
	for _, item := range items {
		lineBase := item.UnitPriceCents * item.Quantity
		if item.AppliedVolumeDiscount != nil {
			lineBase += item.AppliedVolumeDiscount.AmountCents
			discounts += item.AppliedVolumeDiscount.AmountCents
		}
		subtotal += lineBase
		engravingTotal += item.EngravingFeeCents * item.Quantity
	}
	return map[string]any{
		"subtotal_cents":  subtotal,
		"discounts_cents": discounts,
		"engraving_cents": engravingTotal,
		"total_cents":     subtotal - discounts + engravingTotal,
	}
}

// selectVolumeTier returns the deepest tier the quantity qualifies for.
func selectVolumeTier(qty int, tiers []models.ProductVolumeDiscount) *models.ProductVolumeDiscount {
	var selected *models.ProductVolumeDiscount
	for _, tier := range tiers {
		if tier.MinQty <= qty {
			if selected == nil || tier.MinQty > selected.MinQty {
				copied := tier
				selected = &copied
			}
		}
	}
	return selected
}
