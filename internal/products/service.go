package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/voltline/voltline-backend/pkg/db"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes supplier product management and storefront reads.
type Service interface {
	CreateProduct(ctx context.Context, supplierID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, supplierID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, supplierID, productID uuid.UUID) error
	GetStorefrontProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListStorefront(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	ListSupplierProducts(ctx context.Context, supplierID uuid.UUID) ([]ProductDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU                      string
	Title                    string
	Description              *string
	Chemistry                enums.BatteryChemistry
	Voltage                  string
	CapacityMAH              int
	FormFactor               enums.FormFactor
	Certifications           []string
	PriceCents               int
	CompareAtPriceCents      *int
	MOQ                      int
	MaxQty                   int
	IsActive                 bool
	IsFeatured               bool
	SupportsEngraving        bool
	EngravingSetupFeeCents   int
	EngravingPerCharFeeCents int
	EngravingMaxChars        int
	Inventory                InventoryInput
	VolumeDiscounts          []VolumeDiscountInput
}

// InventoryInput captures the starting quantity for a product.
type InventoryInput struct {
	AvailableQty int
	ReservedQty  int
}

// VolumeDiscountInput defines a tiered unit price for a given min quantity.
type VolumeDiscountInput struct {
	MinQty         int
	UnitPriceCents int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	SKU                      *string
	Title                    *string
	Description              *string
	Chemistry                *enums.BatteryChemistry
	Voltage                  *string
	CapacityMAH              *int
	FormFactor               *enums.FormFactor
	Certifications           *[]string
	PriceCents               *int
	CompareAtPriceCents      *int
	MOQ                      *int
	MaxQty                   *int
	IsActive                 *bool
	IsFeatured               *bool
	SupportsEngraving        *bool
	EngravingSetupFeeCents   *int
	EngravingPerCharFeeCents *int
	EngravingMaxChars        *int
	Inventory                *InventoryInput
	VolumeDiscounts          *[]VolumeDiscountInput
}

type supplierLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

// service implements the product service.
type service struct {
	repo         *Repository
	dbClient     *db.Client
	supplierRepo supplierLoader
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, supplierRepo supplierLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if supplierRepo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{
		repo:         repo,
		dbClient:     dbClient,
		supplierRepo: supplierRepo,
	}, nil
}

// CreateProduct creates the product with inventory and discount tiers.
func (s *service) CreateProduct(ctx context.Context, supplierID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := s.ensureActiveSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var createdProductID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product := &models.Product{
			SupplierID:               supplierID,
			SKU:                      strings.TrimSpace(input.SKU),
			Title:                    strings.TrimSpace(input.Title),
			Description:              input.Description,
			Chemistry:                input.Chemistry,
			Voltage:                  input.Voltage,
			CapacityMAH:              input.CapacityMAH,
			FormFactor:               input.FormFactor,
			Certifications:           append([]string{}, input.Certifications...),
			PriceCents:               input.PriceCents,
			CompareAtPriceCents:      input.CompareAtPriceCents,
			MOQ:                      input.MOQ,
			MaxQty:                   input.MaxQty,
			IsActive:                 input.IsActive,
			IsFeatured:               input.IsFeatured,
			SupportsEngraving:        input.SupportsEngraving,
			EngravingSetupFeeCents:   input.EngravingSetupFeeCents,
			EngravingPerCharFeeCents: input.EngravingPerCharFeeCents,
			EngravingMaxChars:        input.EngravingMaxChars,
		}

		created, err := txRepo.CreateProduct(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		createdProductID = created.ID

		inventory := &models.InventoryItem{
			ProductID:    created.ID,
			AvailableQty: input.Inventory.AvailableQty,
			ReservedQty:  input.Inventory.ReservedQty,
		}
		if _, err := txRepo.UpsertInventory(ctx, inventory); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert inventory")
		}

		if len(input.VolumeDiscounts) > 0 {
			tiers := buildDiscountRows(created.ID, input.VolumeDiscounts)
			if err := txRepo.ReplaceVolumeDiscounts(ctx, created.ID, tiers); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace volume discounts")
			}
		}

		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	product, summary, err := s.repo.GetProductDetail(ctx, createdProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	return NewProductDTO(product, summary), nil
}

// UpdateProduct updates an existing product and related rows.
func (s *service) UpdateProduct(ctx context.Context, supplierID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := s.ensureActiveSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	if err := validateUpdateInput(input); err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.SupplierID != supplierID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to supplier")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		applyUpdateToProduct(product, input)
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return err
		}

		if input.Inventory != nil {
			inventory := &models.InventoryItem{
				ProductID:    product.ID,
				AvailableQty: input.Inventory.AvailableQty,
				ReservedQty:  input.Inventory.ReservedQty,
			}
			if _, err := txRepo.UpsertInventory(ctx, inventory); err != nil {
				return err
			}
		}

		if input.VolumeDiscounts != nil {
			tiers := buildDiscountRows(product.ID, *input.VolumeDiscounts)
			if err := txRepo.ReplaceVolumeDiscounts(ctx, product.ID, tiers); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	updated, summary, err := s.repo.GetProductDetail(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	return NewProductDTO(updated, summary), nil
}

// DeleteProduct removes a product and relies on FK cascades for related rows.
func (s *service) DeleteProduct(ctx context.Context, supplierID, productID uuid.UUID) error {
	if err := s.ensureActiveSupplier(ctx, supplierID); err != nil {
		return err
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.SupplierID != supplierID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to supplier")
	}

	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// GetStorefrontProduct returns an active product for buyer-facing detail pages.
func (s *service) GetStorefrontProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, summary, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product, summary), nil
}

func (s *service) ListStorefront(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	return s.repo.ListProductSummaries(ctx, productListQuery{
		Pagination: input.Pagination,
		Filters:    input.Filters,
	})
}

func (s *service) ListSupplierProducts(ctx context.Context, supplierID uuid.UUID) ([]ProductDTO, error) {
	if err := s.ensureActiveSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListProductsBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier products")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewProductDTO(&rows[i], nil))
	}
	return dtos, nil
}

func (s *service) ensureActiveSupplier(ctx context.Context, supplierID uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if supplier.Status != enums.SupplierStatusActive {
		return pkgerrors.New(pkgerrors.CodeForbidden, "supplier is suspended")
	}
	return nil
}

func validateCreateInput(input CreateProductInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Chemistry.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown chemistry")
	}
	if !input.FormFactor.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown form factor")
	}
	if err := validateVoltage(input.Voltage); err != nil {
		return err
	}
	if input.CapacityMAH <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "capacity_mah must be positive")
	}
	if input.PriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
	}
	if input.MOQ < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "moq must be at least 1")
	}
	if input.MaxQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max_qty must be non-negative")
	}
	if input.MaxQty > 0 && input.MaxQty < input.MOQ {
		return pkgerrors.New(pkgerrors.CodeValidation, "max_qty cannot be below moq")
	}
	if input.Inventory.AvailableQty < 0 || input.Inventory.ReservedQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory counts must be non-negative")
	}
	if err := validateEngravingConfig(input.SupportsEngraving, input.EngravingSetupFeeCents, input.EngravingPerCharFeeCents, input.EngravingMaxChars); err != nil {
		return err
	}
	return validateDiscountTiers(input.VolumeDiscounts, input.PriceCents)
}

func validateUpdateInput(input UpdateProductInput) error {
	if input.Voltage != nil {
		if err := validateVoltage(*input.Voltage); err != nil {
			return err
		}
	}
	if input.CapacityMAH != nil && *input.CapacityMAH <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "capacity_mah must be positive")
	}
	if input.PriceCents != nil && *input.PriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
	}
	if input.MOQ != nil && *input.MOQ < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "moq must be at least 1")
	}
	if input.MaxQty != nil && *input.MaxQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max_qty must be non-negative")
	}
	if input.Chemistry != nil && !input.Chemistry.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown chemistry")
	}
	if input.FormFactor != nil && !input.FormFactor.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown form factor")
	}
	if input.Inventory != nil {
		if input.Inventory.AvailableQty < 0 || input.Inventory.ReservedQty < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "inventory counts must be non-negative")
		}
	}
	if input.VolumeDiscounts != nil {
		price := 0
		if input.PriceCents != nil {
			price = *input.PriceCents
		}
		if err := validateDiscountTiers(*input.VolumeDiscounts, price); err != nil {
			return err
		}
	}
	return nil
}

// validateVoltage parses the decimal string so "3.7" round-trips exactly.
func validateVoltage(value string) error {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "voltage must be a decimal number")
	}
	if parsed.IsNegative() || parsed.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "voltage must be positive")
	}
	return nil
}

func validateEngravingConfig(supports bool, setupFee, perCharFee, maxChars int) error {
	if setupFee < 0 || perCharFee < 0 || maxChars < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "engraving config must be non-negative")
	}
	if supports && maxChars == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "engraving_max_chars is required when engraving is supported")
	}
	return nil
}

func validateDiscountTiers(tiers []VolumeDiscountInput, basePriceCents int) error {
	seen := make(map[int]struct{}, len(tiers))
	for _, tier := range tiers {
		if tier.MinQty < 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "volume tier min_qty must be at least 2")
		}
		if tier.UnitPriceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "volume tier unit price must be positive")
		}
		if basePriceCents > 0 && tier.UnitPriceCents >= basePriceCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "volume tier unit price must undercut base price")
		}
		if _, ok := seen[tier.MinQty]; ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate volume tier min_qty")
		}
		seen[tier.MinQty] = struct{}{}
	}
	return nil
}

func buildDiscountRows(productID uuid.UUID, tiers []VolumeDiscountInput) []models.ProductVolumeDiscount {
	rows := make([]models.ProductVolumeDiscount, len(tiers))
	for i, tier := range tiers {
		rows[i] = models.ProductVolumeDiscount{
			ProductID:      productID,
			MinQty:         tier.MinQty,
			UnitPriceCents: tier.UnitPriceCents,
		}
	}
	return rows
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Chemistry != nil {
		product.Chemistry = *input.Chemistry
	}
	if input.Voltage != nil {
		product.Voltage = *input.Voltage
	}
	if input.CapacityMAH != nil {
		product.CapacityMAH = *input.CapacityMAH
	}
	if input.FormFactor != nil {
		product.FormFactor = *input.FormFactor
	}
	if input.Certifications != nil {
		product.Certifications = append([]string(nil), *input.Certifications...)
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.CompareAtPriceCents != nil {
		product.CompareAtPriceCents = input.CompareAtPriceCents
	}
	if input.MOQ != nil {
		product.MOQ = *input.MOQ
	}
	if input.MaxQty != nil {
		product.MaxQty = *input.MaxQty
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.SupportsEngraving != nil {
		product.SupportsEngraving = *input.SupportsEngraving
	}
	if input.EngravingSetupFeeCents != nil {
		product.EngravingSetupFeeCents = *input.EngravingSetupFeeCents
	}
	if input.EngravingPerCharFeeCents != nil {
		product.EngravingPerCharFeeCents = *input.EngravingPerCharFeeCents
	}
	if input.EngravingMaxChars != nil {
		product.EngravingMaxChars = *input.EngravingMaxChars
	}
}
