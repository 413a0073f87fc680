package product

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines CRUD operations for supplier listings.
type ProductRepository interface {
	CreateProduct(context.Context, *models.Product) (*models.Product, error)
	UpdateProduct(context.Context, *models.Product) (*models.Product, error)
	DeleteProduct(context.Context, uuid.UUID) error
	GetProductDetail(context.Context, uuid.UUID) (*models.Product, *SupplierSummary, error)
	ListProductsBySupplier(context.Context, uuid.UUID) ([]models.Product, error)
}

// InventoryRepository defines persistence operations for inventory items.
type InventoryRepository interface {
	UpsertInventory(context.Context, *models.InventoryItem) (*models.InventoryItem, error)
	GetInventoryByProductID(context.Context, uuid.UUID) (*models.InventoryItem, error)
}

// SupplierSummary exposes the minimal supplier data used by product read paths.
type SupplierSummary struct {
	SupplierID uuid.UUID
	Name       string
	Slug       string
}

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product by ID.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// GetProductDetail fetches a product with inventory, discounts, and supplier summary.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, *SupplierSummary, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Preload("VolumeDiscounts", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_qty DESC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, nil, err
	}

	summary, err := r.fetchSupplierSummary(ctx, product.SupplierID)
	if err != nil {
		return &product, nil, err
	}
	return &product, summary, nil
}

// ListProductsBySupplier lists the products owned by a supplier with preloaded relations.
func (r *Repository) ListProductsBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Preload("VolumeDiscounts", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_qty DESC")
		}).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// UpsertInventory creates or updates the inventory row for a product.
func (r *Repository) UpsertInventory(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// GetInventoryByProductID returns the inventory row for the provided product.
func (r *Repository) GetInventoryByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ReplaceVolumeDiscounts replaces all volume discounts for the product.
func (r *Repository) ReplaceVolumeDiscounts(ctx context.Context, productID uuid.UUID, tiers []models.ProductVolumeDiscount) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVolumeDiscount{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	return tx.Create(&tiers).Error
}

// ListVolumeDiscounts returns all tiers for a product ordered by min_qty descending.
func (r *Repository) ListVolumeDiscounts(ctx context.Context, productID uuid.UUID) ([]models.ProductVolumeDiscount, error) {
	var rows []models.ProductVolumeDiscount
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("min_qty DESC").
		Find(&rows).
		Error
	return rows, err
}

type productListQuery struct {
	Pagination pagination.Params
	Filters    ProductListFilters
	SupplierID *uuid.UUID
}

func (r *Repository) ListProductSummaries(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	tierExistsClause := "EXISTS (SELECT 1 FROM product_volume_discounts d WHERE d.product_id = p.id)"

	qb := r.db.WithContext(ctx).
		Table("products p").
		Select(strings.Join([]string{
			"p.id",
			"p.sku",
			"p.title",
			"p.chemistry",
			"p.voltage",
			"p.capacity_mah",
			"p.form_factor",
			"p.price_cents",
			"p.compare_at_price_cents",
			"p.moq",
			"p.max_qty",
			"p.supports_engraving",
			"p.is_featured",
			"p.created_at",
			"p.updated_at",
			"p.supplier_id",
			"s.name AS supplier_name",
			"s.slug AS supplier_slug",
			"COALESCE(i.available_qty, 0) AS sellable_qty",
			tierExistsClause + " AS has_volume_pricing",
		}, ", ")).
		Joins("JOIN suppliers s ON s.id = p.supplier_id").
		Joins("LEFT JOIN inventory_items i ON i.product_id = p.id")

	filter := query.Filters
	if filter.Chemistry != nil {
		qb = qb.Where("p.chemistry = ?", *filter.Chemistry)
	}
	if filter.FormFactor != nil {
		qb = qb.Where("p.form_factor = ?", *filter.FormFactor)
	}
	if filter.SupplierSlug != nil {
		qb = qb.Where("s.slug = ?", *filter.SupplierSlug)
	}
	if filter.VoltageMin != nil {
		qb = qb.Where("p.voltage >= ?", *filter.VoltageMin)
	}
	if filter.VoltageMax != nil {
		qb = qb.Where("p.voltage <= ?", *filter.VoltageMax)
	}
	if filter.CapacityMinMAH != nil {
		qb = qb.Where("p.capacity_mah >= ?", *filter.CapacityMinMAH)
	}
	if filter.CapacityMaxMAH != nil {
		qb = qb.Where("p.capacity_mah <= ?", *filter.CapacityMaxMAH)
	}
	if filter.PriceMinCents != nil {
		qb = qb.Where("p.price_cents >= ?", *filter.PriceMinCents)
	}
	if filter.PriceMaxCents != nil {
		qb = qb.Where("p.price_cents <= ?", *filter.PriceMaxCents)
	}
	if filter.SupportsEngraving != nil {
		qb = qb.Where("p.supports_engraving = ?", *filter.SupportsEngraving)
	}
	if filter.InStock != nil && *filter.InStock {
		qb = qb.Where("COALESCE(i.available_qty, 0) > 0")
	}
	if filter.HasVolumePricing != nil {
		if *filter.HasVolumePricing {
			qb = qb.Where(tierExistsClause)
		} else {
			qb = qb.Where("NOT " + tierExistsClause)
		}
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(p.title) LIKE ? OR LOWER(p.sku) LIKE ?)", pattern, pattern)
	}

	if query.SupplierID != nil {
		qb = qb.Where("p.supplier_id = ?", *query.SupplierID)
	} else {
		qb = qb.Where("s.status = ?", "active")
		qb = qb.Where("p.is_active = ?", true)
	}

	if cursor != nil {
		qb = qb.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("p.created_at DESC").Order("p.id DESC").Limit(limitWithBuffer)

	var records []productSummaryRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("list products (limit=%d)", pageSize))
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]ProductSummary, 0, len(resultRows))
	for _, record := range resultRows {
		summaries = append(summaries, record.toSummary())
	}

	return &ProductListResult{
		Products:   summaries,
		NextCursor: nextCursor,
	}, nil
}

type productSummaryRecord struct {
	ID                  uuid.UUID
	SKU                 string
	Title               string
	Chemistry           string
	Voltage             string
	CapacityMAH         int `gorm:"column:capacity_mah"`
	FormFactor          string
	PriceCents          int
	CompareAtPriceCents sql.NullInt64
	MOQ                 int `gorm:"column:moq"`
	MaxQty              int
	SupportsEngraving   bool
	IsFeatured          bool
	HasVolumePricing    bool
	SellableQty         int
	SupplierID          uuid.UUID
	SupplierName        string
	SupplierSlug        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r productSummaryRecord) toSummary() ProductSummary {
	return ProductSummary{
		ID:                  r.ID,
		SKU:                 r.SKU,
		Title:               r.Title,
		Chemistry:           r.Chemistry,
		Voltage:             r.Voltage,
		CapacityMAH:         r.CapacityMAH,
		FormFactor:          r.FormFactor,
		PriceCents:          r.PriceCents,
		CompareAtPriceCents: nullIntPtr(r.CompareAtPriceCents),
		MOQ:                 r.MOQ,
		MaxQty:              r.MaxQty,
		SupportsEngraving:   r.SupportsEngraving,
		IsFeatured:          r.IsFeatured,
		HasVolumePricing:    r.HasVolumePricing,
		InStock:             r.SellableQty > 0,
		SupplierID:          r.SupplierID,
		SupplierName:        r.SupplierName,
		SupplierSlug:        r.SupplierSlug,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func nullIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func (r *Repository) fetchSupplierSummary(ctx context.Context, supplierID uuid.UUID) (*SupplierSummary, error) {
	type supplierRow struct {
		ID   uuid.UUID
		Name string
		Slug string
	}

	var row supplierRow
	err := r.db.WithContext(ctx).
		Table("suppliers").
		Select("id, name, slug").
		Where("id = ?", supplierID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &SupplierSummary{
		SupplierID: row.ID,
		Name:       row.Name,
		Slug:       row.Slug,
	}, nil
}
