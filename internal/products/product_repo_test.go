package product

import (
	"context"
	"testing"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/pagination"
	"github.com/google/uuid"
)

func TestRepositoryProductFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	supplier := mustCreateTestSupplier(t, tx)
	product := mustCreateTestProduct(t, tx, supplier.ID)

	if product.ID == uuid.Nil {
		t.Fatal("expected product id to be generated")
	}

	if _, err := repo.UpsertInventory(ctx, &models.InventoryItem{
		ProductID:    product.ID,
		AvailableQty: 500,
		ReservedQty:  20,
	}); err != nil {
		t.Fatalf("upsert inventory: %v", err)
	}

	if err := repo.ReplaceVolumeDiscounts(ctx, product.ID, []models.ProductVolumeDiscount{
		{ProductID: product.ID, MinQty: 100, UnitPriceCents: 400},
		{ProductID: product.ID, MinQty: 500, UnitPriceCents: 350},
	}); err != nil {
		t.Fatalf("replace discounts: %v", err)
	}

	detail, summary, err := repo.GetProductDetail(ctx, product.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if summary.SupplierID != supplier.ID {
		t.Fatalf("expected supplier summary %s, got %s", supplier.ID, summary.SupplierID)
	}
	if detail.Inventory == nil || detail.Inventory.AvailableQty != 500 {
		t.Fatal("expected inventory to be preloaded")
	}
	if len(detail.VolumeDiscounts) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(detail.VolumeDiscounts))
	}
	if detail.VolumeDiscounts[0].MinQty != 500 {
		t.Fatalf("expected tiers ordered by min_qty desc, got %d first", detail.VolumeDiscounts[0].MinQty)
	}

	detail.Title = "Updated Title"
	if _, err := repo.UpdateProduct(ctx, detail); err != nil {
		t.Fatalf("update product: %v", err)
	}

	fetched, _, err := repo.GetProductDetail(ctx, product.ID)
	if err != nil {
		t.Fatalf("get detail after update: %v", err)
	}
	if fetched.Title != "Updated Title" {
		t.Fatalf("expected updated title, got %q", fetched.Title)
	}

	result, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		SupplierID: &supplier.ID,
	})
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(result.Products))
	}
	if !result.Products[0].HasVolumePricing {
		t.Fatal("expected has_volume_pricing true")
	}
	if !result.Products[0].InStock {
		t.Fatal("expected in_stock true")
	}

	if err := repo.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if _, err := repo.FindByID(ctx, product.ID); err == nil {
		t.Fatal("expected product to be gone")
	}
}

func TestRepositoryHeavilyReservedProductStaysSellable(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	supplier := mustCreateTestSupplier(t, tx)
	product := mustCreateTestProduct(t, tx, supplier.ID)

	// Reservations already moved 3 of the original 5 units out of
	// available_qty. The remaining 2 are sellable as-is.
	if _, err := repo.UpsertInventory(ctx, &models.InventoryItem{
		ProductID:    product.ID,
		AvailableQty: 2,
		ReservedQty:  3,
	}); err != nil {
		t.Fatalf("upsert inventory: %v", err)
	}

	inStock := true
	result, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		SupplierID: &supplier.ID,
		Filters:    ProductListFilters{InStock: &inStock},
	})
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected the reserved-but-available product, got %d rows", len(result.Products))
	}
	if !result.Products[0].InStock {
		t.Fatal("expected in_stock true with 2 units remaining")
	}
}

func TestRepositoryListFiltersByChemistry(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	supplier := mustCreateTestSupplier(t, tx)
	liIon := mustCreateTestProduct(t, tx, supplier.ID)

	lifepo := mustCreateTestProduct(t, tx, supplier.ID)
	lifepo.Chemistry = "lifepo4"
	if err := tx.Save(lifepo).Error; err != nil {
		t.Fatalf("save lifepo4 product: %v", err)
	}

	chem := liIon.Chemistry
	result, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		SupplierID: &supplier.ID,
		Filters:    ProductListFilters{Chemistry: &chem},
	})
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected 1 filtered summary, got %d", len(result.Products))
	}
	if result.Products[0].ID != liIon.ID {
		t.Fatalf("expected li_ion product, got %s", result.Products[0].ID)
	}
}
