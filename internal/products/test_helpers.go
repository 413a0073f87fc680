package product

import (
	"fmt"
	"testing"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func mustCreateTestSupplier(t *testing.T, tx *gorm.DB) *models.Supplier {
	t.Helper()
	supplier := &models.Supplier{
		ID:           uuid.New(),
		Name:         "Repo Cells Inc",
		Slug:         fmt.Sprintf("repo-cells-%s", uuid.NewString()[:8]),
		ContactEmail: fmt.Sprintf("vl_test_%s@example.com", uuid.NewString()),
		Status:       enums.SupplierStatusActive,
	}
	if err := tx.Create(supplier).Error; err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return supplier
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, supplierID uuid.UUID) *models.Product {
	t.Helper()
	product := &models.Product{
		SupplierID:     supplierID,
		SKU:            fmt.Sprintf("SKU-%s", uuid.NewString()),
		Title:          "18650 Cell 3500mAh",
		Chemistry:      enums.ChemistryLiIon,
		Voltage:        "3.70",
		CapacityMAH:    3500,
		FormFactor:     enums.FormFactorCylindrical,
		Certifications: pq.StringArray{"UN38.3", "IEC62133"},
		MOQ:            10,
		PriceCents:     450,
		CompareAtPriceCents: func() *int {
			v := 600
			return &v
		}(),
		IsActive: true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
