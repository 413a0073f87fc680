package helpers

import (
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/google/uuid"
)

// BuildOrderLineItems snapshots cart lines into order lines. SKU and title
// are copied from the catalog so the order survives later product edits.
func BuildOrderLineItems(items []models.CartItem, products map[uuid.UUID]*models.Product) []models.OrderLineItem {
	lines := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		productID := item.ProductID
		line := models.OrderLineItem{
			ProductID:         &productID,
			SupplierID:        item.SupplierID,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			Engraving:         item.Engraving,
			EngravingFeeCents: item.EngravingFeeCents,
			LineSubtotalCents: item.LineSubtotalCents,
		}
		if product, ok := products[item.ProductID]; ok {
			line.SKU = product.SKU
			line.Title = product.Title
		}
		lines = append(lines, line)
	}
	return lines
}
