package helpers

import (
	"fmt"

	"github.com/voltline/voltline-backend/internal/engraving"
	pkgcheckout "github.com/voltline/voltline-backend/pkg/checkout"
	"github.com/voltline/voltline-backend/pkg/db/models"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/google/uuid"
)

// ValidateCartForCheckout re-checks every cart line against the current
// catalog. Carts can sit idle for days, so listings may have been deactivated
// or had their engraving config changed since the lines were priced.
func ValidateCartForCheckout(items []models.CartItem, products map[uuid.UUID]*models.Product) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	moqInputs := make([]pkgcheckout.MOQValidationInput, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("product %s is no longer available", item.ProductID))
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("product %q is no longer available", product.Title))
		}
		if product.MaxQty > 0 && item.Quantity > product.MaxQty {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("quantity for %q exceeds the maximum of %d", product.Title, product.MaxQty))
		}
		if item.Engraving != nil {
			if err := engraving.Validate(*item.Engraving, product); err != nil {
				return err
			}
		}
		moqInputs = append(moqInputs, pkgcheckout.MOQValidationInput{
			ProductID:   product.ID,
			ProductName: product.Title,
			MOQ:         product.MOQ,
			Quantity:    item.Quantity,
		})
	}
	return pkgcheckout.ValidateMOQ(moqInputs)
}
