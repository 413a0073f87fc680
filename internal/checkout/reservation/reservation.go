package reservation

import (
	"context"
	"fmt"

	"github.com/voltline/voltline-backend/pkg/db/models"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryReservationRequest asks to move qty units from available to
// reserved for one cart line.
type InventoryReservationRequest struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
}

// InventoryReservationResult reports the per-line outcome. Reserved is false
// when stock ran out, with Reason set for the caller's error detail.
type InventoryReservationResult struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Reserved   bool
	Reason     string
}

// InventoryReleaseRequest returns qty units from reserved back to available.
type InventoryReleaseRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// ReserveInventory attempts each reservation with a single conditional UPDATE
// so concurrent checkouts cannot oversell. Requests are processed in order;
// earlier lines win contended stock.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReservationRequest) ([]InventoryReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	results := make([]InventoryReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("reservation quantity must be positive for product %s", req.ProductID))
		}
		update := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("product_id = ? AND available_qty >= ?", req.ProductID, req.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty - ?", req.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty + ?", req.Qty),
			})
		if update.Error != nil {
			return nil, update.Error
		}
		result := InventoryReservationResult{
			CartItemID: req.CartItemID,
			ProductID:  req.ProductID,
			Reserved:   update.RowsAffected == 1,
		}
		if !result.Reserved {
			result.Reason = fmt.Sprintf("insufficient inventory for product %s", req.ProductID)
		}
		results = append(results, result)
	}
	return results, nil
}

// ReleaseInventory undoes reservations, clamped so reserved_qty never goes
// negative on replayed webhook deliveries.
func ReleaseInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReleaseRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}
		err := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("product_id = ? AND reserved_qty >= ?", req.ProductID, req.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty + ?", req.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty - ?", req.Qty),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// CommitReservation burns reserved stock once an order ships.
func CommitReservation(ctx context.Context, tx *gorm.DB, requests []InventoryReleaseRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}
		err := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("product_id = ? AND reserved_qty >= ?", req.ProductID, req.Qty).
			Update("reserved_qty", gorm.Expr("reserved_qty - ?", req.Qty)).Error
		if err != nil {
			return err
		}
	}
	return nil
}
