package orders

import (
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/types"
	"github.com/google/uuid"
)

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID                    uuid.UUID          `json:"id"`
	Status                string             `json:"status"`
	Currency              string             `json:"currency"`
	SubtotalCents         int                `json:"subtotal_cents"`
	DiscountsCents        int                `json:"discounts_cents"`
	EngravingCents        int                `json:"engraving_cents"`
	TotalCents            int                `json:"total_cents"`
	StripeSessionID       *string            `json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string            `json:"stripe_payment_intent_id,omitempty"`
	PaidAt                *time.Time         `json:"paid_at,omitempty"`
	FulfilledAt           *time.Time         `json:"fulfilled_at,omitempty"`
	CanceledAt            *time.Time         `json:"canceled_at,omitempty"`
	Items                 []OrderLineItemDTO `json:"items"`
	CreatedAt             time.Time          `json:"created_at"`
}

// OrderLineItemDTO is one purchased line with its engraving snapshot.
type OrderLineItemDTO struct {
	ID                uuid.UUID            `json:"id"`
	ProductID         *uuid.UUID           `json:"product_id,omitempty"`
	SupplierID        uuid.UUID            `json:"supplier_id"`
	SKU               string               `json:"sku"`
	Title             string               `json:"title"`
	Quantity          int                  `json:"quantity"`
	UnitPriceCents    int                  `json:"unit_price_cents"`
	Engraving         *types.EngravingSpec `json:"engraving,omitempty"`
	EngravingFeeCents int                  `json:"engraving_fee_cents"`
	LineSubtotalCents int                  `json:"line_subtotal_cents"`
}

// NewOrderDTO maps an order model into its API shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	items := make([]OrderLineItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderLineItemDTO{
			ID:                item.ID,
			ProductID:         item.ProductID,
			SupplierID:        item.SupplierID,
			SKU:               item.SKU,
			Title:             item.Title,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			Engraving:         item.Engraving,
			EngravingFeeCents: item.EngravingFeeCents,
			LineSubtotalCents: item.LineSubtotalCents,
		})
	}
	return OrderDTO{
		ID:                    order.ID,
		Status:                string(order.Status),
		Currency:              string(order.Currency),
		SubtotalCents:         order.SubtotalCents,
		DiscountsCents:        order.DiscountsCents,
		EngravingCents:        order.EngravingCents,
		TotalCents:            order.TotalCents,
		StripeSessionID:       order.StripeSessionID,
		StripePaymentIntentID: order.StripePaymentIntentID,
		PaidAt:                order.PaidAt,
		FulfilledAt:           order.FulfilledAt,
		CanceledAt:            order.CanceledAt,
		Items:                 items,
		CreatedAt:             order.CreatedAt,
	}
}
