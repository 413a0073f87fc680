package controllers

import (
	"time"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/types"
	"github.com/google/uuid"
)

// CartDTO is the cart payload returned to buyers.
type CartDTO struct {
	ID             uuid.UUID     `json:"id"`
	Status         string        `json:"status"`
	Currency       string        `json:"currency"`
	SubtotalCents  int           `json:"subtotal_cents"`
	DiscountsCents int           `json:"discounts_cents"`
	EngravingCents int           `json:"engraving_cents"`
	TotalCents     int           `json:"total_cents"`
	Items          []CartItemDTO `json:"items"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CartItemDTO is one priced cart line.
type CartItemDTO struct {
	ID                    uuid.UUID                    `json:"id"`
	ProductID             uuid.UUID                    `json:"product_id"`
	SupplierID            uuid.UUID                    `json:"supplier_id"`
	Quantity              int                          `json:"quantity"`
	UnitPriceCents        int                          `json:"unit_price_cents"`
	AppliedVolumeDiscount *types.AppliedVolumeDiscount `json:"applied_volume_discount,omitempty"`
	Engraving             *types.EngravingSpec         `json:"engraving,omitempty"`
	EngravingFeeCents     int                          `json:"engraving_fee_cents"`
	LineSubtotalCents     int                          `json:"line_subtotal_cents"`
}

func newCartDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ID:                    item.ID,
			ProductID:             item.ProductID,
			SupplierID:            item.SupplierID,
			Quantity:              item.Quantity,
			UnitPriceCents:        item.UnitPriceCents,
			AppliedVolumeDiscount: item.AppliedVolumeDiscount,
			Engraving:             item.Engraving,
			EngravingFeeCents:     item.EngravingFeeCents,
			LineSubtotalCents:     item.LineSubtotalCents,
		})
	}
	return &CartDTO{
		ID:             cart.ID,
		Status:         string(cart.Status),
		Currency:       string(cart.Currency),
		SubtotalCents:  cart.SubtotalCents,
		DiscountsCents: cart.DiscountsCents,
		EngravingCents: cart.EngravingCents,
		TotalCents:     cart.TotalCents,
		Items:          items,
		UpdatedAt:      cart.UpdatedAt,
	}
}

// OrderDTO is the order payload for buyers and suppliers.
type OrderDTO struct {
	ID              uuid.UUID      `json:"id"`
	Status          string         `json:"status"`
	Currency        string         `json:"currency"`
	SubtotalCents   int            `json:"subtotal_cents"`
	DiscountsCents  int            `json:"discounts_cents"`
	EngravingCents  int            `json:"engraving_cents"`
	TotalCents      int            `json:"total_cents"`
	StripeSessionID *string        `json:"stripe_session_id,omitempty"`
	PaidAt          *time.Time     `json:"paid_at,omitempty"`
	FulfilledAt     *time.Time     `json:"fulfilled_at,omitempty"`
	CanceledAt      *time.Time     `json:"canceled_at,omitempty"`
	Items           []OrderItemDTO `json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
}

// OrderItemDTO is one order line snapshot.
type OrderItemDTO struct {
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

func newOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
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
	return &OrderDTO{
		ID:              order.ID,
		Status:          string(order.Status),
		Currency:        string(order.Currency),
		SubtotalCents:   order.SubtotalCents,
		DiscountsCents:  order.DiscountsCents,
		EngravingCents:  order.EngravingCents,
		TotalCents:      order.TotalCents,
		StripeSessionID: order.StripeSessionID,
		PaidAt:          order.PaidAt,
		FulfilledAt:     order.FulfilledAt,
		CanceledAt:      order.CanceledAt,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}

func newOrderDTOs(orders []models.Order) []OrderDTO {
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *newOrderDTO(&orders[i]))
	}
	return dtos
}

// QuoteDTO is the quote payload for buyers and suppliers.
type QuoteDTO struct {
	ID            uuid.UUID      `json:"id"`
	SupplierID    uuid.UUID      `json:"supplier_id"`
	Status        string         `json:"status"`
	Currency      string         `json:"currency"`
	SubtotalCents int            `json:"subtotal_cents"`
	TotalCents    int            `json:"total_cents"`
	ValidUntil    *time.Time     `json:"valid_until,omitempty"`
	IssuedAt      *time.Time     `json:"issued_at,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
	Items         []QuoteItemDTO `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
}

// QuoteItemDTO is one quoted line.
type QuoteItemDTO struct {
	ID                   uuid.UUID `json:"id"`
	ProductID            uuid.UUID `json:"product_id"`
	Quantity             int       `json:"quantity"`
	QuotedUnitPriceCents int       `json:"quoted_unit_price_cents"`
}

func newQuoteDTO(quote *models.Quote) *QuoteDTO {
	if quote == nil {
		return nil
	}
	items := make([]QuoteItemDTO, 0, len(quote.Items))
	for _, item := range quote.Items {
		items = append(items, QuoteItemDTO{
			ID:                   item.ID,
			ProductID:            item.ProductID,
			Quantity:             item.Quantity,
			QuotedUnitPriceCents: item.QuotedUnitPriceCents,
		})
	}
	return &QuoteDTO{
		ID:            quote.ID,
		SupplierID:    quote.SupplierID,
		Status:        string(quote.Status),
		Currency:      string(quote.Currency),
		SubtotalCents: quote.SubtotalCents,
		TotalCents:    quote.TotalCents,
		ValidUntil:    quote.ValidUntil,
		IssuedAt:      quote.IssuedAt,
		Notes:         quote.Notes,
		Items:         items,
		CreatedAt:     quote.CreatedAt,
	}
}

func newQuoteDTOs(quotes []models.Quote) []QuoteDTO {
	dtos := make([]QuoteDTO, 0, len(quotes))
	for i := range quotes {
		dtos = append(dtos, *newQuoteDTO(&quotes[i]))
	}
	return dtos
}

// NotificationDTO is the in-app notification payload.
type NotificationDTO struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      *string    `json:"link,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newNotificationDTOs(rows []models.Notification) []NotificationDTO {
	dtos := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, NotificationDTO{
			ID:        row.ID,
			Type:      string(row.Type),
			Title:     row.Title,
			Message:   row.Message,
			Link:      row.Link,
			SentAt:    row.SentAt,
			ReadAt:    row.ReadAt,
			CreatedAt: row.CreatedAt,
		})
	}
	return dtos
}
