package controllers

import (
	"net/http"

	"github.com/voltline/voltline-backend/api/responses"
	"github.com/voltline/voltline-backend/api/validators"
	"github.com/voltline/voltline-backend/internal/cart"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/google/uuid"
)

type cartItemRequest struct {
	ProductID string                  `json:"product_id" validate:"required,uuid4"`
	Quantity  int                     `json:"quantity" validate:"required,min=1"`
	Engraving *engravingPreviewRequest `json:"engraving,omitempty"`
}

type replaceCartRequest struct {
	Items []cartItemRequest `json:"items" validate:"required,dive"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// GetCart returns the caller's active cart, creating one if none exists.
func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := svc.GetActiveCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartDTO(active))
	}
}

// ReplaceCart swaps the active cart's contents for the submitted lines and
// reprices everything.
func ReplaceCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req replaceCartRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := cart.ReplaceCartInput{Items: make([]cart.ItemInput, 0, len(req.Items))}
		for _, item := range req.Items {
			parsed, err := buildCartItemInput(item)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, *parsed)
		}

		updated, err := svc.ReplaceCart(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartDTO(updated))
	}
}

// AddCartItem appends a line to the active cart, merging with an existing
// line when product and engraving match.
func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCartItemInput(req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddItem(r.Context(), userID, *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartDTO(updated))
	}
}

// UpdateCartItem changes a line's quantity and reprices the cart.
func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateItemQuantity(r.Context(), userID, itemID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartDTO(updated))
	}
}

// RemoveCartItem deletes one line from the active cart.
func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RemoveItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartDTO(updated))
	}
}

// ClearCart empties the active cart.
func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func buildCartItemInput(req cartItemRequest) (*cart.ItemInput, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").
			WithDetails(map[string]any{"field": "product_id"})
	}

	input := cart.ItemInput{
		ProductID: productID,
		Quantity:  req.Quantity,
	}
	if req.Engraving != nil {
		spec, err := buildEngravingSpec(*req.Engraving)
		if err != nil {
			return nil, err
		}
		input.Engraving = spec
	}
	return &input, nil
}
