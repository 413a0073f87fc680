package controllers

import (
	"net/http"

	"github.com/voltline/voltline-backend/api/responses"
	"github.com/voltline/voltline-backend/api/validators"
	"github.com/voltline/voltline-backend/internal/checkout"
	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/logger"
)

type checkoutRequest struct {
	SuccessURL string `json:"success_url,omitempty" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

type checkoutResponse struct {
	Order       *OrderDTO `json:"order"`
	RedirectURL string    `json:"redirect_url"`
}

// Checkout converts the active cart into a pending order and opens a hosted
// payment session. Omitted return URLs fall back to the configured defaults.
func Checkout(svc checkout.Service, stripeCfg config.StripeConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.CheckoutInput{
			SuccessURL: req.SuccessURL,
			CancelURL:  req.CancelURL,
		}
		if input.SuccessURL == "" {
			input.SuccessURL = stripeCfg.SuccessURL
		}
		if input.CancelURL == "" {
			input.CancelURL = stripeCfg.CancelURL
		}

		result, err := svc.Execute(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:       newOrderDTO(result.Order),
			RedirectURL: result.RedirectURL,
		})
	}
}
