package controllers

import (
	"net/http"

	"github.com/voltline/voltline-backend/api/responses"
	"github.com/voltline/voltline-backend/api/validators"
	"github.com/voltline/voltline-backend/internal/analytics"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/voltline/voltline-backend/pkg/logger"
	"github.com/google/uuid"
)

type ingestEventRequest struct {
	Type      string  `json:"type" validate:"required"`
	ProductID *string `json:"product_id,omitempty"`
	CartID    *string `json:"cart_id,omitempty"`
}

// IngestEvent accepts a behavioral event from the storefront client.
func IngestEvent(svc analytics.IngestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req ingestEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventType, err := enums.ParseAnalyticsEventType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown event type").
				WithDetails(map[string]any{"field": "type"}))
			return
		}

		input := analytics.IngestEventInput{Type: eventType}
		if input.ProductID, err = parseOptionalUUID(req.ProductID, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.CartID, err = parseOptionalUUID(req.CartID, "cart_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Record(r.Context(), userID, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").
			WithDetails(map[string]any{"field": field})
	}
	return &id, nil
}
