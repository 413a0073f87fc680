package controllers

import (
	"net/http"

	"github.com/voltline/voltline-backend/api/middleware"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/google/uuid"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}

func currentSupplierID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.SupplierIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "supplier context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid supplier context")
	}
	return id, nil
}
