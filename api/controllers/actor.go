package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/api/middleware"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
)

// actorUserID reads the authenticated user id seeded by the auth middleware.
func actorUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// actorSupplierID reads the supplier binding seeded by the auth middleware.
func actorSupplierID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.SupplierIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "supplier context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid supplier id")
	}
	return id, nil
}
