// Package handlers exposes the services as a JSON API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/httpx"
	"github.com/diewo77/go-crm/internal/logging"
	"github.com/diewo77/go-crm/internal/services"
	"github.com/diewo77/go-crm/internal/storage"
	"github.com/diewo77/go-crm/validation"
)

// writeError maps service errors onto status codes. Unknown errors are
// logged and answered with a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := validation.IsValidation(err); ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	case errors.Is(err, storage.ErrUnsupportedType):
		httpx.JSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", nil)
	case errors.Is(err, storage.ErrUnavailable):
		httpx.JSONError(w, http.StatusServiceUnavailable, "storage_unavailable", nil)
	default:
		logging.FromContext(r.Context()).
			WithError(err).
			WithField("path", r.URL.Path).
			Error("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// ownerID is only called behind auth.RequireAuth.
func ownerID(r *http.Request) uint {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}
