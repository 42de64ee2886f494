package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gatherapp/internal/domain"
)

// Response status values used in every API envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the envelope for every failed request.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteJSON sets Content-Type to application/json, writes statusCode, and
// encodes the payload. Payloads carry their own "status" field.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes an ErrorResponse with the given status code and message.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Status: StatusError, Message: message})
}

// WriteDomainError maps a service error onto the HTTP status taxonomy and
// writes the error envelope. Unrecognized errors are logged and surface as a
// generic 500 so internals never leak to clients.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrGeocodeNotFound):
		WriteError(w, http.StatusBadRequest, "could not find coordinates for that location")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrNotRegistered),
		errors.Is(err, domain.ErrCapacityReached):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrGeocodeRateLimited):
		WriteError(w, http.StatusServiceUnavailable, "geocoding temporarily unavailable")
	case errors.Is(err, domain.ErrGeocodeNoAPIKey),
		errors.Is(err, domain.ErrGeocodeDenied):
		WriteError(w, http.StatusBadGateway, "geocoding unavailable")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteError(w, http.StatusInternalServerError, "something went wrong")
	}
}
