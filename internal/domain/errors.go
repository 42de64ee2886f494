package domain

import "errors"

// Sentinel errors shared across services. Controllers map these to HTTP
// status codes; anything else is treated as an internal error.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token verification outcomes.
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrRefreshInvalid = errors.New("refresh token invalid")

	// Event registration outcomes.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrNotRegistered     = errors.New("not registered for this event")
	ErrCapacityReached   = errors.New("event capacity reached")
)
