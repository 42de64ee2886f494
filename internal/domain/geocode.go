package domain

import (
	"context"
	"errors"
)

// Geocoder failure modes. Each surfaces as a distinct user-facing message
// rather than a generic internal error.
var (
	ErrGeocodeNoAPIKey    = errors.New("geocoding API key is not configured")
	ErrGeocodeNotFound    = errors.New("could not find location, please check the address")
	ErrGeocodeRateLimited = errors.New("too many geocoding requests, please try again later")
	ErrGeocodeDenied      = errors.New("location service is temporarily unavailable")
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}
