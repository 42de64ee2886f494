package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"gatherapp/internal/domain"
)

const geocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

type googleGeocoder struct {
	client *http.Client
	apiKey string
}

// NewGoogleGeocoder returns a Geocoder backed by the Google Geocoding API.
// Failures map to the distinct domain geocoding errors so controllers can
// surface actionable messages instead of a generic 500.
func NewGoogleGeocoder(client *http.Client, apiKey string) domain.Geocoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &googleGeocoder{client: client, apiKey: apiKey}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *googleGeocoder) Geocode(ctx context.Context, address string) (domain.Point, error) {
	if g.apiKey == "" {
		return domain.Point{}, domain.ErrGeocodeNoAPIKey
	}
	if address == "" {
		return domain.Point{}, domain.ErrInvalidInput
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geocodeEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Point{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return domain.Point{}, fmt.Errorf("failed to reach geocoding service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return domain.Point{}, domain.ErrGeocodeDenied
	case http.StatusTooManyRequests:
		return domain.Point{}, domain.ErrGeocodeRateLimited
	default:
		return domain.Point{}, fmt.Errorf("geocoding service returned status: %d", resp.StatusCode)
	}

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return domain.Point{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	switch data.Status {
	case "OK":
	case "REQUEST_DENIED":
		return domain.Point{}, domain.ErrGeocodeDenied
	case "OVER_QUERY_LIMIT":
		return domain.Point{}, domain.ErrGeocodeRateLimited
	default:
		return domain.Point{}, domain.ErrGeocodeNotFound
	}
	if len(data.Results) == 0 {
		return domain.Point{}, domain.ErrGeocodeNotFound
	}

	loc := data.Results[0].Geometry.Location
	return domain.Point{Lng: loc.Lng, Lat: loc.Lat}, nil
}
