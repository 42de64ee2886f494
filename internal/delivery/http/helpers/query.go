package helpers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gatherapp/internal/domain"
)

// ParseEventQuery reads the event listing filters from the request query
// string. Unparseable values are dropped rather than rejected; page and limit
// clamp to valid ranges. Recognized parameters:
//
//	category, status (upcoming|ended), date (RFC3339 or YYYY-MM-DD),
//	minPrice, maxPrice, lng, lat, radius (km), sort (comma separated,
//	"-" prefix for descending), page, limit.
func ParseEventQuery(r *http.Request) domain.EventQuery {
	values := r.URL.Query()
	q := domain.EventQuery{
		Page:  domain.DefaultPage,
		Limit: domain.DefaultLimit,
	}

	q.Category = strings.TrimSpace(values.Get("category"))

	switch status := strings.ToLower(strings.TrimSpace(values.Get("status"))); status {
	case domain.StatusUpcoming, domain.StatusEnded:
		q.Status = status
	}

	// Status wins over an explicit date.
	if q.Status == "" {
		if d, ok := parseDate(values.Get("date")); ok {
			q.Date = &d
		}
	}

	if v, ok := parseFloat(values.Get("minPrice")); ok && v >= 0 {
		q.MinPrice = &v
	}
	if v, ok := parseFloat(values.Get("maxPrice")); ok && v >= 0 {
		q.MaxPrice = &v
	}

	lng, lngOK := parseFloat(values.Get("lng"))
	lat, latOK := parseFloat(values.Get("lat"))
	radius, radiusOK := parseFloat(values.Get("radius"))
	if lngOK && latOK && radiusOK && radius > 0 {
		q.Near = &domain.NearFilter{Lng: lng, Lat: lat, RadiusKM: radius}
	}

	for _, field := range strings.Split(values.Get("sort"), ",") {
		field = strings.TrimSpace(field)
		if domain.SortFields[strings.TrimPrefix(field, "-")] {
			q.Sort = append(q.Sort, field)
		}
	}

	if v, err := strconv.Atoi(values.Get("page")); err == nil && v >= 1 {
		q.Page = v
	}
	if v, err := strconv.Atoi(values.Get("limit")); err == nil && v >= 1 {
		q.Limit = v
		if q.Limit > domain.MaxLimit {
			q.Limit = domain.MaxLimit
		}
	}
	return q
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, true
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
