package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event listing status filters. Status and an explicit date are mutually
// exclusive; when both arrive, status wins.
const (
	StatusUpcoming = "upcoming"
	StatusEnded    = "ended"
)

// Listing pagination defaults and limits.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortFields is the allowlist of client-sortable fields. A leading "-"
// requests descending order.
var SortFields = map[string]bool{
	"date":       true,
	"price":      true,
	"title":      true,
	"created_at": true,
}

// NearFilter is a geospatial radius filter around a point.
// RadiusKM is in kilometers; the store compares distances in meters.
type NearFilter struct {
	Lng      float64
	Lat      float64
	RadiusKM float64
}

// EventQuery is the structured filter + sort + pagination spec for event
// listings. Zero/nil fields mean "not filtered".
type EventQuery struct {
	Category string
	Status   string     // StatusUpcoming, StatusEnded, or empty
	Date     *time.Time // events on/after this date; ignored when Status set
	MinPrice *float64
	MaxPrice *float64
	Near     *NearFilter
	Sort     []string // validated against SortFields, "-" prefix for desc
	Page     int      // 1-indexed, >= 1
	Limit    int      // page size, >= 1
}

// Offset returns the row offset for the current page.
func (q EventQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// CacheKey deterministically encodes every query input plus the listing
// data version. Unset fields encode as "-" so that "default" and "absent"
// never collide.
func (q EventQuery) CacheKey(version int64) string {
	unset := "-"
	cat := q.Category
	if cat == "" {
		cat = unset
	}
	status := q.Status
	if status == "" {
		status = unset
	}
	date := unset
	if q.Date != nil {
		date = strconv.FormatInt(q.Date.Unix(), 10)
	}
	minP, maxP := unset, unset
	if q.MinPrice != nil {
		minP = strconv.FormatFloat(*q.MinPrice, 'f', -1, 64)
	}
	if q.MaxPrice != nil {
		maxP = strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64)
	}
	near := unset
	if q.Near != nil {
		near = strconv.FormatFloat(q.Near.Lng, 'f', -1, 64) + "," +
			strconv.FormatFloat(q.Near.Lat, 'f', -1, 64) + "," +
			strconv.FormatFloat(q.Near.RadiusKM, 'f', -1, 64)
	}
	sort := unset
	if len(q.Sort) > 0 {
		sort = strings.Join(q.Sort, ",")
	}
	return fmt.Sprintf("events:v%d:cat=%s|status=%s|date=%s|minp=%s|maxp=%s|near=%s|sort=%s|page=%d|limit=%d",
		version, cat, status, date, minP, maxP, near, sort, q.Page, q.Limit)
}
