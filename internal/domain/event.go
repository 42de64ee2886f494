package domain

import (
	"context"
	"time"
)

// DefaultCapacity is applied when an event is created without one.
const DefaultCapacity = 100

// DefaultImageURL is the placeholder image for events created without one.
const DefaultImageURL = "https://picsum.photos/1920/1080?random"

// Categories is the closed set of event categories.
var Categories = []string{
	"Music", "Movie", "Art", "Workshop", "Sports", "History", "Food",
	"Culture", "Tech", "Festival", "Fun-Games", "Fashion", "Adventure",
	"Church", "Business", "General Gathering",
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Event represents a geotagged event. RegisteredCount and LikeCount are
// derived from the attendee and like sets at read time; they are never
// stored as independent counters.
// swagger:model Event
type Event struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Date            time.Time    `json:"date"`
	Location        string       `json:"location"`
	Coordinates     *Point       `json:"coordinates,omitempty"`
	Category        string       `json:"category"`
	Price           float64      `json:"price"`
	ImageURL        string       `json:"image"`
	OrganizerID     string       `json:"organizer_id"`
	Organizer       *UserSummary `json:"organizer,omitempty"`
	Capacity        int          `json:"capacity"`
	RegisteredCount int          `json:"registered_count"`
	LikeCount       int          `json:"like_count"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Review is an append-only event review.
// swagger:model Review
type Review struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// EventUpdate carries partial-update fields; nil means unchanged.
// Coordinates accompany Location when the address was re-geocoded.
type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Coordinates *Point
	Category    *string
	Price       *float64
	ImageURL    *string
	Capacity    *int
}

// EventPage is the listing result envelope.
type EventPage struct {
	Events     []*Event `json:"events"`
	Results    int      `json:"results"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
}

// EventRepository defines the interface for event storage. Attendee and
// like mutations are atomic set operations: concurrent registrations for
// the same event must not produce duplicates or exceed capacity.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, q EventQuery) ([]*Event, error)
	Count(ctx context.Context, q EventQuery) (int, error)

	// AddAttendee fails with ErrAlreadyRegistered or ErrCapacityReached.
	AddAttendee(ctx context.Context, eventID, userID string) error
	// RemoveAttendee fails with ErrNotRegistered.
	RemoveAttendee(ctx context.Context, eventID, userID string) error
	ListByAttendee(ctx context.Context, userID string) ([]*Event, error)

	// AddLike and RemoveLike are idempotent set operations.
	AddLike(ctx context.Context, eventID, userID string) error
	RemoveLike(ctx context.Context, eventID, userID string) error

	AddReview(ctx context.Context, review *Review) error
	ListReviews(ctx context.Context, eventID string) ([]*Review, error)
}

// EventService defines the business logic for events.
type EventService interface {
	// Create geocodes event.Location and persists with the caller as organizer.
	Create(ctx context.Context, userID string, event *Event) error
	GetByID(ctx context.Context, eventID string) (*Event, error)
	// Update is organizer-only; a changed location is re-geocoded.
	Update(ctx context.Context, eventID, userID string, upd EventUpdate) (*Event, error)
	// Delete is organizer-only.
	Delete(ctx context.Context, eventID, userID string) error
	// List runs the filtered query through the cache-aside layer.
	List(ctx context.Context, q EventQuery) (*EventPage, error)

	Register(ctx context.Context, eventID, userID string) (*Event, error)
	Unregister(ctx context.Context, eventID, userID string) (*Event, error)
	ListRegistered(ctx context.Context, userID string) ([]*Event, error)

	Like(ctx context.Context, eventID, userID string) (*Event, error)
	Unlike(ctx context.Context, eventID, userID string) (*Event, error)

	AddReview(ctx context.Context, eventID, userID, text string) (*Review, error)
	ListReviews(ctx context.Context, eventID string) ([]*Review, error)
}
