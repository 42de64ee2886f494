package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gatherapp/internal/cache"
	"gatherapp/internal/domain"
)

// listCacheTTL bounds staleness of cached listings; versioned cache keys
// already invalidate them on every event mutation.
const listCacheTTL = time.Hour

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	geocoder       domain.Geocoder
	cache          *cache.Cache
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	geocoder domain.Geocoder,
	listCache *cache.Cache,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		geocoder:       geocoder,
		cache:          listCache,
		contextTimeout: timeout,
	}
}

func (s *eventService) Create(ctx context.Context, userID string, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if userID == "" {
		return fmt.Errorf("%w: event organizer is required", domain.ErrInvalidInput)
	}
	event.Title = strings.TrimSpace(event.Title)
	event.Description = strings.TrimSpace(event.Description)
	event.Location = strings.TrimSpace(event.Location)
	if event.Title == "" || event.Description == "" || event.Location == "" {
		return fmt.Errorf("%w: title, description and location are required", domain.ErrInvalidInput)
	}
	if event.Date.IsZero() {
		return fmt.Errorf("%w: event date is required", domain.ErrInvalidInput)
	}
	if !domain.ValidCategory(event.Category) {
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, event.Category)
	}
	if event.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
	}
	if event.Capacity <= 0 {
		event.Capacity = domain.DefaultCapacity
	}
	if event.ImageURL == "" {
		event.ImageURL = domain.DefaultImageURL
	}

	// Geocoding failure fails the whole create; the distinct geocoder
	// errors surface to the client as-is.
	point, err := s.geocoder.Geocode(ctx, event.Location)
	if err != nil {
		return err
	}
	event.Coordinates = &point

	// The create response carries the same organizer summary every other
	// event payload does.
	organizer, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get organizer: %w", err)
	}
	event.OrganizerID = organizer.ID
	event.Organizer = &domain.UserSummary{
		ID:    organizer.ID,
		Name:  organizer.Name,
		Email: organizer.Email,
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.cache.BumpVersion(ctx)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) Update(ctx context.Context, eventID, userID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != userID {
		return nil, domain.ErrForbidden
	}

	if upd.Category != nil && !domain.ValidCategory(*upd.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, *upd.Category)
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
	}
	if upd.Capacity != nil && *upd.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
	}

	// A changed address is re-geocoded so coordinates stay consistent.
	if upd.Location != nil {
		loc := strings.TrimSpace(*upd.Location)
		if loc == "" {
			return nil, fmt.Errorf("%w: location cannot be empty", domain.ErrInvalidInput)
		}
		upd.Location = &loc
		if loc != event.Location {
			point, err := s.geocoder.Geocode(ctx, loc)
			if err != nil {
				return nil, err
			}
			upd.Coordinates = &point
		}
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.cache.BumpVersion(ctx)
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != userID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.cache.BumpVersion(ctx)
	return nil
}

func (s *eventService) List(ctx context.Context, q domain.EventQuery) (*domain.EventPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	compute := func() (*domain.EventPage, error) {
		return s.queryPage(ctx, q)
	}

	version, err := s.cache.Version(ctx)
	if err != nil {
		// Cache backend unreachable: serve directly, uncached.
		return compute()
	}
	return cache.GetOrCompute(ctx, s.cache, q.CacheKey(version), listCacheTTL, compute)
}

// queryPage runs the page query and the total count concurrently and
// composes the listing envelope.
func (s *eventService) queryPage(ctx context.Context, q domain.EventQuery) (*domain.EventPage, error) {
	var (
		wg       sync.WaitGroup
		events   []*domain.Event
		total    int
		listErr  error
		countErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		events, listErr = s.eventRepo.List(ctx, q)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.eventRepo.Count(ctx, q)
	}()
	wg.Wait()
	if listErr != nil {
		return nil, fmt.Errorf("list events: %w", listErr)
	}
	if countErr != nil {
		return nil, fmt.Errorf("count events: %w", countErr)
	}

	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	return &domain.EventPage{
		Events:     events,
		Results:    len(events),
		Total:      total,
		Page:       q.Page,
		TotalPages: totalPages,
	}, nil
}

func (s *eventService) Register(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	return s.mutateAttendance(ctx, eventID, userID, s.eventRepo.AddAttendee)
}

func (s *eventService) Unregister(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	return s.mutateAttendance(ctx, eventID, userID, s.eventRepo.RemoveAttendee)
}

func (s *eventService) Like(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	return s.mutateAttendance(ctx, eventID, userID, s.eventRepo.AddLike)
}

func (s *eventService) Unlike(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	return s.mutateAttendance(ctx, eventID, userID, s.eventRepo.RemoveLike)
}

// mutateAttendance applies an attendee/like set mutation after confirming
// the event exists, then reloads the event so derived counts are fresh.
func (s *eventService) mutateAttendance(ctx context.Context, eventID, userID string,
	mutate func(ctx context.Context, eventID, userID string) error) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := mutate(ctx, eventID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyRegistered),
			errors.Is(err, domain.ErrNotRegistered),
			errors.Is(err, domain.ErrCapacityReached):
			return nil, err
		}
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	s.cache.BumpVersion(ctx)

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListRegistered(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	events, err := s.eventRepo.ListByAttendee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registered events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) AddReview(ctx context.Context, eventID, userID, text string) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: review text is required", domain.ErrInvalidInput)
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get review author: %w", err)
	}

	review := &domain.Review{
		EventID:   eventID,
		UserID:    userID,
		Author:    author.Name,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.eventRepo.AddReview(ctx, review); err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}
	return review, nil
}

func (s *eventService) ListReviews(ctx context.Context, eventID string) ([]*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	reviews, err := s.eventRepo.ListReviews(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}
