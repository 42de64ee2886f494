package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherapp/internal/cache"
	"gatherapp/internal/domain"
)

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	order     []string // insertion order, used by List
	attendees map[string]map[string]bool
	likes     map[string]map[string]bool
	reviews   []*domain.Review
	nextID    int
	listErr   error
	countErr  error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:      make(map[string]*domain.Event),
		attendees: make(map[string]map[string]bool),
		likes:     make(map[string]map[string]bool),
		nextID:    1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	f.order = append(f.order, e.ID)
	f.attendees[e.ID] = make(map[string]bool)
	f.likes[e.ID] = make(map[string]bool)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *e
	copied.RegisteredCount = len(f.attendees[id])
	copied.LikeCount = len(f.likes[id])
	return &copied, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Location != nil {
		e.Location = *upd.Location
	}
	if upd.Coordinates != nil {
		e.Coordinates = upd.Coordinates
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Price != nil {
		e.Price = *upd.Price
	}
	if upd.ImageURL != nil {
		e.ImageURL = *upd.ImageURL
	}
	if upd.Capacity != nil {
		e.Capacity = *upd.Capacity
	}
	return f.GetByID(ctx, id)
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeEventRepo) matches(e *domain.Event, q domain.EventQuery) bool {
	if q.Category != "" && e.Category != q.Category {
		return false
	}
	if q.MinPrice != nil && e.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && e.Price > *q.MaxPrice {
		return false
	}
	return true
}

func (f *fakeEventRepo) List(ctx context.Context, q domain.EventQuery) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var all []*domain.Event
	for _, id := range f.order {
		if e, ok := f.byID[id]; ok && f.matches(e, q) {
			all = append(all, e)
		}
	}
	off := q.Offset()
	if off >= len(all) {
		return nil, nil
	}
	end := off + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[off:end], nil
}

func (f *fakeEventRepo) Count(ctx context.Context, q domain.EventQuery) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, id := range f.order {
		if e, ok := f.byID[id]; ok && f.matches(e, q) {
			n++
		}
	}
	return n, nil
}

func (f *fakeEventRepo) AddAttendee(ctx context.Context, eventID, userID string) error {
	set := f.attendees[eventID]
	if set[userID] {
		return domain.ErrAlreadyRegistered
	}
	if len(set) >= f.byID[eventID].Capacity {
		return domain.ErrCapacityReached
	}
	set[userID] = true
	return nil
}

func (f *fakeEventRepo) RemoveAttendee(ctx context.Context, eventID, userID string) error {
	set := f.attendees[eventID]
	if !set[userID] {
		return domain.ErrNotRegistered
	}
	delete(set, userID)
	return nil
}

func (f *fakeEventRepo) ListByAttendee(ctx context.Context, userID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, id := range f.order {
		if f.attendees[id][userID] {
			out = append(out, f.byID[id])
		}
	}
	return out, nil
}

func (f *fakeEventRepo) AddLike(ctx context.Context, eventID, userID string) error {
	f.likes[eventID][userID] = true
	return nil
}

func (f *fakeEventRepo) RemoveLike(ctx context.Context, eventID, userID string) error {
	delete(f.likes[eventID], userID)
	return nil
}

func (f *fakeEventRepo) AddReview(ctx context.Context, review *domain.Review) error {
	review.ID = fmt.Sprintf("rev-%d", len(f.reviews)+1)
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeEventRepo) ListReviews(ctx context.Context, eventID string) ([]*domain.Review, error) {
	var out []*domain.Review
	for _, r := range f.reviews {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeGeocoder resolves every address to a fixed point unless err is set.
type fakeGeocoder struct {
	point domain.Point
	err   error
	calls int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (domain.Point, error) {
	f.calls++
	if f.err != nil {
		return domain.Point{}, f.err
	}
	return f.point, nil
}

type eventFixture struct {
	svc      domain.EventService
	repo     *fakeEventRepo
	users    *fakeUserRepo
	geocoder *fakeGeocoder
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	repo := newFakeEventRepo()
	users := newFakeUserRepo()
	users.byID["organizer"] = &domain.User{
		ID:    "organizer",
		Name:  "Kofi Boakye",
		Email: "kofi@example.com",
	}
	geo := &fakeGeocoder{point: domain.Point{Lng: -0.2, Lat: 5.6}}
	svc := NewEventService(repo, users, geo, nil, 5*time.Second)
	return &eventFixture{svc: svc, repo: repo, users: users, geocoder: geo}
}

func validEvent() *domain.Event {
	return &domain.Event{
		Title:       "Jazz Night",
		Description: "Live jazz downtown",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    "Accra, Ghana",
		Category:    "Music",
		Price:       20,
	}
}

func TestEventService_Create(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "organizer", event.OrganizerID)
	assert.Equal(t, domain.DefaultCapacity, event.Capacity)
	assert.Equal(t, domain.DefaultImageURL, event.ImageURL)
	require.NotNil(t, event.Coordinates)
	assert.Equal(t, -0.2, event.Coordinates.Lng)
	assert.Equal(t, 5.6, event.Coordinates.Lat)
	assert.Equal(t, 1, fx.geocoder.calls)

	// The created event carries the same organizer summary as read payloads.
	require.NotNil(t, event.Organizer)
	assert.Equal(t, "Kofi Boakye", event.Organizer.Name)
	assert.Equal(t, "kofi@example.com", event.Organizer.Email)
}

func TestEventService_CreateUnknownOrganizer(t *testing.T) {
	fx := newEventFixture(t)

	err := fx.svc.Create(context.Background(), "ghost", validEvent())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Empty(t, fx.repo.byID)
}

func TestEventService_CreateValidation(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.Event)
	}{
		{"empty title", func(e *domain.Event) { e.Title = "  " }},
		{"empty description", func(e *domain.Event) { e.Description = "" }},
		{"empty location", func(e *domain.Event) { e.Location = "" }},
		{"zero date", func(e *domain.Event) { e.Date = time.Time{} }},
		{"unknown category", func(e *domain.Event) { e.Category = "Opera" }},
		{"negative price", func(e *domain.Event) { e.Price = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			tt.mutate(event)
			err := fx.svc.Create(ctx, "organizer", event)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestEventService_CreateGeocodeFailure(t *testing.T) {
	fx := newEventFixture(t)
	fx.geocoder.err = domain.ErrGeocodeNotFound

	err := fx.svc.Create(context.Background(), "organizer", validEvent())
	require.ErrorIs(t, err, domain.ErrGeocodeNotFound)
	assert.Empty(t, fx.repo.byID)
}

func TestEventService_UpdateOrganizerOnly(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	title := "New Title"
	_, err := fx.svc.Update(ctx, event.ID, "intruder", domain.EventUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := fx.svc.Update(ctx, event.ID, "organizer", domain.EventUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
}

func TestEventService_UpdateRegeocodesChangedLocation(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))
	require.Equal(t, 1, fx.geocoder.calls)

	// Same address: no geocoder call.
	same := event.Location
	_, err := fx.svc.Update(ctx, event.ID, "organizer", domain.EventUpdate{Location: &same})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.geocoder.calls)

	fx.geocoder.point = domain.Point{Lng: 13.4, Lat: 52.5}
	berlin := "Berlin, Germany"
	updated, err := fx.svc.Update(ctx, event.ID, "organizer", domain.EventUpdate{Location: &berlin})
	require.NoError(t, err)
	assert.Equal(t, 2, fx.geocoder.calls)
	require.NotNil(t, updated.Coordinates)
	assert.Equal(t, 13.4, updated.Coordinates.Lng)
}

func TestEventService_Delete(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	require.ErrorIs(t, fx.svc.Delete(ctx, event.ID, "intruder"), domain.ErrForbidden)
	require.NoError(t, fx.svc.Delete(ctx, event.ID, "organizer"))
	require.ErrorIs(t, fx.svc.Delete(ctx, event.ID, "organizer"), domain.ErrNotFound)
}

func TestEventService_ListPagination(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		e := validEvent()
		e.Title = fmt.Sprintf("Event %d", i)
		require.NoError(t, fx.svc.Create(ctx, "organizer", e))
	}

	page, err := fx.svc.List(ctx, domain.EventQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Results)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)

	last, err := fx.svc.List(ctx, domain.EventQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, last.Results)

	beyond, err := fx.svc.List(ctx, domain.EventQuery{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, beyond.Results)
	assert.Equal(t, 25, beyond.Total)
}

func TestEventService_ListUsesCache(t *testing.T) {
	store := newCountingStore()
	fx := newEventFixture(t)
	svc := NewEventService(fx.repo, fx.users, fx.geocoder, cache.New(store, nil), 5*time.Second)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "organizer", validEvent()))
	q := domain.EventQuery{Page: 1, Limit: 10}

	first, err := svc.List(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, first.Results)

	// Second read is served from the cache, not the repository.
	fx.repo.listErr = errors.New("repo must not be hit")
	fx.repo.countErr = fx.repo.listErr
	second, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, first.Total, second.Total)

	// A mutation bumps the data version, changing the key and forcing a
	// recompute, which now surfaces the repo error.
	fx.repo.listErr = nil
	fx.repo.countErr = nil
	require.NoError(t, svc.Create(ctx, "organizer", validEvent()))
	third, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Total)
}

func TestEventService_RegisterAndCapacity(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	event := validEvent()
	event.Capacity = 2
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	got, err := fx.svc.Register(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, got.RegisteredCount)

	_, err = fx.svc.Register(ctx, event.ID, "alice")
	require.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	_, err = fx.svc.Register(ctx, event.ID, "bob")
	require.NoError(t, err)

	_, err = fx.svc.Register(ctx, event.ID, "carol")
	require.ErrorIs(t, err, domain.ErrCapacityReached)

	_, err = fx.svc.Register(ctx, "missing", "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_Unregister(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	_, err := fx.svc.Unregister(ctx, event.ID, "alice")
	require.ErrorIs(t, err, domain.ErrNotRegistered)

	_, err = fx.svc.Register(ctx, event.ID, "alice")
	require.NoError(t, err)

	got, err := fx.svc.Unregister(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Zero(t, got.RegisteredCount)
}

func TestEventService_ListRegistered(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	first := validEvent()
	second := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", first))
	require.NoError(t, fx.svc.Create(ctx, "organizer", second))

	events, err := fx.svc.ListRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)

	_, err = fx.svc.Register(ctx, second.ID, "alice")
	require.NoError(t, err)

	events, err = fx.svc.ListRegistered(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, second.ID, events[0].ID)
}

func TestEventService_LikeIsIdempotent(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	got, err := fx.svc.Like(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)

	got, err = fx.svc.Like(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)

	got, err = fx.svc.Unlike(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Zero(t, got.LikeCount)

	got, err = fx.svc.Unlike(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Zero(t, got.LikeCount)

	_, err = fx.svc.Like(ctx, "missing", "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_AddReview(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	author := domain.NewUser("Ama Mensah", "ama@example.com", "h", "s", time.Now(), time.Now())
	require.NoError(t, fx.users.Create(ctx, author))

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	review, err := fx.svc.AddReview(ctx, event.ID, author.ID, "  Great vibes!  ")
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "Great vibes!", review.Text)
	assert.Equal(t, "Ama Mensah", review.Author)
	assert.Equal(t, event.ID, review.EventID)

	_, err = fx.svc.AddReview(ctx, event.ID, author.ID, "   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = fx.svc.AddReview(ctx, "missing", author.ID, "text")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_ListReviews(t *testing.T) {
	fx := newEventFixture(t)
	ctx := context.Background()

	author := domain.NewUser("Ama", "ama@example.com", "h", "s", time.Now(), time.Now())
	require.NoError(t, fx.users.Create(ctx, author))

	event := validEvent()
	require.NoError(t, fx.svc.Create(ctx, "organizer", event))

	reviews, err := fx.svc.ListReviews(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.NotNil(t, reviews)

	_, err = fx.svc.AddReview(ctx, event.ID, author.ID, "first")
	require.NoError(t, err)

	reviews, err = fx.svc.ListReviews(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	_, err = fx.svc.ListReviews(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// countingStore is a minimal in-memory cache.Store.
type countingStore struct {
	data map[string][]byte
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string][]byte)}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.data[key] = value
	return nil
}

func (s *countingStore) Incr(ctx context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(string(s.data[key]), 10, 64)
	n++
	s.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}
