package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherapp/internal/domain"
)

var eventRowColumns = []string{
	"id", "title", "description", "date", "location", "lng", "lat",
	"category", "price", "image_url", "organizer_id", "capacity",
	"created_at", "updated_at", "registered_count", "like_count",
	"name", "email",
}

func eventRow(rows *sqlmock.Rows, id string, lng, lat any) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "Jazz Night", "Live jazz downtown", now.Add(48*time.Hour), "Accra, Ghana", lng, lat,
		"Music", 20.0, "https://img.example/1.jpg", "org-1", 100,
		now, now, 7, 3,
		"Ama", "ama@example.com",
	)
}

func TestEventRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM events e JOIN users u`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(sqlmock.NewRows(eventRowColumns), "ev-1", -0.2, 5.6))

	repo := NewEventRepository(db)
	event, err := repo.GetByID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)
	assert.Equal(t, 7, event.RegisteredCount)
	assert.Equal(t, 3, event.LikeCount)
	require.NotNil(t, event.Coordinates)
	assert.Equal(t, -0.2, event.Coordinates.Lng)
	require.NotNil(t, event.Organizer)
	assert.Equal(t, "org-1", event.Organizer.ID)
	assert.Equal(t, "Ama", event.Organizer.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetByIDWithoutCoordinates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM events e JOIN users u`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(sqlmock.NewRows(eventRowColumns), "ev-1", nil, nil))

	repo := NewEventRepository(db)
	event, err := repo.GetByID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Nil(t, event.Coordinates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM events e JOIN users u`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewEventRepository(db)
	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs("Jazz Night", "Live jazz downtown", sqlmock.AnyArg(), "Accra, Ghana",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "Music", 20.0,
			"https://img.example/1.jpg", "org-1", 100, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))

	repo := NewEventRepository(db)
	event := &domain.Event{
		Title:       "Jazz Night",
		Description: "Live jazz downtown",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    "Accra, Ghana",
		Coordinates: &domain.Point{Lng: -0.2, Lat: 5.6},
		Category:    "Music",
		Price:       20,
		ImageURL:    "https://img.example/1.jpg",
		OrganizerID: "org-1",
		Capacity:    100,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.Equal(t, "ev-1", event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	title := "Updated Title"
	price := 35.0

	mock.ExpectExec(`UPDATE events SET`).
		WithArgs(title, price, "ev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM events e JOIN users u`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(sqlmock.NewRows(eventRowColumns), "ev-1", -0.2, 5.6))

	repo := NewEventRepository(db)
	_, err = repo.Update(context.Background(), "ev-1", domain.EventUpdate{Title: &title, Price: &price})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_UpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	title := "x"
	mock.ExpectExec(`UPDATE events SET`).
		WithArgs(title, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepository(db)
	_, err = repo.Update(context.Background(), "missing", domain.EventUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_UpdateNoFieldsJustFetches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM events e JOIN users u`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(sqlmock.NewRows(eventRowColumns), "ev-1", -0.2, 5.6))

	repo := NewEventRepository(db)
	event, err := repo.Update(context.Background(), "ev-1", domain.EventUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM events`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM events`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepository(db)
	require.NoError(t, repo.Delete(context.Background(), "ev-1"))
	require.ErrorIs(t, repo.Delete(context.Background(), "ev-1"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ListWithFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(eventRowColumns)
	eventRow(rows, "ev-1", -0.2, 5.6)
	eventRow(rows, "ev-2", nil, nil)

	// category $1, minPrice $2, then limit/offset.
	mock.ExpectQuery(`FROM events e JOIN users u`).
		WithArgs("Music", 5.0, 10, 10).
		WillReturnRows(rows)

	repo := NewEventRepository(db)
	minP := 5.0
	events, err := repo.List(context.Background(), domain.EventQuery{
		Category: "Music",
		MinPrice: &minP,
		Page:     2,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].ID)
	assert.Nil(t, events[1].Coordinates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ListNearQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(eventRowColumns)
	eventRow(rows, "ev-1", -0.2, 5.6)

	// Near filter args (lat, lng, radius in meters), then the default
	// nearest-first ordering repeats lat/lng, then limit/offset.
	mock.ExpectQuery(`FROM events e JOIN users u`).
		WithArgs(5.6, -0.2, 10000.0, 5.6, -0.2, 10, 0).
		WillReturnRows(rows)

	repo := NewEventRepository(db)
	events, err := repo.List(context.Background(), domain.EventQuery{
		Near:  &domain.NearFilter{Lng: -0.2, Lat: 5.6, RadiusKM: 10},
		Page:  1,
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events e`).
		WithArgs("Music").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	repo := NewEventRepository(db)
	total, err := repo.Count(context.Background(), domain.EventQuery{Category: "Music", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_AddAttendee(t *testing.T) {
	ctx := context.Background()

	capacityRow := func(capacity int) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"capacity"}).AddRow(capacity)
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "inserted below capacity",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT capacity FROM events WHERE id = \$1 FOR UPDATE`).
					WithArgs("ev-1").
					WillReturnRows(capacityRow(100))
				mock.ExpectExec(`INSERT INTO event_attendees`).
					WithArgs("ev-1", "user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM event_attendees`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				mock.ExpectCommit()
			},
		},
		{
			name: "already registered",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT capacity FROM events WHERE id = \$1 FOR UPDATE`).
					WithArgs("ev-1").
					WillReturnRows(capacityRow(100))
				mock.ExpectExec(`INSERT INTO event_attendees`).
					WithArgs("ev-1", "user-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrAlreadyRegistered,
		},
		{
			name: "capacity reached rolls back the insert",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT capacity FROM events WHERE id = \$1 FOR UPDATE`).
					WithArgs("ev-1").
					WillReturnRows(capacityRow(2))
				mock.ExpectExec(`INSERT INTO event_attendees`).
					WithArgs("ev-1", "user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM event_attendees`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrCapacityReached,
		},
		{
			name: "unknown event",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT capacity FROM events WHERE id = \$1 FOR UPDATE`).
					WithArgs("ev-1").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.AddAttendee(ctx, "ev-1", "user-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_RemoveAttendee(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM event_attendees`).
		WithArgs("ev-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM event_attendees`).
		WithArgs("ev-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepository(db)
	require.NoError(t, repo.RemoveAttendee(context.Background(), "ev-1", "user-1"))
	require.ErrorIs(t, repo.RemoveAttendee(context.Background(), "ev-1", "user-1"), domain.ErrNotRegistered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_LikesAreIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// ON CONFLICT DO NOTHING: zero rows affected is still success.
	mock.ExpectExec(`INSERT INTO event_likes`).
		WithArgs("ev-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM event_likes`).
		WithArgs("ev-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepository(db)
	require.NoError(t, repo.AddLike(context.Background(), "ev-1", "user-1"))
	require.NoError(t, repo.RemoveLike(context.Background(), "ev-1", "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_AddReview(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO event_reviews`).
		WithArgs("ev-1", "user-1", "Great vibes!", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rev-1"))

	repo := NewEventRepository(db)
	review := &domain.Review{
		EventID:   "ev-1",
		UserID:    "user-1",
		Text:      "Great vibes!",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.AddReview(context.Background(), review))
	assert.Equal(t, "rev-1", review.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ListReviews(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "event_id", "user_id", "name", "text", "created_at"}).
		AddRow("rev-2", "ev-1", "user-2", "Kofi", "Loved it", now).
		AddRow("rev-1", "ev-1", "user-1", "Ama", "Great vibes!", now.Add(-time.Hour))

	mock.ExpectQuery(`FROM event_reviews rv`).
		WithArgs("ev-1").
		WillReturnRows(rows)

	repo := NewEventRepository(db)
	reviews, err := repo.ListReviews(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Kofi", reviews[0].Author)
	assert.Equal(t, "Great vibes!", reviews[1].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ListByAttendee(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(eventRowColumns)
	eventRow(rows, "ev-1", -0.2, 5.6)

	mock.ExpectQuery(`JOIN event_attendees reg`).
		WithArgs("user-1").
		WillReturnRows(rows)

	repo := NewEventRepository(db)
	events, err := repo.ListByAttendee(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
