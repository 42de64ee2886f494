package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gatherapp/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// eventColumns is the shared projection: event row, derived attendee/like
// counts, and the organizer summary. Counts come from the join tables at
// read time so they can never drift from the underlying sets.
const eventColumns = `
	e.id, e.title, e.description, e.date, e.location, e.lng, e.lat,
	e.category, e.price, e.image_url, e.organizer_id, e.capacity,
	e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id) AS registered_count,
	(SELECT COUNT(*) FROM event_likes l WHERE l.event_id = e.id) AS like_count,
	u.name, u.email
`

const eventFrom = `FROM events e JOIN users u ON u.id = e.organizer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var lngNull, latNull sql.NullFloat64
	var organizerName, organizerEmail string
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &lngNull, &latNull,
		&e.Category, &e.Price, &e.ImageURL, &e.OrganizerID, &e.Capacity,
		&e.CreatedAt, &e.UpdatedAt,
		&e.RegisteredCount, &e.LikeCount,
		&organizerName, &organizerEmail,
	)
	if err != nil {
		return nil, err
	}
	if lngNull.Valid && latNull.Valid {
		e.Coordinates = &domain.Point{Lng: lngNull.Float64, Lat: latNull.Float64}
	}
	e.Organizer = &domain.UserSummary{ID: e.OrganizerID, Name: organizerName, Email: organizerEmail}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, date, location, lng, lat, category, price, image_url, organizer_id, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var lng, lat sql.NullFloat64
	if e.Coordinates != nil {
		lng = sql.NullFloat64{Float64: e.Coordinates.Lng, Valid: true}
		lat = sql.NullFloat64{Float64: e.Coordinates.Lat, Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.Location, lng, lat, e.Category,
		e.Price, e.ImageURL, e.OrganizerID, e.Capacity, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom + ` WHERE e.id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Coordinates != nil {
		add("lng", upd.Coordinates.Lng)
		add("lat", upd.Coordinates.Lat)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if upd.Capacity != nil {
		add("capacity", *upd.Capacity)
	}
	if n == 1 {
		// No fields to update; just fetch the current row.
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), n)
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// buildFilter translates an EventQuery into WHERE clauses and args.
// Argument numbering starts at startArg so callers can prepend parameters.
func buildFilter(q domain.EventQuery, startArg int) (clauses []string, args []any, next int) {
	n := startArg
	add := func(clause string, vals ...any) {
		clauses = append(clauses, clause)
		args = append(args, vals...)
		n += len(vals)
	}
	if q.Category != "" {
		add(fmt.Sprintf("e.category = $%d", n), q.Category)
	}
	if q.MinPrice != nil {
		add(fmt.Sprintf("e.price >= $%d", n), *q.MinPrice)
	}
	if q.MaxPrice != nil {
		add(fmt.Sprintf("e.price <= $%d", n), *q.MaxPrice)
	}
	// Date modes are mutually exclusive: status wins over an explicit date.
	switch {
	case q.Status == domain.StatusEnded:
		clauses = append(clauses, "e.date < NOW()")
	case q.Status == domain.StatusUpcoming:
		clauses = append(clauses, "e.date >= NOW()")
	case q.Date != nil:
		add(fmt.Sprintf("e.date >= $%d", n), *q.Date)
	}
	if q.Near != nil {
		// Haversine great-circle distance in meters; the radius arrives in
		// kilometers. Events without coordinates never match a near-query.
		clauses = append(clauses, fmt.Sprintf(
			"e.lng IS NOT NULL AND e.lat IS NOT NULL AND %s <= $%d", haversineMetersSQL(n, n+1), n+2))
		args = append(args, q.Near.Lat, q.Near.Lng, q.Near.RadiusKM*1000)
		n += 3
	}
	return clauses, args, n
}

// haversineMetersSQL renders the great-circle distance between the event row
// and the point ($latArg, $lngArg), in meters.
func haversineMetersSQL(latArg, lngArg int) string {
	return fmt.Sprintf(`(12742000 * asin(sqrt(
		power(sin(radians(e.lat - $%[1]d) / 2), 2) +
		cos(radians($%[1]d)) * cos(radians(e.lat)) *
		power(sin(radians(e.lng - $%[2]d) / 2), 2))))`, latArg, lngArg)
}

// sortColumns maps client sort fields to SQL columns.
var sortColumns = map[string]string{
	"date":       "e.date",
	"price":      "e.price",
	"title":      "e.title",
	"created_at": "e.created_at",
}

func buildOrderBy(q domain.EventQuery, distanceExpr string) string {
	var parts []string
	for _, field := range q.Sort {
		dir := "ASC"
		name := field
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			name = field[1:]
		}
		if col, ok := sortColumns[name]; ok {
			parts = append(parts, col+" "+dir)
		}
	}
	if len(parts) == 0 {
		if distanceExpr != "" {
			// Near-queries default to nearest-first.
			return "ORDER BY " + distanceExpr + " ASC"
		}
		parts = append(parts, "e.created_at DESC")
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

func (r *eventRepository) List(ctx context.Context, q domain.EventQuery) ([]*domain.Event, error) {
	clauses, args, n := buildFilter(q, 1)
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	distanceExpr := ""
	if q.Near != nil && len(q.Sort) == 0 {
		distanceExpr = haversineMetersSQL(n, n+1)
		args = append(args, q.Near.Lat, q.Near.Lng)
		n += 2
	}
	query := fmt.Sprintf("SELECT %s %s%s %s LIMIT $%d OFFSET $%d",
		eventColumns, eventFrom, where, buildOrderBy(q, distanceExpr), n, n+1)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Count(ctx context.Context, q domain.EventQuery) (int, error) {
	clauses, args, _ := buildFilter(q, 1)
	query := "SELECT COUNT(*) FROM events e"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// AddAttendee registers the user inside a transaction that locks the event
// row first, so concurrent registrations at the capacity boundary serialize
// on the lock and the count check sees every committed registration.
func (r *eventRepository) AddAttendee(ctx context.Context, eventID, userID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRowContext(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO event_attendees (event_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id, user_id) DO NOTHING`, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrAlreadyRegistered
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&count); err != nil {
		return err
	}
	if count > capacity {
		// Rollback discards the insert.
		return domain.ErrCapacityReached
	}
	return tx.Commit()
}

func (r *eventRepository) RemoveAttendee(ctx context.Context, eventID, userID string) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

func (r *eventRepository) ListByAttendee(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom + `
		JOIN event_attendees reg ON reg.event_id = e.id
		WHERE reg.user_id = $1
		ORDER BY reg.created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) AddLike(ctx context.Context, eventID, userID string) error {
	query := `
		INSERT INTO event_likes (event_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, eventID, userID)
	return err
}

func (r *eventRepository) RemoveLike(ctx context.Context, eventID, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM event_likes WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	return err
}

func (r *eventRepository) AddReview(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO event_reviews (event_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		review.EventID, review.UserID, review.Text, review.CreatedAt).Scan(&review.ID)
}

func (r *eventRepository) ListReviews(ctx context.Context, eventID string) ([]*domain.Review, error) {
	query := `
		SELECT rv.id, rv.event_id, rv.user_id, u.name, rv.text, rv.created_at
		FROM event_reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.event_id = $1
		ORDER BY rv.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]*domain.Review, 0)
	for rows.Next() {
		rv := &domain.Review{}
		if err := rows.Scan(&rv.ID, &rv.EventID, &rv.UserID, &rv.Author, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
