package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
)

// EventsRepository provides persistence helpers for events.
type EventsRepository struct {
	pool *pgxpool.Pool
}

const eventColumns = `id, title, description, location, starts_at, created_at, updated_at`

// EventCreateParams bundles the fields required to create an event.
type EventCreateParams struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
}

// EventListFilters encapsulates search and pagination options.
type EventListFilters struct {
	Query  *string
	Limit  int
	Cursor *Cursor
}

// EventListResult returns the paginated payload.
type EventListResult struct {
	Items      []domain.Event
	NextCursor *string
}

// Create inserts a new event row and returns the stored entity.
func (r *EventsRepository) Create(ctx context.Context, params EventCreateParams) (domain.Event, error) {
	query := fmt.Sprintf(`
        INSERT INTO events (title, description, location, starts_at)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, eventColumns)
	return scanEvent(r.pool.QueryRow(ctx, query, params.Title, params.Description, params.Location, params.StartsAt))
}

// GetByID fetches an event by its identifier.
func (r *EventsRepository) GetByID(ctx context.Context, id string) (domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, ErrNotFound
		}
		return domain.Event{}, err
	}
	return event, nil
}

// List returns events matching the filters, newest first.
func (r *EventsRepository) List(ctx context.Context, filters EventListFilters) (EventListResult, error) {
	filters.Limit = clampLimit(filters.Limit)

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		q := "%" + strings.TrimSpace(*filters.Query) + "%"
		p1 := arg(q)
		p2 := arg(q)
		where = append(where, fmt.Sprintf("(title ILIKE %s OR location ILIKE %s)", p1, p2))
	}
	if filters.Cursor != nil {
		cursorCreated := arg(filters.Cursor.CreatedAt)
		cursorID := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", cursorCreated, cursorID))
	}

	query := "SELECT " + eventColumns + " FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d", filters.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return EventListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return EventListResult{}, err
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return EventListResult{}, err
	}

	result := EventListResult{Items: items}
	if len(items) > 0 {
		last := items[len(items)-1]
		result.NextCursor, err = nextCursor(len(items), filters.Limit, last.CreatedAt, last.ID)
		if err != nil {
			return EventListResult{}, err
		}
	}
	return result, nil
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var event domain.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.StartsAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return domain.Event{}, err
	}
	return event, nil
}
