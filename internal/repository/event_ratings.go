package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
)

// foreignKeyViolation is the Postgres SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

// EventRatingsRepository provides helpers for event ratings. It is the
// storage behind the rating aggregator.
type EventRatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingUpsertParams captures the payload required to upsert a rating.
type RatingUpsertParams struct {
	EventID string
	UserID  string
	Value   float64
}

// Upsert inserts or updates a rating and indicates whether it was newly created.
func (r *EventRatingsRepository) Upsert(ctx context.Context, params RatingUpsertParams) (domain.EventRating, bool, error) {
	const query = `
        INSERT INTO event_ratings (event_id, user_id, rating)
        VALUES ($1,$2,$3)
        ON CONFLICT (event_id, user_id)
        DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
        RETURNING event_id, user_id, rating, created_at, updated_at, (xmax = 0) AS inserted
    `

	var rating domain.EventRating
	var inserted bool
	err := r.pool.QueryRow(ctx, query, params.EventID, params.UserID, params.Value).Scan(
		&rating.EventID,
		&rating.UserID,
		&rating.Rating,
		&rating.CreatedAt,
		&rating.UpdatedAt,
		&inserted,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation) {
			return domain.EventRating{}, false, ErrNotFound
		}
		return domain.EventRating{}, false, err
	}

	return rating, inserted, nil
}

// ListByEvent returns every rating recorded for an event, oldest first.
func (r *EventRatingsRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.EventRating, error) {
	const query = `
        SELECT event_id, user_id, rating, created_at, updated_at
        FROM event_ratings
        WHERE event_id = $1
        ORDER BY created_at, user_id
    `
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]domain.EventRating, 0)
	for rows.Next() {
		var rating domain.EventRating
		if err := rows.Scan(&rating.EventID, &rating.UserID, &rating.Rating, &rating.CreatedAt, &rating.UpdatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// RatingsForEvent returns the bare rating values of one event.
func (r *EventRatingsRepository) RatingsForEvent(ctx context.Context, eventID string) ([]float64, error) {
	const query = `SELECT rating FROM event_ratings WHERE event_id = $1`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("collect ratings: %w", err)
	}
	return values, nil
}

// RatingsForEvents returns rating values grouped by event in a single query.
// Events without ratings are absent from the map.
func (r *EventRatingsRepository) RatingsForEvents(ctx context.Context, eventIDs []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}

	const query = `
        SELECT event_id::text, rating
        FROM event_ratings
        WHERE event_id = ANY($1::text[]::uuid[])
    `
	rows, err := r.pool.Query(ctx, query, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("query ratings batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID string
			value   float64
		)
		if err := rows.Scan(&eventID, &value); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
