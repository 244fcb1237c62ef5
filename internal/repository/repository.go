package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/campus-catalog/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Courses      *CoursesRepository
	Events       *EventsRepository
	EventRatings *EventRatingsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Courses:      &CoursesRepository{pool: pool},
		Events:       &EventsRepository{pool: pool},
		EventRatings: &EventRatingsRepository{pool: pool},
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
