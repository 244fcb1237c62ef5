package domain

import "time"

// EventRating represents a single user's rating for an event.
type EventRating struct {
	EventID   string
	UserID    string
	Rating    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
