package domain

import "time"

// Event is a scheduled event that users can rate.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RatedEvent is an Event carrying its mean rating. Rating is nil when the
// event has not been rated yet.
type RatedEvent struct {
	Event
	Rating *float64 `json:"rating"`
}
