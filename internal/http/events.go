package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
	"github.com/Clark-Hu/campus-catalog/internal/rating"
	"github.com/Clark-Hu/campus-catalog/internal/repository"
	"github.com/Clark-Hu/campus-catalog/internal/weberr"
)

type eventCreateRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"max=200"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
}

type ratingRequest struct {
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5,half_step"`
}

type ratingResponse struct {
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	Rating    float64   `json:"rating"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type eventRatingSummary struct {
	EventID string   `json:"eventId"`
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) error {
	filters, err := buildEventFilters(r.URL.Query())
	if err != nil {
		return weberr.Wrap(err, http.StatusBadRequest, err.Error())
	}

	result, err := s.deps.Events.List(r.Context(), filters)
	if err != nil {
		return weberr.Internal(err, "Failed to list events")
	}

	rated := s.rate(r, result.Items)
	setNextCursor(w, result.NextCursor)
	return s.respond(w, http.StatusOK, rated, "Events fetched successfully")
}

func buildEventFilters(query url.Values) (repository.EventListFilters, error) {
	var filters repository.EventListFilters
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	limit, cursor, err := parsePage(query)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	filters.Cursor = cursor
	return filters, nil
}

// rate attaches mean ratings. Events whose ratings could not be loaded keep
// a nil rating; the failure is logged rather than failing the request.
func (s *Server) rate(r *http.Request, events []domain.Event) []domain.RatedEvent {
	var rated []domain.RatedEvent
	if s.deps.Aggregator != nil {
		var err error
		rated, err = s.deps.Aggregator.CalculateAverageRating(r.Context(), events)
		if err != nil {
			s.logger.WithError(err).WithField("events", len(events)).Warn("http: rating aggregation incomplete")
		}
	}
	if rated == nil {
		rated = make([]domain.RatedEvent, 0, len(events))
		for _, e := range events {
			rated = append(rated, domain.RatedEvent{Event: e})
		}
	}
	return rated
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "event")
	if err != nil {
		return err
	}

	event, err := s.deps.Events.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return weberr.Wrap(err, http.StatusNotFound, "Event not found")
		}
		return weberr.Internal(err, "Failed to fetch event")
	}

	rated := s.rate(r, []domain.Event{event})
	return s.respond(w, http.StatusOK, rated[0], "Event fetched successfully")
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBearer(r); err != nil {
		return err
	}

	var req eventCreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	created, err := s.deps.Events.Create(r.Context(), repository.EventCreateParams{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt.UTC(),
	})
	if err != nil {
		return weberr.Internal(err, "Failed to create event")
	}

	w.Header().Set("Location", "/events/"+url.PathEscape(created.ID))
	return s.respond(w, http.StatusCreated, domain.RatedEvent{Event: created}, "Event created successfully")
}

func (s *Server) handleGetEventRating(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "event")
	if err != nil {
		return err
	}

	if _, err := s.deps.Events.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return weberr.Wrap(err, http.StatusNotFound, "Event not found")
		}
		return weberr.Internal(err, "Failed to fetch event")
	}

	ratings, err := s.deps.Ratings.ListByEvent(r.Context(), id)
	if err != nil {
		return weberr.Internal(err, "Failed to fetch ratings")
	}

	summary := eventRatingSummary{EventID: id, Count: len(ratings)}
	avg, err := rating.CalculateAverageByEventRatings(ratings)
	switch {
	case errors.Is(err, rating.ErrNoRatings):
	case err != nil:
		return weberr.Internal(err, "Failed to compute rating")
	default:
		summary.Average = &avg
	}
	return s.respond(w, http.StatusOK, summary, "Rating fetched successfully")
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "event")
	if err != nil {
		return err
	}

	userID := strings.TrimSpace(r.Header.Get(raterHeader))
	if userID == "" {
		return weberr.Unauthorized(fmt.Sprintf("Missing %s header", raterHeader))
	}

	var req ratingRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	stored, created, err := s.deps.Ratings.Upsert(r.Context(), repository.RatingUpsertParams{
		EventID: id,
		UserID:  userID,
		Value:   req.Rating,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return weberr.Wrap(err, http.StatusNotFound, "Event not found")
		}
		return weberr.Internal(err, "Failed to save rating")
	}

	status, message := http.StatusOK, "Rating updated successfully"
	if created {
		status, message = http.StatusCreated, "Rating created successfully"
	}
	return s.respond(w, status, ratingResponse{
		EventID:   stored.EventID,
		UserID:    stored.UserID,
		Rating:    stored.Rating,
		UpdatedAt: stored.UpdatedAt,
	}, message)
}
