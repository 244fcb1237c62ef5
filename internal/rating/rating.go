// Package rating computes mean event ratings.
package rating

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
)

// ErrNoRatings is returned when a mean is requested over zero ratings.
var ErrNoRatings = errors.New("rating: no ratings")

const (
	defaultMaxWorkers   = 8
	defaultFetchTimeout = 2 * time.Second
)

// Source reads the rating values recorded for one event.
type Source interface {
	RatingsForEvent(ctx context.Context, eventID string) ([]float64, error)
}

// BatchSource reads ratings for many events in one round-trip. Events
// without ratings may be absent from the result.
type BatchSource interface {
	Source
	RatingsForEvents(ctx context.Context, eventIDs []string) (map[string][]float64, error)
}

// Options tunes how an Aggregator talks to its Source.
type Options struct {
	// MaxWorkers bounds concurrent per-event fetches.
	MaxWorkers int
	// FetchTimeout bounds each round-trip to the Source.
	FetchTimeout time.Duration
	Logger       logrus.FieldLogger
}

// Aggregator attaches mean ratings to events.
type Aggregator struct {
	source Source
	opts   Options
	log    logrus.FieldLogger
}

// NewAggregator returns an Aggregator reading from src.
func NewAggregator(src Source, opts Options) *Aggregator {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = defaultMaxWorkers
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{source: src, opts: opts, log: log}
}

// CalculateAverageRating returns a copy of events, in the same order, each
// with its unrounded mean rating (nil when unrated). A failed fetch leaves
// that event's rating nil without affecting the others; all fetch failures
// are returned joined.
func (a *Aggregator) CalculateAverageRating(ctx context.Context, events []domain.Event) ([]domain.RatedEvent, error) {
	rated := make([]domain.RatedEvent, len(events))
	for i, ev := range events {
		rated[i] = domain.RatedEvent{Event: ev}
	}
	if len(events) == 0 {
		return rated, nil
	}

	if batch, ok := a.source.(BatchSource); ok {
		return rated, a.fillFromBatch(ctx, batch, rated)
	}
	return rated, a.fillConcurrently(ctx, rated)
}

func (a *Aggregator) fillFromBatch(ctx context.Context, src BatchSource, rated []domain.RatedEvent) error {
	ids := make([]string, 0, len(rated))
	seen := make(map[string]struct{}, len(rated))
	for _, ev := range rated {
		if _, dup := seen[ev.ID]; dup {
			continue
		}
		seen[ev.ID] = struct{}{}
		ids = append(ids, ev.ID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout)
	defer cancel()

	byEvent, err := src.RatingsForEvents(fetchCtx, ids)
	if err != nil {
		a.log.WithError(err).WithField("events", len(ids)).Warn("rating: batch fetch failed")
		return fmt.Errorf("fetch ratings for %d events: %w", len(ids), err)
	}
	for i := range rated {
		rated[i].Rating = meanPtr(byEvent[rated[i].ID])
	}
	return nil
}

func (a *Aggregator) fillConcurrently(ctx context.Context, rated []domain.RatedEvent) error {
	errs := make([]error, len(rated))

	var g errgroup.Group
	g.SetLimit(a.opts.MaxWorkers)
	for i := range rated {
		g.Go(func() error {
			values, err := a.fetchOne(ctx, rated[i].ID)
			if err != nil {
				a.log.WithError(err).WithField("event_id", rated[i].ID).Warn("rating: fetch failed")
				errs[i] = fmt.Errorf("fetch ratings for event %s: %w", rated[i].ID, err)
				return nil
			}
			rated[i].Rating = meanPtr(values)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (a *Aggregator) fetchOne(ctx context.Context, eventID string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout)
	defer cancel()
	return a.source.RatingsForEvent(fetchCtx, eventID)
}

// CalculateAverageByEventRatings returns the mean of ratings rounded to one
// decimal place, or ErrNoRatings when ratings is empty.
func CalculateAverageByEventRatings(ratings []domain.EventRating) (float64, error) {
	values := make([]float64, 0, len(ratings))
	for _, r := range ratings {
		values = append(values, r.Rating)
	}
	avg, ok := Mean(values)
	if !ok {
		return 0, ErrNoRatings
	}
	return RoundToOneDecimal(avg), nil
}

// Mean returns the arithmetic mean of values; ok is false for no values.
func Mean(values []float64) (avg float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// RoundToOneDecimal rounds half away from zero.
func RoundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}

func meanPtr(values []float64) *float64 {
	avg, ok := Mean(values)
	if !ok {
		return nil
	}
	return &avg
}
