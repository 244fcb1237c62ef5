package rating

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
)

// fakeSource serves ratings from memory and records concurrency.
type fakeSource struct {
	ratings map[string][]float64
	fail    map[string]error
	delay   time.Duration

	mu       sync.Mutex
	calls    int
	inFlight int32
	peak     int32
}

func (f *fakeSource) RatingsForEvent(ctx context.Context, eventID string) ([]float64, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.fail[eventID]; err != nil {
		return nil, err
	}
	return f.ratings[eventID], nil
}

type fakeBatchSource struct {
	fakeSource
	batchCalls int
	gotIDs     []string
	batchErr   error
}

func (f *fakeBatchSource) RatingsForEvents(ctx context.Context, ids []string) (map[string][]float64, error) {
	f.batchCalls++
	f.gotIDs = append([]string(nil), ids...)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[string][]float64)
	for _, id := range ids {
		if v, ok := f.ratings[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func newTestAggregator(src Source, opts Options) *Aggregator {
	logger, _ := test.NewNullLogger()
	opts.Logger = logger
	return NewAggregator(src, opts)
}

func events(ids ...string) []domain.Event {
	out := make([]domain.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Event{ID: id, Title: "Event " + id})
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func TestCalculateAverageRating(t *testing.T) {
	src := &fakeSource{ratings: map[string][]float64{
		"e1": {4, 5},
		"e2": {1, 2, 2},
	}}
	agg := newTestAggregator(src, Options{})

	got, err := agg.CalculateAverageRating(context.Background(), events("e1", "e2", "e3"))
	if err != nil {
		t.Fatalf("CalculateAverageRating() error = %v", err)
	}

	want := []domain.RatedEvent{
		{Event: domain.Event{ID: "e1", Title: "Event e1"}, Rating: ptr(4.5)},
		{Event: domain.Event{ID: "e2", Title: "Event e2"}, Rating: ptr(5.0 / 3.0)},
		{Event: domain.Event{ID: "e3", Title: "Event e3"}, Rating: nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rated events mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateAverageRatingDoesNotRound(t *testing.T) {
	src := &fakeSource{ratings: map[string][]float64{"e1": {1, 2, 2}}}
	agg := newTestAggregator(src, Options{})

	got, err := agg.CalculateAverageRating(context.Background(), events("e1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Rating == nil || *got[0].Rating == 1.7 {
		t.Fatalf("rating = %v, want unrounded mean", got[0].Rating)
	}
}

func TestCalculateAverageRatingEmptyInput(t *testing.T) {
	src := &fakeSource{}
	agg := newTestAggregator(src, Options{})

	got, err := agg.CalculateAverageRating(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || got == nil {
		t.Fatalf("got %v, want empty non-nil slice", got)
	}
	if src.calls != 0 {
		t.Fatalf("source called %d times for empty input", src.calls)
	}
}

func TestCalculateAverageRatingPerEventIndependence(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{
		ratings: map[string][]float64{"e1": {3}, "e3": {5, 4}},
		fail:    map[string]error{"e2": boom},
	}
	agg := newTestAggregator(src, Options{MaxWorkers: 2})

	got, err := agg.CalculateAverageRating(context.Background(), events("e1", "e2", "e3"))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if got[0].Rating == nil || *got[0].Rating != 3 {
		t.Fatalf("e1 rating = %v, want 3", got[0].Rating)
	}
	if got[1].Rating != nil {
		t.Fatalf("e2 rating = %v, want nil", *got[1].Rating)
	}
	if got[2].Rating == nil || *got[2].Rating != 4.5 {
		t.Fatalf("e3 rating = %v, want 4.5", got[2].Rating)
	}
}

func TestCalculateAverageRatingBoundsConcurrency(t *testing.T) {
	ratings := make(map[string][]float64)
	ids := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("e%d", i)
		ids = append(ids, id)
		ratings[id] = []float64{float64(i%5 + 1)}
	}
	src := &fakeSource{ratings: ratings, delay: 5 * time.Millisecond}
	agg := newTestAggregator(src, Options{MaxWorkers: 3})

	got, err := agg.CalculateAverageRating(context.Background(), events(ids...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak := atomic.LoadInt32(&src.peak); peak > 3 {
		t.Fatalf("peak concurrency = %d, want <= 3", peak)
	}
	for i, ev := range got {
		if ev.ID != ids[i] {
			t.Fatalf("order changed at %d: %s != %s", i, ev.ID, ids[i])
		}
		if ev.Rating == nil || *ev.Rating != float64(i%5+1) {
			t.Fatalf("event %s rating = %v", ev.ID, ev.Rating)
		}
	}
}

func TestCalculateAverageRatingFetchTimeout(t *testing.T) {
	src := &fakeSource{
		ratings: map[string][]float64{"e1": {5}},
		delay:   200 * time.Millisecond,
	}
	agg := newTestAggregator(src, Options{FetchTimeout: 10 * time.Millisecond})

	got, err := agg.CalculateAverageRating(context.Background(), events("e1"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	if got[0].Rating != nil {
		t.Fatalf("rating = %v, want nil after timeout", *got[0].Rating)
	}
}

func TestCalculateAverageRatingUsesBatchSource(t *testing.T) {
	src := &fakeBatchSource{fakeSource: fakeSource{ratings: map[string][]float64{
		"e1": {4, 5},
	}}}
	agg := newTestAggregator(src, Options{})

	got, err := agg.CalculateAverageRating(context.Background(), events("e1", "e2", "e1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.batchCalls != 1 || src.calls != 0 {
		t.Fatalf("batch calls = %d, single calls = %d", src.batchCalls, src.calls)
	}
	if diff := cmp.Diff([]string{"e1", "e2"}, src.gotIDs); diff != "" {
		t.Fatalf("batch ids mismatch:\n%s", diff)
	}
	if got[0].Rating == nil || *got[0].Rating != 4.5 || got[1].Rating != nil || got[2].Rating == nil {
		t.Fatalf("unexpected ratings: %+v", got)
	}
}

func TestCalculateAverageRatingBatchFailure(t *testing.T) {
	boom := errors.New("too many connections")
	src := &fakeBatchSource{batchErr: boom}
	agg := newTestAggregator(src, Options{})

	got, err := agg.CalculateAverageRating(context.Background(), events("e1"))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if len(got) != 1 || got[0].Rating != nil {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestCalculateAverageRatingIdempotent(t *testing.T) {
	src := &fakeSource{ratings: map[string][]float64{"e1": {2, 3}}}
	agg := newTestAggregator(src, Options{})
	input := events("e1", "e2")

	first, err := agg.CalculateAverageRating(context.Background(), input)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := agg.CalculateAverageRating(context.Background(), input)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ:\n%s", diff)
	}
	if diff := cmp.Diff(events("e1", "e2"), input); diff != "" {
		t.Fatalf("input mutated:\n%s", diff)
	}
}

func TestCalculateAverageByEventRatings(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"half", []float64{4, 5}, 4.5},
		{"repeating", []float64{1, 2, 2}, 1.7},
		{"single", []float64{3}, 3},
		{"round half up", []float64{4.25, 4.3}, 4.3},
		{"round down", []float64{2.5, 3, 2.7}, 2.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratings := make([]domain.EventRating, 0, len(tt.values))
			for _, v := range tt.values {
				ratings = append(ratings, domain.EventRating{EventID: "e1", Rating: v})
			}
			got, err := CalculateAverageByEventRatings(ratings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CalculateAverageByEventRatings(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestCalculateAverageByEventRatingsEmpty(t *testing.T) {
	if _, err := CalculateAverageByEventRatings(nil); !errors.Is(err, ErrNoRatings) {
		t.Fatalf("error = %v, want ErrNoRatings", err)
	}
}

func TestRoundToOneDecimal(t *testing.T) {
	tests := []struct {
		value float64
		want  float64
	}{
		{0, 0},
		{3.75, 3.8},
		{2.74, 2.7},
		{4.5, 4.5},
		{199.94, 199.9},
	}
	for _, tt := range tests {
		if got := RoundToOneDecimal(tt.value); got != tt.want {
			t.Fatalf("RoundToOneDecimal(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
