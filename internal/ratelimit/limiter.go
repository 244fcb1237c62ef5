// Package ratelimit throttles requests per client key.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Clark-Hu/campus-catalog/internal/weberr"
)

// Limiter keeps one token bucket per key and forgets keys idle for longer
// than Expiry.
type Limiter struct {
	Expiry   time.Duration
	Burst    int
	LimitRPS float64

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLimiter returns a Limiter allowing limitRPS events per second with the
// given burst for every key.
func NewLimiter(burst int, expiry time.Duration, limitRPS float64) *Limiter {
	return &Limiter{
		Expiry:   expiry,
		Burst:    burst,
		LimitRPS: limitRPS,
		clients:  make(map[string]*clientLimiter),
		now:      time.Now,
	}
}

// Allow reports whether key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.LimitRPS), l.Burst)}
		l.clients[key] = cl
	}
	cl.lastAccess = l.now()
	return cl.limiter.Allow()
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Sweep drops keys idle for longer than Expiry.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, cl := range l.clients {
		if now.Sub(cl.lastAccess) > l.Expiry {
			delete(l.clients, key)
		}
	}
}

// Run sweeps every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Middleware rejects requests whose key is over its limit. Rejections are
// reported through onError so they share the regular error envelope.
func (l *Limiter) Middleware(key func(*http.Request) string, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(key(r)) {
				onError(w, r, weberr.TooManyRequests("Too many requests, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Every converts a minimum interval between events into a rate.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
