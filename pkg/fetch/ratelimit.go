package fetch

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between calls. Mod registries
// rate-limit per client IP, so one limiter is shared by everything that
// talks to the same registry; construct it once in the application
// context and pass it down rather than hiding it in a global.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter returns a limiter with the given minimum interval.
// A zero or negative interval disables the delay (useful in tests).
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Wait blocks until the interval since the previous call has elapsed,
// or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interval <= 0 {
		return nil
	}

	if wait := r.interval - time.Since(r.last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.last = time.Now()
	return nil
}
