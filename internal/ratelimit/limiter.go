// Package ratelimit provides client-side request pacing for upstream calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests with a token bucket plus an optional
// minimum delay between consecutive requests.
type Limiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	minDelay    time.Duration
	lastRequest time.Time
}

// NewLimiter creates a new rate limiter.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	if l.minDelay > 0 {
		elapsed := time.Since(l.lastRequest)
		if elapsed < l.minDelay {
			wait := l.minDelay - elapsed
			l.mu.Unlock()
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			l.mu.Lock()
		}
	}
	l.lastRequest = time.Now()
	l.mu.Unlock()

	return nil
}

// Allow checks if a request is allowed without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetMinDelay sets the minimum delay between consecutive requests.
func (l *Limiter) SetMinDelay(delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minDelay = delay
}

// SetRate updates the rate limit.
func (l *Limiter) SetRate(requestsPerSecond float64, burst int) {
	l.limiter.SetLimit(rate.Limit(requestsPerSecond))
	l.limiter.SetBurst(burst)
}
