package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether an event may happen now, consuming a token if so
	Allow() bool
	// Wait blocks until an event may happen or ctx is done
	Wait(ctx context.Context) error
	// Delay returns how long the next event would have to wait
	Delay() time.Duration
	// Reset refills the limiter
	Reset()
}

// TokenBucket is a Limiter backed by x/time/rate.
type TokenBucket struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewTokenBucket allows capacity events per period, all of which may be
// spent at once.
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	if capacity <= 0 || period <= 0 {
		return newBucket(rate.Inf, 1)
	}
	return newBucket(rate.Every(period/time.Duration(capacity)), capacity)
}

// PerHour allows n events per hour with the given burst. A non-positive n
// disables limiting.
func PerHour(n, burst int) *TokenBucket {
	if n <= 0 {
		return newBucket(rate.Inf, 1)
	}
	if burst <= 0 {
		burst = 1
	}
	return newBucket(rate.Every(time.Hour/time.Duration(n)), burst)
}

func newBucket(limit rate.Limit, burst int) *TokenBucket {
	return &TokenBucket{limit: limit, burst: burst, limiter: rate.NewLimiter(limit, burst)}
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limiter
}

func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

func (tb *TokenBucket) Delay() time.Duration {
	r := tb.current().Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 0
	}
	return r.Delay()
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = rate.NewLimiter(tb.limit, tb.burst)
}
