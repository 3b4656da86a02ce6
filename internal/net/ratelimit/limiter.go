// Package ratelimit implements a per-key token-bucket limiter,
// grounded on the teacher's internal/net/ratelimit package. It throttles
// ChainAdapter submissions per wallet address the same way the teacher
// throttles outbound calls per provider host.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter lazily creates one token bucket per key.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiter constructs a Limiter issuing rps tokens/sec with the
// given burst capacity, per key.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[key] = lim
	return lim
}

// Allow reports whether a request for key may proceed now, consuming a
// token if so.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait blocks until a token for key is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}
