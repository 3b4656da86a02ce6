// Package quotecache fronts PoolEngine.QuoteSwap with a short-TTL
// cache, grounded on the teacher's data/cache package: an in-memory
// map by default, or a Redis-backed implementation when REDIS_ADDR is
// set. Quotes are read-only and idempotent within a tick (spec.md §5:
// "may be serviced concurrently"), so caching them never risks core
// correctness — a cache miss just recomputes via QuoteSwap.
package quotecache

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Quote is the cached shape of a quote_swap result.
type Quote struct {
	AmountOut     uint64
	PriceImpactBp uint64
	FeeBps        uint64
}

// Cache fronts quote_swap. Get reports a cache miss both when the
// entry is absent and when it has expired.
type Cache interface {
	Get(key string) (Quote, bool)
	Set(key string, q Quote, ttl time.Duration)
}

// memory is the default, always-available backend.
type memory struct {
	mu sync.Mutex
	m  map[string]entry
}

type entry struct {
	q   Quote
	exp time.Time
}

// New returns the in-memory backend.
func New() Cache { return &memory{m: make(map[string]entry)} }

func (c *memory) Get(key string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || (!e.exp.IsZero() && time.Now().After(e.exp)) {
		return Quote{}, false
	}
	return e.q, true
}

func (c *memory) Set(key string, q Quote, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{q: q}
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}
	c.m[key] = e
}

// redisCache is the optional backend. Every Redis round trip is
// guarded by a gobreaker.CircuitBreaker: once Redis starts failing, the
// breaker opens and callers fall through to a miss (forcing a fresh
// QuoteSwap) instead of blocking on a flaky dependency.
type redisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewAuto returns a Redis-backed Cache when REDIS_ADDR is set in the
// environment, and the in-memory backend otherwise — the same
// env-var-gated fallback as the teacher's data/cache.NewAuto.
func NewAuto() Cache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return New()
	}
	return &redisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "quotecache-redis",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		timeout: 500 * time.Millisecond,
	}
}

func (r *redisCache) Get(key string) (Quote, bool) {
	v, err := r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return r.client.Get(ctx, key).Bytes()
	})
	if err != nil {
		return Quote{}, false
	}
	var q Quote
	if err := json.Unmarshal(v.([]byte), &q); err != nil {
		return Quote{}, false
	}
	return q, true
}

func (r *redisCache) Set(key string, q Quote, ttl time.Duration) {
	payload, err := json.Marshal(q)
	if err != nil {
		return
	}
	_, _ = r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return nil, r.client.Set(ctx, key, payload, ttl).Err()
	})
}
