// Package circuit implements a per-key circuit breaker, grounded on
// the teacher's internal/net/circuit package. It guards ChainAdapter
// submissions the way the teacher guards outbound provider calls:
// after FailureThreshold consecutive failures the breaker opens and
// rejects calls until Timeout elapses, then allows a half-open trial.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the circuit is open and a call is rejected
// without invoking the underlying function.
var ErrOpen = errors.New("circuit breaker open")

// State is one of the three breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Config configures a single Breaker.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// Breaker is a single circuit breaker instance.
type Breaker struct {
	mu              sync.Mutex
	cfg             Config
	state           State
	failures        int
	successes       int
	lastFailureTime time.Time
}

// NewBreaker constructs a Breaker in the closed state.
func NewBreaker(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Call executes fn if the breaker allows it, recording the outcome.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn(ctx)
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailureTime) > b.cfg.Timeout {
			b.state = StateHalfOpen
			b.successes = 0
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFailureTime = time.Now()
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
		}
	}
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Manager keys breakers by a caller-chosen string — in this engine,
// the simulated wallet kind submitting a ChainAdapter intent, the way
// the teacher keys breakers by provider name.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	breakers map[string]*Breaker
}

// NewManager constructs a Manager whose breakers all share cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, breakers: make(map[string]*Breaker)}
}

func (m *Manager) breaker(key string) *Breaker {
	m.mu.RLock()
	b, ok := m.breakers[key]
	m.mu.RUnlock()
	if ok {
		return b
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[key]; ok {
		return b
	}
	b = NewBreaker(m.cfg)
	m.breakers[key] = b
	return b
}

// Call executes fn through the breaker keyed by key.
func (m *Manager) Call(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return m.breaker(key).Call(ctx, fn)
}

// State reports the state of the breaker keyed by key, StateClosed if
// the key has never been used.
func (m *Manager) State(key string) State {
	m.mu.RLock()
	b, ok := m.breakers[key]
	m.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	return b.State()
}
