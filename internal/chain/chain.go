// Package chain expresses the on-chain broadcast/indexing capability
// that spec.md §1 scopes out of the core as an external collaborator.
// The only in-repo implementation is SimulatedAdapter, driven by the
// orchestrator after a scheduled trade settles against PoolEngine —
// never by PoolEngine itself, and never in a way that mutates pool
// state. Its purpose in this repository is to give the teacher's
// resilience stack (circuit breaker, rate limiter) a real caller.
package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seltra-labs/amm-core/internal/net/circuit"
	"github.com/seltra-labs/amm-core/internal/net/ratelimit"
)

// SignedIntent is the minimal description of a settled trade the
// orchestrator hands to the adapter for broadcast — a stand-in for a
// signed transaction, since signing itself is out of scope.
type SignedIntent struct {
	Wallet    string
	WalletKind string
	AssetIn   uint32
	AmountIn  uint64
	AmountOut uint64
	Timestamp uint64
}

// Ref is the descriptive reference returned by a successful Submit. It
// is purely observational: nothing in PoolEngine or the oracle reads
// it back.
type Ref struct {
	TxRef       string
	SubmittedAt time.Time
}

// Adapter is the narrow interface the orchestrator consumes.
type Adapter interface {
	Submit(ctx context.Context, intent SignedIntent) (Ref, error)
}

// Default resilience parameters. A real chain RPC endpoint fails in
// bursts (congestion, node failover); these defaults assume the same
// failure shape the teacher's provider adapters assume.
const (
	DefaultFailureThreshold = 5
	DefaultSuccessThreshold = 2
	DefaultOpenTimeout      = 10 * time.Second
	DefaultRPS              = 5.0
	DefaultBurst            = 10
)

// SimulatedAdapter stands in for a real chain adapter. It "fails" a
// configurable fraction of submissions to exercise the breaker, and is
// otherwise a deterministic counter-based stub — no wall-clock
// randomness, so tests are reproducible.
type SimulatedAdapter struct {
	breakers *circuit.Manager
	limiter  *ratelimit.Limiter

	mu           sync.Mutex
	submissions  uint64
	failEveryNth uint64 // 0 disables synthetic failures
}

// NewSimulatedAdapter constructs an adapter with the default breaker
// and limiter configuration. failEveryNth, when > 0, makes every Nth
// submission (counted across the whole adapter) fail inside the
// breaker's call, so the breaker records it as a failure and its
// threshold logic has something to trip.
func NewSimulatedAdapter(failEveryNth uint64) *SimulatedAdapter {
	return &SimulatedAdapter{
		breakers: circuit.NewManager(circuit.Config{
			FailureThreshold: DefaultFailureThreshold,
			SuccessThreshold: DefaultSuccessThreshold,
			Timeout:          DefaultOpenTimeout,
		}),
		limiter:      ratelimit.NewLimiter(DefaultRPS, DefaultBurst),
		failEveryNth: failEveryNth,
	}
}

// Submit runs the simulated broadcast through the per-wallet-kind
// circuit breaker and per-wallet rate limiter. A rate-limited or
// open-circuit submission returns an error without mutating any pool
// or oracle state — the caller (orchestrator) only logs and counts it.
func (a *SimulatedAdapter) Submit(ctx context.Context, intent SignedIntent) (Ref, error) {
	if !a.limiter.Allow(intent.Wallet) {
		return Ref{}, fmt.Errorf("chain adapter: rate limited for wallet %s", intent.Wallet)
	}

	var ref Ref
	err := a.breakers.Call(ctx, intent.WalletKind, func(ctx context.Context) error {
		a.mu.Lock()
		a.submissions++
		n := a.submissions
		a.mu.Unlock()

		if a.failEveryNth > 0 && n%a.failEveryNth == 0 {
			return fmt.Errorf("chain adapter: simulated broadcast failure for %s", intent.Wallet)
		}
		ref = Ref{TxRef: uuid.NewString(), SubmittedAt: time.Now()}
		return nil
	})
	if err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// BreakerState reports the circuit state for a wallet kind, for
// observability surfaces.
func (a *SimulatedAdapter) BreakerState(walletKind string) circuit.State {
	return a.breakers.State(walletKind)
}
