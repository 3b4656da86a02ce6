// Package orchestrator implements the SimulationOrchestrator: the
// single-threaded cooperative tick loop that is the only legitimate
// suspension point in the engine (spec.md §5). It owns a PoolEngine,
// VolatilityOracle, RebalancingEngine, FeeManager, and MarketSimulator,
// threading data between them without any of them holding references
// to one another.
//
// Grounded on the teacher's internal/scheduler/scheduler.go shape — a
// struct driving a fixed-interval loop, logging failures through
// zerolog rather than propagating them out of the loop — adapted to
// the spec's five-step tick.
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/seltra-labs/amm-core/internal/chain"
	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fees"
	"github.com/seltra-labs/amm-core/internal/oracle"
	"github.com/seltra-labs/amm-core/internal/pool"
	"github.com/seltra-labs/amm-core/internal/rebalance"
	"github.com/seltra-labs/amm-core/internal/simulator"
	"github.com/seltra-labs/amm-core/internal/tradervolume"
)

// MetricsSink is the optional observability hook the orchestrator
// drives once per tick and once per event. telemetry.Registry
// implements it; a nil sink (the default) makes every call below a
// no-op, so telemetry wiring never gates correctness.
type MetricsSink interface {
	SwapOK()
	SwapFailed()
	RebalanceApplied()
	RebalanceRejected()
	OracleRejected()
	Observe(volatility uint64, regime oracle.Regime)
}

// Counters are the aggregate operation counts the orchestrator
// exposes, never reset except by Reset.
type Counters struct {
	Ticks               uint64
	RebalancesProposed  uint64
	RebalancesApplied   uint64
	RebalancesRejected  uint64
	SwapsExecuted       uint64
	SwapsFailed         uint64
	Errors              uint64
}

// Status is the snapshot the orchestrator exposes to observers.
type Status struct {
	Pool         pool.Snapshot
	OraclePrice  uint64
	Regime       oracle.Regime
	Volatility   uint64
	Scenario     simulator.Scenario
	Counters     Counters
	LastProposal *rebalance.Proposal
}

// Orchestrator ties the five core components together. It is the one
// place in the engine allowed to hold references to every other
// component, since wiring them together is its entire job.
type Orchestrator struct {
	pool       *pool.Engine
	oracle     *oracle.Oracle
	rebalancer *rebalance.Engine
	feeManager *fees.Manager
	sim        *simulator.Simulator
	log        zerolog.Logger

	now          uint64
	counters     Counters
	lastProposal *rebalance.Proposal
	volume24h    uint64

	metrics     MetricsSink
	chainAdapter chain.Adapter
	volumeStore tradervolume.Store
}

// WithMetricsSink registers the optional telemetry observer. It
// returns the Orchestrator for chaining, matching the fees.Manager
// functional-option style.
func (o *Orchestrator) WithMetricsSink(sink MetricsSink) *Orchestrator {
	o.metrics = sink
	return o
}

// WithChainAdapter registers the optional on-chain broadcast
// collaborator (spec.md §1: external, out of scope). It is consulted
// only after a scheduled trade has already settled against PoolEngine
// and never mutates pool or oracle state.
func (o *Orchestrator) WithChainAdapter(adapter chain.Adapter) *Orchestrator {
	o.chainAdapter = adapter
	return o
}

// WithTraderVolumeStore registers the spec.md §4.4 OPTIONAL rolling
// per-trader volume ledger. It wires through fees.Manager's existing
// observer hook, so FeeManager.ComputeFee's behavior is identical
// whether or not this is called.
func (o *Orchestrator) WithTraderVolumeStore(store tradervolume.Store) *Orchestrator {
	o.volumeStore = store
	o.feeManager.WithVolumeObserver(func(traderID string, amount uint64) {
		_ = store.Observe(context.Background(), traderID, amount, time.Unix(int64(o.now), 0))
	})
	return o
}

// New wires an Orchestrator from already-constructed components. The
// caller is responsible for having initialized pool (InitPool) and
// oracle (Init) before the first Tick.
func New(p *pool.Engine, o *oracle.Oracle, r *rebalance.Engine, f *fees.Manager, s *simulator.Simulator, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{pool: p, oracle: o, rebalancer: r, feeManager: f, sim: s, log: logger}
}

// Tick executes the five-step loop from spec.md §4.7:
//  1. advance the simulator
//  2. forward the new price to the oracle
//  3. propose/validate/apply a rebalance if the oracle flags one
//  4. deliver due scheduled trades
//  5. return a status snapshot
//
// A failure in the oracle, rebalance or trade-delivery steps is logged
// and counted and does not halt the tick or propagate past this call.
// A simulator failure in step 1 is logged and counted too, but ends the
// tick early and is returned with the current status.
func (o *Orchestrator) Tick(dtSeconds float64, now uint64) (Status, error) {
	o.now = now

	newPrice, volume, _, err := o.sim.Tick(dtSeconds, now)
	if err != nil {
		o.log.Error().Err(err).Msg("simulator tick failed")
		o.counters.Errors++
		return o.status(), err
	}
	o.volume24h += volume

	if err := o.oracle.UpdatePrice(newPrice, volume, now); err != nil {
		o.log.Warn().Err(err).Msg("oracle rejected price update")
		o.counters.Errors++
		if o.metrics != nil {
			o.metrics.OracleRejected()
		}
	}

	if o.oracle.ShouldRebalance(now) {
		o.attemptRebalance(now)
	}

	for _, trade := range o.sim.DueTrades(now) {
		o.deliverTrade(trade, now)
	}

	if o.metrics != nil {
		o.metrics.Observe(o.oracle.CurrentVolatility(), o.oracle.CurrentRegime())
	}

	o.counters.Ticks++
	return o.status(), nil
}

func (o *Orchestrator) attemptRebalance(now uint64) {
	snap, err := o.pool.Snapshot()
	if err != nil {
		o.log.Error().Err(err).Msg("snapshot failed during rebalance attempt")
		o.counters.Errors++
		return
	}

	proposal, err := o.rebalancer.Propose(o.oracle.LastPrice(), o.oracle.CurrentVolatility(), snap.TotalLiquidity, now)
	if err != nil {
		o.log.Warn().Err(err).Msg("rebalance proposal generation failed")
		o.counters.Errors++
		return
	}
	o.counters.RebalancesProposed++

	if o.rebalancer.RebalanceTooSoon(snap.LastRebalanceTime, now) {
		o.counters.RebalancesRejected++
		if o.metrics != nil {
			o.metrics.RebalanceRejected()
		}
		return
	}

	if _, err := o.rebalancer.Validate(snap.TotalLiquidity, proposal.ProposedRanges); err != nil {
		o.log.Warn().Err(err).Str("proposal_id", proposal.ProposalID).Msg("rebalance proposal failed validation")
		o.counters.RebalancesRejected++
		if o.metrics != nil {
			o.metrics.RebalanceRejected()
		}
		return
	}

	specs := make([]pool.RangeSpec, len(proposal.ProposedRanges))
	for i, r := range proposal.ProposedRanges {
		specs[i] = pool.RangeSpec{PriceLower: r.PriceLower, PriceUpper: r.PriceUpper, Liquidity: r.Liquidity}
	}

	if err := o.pool.ApplyRebalance(specs, now); err != nil {
		o.log.Error().Err(err).Str("proposal_id", proposal.ProposalID).Msg("rebalance application failed")
		o.counters.RebalancesRejected++
		if o.metrics != nil {
			o.metrics.RebalanceRejected()
		}
		return
	}

	o.oracle.MarkRebalanceCompleted(now)
	o.counters.RebalancesApplied++
	o.lastProposal = proposal
	if o.metrics != nil {
		o.metrics.RebalanceApplied()
	}
	o.log.Info().Str("proposal_id", proposal.ProposalID).Uint64("num_ranges", uint64(len(specs))).Msg("rebalance applied")
}

func (o *Orchestrator) deliverTrade(trade simulator.ScheduledTrade, now uint64) {
	if trade.Type != simulator.TradeSwap {
		return // add_liq/remove_liq scheduling is a documented extension point, not wired in this core
	}

	snap, err := o.pool.Snapshot()
	if err != nil {
		o.counters.Errors++
		return
	}

	feeBps, _, err := o.feeManager.ComputeFee(o.oracle.CurrentVolatility(), o.volume24h, snap.TotalLiquidity, trade.Size, nil)
	if err != nil {
		o.log.Warn().Err(err).Msg("fee computation failed, dropping scheduled trade")
		o.counters.SwapsFailed++
		o.counters.Errors++
		if o.metrics != nil {
			o.metrics.SwapFailed()
		}
		return
	}

	assetIn := snap.Pair.AssetX
	if trade.Side == simulator.SideSellY {
		assetIn = snap.Pair.AssetY
	}

	amountOut, err := o.pool.Swap(trade.Wallet, assetIn, trade.Size, 0, 0, now, feeBps, fees.DefaultProtocolShareBps)
	if err != nil {
		if !errs.Is(err, errs.SlippageExceeded) && !errs.Is(err, errs.InsufficientLiquidity) {
			o.log.Warn().Err(err).Str("wallet", trade.Wallet).Msg("scheduled trade failed")
		}
		o.counters.SwapsFailed++
		if o.metrics != nil {
			o.metrics.SwapFailed()
		}
		return
	}
	o.feeManager.ObserveTrade(trade.Wallet, trade.Size)
	o.counters.SwapsExecuted++
	if o.metrics != nil {
		o.metrics.SwapOK()
	}

	o.submitToChain(trade, assetIn, amountOut, now)
}

// submitToChain hands a settled trade to the optional ChainAdapter.
// This runs strictly after the swap has already mutated PoolEngine
// state; a broadcast failure (rate-limited, circuit open, simulated
// failure) is logged and counted but never rolls back or otherwise
// touches pool state, matching spec.md §1's scoping of broadcast as an
// external collaborator.
func (o *Orchestrator) submitToChain(trade simulator.ScheduledTrade, assetIn uint32, amountOut, now uint64) {
	if o.chainAdapter == nil {
		return
	}
	kind, _ := o.sim.WalletKindOf(trade.Wallet)
	_, err := o.chainAdapter.Submit(context.Background(), chain.SignedIntent{
		Wallet:     trade.Wallet,
		WalletKind: string(kind),
		AssetIn:    assetIn,
		AmountIn:   trade.Size,
		AmountOut:  amountOut,
		Timestamp:  now,
	})
	if err != nil {
		o.log.Debug().Err(err).Str("wallet", trade.Wallet).Msg("chain adapter submission failed")
	}
}

func (o *Orchestrator) status() Status {
	snap, err := o.pool.Snapshot()
	if err != nil {
		snap = pool.Snapshot{}
	}
	return Status{
		Pool:         snap,
		OraclePrice:  o.oracle.LastPrice(),
		Regime:       o.oracle.CurrentRegime(),
		Volatility:   o.oracle.CurrentVolatility(),
		Scenario:     o.sim.CurrentScenario(),
		Counters:     o.counters,
		LastProposal: o.lastProposal,
	}
}

// SetScenario is the set_scenario control operation.
func (o *Orchestrator) SetScenario(scenario simulator.Scenario) error {
	return o.sim.SetScenario(scenario)
}

// SetVolatilityRegimeHint is the set_volatility_regime_hint control
// operation.
func (o *Orchestrator) SetVolatilityRegimeHint(volFraction float64) error {
	return o.sim.SetVolatilityRegimeHint(volFraction)
}

// InjectPriceShock is the inject_price_shock control operation.
func (o *Orchestrator) InjectPriceShock(magnitudeBps int64, durationTicks uint64) {
	o.sim.InjectPriceShock(magnitudeBps, durationTicks)
}

// Reset reseeds the simulator and clears counters. It never touches
// PoolEngine state, matching spec.md §4.7's "mutate only
// simulator/oracle seeds, never pool balances".
func (o *Orchestrator) Reset(seed int64, initialPrice uint64, scenario simulator.Scenario) error {
	if err := o.sim.Reset(seed, initialPrice, scenario); err != nil {
		return err
	}
	o.counters = Counters{}
	o.lastProposal = nil
	o.volume24h = 0
	return nil
}

// GetStatus is the get_status query operation.
func (o *Orchestrator) GetStatus() Status {
	return o.status()
}
