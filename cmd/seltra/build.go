package main

import (
	"github.com/rs/zerolog"

	"github.com/seltra-labs/amm-core/internal/chain"
	"github.com/seltra-labs/amm-core/internal/config"
	"github.com/seltra-labs/amm-core/internal/fees"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
	"github.com/seltra-labs/amm-core/internal/oracle"
	"github.com/seltra-labs/amm-core/internal/orchestrator"
	"github.com/seltra-labs/amm-core/internal/pool"
	"github.com/seltra-labs/amm-core/internal/rebalance"
	"github.com/seltra-labs/amm-core/internal/simulator"
	"github.com/seltra-labs/amm-core/internal/telemetry"
)

// buildOptions configures buildOrchestrator's wiring.
type buildOptions struct {
	cfg          config.Config
	scenario     simulator.Scenario
	seed         int64
	initialPrice uint64
	withChain    bool
	metrics      *telemetry.Registry
	logger       zerolog.Logger
}

// buildOrchestrator constructs the five core components per cfg and
// wires them into an Orchestrator with a two-range genesis pool: two
// adjacent, non-overlapping ranges covering 10% below and 10% above
// the initial price.
func buildOrchestrator(opts buildOptions) (*orchestrator.Orchestrator, error) {
	pair, err := pool.NewAssetPair(0, 1)
	if err != nil {
		return nil, err
	}

	p := pool.New()
	if err := p.InitPool(pair, opts.initialPrice, opts.cfg.BaseFeeBps, "genesis", []pool.RangeSpec{
		{PriceLower: opts.initialPrice * 90 / 100, PriceUpper: opts.initialPrice, Liquidity: 10_000_000},
		{PriceLower: opts.initialPrice, PriceUpper: opts.initialPrice * 110 / 100, Liquidity: 10_000_000},
	}); err != nil {
		return nil, err
	}

	o := oracle.New()
	if err := o.Init(opts.initialPrice, opts.cfg.AlphaScaled, int(opts.cfg.WindowSize)); err != nil {
		return nil, err
	}

	r := rebalance.New()
	f := fees.New()

	sim, err := simulator.New(opts.seed, opts.initialPrice, opts.scenario)
	if err != nil {
		return nil, err
	}
	if err := sim.AddWallet("retail-1", simulator.WalletRetail, 1_000_000_000, 1_000_000_000, 0); err != nil {
		return nil, err
	}
	if err := sim.AddWallet("whale-1", simulator.WalletWhale, 1_000_000_000, 1_000_000_000, 0); err != nil {
		return nil, err
	}
	if err := sim.AddWallet("bot-1", simulator.WalletBot, 1_000_000_000, 1_000_000_000, 5); err != nil {
		return nil, err
	}

	orc := orchestrator.New(p, o, r, f, sim, opts.logger)
	if opts.withChain {
		orc.WithChainAdapter(chain.NewSimulatedAdapter(0))
	}
	if opts.metrics != nil {
		orc.WithMetricsSink(opts.metrics)
	}
	return orc, nil
}

// defaultInitialPrice is 1.0 at scale P, matching spec.md §8's S1/S2
// literal scenarios.
const defaultInitialPrice = fixedpoint.ScaleP
