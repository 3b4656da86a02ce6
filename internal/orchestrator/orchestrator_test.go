package orchestrator

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/seltra-labs/amm-core/internal/chain"
	"github.com/seltra-labs/amm-core/internal/fees"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
	"github.com/seltra-labs/amm-core/internal/oracle"
	"github.com/seltra-labs/amm-core/internal/pool"
	"github.com/seltra-labs/amm-core/internal/rebalance"
	"github.com/seltra-labs/amm-core/internal/simulator"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, scenario simulator.Scenario) *Orchestrator {
	t.Helper()

	p := pool.New()
	pair, err := pool.NewAssetPair(0, 1)
	require.NoError(t, err)
	err = p.InitPool(pair, fixedpoint.ScaleP, pool.DefaultFeeRateBps, "genesis", []pool.RangeSpec{
		{PriceLower: fixedpoint.ScaleP * 9 / 10, PriceUpper: fixedpoint.ScaleP, Liquidity: 10_000_000},
		{PriceLower: fixedpoint.ScaleP, PriceUpper: fixedpoint.ScaleP * 11 / 10, Liquidity: 10_000_000},
	})
	require.NoError(t, err)

	o := oracle.New()
	require.NoError(t, o.Init(fixedpoint.ScaleP, fixedpoint.ScaleV*3/10, 20))

	r := rebalance.New()
	f := fees.New()

	sim, err := simulator.New(7, fixedpoint.ScaleP, scenario)
	require.NoError(t, err)
	require.NoError(t, sim.AddWallet("bot1", simulator.WalletBot, 1_000_000_000, 1_000_000_000, 30))
	require.NoError(t, sim.AddWallet("whale1", simulator.WalletWhale, 1_000_000_000, 1_000_000_000, 0))

	logger := zerolog.New(io.Discard)
	return New(p, o, r, f, sim, logger)
}

func TestTick_AdvancesCountersWithoutError(t *testing.T) {
	orc := newTestOrchestrator(t, simulator.ScenarioNormal)
	var status Status
	for i := uint64(0); i < 30; i++ {
		s, err := orc.Tick(1, i)
		require.NoError(t, err)
		status = s
	}
	require.Equal(t, uint64(30), status.Counters.Ticks)
}

func TestTick_FlashCrashEventuallyRebalances(t *testing.T) {
	orc := newTestOrchestrator(t, simulator.ScenarioFlashCrash)
	initialLiquidity := orc.GetStatus().Pool.TotalLiquidity

	var status Status
	for i := uint64(0); i < 120; i++ {
		s, err := orc.Tick(1, i)
		require.NoError(t, err)
		status = s

		deltaBps, err := fixedpoint.PctChange(initialLiquidity, s.Pool.TotalLiquidity)
		require.NoError(t, err)
		require.LessOrEqual(t, fixedpoint.AbsInt64(deltaBps), uint64(fixedpoint.ScaleV/1_000)) // within 0.1%
	}
	require.GreaterOrEqual(t, status.Counters.RebalancesApplied, uint64(1))
}

func TestReset_ClearsCountersNotPoolBalances(t *testing.T) {
	orc := newTestOrchestrator(t, simulator.ScenarioNormal)
	for i := uint64(0); i < 10; i++ {
		_, err := orc.Tick(1, i)
		require.NoError(t, err)
	}
	beforePool := orc.GetStatus().Pool.TotalLiquidity

	require.NoError(t, orc.Reset(1, fixedpoint.ScaleP, simulator.ScenarioCalm))
	status := orc.GetStatus()
	require.Equal(t, uint64(0), status.Counters.Ticks)
	require.Equal(t, beforePool, status.Pool.TotalLiquidity)
}

func TestSetScenario_RejectsUnknown(t *testing.T) {
	orc := newTestOrchestrator(t, simulator.ScenarioNormal)
	err := orc.SetScenario(simulator.Scenario("nonexistent"))
	require.Error(t, err)
}

func TestInjectPriceShock_ReflectedInNextTickPrice(t *testing.T) {
	orc := newTestOrchestrator(t, simulator.ScenarioCalm)
	before, err := orc.Tick(1, 0)
	require.NoError(t, err)
	orc.InjectPriceShock(-2000, 0) // -20%
	after, err := orc.Tick(1, 1)
	require.NoError(t, err)
	require.Less(t, after.OraclePrice, before.OraclePrice*9/10)
}

type fakeSink struct {
	swapOK, swapFailed, rebalanceApplied, rebalanceRejected, oracleRejected int
}

func (f *fakeSink) SwapOK()            { f.swapOK++ }
func (f *fakeSink) SwapFailed()        { f.swapFailed++ }
func (f *fakeSink) RebalanceApplied()  { f.rebalanceApplied++ }
func (f *fakeSink) RebalanceRejected() { f.rebalanceRejected++ }
func (f *fakeSink) OracleRejected()    { f.oracleRejected++ }
func (f *fakeSink) Observe(uint64, oracle.Regime) {}

func TestWithMetricsSink_ReceivesTickEvents(t *testing.T) {
	orc := newTestOrchestrator(t, simulator.ScenarioFlashCrash)
	sink := &fakeSink{}
	orc.WithMetricsSink(sink)

	for i := uint64(0); i < 120; i++ {
		_, err := orc.Tick(1, i)
		require.NoError(t, err)
	}
	require.Equal(t, orc.GetStatus().Counters.RebalancesApplied, uint64(sink.rebalanceApplied))
}

type fakeChainAdapter struct{ submissions int }

func (f *fakeChainAdapter) Submit(ctx context.Context, intent chain.SignedIntent) (chain.Ref, error) {
	f.submissions++
	return chain.Ref{TxRef: "fake"}, nil
}

func TestWithChainAdapter_InvokedAfterSuccessfulSwap(t *testing.T) {
	orc := newTestOrchestrator(t, simulator.ScenarioNormal)
	adapter := &fakeChainAdapter{}
	orc.WithChainAdapter(adapter)

	for i := uint64(0); i < 60; i++ {
		_, err := orc.Tick(1, i)
		require.NoError(t, err)
	}
	require.Equal(t, int(orc.GetStatus().Counters.SwapsExecuted), adapter.submissions)
}
