package pool

import (
	"testing"

	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPair(t *testing.T) AssetPair {
	t.Helper()
	p, err := NewAssetPair(0, 1)
	require.NoError(t, err)
	return p
}

func initedPool(t *testing.T) *Engine {
	t.Helper()
	e := New()
	pair := mustPair(t)
	ranges := []RangeSpec{
		{PriceLower: fixedpoint.ScaleP * 9 / 10, PriceUpper: fixedpoint.ScaleP, Liquidity: 1_000_000},
		{PriceLower: fixedpoint.ScaleP, PriceUpper: fixedpoint.ScaleP * 11 / 10, Liquidity: 1_000_000},
	}
	err := e.InitPool(pair, fixedpoint.ScaleP, DefaultFeeRateBps, "genesis", ranges)
	require.NoError(t, err)
	return e
}

func TestInitPool_RejectsDoubleInit(t *testing.T) {
	e := initedPool(t)
	pair := mustPair(t)
	err := e.InitPool(pair, fixedpoint.ScaleP, DefaultFeeRateBps, "genesis", []RangeSpec{
		{PriceLower: fixedpoint.ScaleP, PriceUpper: fixedpoint.ScaleP * 11 / 10, Liquidity: 100},
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.AlreadyInitialized))
}

func TestInitPool_RejectsOverlappingRanges(t *testing.T) {
	e := New()
	pair := mustPair(t)
	ranges := []RangeSpec{
		{PriceLower: fixedpoint.ScaleP, PriceUpper: fixedpoint.ScaleP * 12 / 10, Liquidity: 1_000_000},
		{PriceLower: fixedpoint.ScaleP * 11 / 10, PriceUpper: fixedpoint.ScaleP * 13 / 10, Liquidity: 1_000_000},
	}
	err := e.InitPool(pair, fixedpoint.ScaleP, DefaultFeeRateBps, "genesis", ranges)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidRange))
}

func TestOperations_FailBeforeInit(t *testing.T) {
	e := New()
	_, _, _, err := e.AddLiquidity("alice", "r1", 100, 100, 0, 0, 0, 1)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotInitialized))

	_, _, _, err = e.QuoteSwap(0, 100)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotInitialized))
}

func TestAddLiquidity_ProportionalDepositMintsTokens(t *testing.T) {
	e := initedPool(t)
	snap, err := e.Snapshot()
	require.NoError(t, err)
	rangeID := snap.Ranges[0].RangeID

	amountX, amountY, lpMinted, err := e.AddLiquidity("bob", rangeID, 10_000, 10_000, 0, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), amountX)
	assert.Equal(t, uint64(10_000), amountY)
	assert.Greater(t, lpMinted, uint64(0))
}

func TestAddLiquidity_RejectsPastDeadline(t *testing.T) {
	e := initedPool(t)
	snap, _ := e.Snapshot()
	rangeID := snap.Ranges[0].RangeID
	_, _, _, err := e.AddLiquidity("bob", rangeID, 100, 100, 0, 0, 5, 10)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.DeadlineExpired))
}

func TestRemoveLiquidity_ReturnsProportionalShare(t *testing.T) {
	e := initedPool(t)
	snap, _ := e.Snapshot()
	rangeID := snap.Ranges[0].RangeID

	_, _, lpMinted, err := e.AddLiquidity("bob", rangeID, 100_000, 100_000, 0, 0, 0, 1)
	require.NoError(t, err)

	amountX, amountY, _, _, err := e.RemoveLiquidity("bob", rangeID, lpMinted, 0, 0, 0, 2)
	require.NoError(t, err)
	assert.InDelta(t, float64(100_000), float64(amountX), 2)
	assert.InDelta(t, float64(100_000), float64(amountY), 2)
}

func TestRemoveLiquidity_RejectsExceedingBalance(t *testing.T) {
	e := initedPool(t)
	snap, _ := e.Snapshot()
	rangeID := snap.Ranges[0].RangeID
	_, _, _, _, err := e.RemoveLiquidity("genesis", rangeID, ^uint64(0), 0, 0, 0, 1)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))
}

func TestSwap_OutputBelowInputReserveAndFeeApplied(t *testing.T) {
	e := initedPool(t)
	amountOut, err := e.Swap("trader1", 0, 10_000, 0, 0, 1, 30, 1_000)
	require.NoError(t, err)
	assert.Greater(t, amountOut, uint64(0))
	assert.Less(t, amountOut, uint64(10_000))
}

func TestSwap_RejectsSlippage(t *testing.T) {
	e := initedPool(t)
	_, err := e.Swap("trader1", 0, 10_000, 10_000, 0, 1, 30, 1_000)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.SlippageExceeded))
}

func TestSwap_RejectsUnknownAsset(t *testing.T) {
	e := initedPool(t)
	_, err := e.Swap("trader1", 99, 10_000, 0, 0, 1, 30, 1_000)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidAsset))
}

func TestSwap_MovesPriceDownOnXToY(t *testing.T) {
	e := initedPool(t)
	before, err := e.Snapshot()
	require.NoError(t, err)
	_, err = e.Swap("trader1", 0, 50_000, 0, 0, 1, 30, 1_000)
	require.NoError(t, err)
	after, err := e.Snapshot()
	require.NoError(t, err)
	assert.Less(t, after.CurrentPrice, before.CurrentPrice)
}

func TestQuoteSwap_ReportsOutputImpactAndDefaultFee(t *testing.T) {
	e := initedPool(t)
	quoted, impact, feeBps, err := e.QuoteSwap(0, 10_000)
	require.NoError(t, err)
	assert.Greater(t, quoted, uint64(0))
	assert.GreaterOrEqual(t, impact, uint64(0))
	assert.Equal(t, uint64(DefaultFeeRateBps), feeBps)
}

func TestApplyRebalance_RejectsNonConservingProposal(t *testing.T) {
	e := initedPool(t)
	err := e.ApplyRebalance([]RangeSpec{
		{PriceLower: fixedpoint.ScaleP * 95 / 100, PriceUpper: fixedpoint.ScaleP * 105 / 100, Liquidity: 999_999_999},
	}, 10)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidProposal))
}

func TestApplyRebalance_ConservesActiveTotalAndFreezesOld(t *testing.T) {
	e := initedPool(t)
	before, err := e.Snapshot()
	require.NoError(t, err)

	err = e.ApplyRebalance([]RangeSpec{
		{PriceLower: fixedpoint.ScaleP * 95 / 100, PriceUpper: fixedpoint.ScaleP * 105 / 100, Liquidity: before.TotalLiquidity},
	}, 10)
	require.NoError(t, err)

	after, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before.TotalLiquidity, after.TotalLiquidity)

	activeCount := 0
	for _, r := range after.Ranges {
		if r.Active {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
	assert.Equal(t, uint64(10), after.LastRebalanceTime)
}

func TestApplyRebalance_SweepsPendingFeesToNearestNewRange(t *testing.T) {
	e := initedPool(t)
	_, err := e.Swap("trader1", 0, 50_000, 0, 0, 1, 30, 1_000)
	require.NoError(t, err)

	before, err := e.Snapshot()
	require.NoError(t, err)
	var accruedBefore uint64
	for _, r := range before.Ranges {
		accruedBefore += r.FeesAccruedX + r.FeesAccruedY
	}
	require.Greater(t, accruedBefore, uint64(0))

	err = e.ApplyRebalance([]RangeSpec{
		{PriceLower: fixedpoint.ScaleP * 95 / 100, PriceUpper: fixedpoint.ScaleP * 105 / 100, Liquidity: before.TotalLiquidity},
	}, 10)
	require.NoError(t, err)

	after, err := e.Snapshot()
	require.NoError(t, err)
	var accruedAfter uint64
	for _, r := range after.Ranges {
		if r.Active {
			accruedAfter += r.FeesAccruedX + r.FeesAccruedY
		}
	}
	assert.Equal(t, accruedBefore, accruedAfter)
}

func TestListPositions_ReflectsSettledFees(t *testing.T) {
	e := initedPool(t)
	snap, _ := e.Snapshot()
	rangeID := snap.Ranges[0].RangeID

	_, err := e.Swap("trader1", 0, 50_000, 0, 0, 1, 30, 1_000)
	require.NoError(t, err)

	positions, err := e.ListPositions("genesis")
	require.NoError(t, err)
	require.NotEmpty(t, positions)
	found := false
	for _, p := range positions {
		if p.RangeID == rangeID {
			found = true
		}
	}
	assert.True(t, found)
}
