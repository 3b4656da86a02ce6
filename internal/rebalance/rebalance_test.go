package rebalance

import (
	"testing"

	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneP = fixedpoint.ScaleP

func TestPropose_LiquidityConservation(t *testing.T) {
	e := New()
	total := uint64(30_000_000)
	for _, vol := range []uint64{5_000, 20_000, 45_000, 90_000, 150_000} {
		p, err := e.Propose(oneP, vol, total, 0)
		require.NoError(t, err)
		var sum uint64
		for _, r := range p.ProposedRanges {
			sum += r.Liquidity
		}
		assert.Equal(t, total, sum, "volatility=%d", vol)
	}
}

func TestPropose_TierNumRanges(t *testing.T) {
	e := New()
	cases := []struct {
		vol  uint64
		want int
	}{
		{5_000, 2},
		{20_000, 3},
		{45_000, 4},
		{90_000, 5},
		{200_000, 6},
	}
	for _, c := range cases {
		p, err := e.Propose(oneP, c.vol, 1_000_000, 0)
		require.NoError(t, err)
		assert.Equal(t, c.want, len(p.ProposedRanges), "volatility=%d", c.vol)
	}
}

func TestPropose_RangesSortedAndNonOverlapping(t *testing.T) {
	e := New()
	p, err := e.Propose(oneP, 90_000, 10_000_000, 0)
	require.NoError(t, err)
	for i := 1; i < len(p.ProposedRanges); i++ {
		assert.LessOrEqual(t, p.ProposedRanges[i-1].PriceUpper, p.ProposedRanges[i].PriceLower)
		assert.Less(t, p.ProposedRanges[i-1].PriceLower, p.ProposedRanges[i].PriceLower)
	}
}

func TestValidate_AcceptsExactConservation(t *testing.T) {
	e := New()
	p, err := e.Propose(oneP, 45_000, 10_000_000, 0)
	require.NoError(t, err)
	_, err = e.Validate(10_000_000, p.ProposedRanges)
	assert.NoError(t, err)
}

func TestValidate_RejectsLiquidityMismatch(t *testing.T) {
	e := New()
	p, err := e.Propose(oneP, 45_000, 10_000_000, 0)
	require.NoError(t, err)
	_, err = e.Validate(20_000_000, p.ProposedRanges)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidProposal))
}

func TestValidate_RejectsOverlap(t *testing.T) {
	e := New()
	ranges := []Range{
		{PriceLower: oneP, PriceUpper: oneP * 11 / 10, Liquidity: 500},
		{PriceLower: oneP * 105 / 100, PriceUpper: oneP * 13 / 10, Liquidity: 500},
	}
	_, err := e.Validate(1000, ranges)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidRange))
}

func TestValidate_MinRangeSizeBoundary(t *testing.T) {
	e := New()
	lower := uint64(1_000_000)
	// exactly MIN_RANGE_SIZE bps: upper = lower * (1 + 50/10000)
	upperAtMin := lower + lower*MinRangeSize/fixedpoint.ScaleR
	ranges := []Range{{PriceLower: lower, PriceUpper: upperAtMin, Liquidity: 1000}}
	_, err := e.Validate(1000, ranges)
	assert.NoError(t, err)

	upperBelowMin := lower + lower*(MinRangeSize-1)/fixedpoint.ScaleR
	ranges2 := []Range{{PriceLower: lower, PriceUpper: upperBelowMin, Liquidity: 1000}}
	_, err = e.Validate(1000, ranges2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidRange))
}

func TestScore_Bounded(t *testing.T) {
	e := New()
	p, err := e.Propose(oneP, 45_000, 10_000_000, 0)
	require.NoError(t, err)
	score, err := e.Score(p.ProposedRanges, oneP, 45_000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, uint64(0))
	assert.LessOrEqual(t, score, uint64(10_000))
}

func TestScore_CenteredRangeScoresMax(t *testing.T) {
	e := New()
	ranges := []Range{{PriceLower: oneP - 1, PriceUpper: oneP + 1, Liquidity: 1000}}
	score, err := e.Score(ranges, oneP, 50_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), score)
}

func TestRebalanceTooSoon_DefensiveCooldown(t *testing.T) {
	e := New().WithSecondaryCooldown(60)
	assert.True(t, e.RebalanceTooSoon(100, 130))
	assert.False(t, e.RebalanceTooSoon(100, 161))
}

func TestRebalanceTooSoon_DisabledByDefault(t *testing.T) {
	e := New()
	assert.False(t, e.RebalanceTooSoon(100, 101))
}

// S2 from spec.md §8: at Medium/High boundary (volatility>=60000),
// num_ranges=5 and concentration_factor=18000.
func TestScenarioS2_ProposalShape(t *testing.T) {
	e := New()
	p, err := e.Propose(oneP, 90_000, 10_000_000, 0)
	require.NoError(t, err)
	assert.Len(t, p.ProposedRanges, 5)
}
