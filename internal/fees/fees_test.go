package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFee_ClampBounds(t *testing.T) {
	m := New()
	total, protocol, err := m.ComputeFee(0, 0, 1_000_000_000, 1, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, uint64(DefaultMinFeeBps))
	assert.LessOrEqual(t, total, uint64(DefaultMaxFeeBps))
	assert.LessOrEqual(t, protocol, total)
}

func TestComputeFee_VolatilityMonotone(t *testing.T) {
	m := New()
	t1, _, err := m.ComputeFee(100_000, 0, 1_000_000_000, 100_000, nil)
	require.NoError(t, err)
	t2, _, err := m.ComputeFee(200_000, 0, 1_000_000_000, 100_000, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, t2, t1)
	assert.LessOrEqual(t, t2, uint64(DefaultMaxFeeBps))
}

func TestComputeFee_LargeTradeIncreasesFee(t *testing.T) {
	m := New()
	liquidity := uint64(1_000_000)
	small, _, err := m.ComputeFee(50_000, 0, liquidity, 10_000, nil) // 1% of liquidity
	require.NoError(t, err)
	large, _, err := m.ComputeFee(50_000, 0, liquidity, 200_000, nil) // 20% of liquidity
	require.NoError(t, err)
	assert.GreaterOrEqual(t, large, small)
}

func TestComputeFee_VolumeDiscount(t *testing.T) {
	m := New()
	noVolume, _, err := m.ComputeFee(50_000, 0, 1_000_000_000, 1_000, nil)
	require.NoError(t, err)
	highVolume, _, err := m.ComputeFee(50_000, DefaultVolumeThreshold*2, 1_000_000_000, 1_000, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, highVolume, noVolume)
}

func TestComputeFee_TierDiscount(t *testing.T) {
	m := New()
	noTier, _, err := m.ComputeFee(100_000, 0, 1_000_000_000, 500_000, nil)
	require.NoError(t, err)
	tier3 := 3
	withTier, _, err := m.ComputeFee(100_000, 0, 1_000_000_000, 500_000, &tier3)
	require.NoError(t, err)
	assert.LessOrEqual(t, withTier, noTier)
}

func TestComputeFee_ZeroLiquidity(t *testing.T) {
	m := New()
	_, _, err := m.ComputeFee(100_000, 0, 0, 1, nil)
	require.Error(t, err)
}

func TestComputeFee_ProtocolSplit(t *testing.T) {
	m := New()
	total, protocol, err := m.ComputeFee(50_000, 0, 1_000_000_000, 1_000, nil)
	require.NoError(t, err)
	wantProtocol := total * DefaultProtocolShareBps / 10_000
	assert.Equal(t, wantProtocol, protocol)
}

func TestObserveTrade_NoObserverIsNoop(t *testing.T) {
	m := New()
	assert.NotPanics(t, func() { m.ObserveTrade("trader1", 100) })
}

func TestObserveTrade_InvokesRegisteredHook(t *testing.T) {
	var gotTrader string
	var gotAmount uint64
	m := New().WithVolumeObserver(func(trader string, amount uint64) {
		gotTrader = trader
		gotAmount = amount
	})
	m.ObserveTrade("trader1", 42)
	assert.Equal(t, "trader1", gotTrader)
	assert.Equal(t, uint64(42), gotAmount)
}

// S6 from spec.md §8: fee monotonicity scenario.
func TestScenarioS6_FeeMonotonicity(t *testing.T) {
	m := New()
	t1, _, err := m.ComputeFee(100_000, 0, 1_000_000_000, 100_000, nil)
	require.NoError(t, err)
	t2, _, err := m.ComputeFee(200_000, 0, 1_000_000_000, 100_000, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, t2, t1)

	t3, _, err := m.ComputeFee(200_000, 0, 1_000_000_000, 300_000_000, nil) // >10% of liquidity
	require.NoError(t, err)
	assert.GreaterOrEqual(t, t3, t2)
	assert.LessOrEqual(t, t3, uint64(DefaultMaxFeeBps))
}
