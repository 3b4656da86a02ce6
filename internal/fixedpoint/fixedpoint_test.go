package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(10, 20, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), got)
}

func TestMulDiv_DivByZero(t *testing.T) {
	_, err := MulDiv(1, 1, 0)
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestMulDiv_Overflow(t *testing.T) {
	_, err := MulDiv(^uint64(0), ^uint64(0), 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSaturatingMulDiv_Saturates(t *testing.T) {
	got, err := SaturatingMulDiv(^uint64(0), ^uint64(0), 1)
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), got)
}

func TestMulBps(t *testing.T) {
	// 30 bps of 1_000_000 is 3_000
	assert.Equal(t, uint64(3_000), MulBps(1_000_000, 30))
	// 0 bps is always 0
	assert.Equal(t, uint64(0), MulBps(1_000_000, 0))
}

func TestSqrt_KnownValues(t *testing.T) {
	cases := map[uint64]uint64{
		0:   0,
		1:   1,
		3:   1,
		4:   2,
		15:  3,
		16:  4,
		1_000_000: 1_000,
	}
	for n, want := range cases {
		assert.Equal(t, want, Sqrt(n), "Sqrt(%d)", n)
	}
}

func TestSqrt_Monotone(t *testing.T) {
	prev := uint64(0)
	for n := uint64(0); n < 10_000; n++ {
		cur := Sqrt(n)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestSqrt_Idempotent(t *testing.T) {
	for _, n := range []uint64{2, 10, 9999, 123456789} {
		s := Sqrt(n)
		assert.Equal(t, s, Sqrt(s*s))
	}
}

func TestPctChange(t *testing.T) {
	got, err := PctChange(ScaleP, ScaleP*11/10) // +10%
	require.NoError(t, err)
	assert.InDelta(t, int64(100_000), got, 10) // 10% at scale V == 100_000

	got, err = PctChange(ScaleP, ScaleP*9/10) // -10%
	require.NoError(t, err)
	assert.Less(t, got, int64(0))
}

func TestPctChange_DivByZero(t *testing.T) {
	_, err := PctChange(0, 100)
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestAbsInt64(t *testing.T) {
	assert.Equal(t, uint64(5), AbsInt64(-5))
	assert.Equal(t, uint64(5), AbsInt64(5))
	assert.Equal(t, uint64(0), AbsInt64(0))
}
