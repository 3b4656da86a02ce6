package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenThrottle(t *testing.T) {
	l := NewLimiter(1, 2)
	require.True(t, l.Allow("w1"))
	require.True(t, l.Allow("w1"))
	require.False(t, l.Allow("w1"))
}

func TestLimiter_KeysIndependent(t *testing.T) {
	l := NewLimiter(1, 1)
	require.True(t, l.Allow("w1"))
	require.False(t, l.Allow("w1"))
	require.True(t, l.Allow("w2"))
}
