package quotecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCache_HitBeforeTTLMissAfter(t *testing.T) {
	c := New()
	c.Set("k", Quote{AmountOut: 100, FeeBps: 30}, 10*time.Millisecond)

	q, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, uint64(100), q.AmountOut)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	require.False(t, ok)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := New()
	c.Set("k", Quote{AmountOut: 5}, 0)
	time.Sleep(5 * time.Millisecond)
	q, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, uint64(5), q.AmountOut)
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	c := New()
	_, ok := c.Get("missing")
	require.False(t, ok)
}
