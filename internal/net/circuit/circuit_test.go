package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterThresholdFailures(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := b.Call(context.Background(), func(ctx context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, StateOpen, b.State())

	err := b.Call(context.Background(), func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrOpen)
}

func TestBreaker_HalfOpenRecoversToClosed(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Millisecond})
	boom := errors.New("boom")
	require.ErrorIs(t, b.Call(context.Background(), func(ctx context.Context) error { return boom }), boom)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, b.Call(context.Background(), func(ctx context.Context) error { return nil }))
	require.Equal(t, StateClosed, b.State())
}

func TestManager_KeysBreakersIndependently(t *testing.T) {
	m := NewManager(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Minute})
	boom := errors.New("boom")

	require.ErrorIs(t, m.Call(context.Background(), "whale", func(ctx context.Context) error { return boom }), boom)
	require.Equal(t, StateOpen, m.State("whale"))
	require.Equal(t, StateClosed, m.State("retail"))
}
