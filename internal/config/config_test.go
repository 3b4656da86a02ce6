package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesSpecTable(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint64(300_000), cfg.AlphaScaled)
	assert.Equal(t, uint64(20), cfg.WindowSize)
	assert.Equal(t, uint64(60), cfg.MinRebalanceInterval)
	assert.Equal(t, uint64(3_600), cfg.MaxRebalanceInterval)
	assert.Equal(t, uint64(20_000), cfg.RebalanceThreshold)
	assert.Equal(t, uint64(3_000), cfg.MaxPriceJumpBps)
	assert.Equal(t, uint64(30), cfg.BaseFeeBps)
	assert.Equal(t, uint64(300), cfg.MaxFeeBps)
	assert.Equal(t, uint64(5), cfg.MinFeeBps)
	assert.Equal(t, uint64(1_000), cfg.ProtocolShareBps)
	assert.Equal(t, uint64(50), cfg.MinRangeSizeBps)
	assert.Equal(t, uint64(1_000), cfg.MinLiquidity)
	assert.Equal(t, uint64(1), cfg.TickSeconds)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFilePreservesOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_fee_bps: 45\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(45), cfg.BaseFeeBps)
	assert.Equal(t, uint64(20), cfg.WindowSize) // untouched default
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid: yaml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
