// Package config loads the engine's tunables from a YAML file,
// keeping documented defaults for anything the file omits. Grounded
// on the teacher's internal/config/guards.go and
// internal/scheduler/scheduler.go: a plain yaml-tagged struct plus a
// Load(path) that never fails just because the file is absent.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the union of every tunable enumerated in spec.md §6.
type Config struct {
	AlphaScaled          uint64 `yaml:"alpha_scaled"`
	WindowSize           uint64 `yaml:"window_size"`
	MinRebalanceInterval uint64 `yaml:"min_rebalance_interval"`
	MaxRebalanceInterval uint64 `yaml:"max_rebalance_interval"`
	RebalanceThreshold   uint64 `yaml:"rebalance_threshold"`
	MaxPriceJumpBps      uint64 `yaml:"max_price_jump_bps"`
	BaseFeeBps           uint64 `yaml:"base_fee_bps"`
	MaxFeeBps            uint64 `yaml:"max_fee_bps"`
	MinFeeBps            uint64 `yaml:"min_fee_bps"`
	ProtocolShareBps     uint64 `yaml:"protocol_share_bps"`
	MinRangeSizeBps      uint64 `yaml:"min_range_size_bps"`
	MinLiquidity         uint64 `yaml:"min_liquidity"`
	TickSeconds          uint64 `yaml:"tick_seconds"`

	// Ambient stack extensions, not named in spec.md §6's core table
	// but required to run the operational surface in §9's ambient
	// stack.
	RedisAddr      string `yaml:"redis_addr"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	MetricsAddr    string `yaml:"metrics_addr"`
	QuoteCacheTTLMs uint64 `yaml:"quote_cache_ttl_ms"`
}

// Default returns the table of defaults from spec.md §6.
func Default() Config {
	return Config{
		AlphaScaled:          300_000, // 0.3 * V
		WindowSize:           20,
		MinRebalanceInterval: 60,
		MaxRebalanceInterval: 3_600,
		RebalanceThreshold:   20_000,
		MaxPriceJumpBps:      3_000,
		BaseFeeBps:           30,
		MaxFeeBps:            300,
		MinFeeBps:            5,
		ProtocolShareBps:     1_000,
		MinRangeSizeBps:      50,
		MinLiquidity:         1_000,
		TickSeconds:          1,
		MetricsAddr:          "127.0.0.1:9090",
		QuoteCacheTTLMs:      500,
	}
}

// Load reads and unmarshals the YAML file at path, layering it over
// Default() so any field the file omits (or a missing file entirely)
// keeps its documented default. A present-but-malformed file is an
// error; a missing file is not.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}

	// cfg already holds defaults; yaml.Unmarshal only overwrites keys
	// actually present in the file, so omitted keys keep their default.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
