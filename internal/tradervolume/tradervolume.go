// Package tradervolume implements the spec.md §4.4 OPTIONAL 30-day
// rolling per-trader volume ledger. FeeManager.ComputeFee never
// imports this package — the orchestrator registers an observer hook
// (fees.Manager.WithVolumeObserver) only when a Store is configured,
// so the store's absence can never break fee computation.
//
// Grounded on the teacher's internal/infrastructure/db.Manager
// disabled-by-default, DSN-gated pattern, and the
// internal/persistence/postgres repo-interface-plus-sqlx-struct shape.
package tradervolume

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Window is the rolling window the store decays volume over.
const Window = 30 * 24 * time.Hour

// Store is the narrow interface the orchestrator's observer hook
// drives.
type Store interface {
	Observe(ctx context.Context, traderID string, amount uint64, at time.Time) error
	RollingVolume(ctx context.Context, traderID string, at time.Time) (uint64, error)
}

// NoOp is the default Store: it discards every observation. Wiring
// this in place of a Postgres-backed Store must not change
// ComputeFee's result for any caller who omits volume_24h bookkeeping.
type NoOp struct{}

func (NoOp) Observe(context.Context, string, uint64, time.Time) error { return nil }
func (NoOp) RollingVolume(context.Context, string, time.Time) (uint64, error) {
	return 0, nil
}

// Config gates the Postgres-backed Store the way the teacher's
// db.Config gates its connection manager: Enabled plus a DSN.
type Config struct {
	Enabled         bool
	DSN             string
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// DefaultConfig returns a disabled configuration, matching the
// teacher's db.DefaultConfig default-off posture.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Second,
	}
}

// postgresStore persists one row per (trader_id, day) and sums the
// trailing Window on read.
type postgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      sync.Mutex
}

// NewPostgresStore opens a connection pool per cfg. Callers must have
// created the trader_volume table (trader_id, day, volume) with a
// unique constraint on (trader_id, day) out of band; this constructor
// only validates connectivity.
func NewPostgresStore(cfg Config) (Store, error) {
	if !cfg.Enabled {
		return NoOp{}, nil
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("tradervolume: DSN is required when enabled")
	}
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("tradervolume: connect: %w", err)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &postgresStore{db: db, timeout: cfg.QueryTimeout}, nil
}

// Observe upserts today's accumulated volume for traderID.
func (s *postgresStore) Observe(ctx context.Context, traderID string, amount uint64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	day := at.UTC().Truncate(24 * time.Hour)
	const q = `
		INSERT INTO trader_volume (trader_id, day, volume)
		VALUES ($1, $2, $3)
		ON CONFLICT (trader_id, day) DO UPDATE SET volume = trader_volume.volume + EXCLUDED.volume`
	_, err := s.db.ExecContext(ctx, q, traderID, day, amount)
	if err != nil {
		return fmt.Errorf("tradervolume: observe: %w", err)
	}
	return nil
}

// RollingVolume sums volume over the trailing Window ending at "at".
func (s *postgresStore) RollingVolume(ctx context.Context, traderID string, at time.Time) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	since := at.Add(-Window).UTC().Truncate(24 * time.Hour)
	const q = `SELECT COALESCE(SUM(volume), 0) FROM trader_volume WHERE trader_id = $1 AND day >= $2`
	var total uint64
	if err := s.db.GetContext(ctx, &total, q, traderID, since); err != nil {
		return 0, fmt.Errorf("tradervolume: rolling volume: %w", err)
	}
	return total, nil
}
