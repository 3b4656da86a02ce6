// Command seltra is the CLI entry point for driving the dynamic AMM
// core's simulator/orchestrator and inspecting pool/oracle state.
// Grounded on the teacher's cmd/cryptorun/main.go: zerolog console
// writer at the entry point, a cobra root command with a Version, and
// RunE-backed subcommands for automation use — this repository has no
// interactive menu since its CLI is non-interactive by design (see
// DESIGN.md on the dropped golang.org/x/term dependency).
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "seltra"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Seltra dynamic AMM core — simulator, oracle, and pool inspection CLI",
		Version: version,
		Long: `seltra drives the dynamic concentrated-liquidity AMM core:
a volatility oracle, a rebalancing engine, a fee manager, a pool
engine, and a market simulator tied together by a discrete-tick
orchestrator.

This CLI is an automation surface over that core, not a trading
front-end — it never signs or broadcasts real transactions.`,
	}

	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (defaults are used if omitted)")

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newPoolCmd())
	rootCmd.AddCommand(newOracleCmd())
	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
