package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seltra-labs/amm-core/internal/config"
	"github.com/seltra-labs/amm-core/internal/simulator"
	"github.com/seltra-labs/amm-core/internal/telemetry"
	"github.com/seltra-labs/amm-core/internal/tradervolume"
)

// newSimulateCmd runs the orchestrator's tick loop for a fixed number
// of ticks under a chosen scenario, optionally serving /healthz and
// /metrics alongside it.
func newSimulateCmd() *cobra.Command {
	var (
		scenarioFlag string
		ticks        uint64
		seed         int64
		withChain    bool
		serveMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the orchestrator tick loop under a named scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			scenario := simulator.Scenario(scenarioFlag)

			var metrics *telemetry.Registry
			if serveMetrics && cfg.MetricsAddr != "" {
				metrics = telemetry.NewRegistry()
				srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Router()}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Error().Err(err).Msg("metrics server stopped")
					}
				}()
				log.Info().Str("addr", cfg.MetricsAddr).Msg("serving /healthz and /metrics")
			}

			orc, err := buildOrchestrator(buildOptions{
				cfg:          cfg,
				scenario:     scenario,
				seed:         seed,
				initialPrice: defaultInitialPrice,
				withChain:    withChain,
				metrics:      metrics,
				logger:       log.Logger,
			})
			if err != nil {
				return fmt.Errorf("building engine: %w", err)
			}

			if cfg.PostgresDSN != "" {
				pgCfg := tradervolume.DefaultConfig()
				pgCfg.Enabled = true
				pgCfg.DSN = cfg.PostgresDSN
				store, err := tradervolume.NewPostgresStore(pgCfg)
				if err != nil {
					return fmt.Errorf("connecting trader volume store: %w", err)
				}
				orc.WithTraderVolumeStore(store)
			}

			for i := uint64(0); i < ticks; i++ {
				if _, err := orc.Tick(float64(cfg.TickSeconds), i*cfg.TickSeconds); err != nil {
					log.Warn().Err(err).Uint64("tick", i).Msg("tick reported an error")
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(orc.GetStatus())
		},
	}

	cmd.Flags().StringVar(&scenarioFlag, "scenario", string(simulator.ScenarioNormal), "scenario to run: normal, volatile, calm, trending, flash_crash, whale_activity")
	cmd.Flags().Uint64Var(&ticks, "ticks", 120, "number of ticks to run")
	cmd.Flags().Int64Var(&seed, "seed", 1, "simulator PRNG seed")
	cmd.Flags().BoolVar(&withChain, "with-chain", false, "wire a simulated ChainAdapter and submit every settled swap to it")
	cmd.Flags().BoolVar(&serveMetrics, "serve-metrics", false, "serve /healthz and /metrics for the duration of the run")
	return cmd
}
