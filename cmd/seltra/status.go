package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seltra-labs/amm-core/internal/config"
	"github.com/seltra-labs/amm-core/internal/simulator"
)

// newStatusCmd runs a short warm-up under the normal scenario and
// prints the resulting get_status snapshot — a quick smoke check that
// the engine wires together under the active config.
func newStatusCmd() *cobra.Command {
	var ticks uint64

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run a short warm-up and print the resulting engine status",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			orc, err := buildOrchestrator(buildOptions{
				cfg:          cfg,
				scenario:     simulator.ScenarioNormal,
				seed:         1,
				initialPrice: defaultInitialPrice,
				logger:       log.Logger,
			})
			if err != nil {
				return fmt.Errorf("building engine: %w", err)
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

	cmd.Flags().Uint64Var(&ticks, "ticks", 10, "number of warm-up ticks before printing status")
	return cmd
}
