package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seltra-labs/amm-core/internal/oracle"
)

// newOracleCmd feeds a synthetic price series into a freshly
// initialized VolatilityOracle and prints its classification.
func newOracleCmd() *cobra.Command {
	var (
		alpha      uint64
		window     uint64
		prices     []string
		tickSpacing uint64
	)

	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Feed a price series into a VolatilityOracle and print its regime",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(prices) == 0 {
				return fmt.Errorf("at least one --price is required")
			}

			var seed uint64
			if _, err := fmt.Sscanf(prices[0], "%d", &seed); err != nil {
				return fmt.Errorf("parsing initial price %q: %w", prices[0], err)
			}

			o := oracle.New()
			if err := o.Init(seed, alpha, int(window)); err != nil {
				return fmt.Errorf("initializing oracle: %w", err)
			}

			for i, raw := range prices[1:] {
				var price uint64
				if _, err := fmt.Sscanf(raw, "%d", &price); err != nil {
					return fmt.Errorf("parsing price %q: %w", raw, err)
				}
				now := uint64(i+1) * tickSpacing
				if err := o.UpdatePrice(price, 0, now); err != nil {
					fmt.Fprintf(os.Stderr, "price update %d rejected: %v\n", i+1, err)
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Volatility uint64 `json:"volatility"`
				Regime     string `json:"regime"`
				LastPrice  uint64 `json:"last_price"`
			}{o.CurrentVolatility(), o.CurrentRegime().String(), o.LastPrice()})
		},
	}

	cmd.Flags().Uint64Var(&alpha, "alpha", 300_000, "EWMA smoothing factor, scale V (default 0.3)")
	cmd.Flags().Uint64Var(&window, "window", 20, "ring buffer window size")
	cmd.Flags().StringSliceVar(&prices, "price", nil, "price observations in order, first is the seed price (repeatable)")
	cmd.Flags().Uint64Var(&tickSpacing, "tick-seconds", 1, "seconds between successive --price observations")
	return cmd
}
