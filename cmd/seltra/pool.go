package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seltra-labs/amm-core/internal/pool"
)

// newPoolCmd groups the PoolEngine inspection subcommands. It builds a
// fresh genesis pool rather than attaching to a running one: this CLI
// is a reference driver for the core, not a production node.
func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Inspect a genesis PoolEngine or quote a swap against it",
	}
	cmd.AddCommand(newPoolQuoteCmd())
	cmd.AddCommand(newPoolSnapshotCmd())
	return cmd
}

func genesisPool(initialPrice uint64) (*pool.Engine, error) {
	pair, err := pool.NewAssetPair(0, 1)
	if err != nil {
		return nil, err
	}
	p := pool.New()
	if err := p.InitPool(pair, initialPrice, pool.DefaultFeeRateBps, "genesis", []pool.RangeSpec{
		{PriceLower: initialPrice * 90 / 100, PriceUpper: initialPrice, Liquidity: 10_000_000},
		{PriceLower: initialPrice, PriceUpper: initialPrice * 110 / 100, Liquidity: 10_000_000},
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func newPoolQuoteCmd() *cobra.Command {
	var assetIn uint32
	var amountIn uint64

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against a freshly seeded genesis pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := genesisPool(defaultInitialPrice)
			if err != nil {
				return err
			}
			amountOut, priceImpactBps, feeBps, err := p.QuoteSwap(assetIn, amountIn)
			if err != nil {
				return fmt.Errorf("quoting swap: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				AmountOut      uint64 `json:"amount_out"`
				PriceImpactBps uint64 `json:"price_impact_bps"`
				FeeBps         uint64 `json:"fee_bps"`
			}{amountOut, priceImpactBps, feeBps})
		},
	}

	cmd.Flags().Uint32Var(&assetIn, "asset-in", 0, "asset id being sold (0 or 1)")
	cmd.Flags().Uint64Var(&amountIn, "amount-in", 1_000, "amount of asset-in to quote")
	return cmd
}

func newPoolSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the full state of a freshly seeded genesis pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := genesisPool(defaultInitialPrice)
			if err != nil {
				return err
			}
			snap, err := p.Snapshot()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}
