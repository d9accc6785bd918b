package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-hedge/internal/clob"
	"github.com/mselser95/polymarket-hedge/internal/depth"
	"github.com/mselser95/polymarket-hedge/pkg/config"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var bookCmd = &cobra.Command{
	Use:   "book <token-id>",
	Short: "Fetch the current order book for a token",
	Long: `Fetches one token's CLOB book and prints both sides, best first,
with cumulative USD depth on the ask ladder. Useful for checking why a
depth probe rejected a leg.`,
	Args: cobra.ExactArgs(1),
	RunE: runBook,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(bookCmd)
	bookCmd.Flags().IntP("levels", "n", 10, "Levels to show per side")
	bookCmd.Flags().Float64P("target", "t", 0, "Report the VWAP cost of buying this many USD")
}

func runBook(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	levels, _ := cmd.Flags().GetInt("levels")
	targetUSD, _ := cmd.Flags().GetFloat64("target")

	client, err := clob.NewClient(&clob.Config{
		BaseURL: cfg.ClobAPIURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create clob client: %w", err)
	}

	book, err := client.OrderBook(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetch book: %w", err)
	}

	asks := append([]types.Level(nil), book.Asks...)
	bids := append([]types.Level(nil), book.Bids...)
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })

	fmt.Printf("Token: %s\n", args[0])

	if bestAsk, ok := book.BestAsk(); ok {
		if bestBid, ok := book.BestBid(); ok {
			fmt.Printf("Spread: %.4f (bid %.4f / ask %.4f)\n", bestAsk.Price-bestBid.Price, bestBid.Price, bestAsk.Price)
		}
	}
	fmt.Println()

	fmt.Println("Asks:")
	printBookSide(asks, levels, true)

	fmt.Println("\nBids:")
	printBookSide(bids, levels, false)

	if targetUSD > 0 {
		printVWAPTarget(asks, targetUSD)
	}

	return nil
}

// printVWAPTarget reports the sweep cost of targetUSD, the same arithmetic
// the executor's depth probe runs before placing a leg.
func printVWAPTarget(levels []types.Level, targetUSD float64) {
	asks := make([]types.Level, 0, len(levels))
	for _, l := range levels {
		if l.Price > 0 && l.Size > 0 {
			asks = append(asks, l)
		}
	}

	if len(asks) == 0 {
		fmt.Printf("\nVWAP for $%.2f: no asks\n", targetUSD)
		return
	}

	quantity := targetUSD / asks[0].Price
	cost, enough := depth.VWAPCost(asks, quantity)

	if !enough {
		fmt.Printf("\nVWAP for $%.2f: ladder too thin (only $%.2f available at cost)\n", targetUSD, cost)
		return
	}

	vwap := cost / quantity
	slip := vwap - asks[0].Price
	fmt.Printf("\nVWAP for $%.2f: %.4f/share (%.2f shares, $%.2f total, slippage %.4f)\n",
		targetUSD, vwap, quantity, cost, slip)
}

func printBookSide(side []types.Level, max int, cumulative bool) {
	if len(side) == 0 {
		fmt.Println("  (empty)")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	if cumulative {
		table.Header("Price", "Size", "USD", "Cum USD")
	} else {
		table.Header("Price", "Size", "USD")
	}

	cum := 0.0
	for i, level := range side {
		if i >= max {
			break
		}

		usd := level.Price * level.Size
		if cumulative {
			cum += usd
			table.Append(
				fmt.Sprintf("%.4f", level.Price),
				fmt.Sprintf("%.2f", level.Size),
				fmt.Sprintf("$%.2f", usd),
				fmt.Sprintf("$%.2f", cum),
			)
		} else {
			table.Append(
				fmt.Sprintf("%.4f", level.Price),
				fmt.Sprintf("%.2f", level.Size),
				fmt.Sprintf("$%.2f", usd),
			)
		}
	}

	table.Render()
}
