package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-hedge/internal/clob"
	"github.com/mselser95/polymarket-hedge/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchCmd = &cobra.Command{
	Use:   "watch <token-id> [token-id...]",
	Short: "Stream live book updates for tokens",
	Long: `Subscribes to the CLOB market channel and prints top-of-book
changes for the given tokens until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := clob.NewBookWatcher(cfg.ClobWSURL, logger)

	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	defer connectCancel()

	if err := watcher.Connect(connectCtx, args); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer watcher.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping...")
		watcher.Close()
		cancel()
	}()

	fmt.Printf("Watching %d token(s). Ctrl-C to stop.\n\n", len(args))

	for {
		updates, err := watcher.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read update: %w", err)
		}

		for _, update := range updates {
			printUpdate(update)
		}
	}
}

func printUpdate(update clob.BookUpdate) {
	ts := time.Now().Format("15:04:05")

	bestAsk, bestBid := "-", "-"
	if len(update.Asks) > 0 {
		bestAsk = fmt.Sprintf("%.4f", update.Asks[0].Price)
	}
	if len(update.Bids) > 0 {
		bestBid = fmt.Sprintf("%.4f", update.Bids[0].Price)
	}

	fmt.Printf("[%s] %s token=%s... bid=%s ask=%s\n",
		ts, update.EventType, shortToken(update.AssetID), bestBid, bestAsk)
}

func shortToken(id string) string {
	if len(id) > 12 {
		return id[:12]
	}

	return id
}
