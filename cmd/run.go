package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-hedge/internal/app"
	"github.com/mselser95/polymarket-hedge/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the hedge engine",
	Long: `Starts the hedge engine, which will:
1. Scan event groups, threshold ladders, and known patterns every interval
2. Rank findings by net profit per dollar and alert via Telegram
3. Execute hedges as limit buys when AUTO_TRADE=true
4. Persist every scan, opportunity, order, and incident to the event log

Without AUTO_TRADE the engine is alert-only; no credentials are needed.`,
	RunE: runEngine,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
