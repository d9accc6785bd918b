package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-hedge",
	Short: "Polymarket hedge engine",
	Long: `Polymarket hedge engine that scans binary-outcome markets for
guaranteed-payout combinations: event groups whose outcomes sum below $1,
threshold ladders where NO(high) + YES(low) is cheap, and known structural
patterns between related markets.

Opportunities are alerted via Telegram and, with AUTO_TRADE=true, executed
as limit buys on the CLOB under a layered kill switch.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	cobra.OnInitialize(loadDotEnv)
}

// loadDotEnv loads .env when present; environment variables win.
func loadDotEnv() {
	_ = godotenv.Load()
}
