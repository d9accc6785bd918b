package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-hedge/pkg/config"
	"github.com/mselser95/polymarket-hedge/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check the trading wallet's balances",
	Long: `Display the trading wallet's current holdings:
- POL balance (for gas)
- USDC.e balance (for trading)
- USDC.e allowance (approved to the CTF Exchange)`,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringP("address", "a", "", "Wallet address (defaults to WALLET_ADDRESS)")
	balanceCmd.Flags().StringP("rpc", "r", "", "Polygon RPC endpoint (defaults to POLYGON_RPC_URL)")
}

func runBalance(cmd *cobra.Command, args []string) error {
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

	address, _ := cmd.Flags().GetString("address")
	if address == "" {
		address = cfg.WalletAddress
	}
	if address == "" {
		return fmt.Errorf("no wallet address: set WALLET_ADDRESS or pass --address")
	}

	rpcURL, _ := cmd.Flags().GetString("rpc")
	if rpcURL == "" {
		rpcURL = cfg.PolygonRPCURL
	}

	client, err := wallet.NewClient(rpcURL, address, logger)
	if err != nil {
		return fmt.Errorf("create wallet client: %w", err)
	}

	balances, err := client.GetBalances(ctx)
	if err != nil {
		return fmt.Errorf("fetch balances: %w", err)
	}

	allowance, _ := new(big.Float).Quo(
		new(big.Float).SetInt(balances.USDCeAllowance), big.NewFloat(1e6)).Float64()

	fmt.Printf("Wallet:           %s\n", address)
	fmt.Printf("POL:              %.4f\n", balances.POLFloat())
	fmt.Printf("USDC.e:           $%.2f\n", balances.USDCeFloat())
	fmt.Printf("USDC.e allowance: $%.2f\n", allowance)

	if balances.POLFloat() < 0.1 {
		fmt.Println("\nWarning: POL balance is low, order placement may fail on gas.")
	}

	return nil
}
