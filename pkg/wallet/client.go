// Package wallet reads on-chain balances for the trading account, used in
// interval summaries and the balance command.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/reporter"
)

const (
	// Bridged USDC on Polygon, the venue's collateral token.
	polygonUSDCe       = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	polygonCTFExchange = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"

	usdcDecimals = 1e6
	polDecimals  = 1e18
)

// Client reads the trading wallet's balances over JSON-RPC.
type Client struct {
	rpcURL  string
	address common.Address
	timeout time.Duration
	logger  *zap.Logger
}

// Balances holds on-chain token balances in raw units.
type Balances struct {
	POL            *big.Int // in wei
	USDCe          *big.Int // in 6-decimal units
	USDCeAllowance *big.Int // exchange allowance, 6-decimal units
}

// USDCeFloat returns the USDC.e balance in whole dollars.
func (b *Balances) USDCeFloat() float64 {
	v, _ := new(big.Float).Quo(new(big.Float).SetInt(b.USDCe), big.NewFloat(usdcDecimals)).Float64()
	return v
}

// POLFloat returns the POL balance in whole tokens.
func (b *Balances) POLFloat() float64 {
	v, _ := new(big.Float).Quo(new(big.Float).SetInt(b.POL), big.NewFloat(polDecimals)).Float64()
	return v
}

// NewClient creates a wallet client for one account.
func NewClient(rpcURL, address string, logger *zap.Logger) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.New("rpcURL cannot be empty")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid wallet address %q", address)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Client{
		rpcURL:  rpcURL,
		address: common.HexToAddress(address),
		timeout: 15 * time.Second,
		logger:  logger,
	}, nil
}

// GetBalances fetches the account's POL and USDC.e balances plus the
// exchange allowance.
func (c *Client) GetBalances(ctx context.Context) (*Balances, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	defer client.Close()

	polBalance, err := client.BalanceAt(ctx, c.address, nil)
	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("get POL balance: %w", err)
	}

	usdcBalance, err := c.getERC20Balance(ctx, client, polygonUSDCe)
	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("get USDC.e balance: %w", err)
	}

	allowance, err := c.getERC20Allowance(ctx, client, polygonUSDCe, polygonCTFExchange)
	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("get USDC.e allowance: %w", err)
	}

	balances := &Balances{
		POL:            polBalance,
		USDCe:          usdcBalance,
		USDCeAllowance: allowance,
	}

	POLBalance.Set(balances.POLFloat())
	USDCeBalance.Set(balances.USDCeFloat())
	allowanceFloat, _ := new(big.Float).Quo(new(big.Float).SetInt(allowance), big.NewFloat(usdcDecimals)).Float64()
	USDCeAllowance.Set(allowanceFloat)

	return balances, nil
}

// Balances adapts GetBalances to the summary's wallet snapshot.
func (c *Client) Balances(ctx context.Context) (*reporter.WalletBalances, error) {
	balances, err := c.GetBalances(ctx)
	if err != nil {
		return nil, err
	}

	return &reporter.WalletBalances{
		USDCe: balances.USDCeFloat(),
		POL:   balances.POLFloat(),
	}, nil
}

// getERC20Balance fetches an ERC20 token balance for the account.
func (c *Client) getERC20Balance(ctx context.Context, client *ethclient.Client, tokenAddr string) (*big.Int, error) {
	balanceOfABI := `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

	parsedABI, err := abi.JSON(strings.NewReader(balanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	data, err := parsedABI.Pack("balanceOf", c.address)
	if err != nil {
		return nil, fmt.Errorf("pack ABI: %w", err)
	}

	tokenAddress := common.HexToAddress(tokenAddr)
	msg := ethereum.CallMsg{
		To:   &tokenAddress,
		Data: data,
	}

	result, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call contract: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}

// getERC20Allowance fetches the account's ERC20 allowance for a spender.
func (c *Client) getERC20Allowance(ctx context.Context, client *ethclient.Client, tokenAddr, spender string) (*big.Int, error) {
	allowanceABI := `[{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

	parsedABI, err := abi.JSON(strings.NewReader(allowanceABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	data, err := parsedABI.Pack("allowance", c.address, common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("pack ABI: %w", err)
	}

	tokenAddress := common.HexToAddress(tokenAddr)
	msg := ethereum.CallMsg{
		To:   &tokenAddress,
		Data: data,
	}

	result, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call contract: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}
