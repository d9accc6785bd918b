package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// POLBalance tracks the current POL balance for gas.
	POLBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hedge_wallet_pol_balance",
		Help: "Current POL balance (native units)",
	})

	// USDCeBalance tracks the current USDC.e balance for trading.
	USDCeBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hedge_wallet_usdce_balance",
		Help: "Current USDC.e balance (USD)",
	})

	// USDCeAllowance tracks the USDC.e allowance approved to the exchange.
	USDCeAllowance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hedge_wallet_usdce_allowance",
		Help: "USDC.e allowance approved to CTF Exchange (USD)",
	})

	// FetchErrorsTotal counts failed balance fetches.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_wallet_fetch_errors_total",
		Help: "Failed wallet balance fetches",
	})
)
