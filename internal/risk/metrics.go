package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RiskKilled indicates whether the kill-switch latch has tripped.
	RiskKilled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hedge_risk_killed",
		Help: "Whether the kill switch has latched (1=killed, 0=trading allowed)",
	})

	// RiskExposure tracks the current open exposure.
	RiskExposure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hedge_risk_exposure_usd",
		Help: "Current open exposure in USD",
	})

	// RiskPartialFills counts partially filled hedges.
	RiskPartialFills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_risk_partial_fills_total",
		Help: "Total number of partially filled hedge executions",
	})

	// RiskAPIErrors counts recorded gateway failures.
	RiskAPIErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_risk_api_errors_total",
		Help: "Total number of gateway errors recorded by the risk manager",
	})

	// RiskTrades counts submitted orders.
	RiskTrades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_risk_trades_total",
		Help: "Total number of orders recorded by the risk manager",
	})

	// RiskLatencyMs tracks gateway round-trip latencies.
	RiskLatencyMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hedge_risk_latency_ms",
		Help:    "Gateway round-trip latencies recorded by the risk manager",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000},
	})
)
