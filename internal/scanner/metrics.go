package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts completed scan passes per scanner.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_scanner_scans_total",
		Help: "Completed scan passes per scanner",
	}, []string{"scanner"})

	// OpportunitiesFound counts emitted opportunities per scanner.
	OpportunitiesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_scanner_opportunities_total",
		Help: "Opportunities emitted per scanner",
	}, []string{"scanner"})

	// MarketsChecked counts markets inspected per scanner.
	MarketsChecked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_scanner_markets_checked_total",
		Help: "Markets inspected per scanner",
	}, []string{"scanner"})

	// ScanDuration tracks scan pass duration per scanner.
	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hedge_scanner_scan_duration_seconds",
		Help:    "Scan pass duration per scanner",
		Buckets: prometheus.DefBuckets,
	}, []string{"scanner"})
)
