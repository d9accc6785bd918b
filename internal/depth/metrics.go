package depth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DepthChecks counts order-book depth probes.
	DepthChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_depth_checks_total",
		Help: "Total number of order-book depth checks performed",
	})

	// DepthCheckFailures counts rejected depth checks by reason.
	DepthCheckFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_depth_check_failures_total",
		Help: "Depth checks that rejected a leg, by reason",
	}, []string{"reason"})
)
