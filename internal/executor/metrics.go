package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ExecutionsTotal counts execution attempts by outcome.
var ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hedge_executions_total",
	Help: "Execution attempts by outcome (executed, partial, failed, killed, exposure_limited)",
}, []string{"outcome"})
