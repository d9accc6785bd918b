package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts completed scan ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_orchestrator_ticks_total",
		Help: "Completed scan ticks",
	})

	// AlertsSent counts opportunity alerts sent.
	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_orchestrator_alerts_total",
		Help: "Opportunity alerts sent",
	})

	// SummariesSent counts interval summaries sent.
	SummariesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedge_orchestrator_summaries_total",
		Help: "Interval summaries sent",
	})
)
