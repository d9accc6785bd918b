package eventlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsLogged counts rows appended to the event log, by relation.
	EventsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_eventlog_rows_total",
		Help: "Total rows appended to the event log, by table",
	}, []string{"table"})
)
