package clob

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersSubmitted counts order submissions by outcome.
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_clob_orders_total",
		Help: "Order submissions by outcome (submitted, rejected, exception)",
	}, []string{"outcome"})

	// BookFetchDuration tracks order-book fetch latency.
	BookFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hedge_clob_book_fetch_duration_seconds",
		Help:    "Order-book fetch duration",
		Buckets: prometheus.DefBuckets,
	})
)
