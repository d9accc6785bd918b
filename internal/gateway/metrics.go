package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequests counts successful Gamma API requests by endpoint.
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_gateway_requests_total",
		Help: "Total successful Gamma API requests, by endpoint",
	}, []string{"endpoint"})

	// GatewayRequestErrors counts failed Gamma API requests by endpoint.
	GatewayRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedge_gateway_request_errors_total",
		Help: "Total failed Gamma API requests, by endpoint",
	}, []string{"endpoint"})

	// GatewayRequestDuration tracks Gamma API request latency by endpoint.
	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hedge_gateway_request_duration_seconds",
		Help:    "Gamma API request duration, by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
