// Package healthprobe provides the liveness and readiness endpoints.
package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker provides health and readiness checks. Liveness is
// unconditional; readiness flips once the engine's components are up and
// flips back during shutdown so load balancers drain first.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Response is the body of both probe endpoints.
type Response struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks. Always 200 while the
// process is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, Response{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns an HTTP handler for readiness checks. 503 until SetReady(true).
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			h.write(w, http.StatusServiceUnavailable, Response{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}

		h.write(w, http.StatusOK, Response{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

func (h *HealthChecker) write(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
