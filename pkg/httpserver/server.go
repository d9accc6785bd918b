// Package httpserver exposes the operational HTTP surface: Prometheus
// metrics, health probes, and a small read-only diagnostics API over the
// event log.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/pkg/healthprobe"
)

const defaultListLimit = 50

// EventLogReader is the read-only slice of the event log served over HTTP.
type EventLogReader interface {
	Stats() (*eventlog.Stats, error)
	RecentOpportunities(limit int) ([]eventlog.OpportunityRow, error)
	RecentIncidents(limit int) ([]eventlog.IncidentRow, error)
}

// Server provides HTTP endpoints for metrics, health checks, and event-log
// diagnostics.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	EventLog      EventLogReader
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	// Diagnostics API (if an event log is provided)
	if cfg.EventLog != nil {
		h := &diagnosticsHandler{log: cfg.EventLog, logger: cfg.Logger}
		r.Get("/api/stats", h.handleStats)
		r.Get("/api/opportunities", h.handleOpportunities)
		r.Get("/api/incidents", h.handleIncidents)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}

type diagnosticsHandler struct {
	log    EventLogReader
	logger *zap.Logger
}

func (h *diagnosticsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.log.Stats()
	if err != nil {
		h.fail(w, err)
		return
	}

	h.respond(w, map[string]interface{}{
		"total_scans":     stats.TotalScans,
		"total_opps":      stats.TotalOpps,
		"total_executed":  stats.TotalExecuted,
		"total_orders":    stats.TotalOrders,
		"total_errors":    stats.TotalErrors,
		"total_incidents": stats.TotalIncidents,
	})
}

func (h *diagnosticsHandler) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	rows, err := h.log.RecentOpportunities(listLimit(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	h.respond(w, rows)
}

func (h *diagnosticsHandler) handleIncidents(w http.ResponseWriter, r *http.Request) {
	rows, err := h.log.RecentIncidents(listLimit(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	h.respond(w, rows)
}

func (h *diagnosticsHandler) respond(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("diagnostics-encode-failed", zap.Error(err))
	}
}

func (h *diagnosticsHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Warn("diagnostics-query-failed", zap.Error(err))
	http.Error(w, "event log query failed", http.StatusInternalServerError)
}

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return defaultListLimit
	}

	return limit
}
