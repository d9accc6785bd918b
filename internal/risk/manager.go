package risk

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Limits holds the kill-switch thresholds.
type Limits struct {
	PartialFillStreak int
	PartialFillDay    int
	APIErrors10m      int
	LatencyMs         float64
	LatencyWindow     time.Duration
	ThinBookScans     int
	MaxTradesPerHour  int
	MaxExposurePct    float64
}

// Config holds risk manager configuration.
type Config struct {
	Limits Limits
	Logger *zap.Logger
}

// Manager tracks rolling counters for the kill conditions and latches into a
// killed state once any condition trips. The latch clears only on process
// restart; scanning continues but no new orders are submitted.
type Manager struct {
	limits Limits
	logger *zap.Logger

	killed atomic.Bool

	mu                sync.Mutex
	killReason        string
	partialFillStreak int
	partialFillDay    int
	dayKey            string
	apiErrors         []time.Time
	latencies         []latencySample
	thinBookStreak    int
	trades            []time.Time
	exposure          float64

	now func() time.Time
}

type latencySample struct {
	at time.Time
	ms float64
}

// Status is a point-in-time snapshot for summaries and debugging.
type Status struct {
	Killed            bool
	KillReason        string
	PartialFillStreak int
	PartialFillDay    int
	APIErrors10m      int
	ThinBookStreak    int
	TradesLastHour    int
	Exposure          float64
}

// New creates a risk manager with the given configuration.
func New(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Limits.PartialFillStreak <= 0 {
		return nil, fmt.Errorf("partial fill streak limit must be positive")
	}
	if cfg.Limits.LatencyWindow <= 0 {
		return nil, fmt.Errorf("latency window must be positive")
	}
	if cfg.Limits.MaxExposurePct <= 0 || cfg.Limits.MaxExposurePct > 1 {
		return nil, fmt.Errorf("max exposure pct must be in (0, 1]")
	}

	m := &Manager{
		limits: cfg.Limits,
		logger: cfg.Logger,
		now:    time.Now,
	}

	RiskKilled.Set(0)
	RiskExposure.Set(0)

	return m, nil
}

// PartialFill records a partially filled hedge.
func (m *Manager) PartialFill() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollDayLocked()
	m.partialFillStreak++
	m.partialFillDay++
	RiskPartialFills.Inc()

	m.logger.Warn("risk-partial-fill",
		zap.Int("streak", m.partialFillStreak),
		zap.Int("today", m.partialFillDay))
}

// HedgedComplete records a fully hedged execution; resets the partial streak.
func (m *Manager) HedgedComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.partialFillStreak = 0
}

// APIError records one gateway failure.
func (m *Manager) APIError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.apiErrors = append(m.apiErrors, now)
	m.apiErrors = pruneTimes(m.apiErrors, now.Add(-10*time.Minute))
	RiskAPIErrors.Inc()
}

// Latency records one gateway round-trip in milliseconds.
func (m *Manager) Latency(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.latencies = append(m.latencies, latencySample{at: now, ms: ms})
	m.latencies = pruneSamples(m.latencies, now.Add(-m.limits.LatencyWindow))
	RiskLatencyMs.Observe(ms)
}

// ThinBook records a depth-check verdict. Consecutive thin books grow the
// streak; any healthy book resets it.
func (m *Manager) ThinBook(thin bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if thin {
		m.thinBookStreak++
	} else {
		m.thinBookStreak = 0
	}
}

// Trade records one submitted order.
func (m *Manager) Trade() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.trades = append(m.trades, now)
	m.trades = pruneTimes(m.trades, now.Add(-time.Hour))
	RiskTrades.Inc()
}

// AddExposure increases the open exposure by usd.
func (m *Manager) AddExposure(usd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exposure += usd
	RiskExposure.Set(m.exposure)
}

// ReduceExposure decreases the open exposure, flooring at zero.
func (m *Manager) ReduceExposure(usd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exposure -= usd
	if m.exposure < 0 {
		m.exposure = 0
	}
	RiskExposure.Set(m.exposure)
}

// Exposure returns the current open exposure in USD.
func (m *Manager) Exposure() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.exposure
}

// CanTakeTrade reports whether adding usd of exposure stays inside the
// bankroll cap.
func (m *Manager) CanTakeTrade(bankroll, add float64) bool {
	if bankroll <= 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.exposure+add <= bankroll*m.limits.MaxExposurePct
}

// ShouldKill evaluates the kill conditions in order. The first tripped
// condition latches the killed state and records the reason; once latched,
// the method returns true without re-evaluating.
func (m *Manager) ShouldKill() bool {
	if m.killed.Load() {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.killed.Load() {
		return true
	}

	reason := m.evaluateLocked()
	if reason == "" {
		return false
	}

	m.killReason = reason
	m.killed.Store(true)
	RiskKilled.Set(1)

	m.logger.Error("kill-switch-tripped", zap.String("reason", reason))

	return true
}

func (m *Manager) evaluateLocked() string {
	now := m.now()
	m.rollDayLocked()

	if m.partialFillStreak >= m.limits.PartialFillStreak {
		return fmt.Sprintf("partial_fill_streak=%d", m.partialFillStreak)
	}

	if m.partialFillDay >= m.limits.PartialFillDay {
		return fmt.Sprintf("partial_fill_day=%d", m.partialFillDay)
	}

	m.apiErrors = pruneTimes(m.apiErrors, now.Add(-10*time.Minute))
	if len(m.apiErrors) >= m.limits.APIErrors10m {
		return fmt.Sprintf("api_errors_10m=%d", len(m.apiErrors))
	}

	if m.thinBookStreak >= m.limits.ThinBookScans {
		return fmt.Sprintf("thin_book_scans=%d", m.thinBookStreak)
	}

	m.latencies = pruneSamples(m.latencies, now.Add(-m.limits.LatencyWindow))
	if len(m.latencies) > 0 {
		sum := 0.0
		for _, s := range m.latencies {
			sum += s.ms
		}
		mean := sum / float64(len(m.latencies))
		if mean >= m.limits.LatencyMs {
			return fmt.Sprintf("latency_ms_avg=%.0f", mean)
		}
	}

	m.trades = pruneTimes(m.trades, now.Add(-time.Hour))
	if len(m.trades) >= m.limits.MaxTradesPerHour {
		return fmt.Sprintf("trades_per_hour=%d", len(m.trades))
	}

	return ""
}

// Killed reports the latch without evaluating conditions.
func (m *Manager) Killed() bool {
	return m.killed.Load()
}

// KillReason returns the reason recorded when the latch tripped.
func (m *Manager) KillReason() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.killReason
}

// GetStatus returns a snapshot for summaries.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.apiErrors = pruneTimes(m.apiErrors, now.Add(-10*time.Minute))
	m.trades = pruneTimes(m.trades, now.Add(-time.Hour))

	return Status{
		Killed:            m.killed.Load(),
		KillReason:        m.killReason,
		PartialFillStreak: m.partialFillStreak,
		PartialFillDay:    m.partialFillDay,
		APIErrors10m:      len(m.apiErrors),
		ThinBookStreak:    m.thinBookStreak,
		TradesLastHour:    len(m.trades),
		Exposure:          m.exposure,
	}
}

// rollDayLocked resets the daily partial-fill count at UTC date changes.
func (m *Manager) rollDayLocked() {
	day := m.now().UTC().Format("2006-01-02")
	if m.dayKey != day {
		m.dayKey = day
		m.partialFillDay = 0
	}
}

func pruneTimes(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	return kept
}

func pruneSamples(ss []latencySample, cutoff time.Time) []latencySample {
	kept := ss[:0]
	for _, s := range ss {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}

	return kept
}
