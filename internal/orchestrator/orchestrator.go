// Package orchestrator drives the scan loop: run every scanner, rank the
// findings, execute, alert, and keep the interval summaries flowing.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/internal/executor"
	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/internal/reporter"
	"github.com/mselser95/polymarket-hedge/internal/risk"
	"github.com/mselser95/polymarket-hedge/internal/scanner"
)

// Every Nth empty scan sends a heartbeat so operators know the loop is alive.
const heartbeatEvery = 5

// Executer runs one opportunity. Nil reports are allowed (trading disabled).
type Executer interface {
	Execute(ctx context.Context, opp *hedge.Opportunity) *executor.Report
}

// ScanLog is the slice of the event log the orchestrator writes and reads.
type ScanLog interface {
	LogScan(scanNumber int, tag hedge.ScannerTag, marketsChecked, oppsFound int, latencyMs float64, errMsg string) error
	LogOpportunity(opp *hedge.Opportunity, executed bool) error
	Stats() (*eventlog.Stats, error)
}

// RiskView is the read side of the risk manager used for gating and
// summaries.
type RiskView interface {
	Killed() bool
	KillReason() string
	GetStatus() risk.Status
}

// Sink delivers rendered messages.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// WalletReader optionally supplies balances for summaries.
type WalletReader interface {
	Balances(ctx context.Context) (*reporter.WalletBalances, error)
}

// Config holds orchestrator configuration.
type Config struct {
	ScanInterval     time.Duration
	SummaryInterval  time.Duration
	RealertThreshold float64
	AutoTrade        bool

	Scanners []scanner.Scanner
	Executor Executer
	Log      ScanLog
	Reporter *reporter.Reporter
	Sink     Sink
	Risk     RiskView
	Wallet   WalletReader
	Logger   *zap.Logger
}

// Orchestrator owns the alert-dedup map and the scan counter. Single
// goroutine; scanners run sequentially within a tick.
type Orchestrator struct {
	cfg Config

	alerted   map[string]float64
	scanCount int
	oppsFound int
	executed  int
	startedAt time.Time

	now func() time.Time
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if len(cfg.Scanners) == 0 {
		return nil, fmt.Errorf("at least one scanner required")
	}
	if cfg.Log == nil {
		return nil, fmt.Errorf("scan log cannot be nil")
	}
	if cfg.Reporter == nil {
		return nil, fmt.Errorf("reporter cannot be nil")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("sink cannot be nil")
	}
	if cfg.Risk == nil {
		return nil, fmt.Errorf("risk view cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("scan interval must be positive")
	}

	return &Orchestrator{
		cfg:     cfg,
		alerted: make(map[string]float64),
		now:     time.Now,
	}, nil
}

// Run loops until ctx is cancelled. The current tick always completes; the
// sleep between ticks is interruptible. A final summary goes out on stop.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.startedAt = o.now()
	lastSummary := o.now()

	for {
		if o.cfg.SummaryInterval > 0 && o.now().Sub(lastSummary) >= o.cfg.SummaryInterval {
			o.emitSummary(ctx)
			lastSummary = o.now()
		}

		o.Tick(ctx)

		select {
		case <-ctx.Done():
			o.cfg.Logger.Info("orchestrator-stopping",
				zap.Int("scans", o.scanCount),
				zap.Int("opportunities", o.oppsFound))
			o.emitSummary(context.WithoutCancel(ctx))

			return nil
		case <-time.After(o.cfg.ScanInterval):
		}
	}
}

// Tick runs one full scan pass.
func (o *Orchestrator) Tick(ctx context.Context) {
	o.scanCount++
	TicksTotal.Inc()

	if o.cfg.Risk.Killed() {
		o.cfg.Logger.Warn("tick-killed-alerts-only",
			zap.String("reason", o.cfg.Risk.KillReason()))
	}

	var all []*hedge.Opportunity
	marketsChecked := 0

	for _, sc := range o.cfg.Scanners {
		start := o.now()
		opps, markets, err := sc.Scan(ctx)
		latencyMs := float64(o.now().Sub(start).Milliseconds())

		errMsg := ""
		if err != nil {
			errMsg = err.Error()
			o.cfg.Logger.Warn("scanner-failed",
				zap.String("scanner", string(sc.Tag())),
				zap.Error(err))
		}

		if logErr := o.cfg.Log.LogScan(o.scanCount, sc.Tag(), markets, len(opps), latencyMs, errMsg); logErr != nil {
			o.cfg.Logger.Warn("log-scan-failed", zap.Error(logErr))
		}

		all = append(all, opps...)
		marketsChecked += markets
	}

	sortOpportunities(all)

	if len(all) == 0 {
		if o.scanCount%heartbeatEvery == 0 {
			o.send(ctx, o.cfg.Reporter.NoHedges(o.scanCount, marketsChecked))
		}

		return
	}

	o.oppsFound += len(all)
	o.cfg.Logger.Info("tick-opportunities-found",
		zap.Int("scan", o.scanCount),
		zap.Int("count", len(all)),
		zap.Int("markets_checked", marketsChecked))

	for _, opp := range all {
		o.process(ctx, opp)
	}

	o.pruneAlerted(all)
}

// process logs, optionally executes, and alerts one opportunity. The event
// log row always precedes execution and notification.
func (o *Orchestrator) process(ctx context.Context, opp *hedge.Opportunity) {
	if err := o.cfg.Log.LogOpportunity(opp, false); err != nil {
		o.cfg.Logger.Warn("log-opportunity-failed", zap.Error(err))
	}

	alertNow := o.shouldAlert(opp)

	var report *executor.Report
	if o.cfg.AutoTrade && o.cfg.Executor != nil && !o.cfg.Risk.Killed() {
		report = o.cfg.Executor.Execute(ctx, opp)
		if report != nil && report.Executed {
			o.executed++
			if err := o.cfg.Log.LogOpportunity(opp, true); err != nil {
				o.cfg.Logger.Warn("log-opportunity-failed", zap.Error(err))
			}
		}
	}

	if alertNow {
		o.send(ctx, o.cfg.Reporter.Alert(opp, report))
		o.alerted[opp.AlertKey()] = opp.NetProfitPerDollar
		AlertsSent.Inc()
	}
}

// shouldAlert applies the dedup rule: new keys always alert, known keys
// re-alert only when profit moved by more than the relative threshold.
func (o *Orchestrator) shouldAlert(opp *hedge.Opportunity) bool {
	last, seen := o.alerted[opp.AlertKey()]
	if !seen {
		return true
	}

	base := abs(last)
	if base < 0.001 {
		base = 0.001
	}

	return abs(opp.NetProfitPerDollar-last)/base > o.cfg.RealertThreshold
}

// pruneAlerted drops dedup entries whose hedge vanished this tick.
func (o *Orchestrator) pruneAlerted(current []*hedge.Opportunity) {
	live := make(map[string]struct{}, len(current))
	for _, opp := range current {
		live[opp.AlertKey()] = struct{}{}
	}

	for key := range o.alerted {
		if _, ok := live[key]; !ok {
			delete(o.alerted, key)
		}
	}
}

func (o *Orchestrator) emitSummary(ctx context.Context) {
	stats, err := o.cfg.Log.Stats()
	if err != nil {
		o.cfg.Logger.Warn("summary-stats-failed", zap.Error(err))
	}

	data := reporter.SummaryData{
		Uptime:         o.now().Sub(o.startedAt),
		ScanCount:      o.scanCount,
		OppsFound:      o.oppsFound,
		TradesExecuted: o.executed,
		ActiveAlerts:   len(o.alerted),
		Stats:          stats,
		Risk:           o.cfg.Risk.GetStatus(),
		TopHedges:      o.topHedges(),
	}

	if o.cfg.Wallet != nil {
		if balances, walletErr := o.cfg.Wallet.Balances(ctx); walletErr == nil {
			data.Wallet = balances
		} else {
			o.cfg.Logger.Warn("summary-wallet-failed", zap.Error(walletErr))
		}
	}

	o.send(ctx, o.cfg.Reporter.Summary(data))
	SummariesSent.Inc()
}

func (o *Orchestrator) topHedges() []reporter.ActiveHedge {
	hedges := make([]reporter.ActiveHedge, 0, len(o.alerted))
	for key, profit := range o.alerted {
		hedges = append(hedges, reporter.ActiveHedge{Key: key, Profit: profit})
	}
	sort.Slice(hedges, func(i, j int) bool {
		if hedges[i].Profit != hedges[j].Profit {
			return hedges[i].Profit > hedges[j].Profit
		}
		return hedges[i].Key < hedges[j].Key
	})

	if len(hedges) > 5 {
		hedges = hedges[:5]
	}

	return hedges
}

func (o *Orchestrator) send(ctx context.Context, text string) {
	if err := o.cfg.Sink.Send(ctx, text); err != nil {
		o.cfg.Logger.Warn("notification-send-failed", zap.Error(err))
	}
}

// sortOpportunities orders by net profit descending, ties broken by alert
// key so processing order is deterministic.
func sortOpportunities(opps []*hedge.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].NetProfitPerDollar != opps[j].NetProfitPerDollar {
			return opps[i].NetProfitPerDollar > opps[j].NetProfitPerDollar
		}
		return opps[i].AlertKey() < opps[j].AlertKey()
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
