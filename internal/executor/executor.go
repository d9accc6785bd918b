// Package executor turns discovered opportunities into GTC limit orders on
// the venue, one leg at a time, with depth checks and risk accounting around
// every order.
package executor

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// OrderPlacer submits limit buys. A non-empty rejectReason with nil error
// means the venue refused the order.
type OrderPlacer interface {
	PlaceLimitBuyGTC(ctx context.Context, tokenID string, price, size float64) (orderID, rejectReason string, err error)
}

// DepthVerifier gates a leg on live order-book depth.
type DepthVerifier interface {
	Verify(ctx context.Context, tokenID string, targetUSD float64) (bool, string)
}

// RiskController is the slice of the risk manager the executor drives.
type RiskController interface {
	ShouldKill() bool
	KillReason() string
	CanTakeTrade(bankroll, add float64) bool
	Exposure() float64
	PartialFill()
	HedgedComplete()
	APIError()
	Latency(ms float64)
	Trade()
	AddExposure(usd float64)
}

// TradeLog is the slice of the event log the executor writes.
type TradeLog interface {
	LogOrder(o *eventlog.Order) error
	LogIncident(kind, details, killReason string) error
	LogPnL(budget, exposure, realized float64, notes string) error
}

// Notifier delivers the one-shot kill-switch alert.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// LegResult is one submitted leg of a hedge.
type LegResult struct {
	MarketID  string
	Side      types.Side
	Price     float64
	Size      float64
	AmountUSD float64
	OrderID   string
}

// Report is the outcome of one execution attempt.
type Report struct {
	Executed   bool
	Partial    bool
	Legs       []LegResult
	TotalSpent float64
	Errors     []string
}

// Config holds executor configuration.
type Config struct {
	AutoTrade   bool
	TradeBudget float64
	Bankroll    float64
	MaxExposure float64

	Orders   OrderPlacer
	Depth    DepthVerifier
	Risk     RiskController
	Log      TradeLog
	Notifier Notifier
	Logger   *zap.Logger
}

// Executor sizes and submits hedge legs. It never rolls back: a partial fill
// is recorded and left for the operator, the kill switch handles repetition.
type Executor struct {
	cfg Config

	killNotified bool
}

// New creates an executor.
func New(cfg Config) (*Executor, error) {
	if cfg.Orders == nil {
		return nil, fmt.Errorf("order placer cannot be nil")
	}
	if cfg.Depth == nil {
		return nil, fmt.Errorf("depth verifier cannot be nil")
	}
	if cfg.Risk == nil {
		return nil, fmt.Errorf("risk controller cannot be nil")
	}
	if cfg.Log == nil {
		return nil, fmt.Errorf("trade log cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.TradeBudget <= 0 {
		return nil, fmt.Errorf("trade budget must be positive")
	}

	return &Executor{cfg: cfg}, nil
}

// Execute attempts to buy every leg of the opportunity. Preconditions
// short-circuit with the reason in Errors; leg failures mark the report
// partial but do not stop the remaining legs.
func (e *Executor) Execute(ctx context.Context, opp *hedge.Opportunity) *Report {
	report := &Report{}

	if !e.cfg.AutoTrade {
		report.Errors = append(report.Errors, "auto_trade_off")
		return report
	}

	if e.cfg.Risk.ShouldKill() {
		reason := e.cfg.Risk.KillReason()
		if err := e.cfg.Log.LogIncident(eventlog.IncidentKillSwitch, "blocked trade: "+opp.Name, reason); err != nil {
			e.cfg.Logger.Warn("log-incident-failed", zap.Error(err))
		}
		report.Errors = append(report.Errors, "kill_switch: "+reason)
		e.notifyKillOnce(ctx, reason, opp.Name)
		ExecutionsTotal.WithLabelValues("killed").Inc()

		return report
	}

	if !e.cfg.Risk.CanTakeTrade(e.cfg.Bankroll, e.cfg.TradeBudget) {
		report.Errors = append(report.Errors, fmt.Sprintf(
			"exposure_limit (current $%.2f, max $%.2f)",
			e.cfg.Risk.Exposure(), e.cfg.Bankroll*e.cfg.MaxExposure))
		ExecutionsTotal.WithLabelValues("exposure_limited").Inc()

		return report
	}

	if opp.TotalCost <= 0 {
		report.Errors = append(report.Errors, "invalid_cost")
		return report
	}

	scale := e.cfg.TradeBudget / opp.TotalCost

	for _, leg := range opp.Legs {
		e.executeLeg(ctx, opp, leg, scale, report)
	}

	e.classify(opp, report)

	return report
}

func (e *Executor) executeLeg(ctx context.Context, opp *hedge.Opportunity, leg hedge.Leg, scale float64, report *Report) {
	if leg.TokenID == "" {
		report.Errors = append(report.Errors, "no_token_id for "+truncate(leg.Question, 30))
		return
	}

	legAmountUSD := leg.Price * scale
	legSize := 0.0
	if leg.Price > 0 {
		legSize = legAmountUSD / leg.Price
	}

	if ok, reason := e.cfg.Depth.Verify(ctx, leg.TokenID, legAmountUSD); !ok {
		report.Errors = append(report.Errors, fmt.Sprintf("depth_fail (%s): %s", leg.Side, reason))
		report.Partial = true
		return
	}

	start := time.Now()
	orderID, rejectReason, err := e.cfg.Orders.PlaceLimitBuyGTC(ctx, leg.TokenID, round2(leg.Price), round2(legSize))
	latencyMs := float64(time.Since(start).Milliseconds())
	e.cfg.Risk.Latency(latencyMs)

	switch {
	case err != nil:
		e.cfg.Risk.APIError()
		e.logOrder(opp, leg, legSize, "", types.OrderException, err.Error(), latencyMs)
		report.Errors = append(report.Errors, fmt.Sprintf("exception (%s): %v", leg.Side, err))
		report.Partial = true

	case rejectReason != "":
		e.cfg.Risk.APIError()
		e.logOrder(opp, leg, legSize, "", types.OrderError, rejectReason, latencyMs)
		report.Errors = append(report.Errors, fmt.Sprintf("order_error (%s): %s", leg.Side, rejectReason))
		report.Partial = true

	default:
		e.cfg.Risk.Trade()
		e.logOrder(opp, leg, legSize, orderID, types.OrderSubmitted, "", latencyMs)
		report.Legs = append(report.Legs, LegResult{
			MarketID:  leg.MarketID,
			Side:      leg.Side,
			Price:     leg.Price,
			Size:      legSize,
			AmountUSD: legAmountUSD,
			OrderID:   orderID,
		})
		report.TotalSpent += legAmountUSD
	}
}

func (e *Executor) classify(opp *hedge.Opportunity, report *Report) {
	total := len(opp.Legs)
	filled := len(report.Legs)

	switch {
	case filled == total:
		report.Executed = true
		e.cfg.Risk.HedgedComplete()
		e.cfg.Risk.AddExposure(report.TotalSpent)
		if err := e.cfg.Log.LogPnL(e.cfg.TradeBudget, report.TotalSpent, 0, "hedge executed: "+opp.Name); err != nil {
			e.cfg.Logger.Warn("log-pnl-failed", zap.Error(err))
		}
		ExecutionsTotal.WithLabelValues("executed").Inc()

		e.cfg.Logger.Info("hedge-executed",
			zap.String("opportunity", opp.Name),
			zap.Int("legs", filled),
			zap.Float64("spent_usd", report.TotalSpent))

	case filled > 0:
		report.Partial = true
		e.cfg.Risk.PartialFill()
		e.cfg.Risk.AddExposure(report.TotalSpent)
		details := fmt.Sprintf("%d/%d legs filled for %s", filled, total, opp.Name)
		if err := e.cfg.Log.LogIncident(eventlog.IncidentPartialFill, details, ""); err != nil {
			e.cfg.Logger.Warn("log-incident-failed", zap.Error(err))
		}
		ExecutionsTotal.WithLabelValues("partial").Inc()

		e.cfg.Logger.Warn("hedge-partial-fill",
			zap.String("opportunity", opp.Name),
			zap.Int("filled", filled),
			zap.Int("total", total),
			zap.Float64("spent_usd", report.TotalSpent))

	default:
		ExecutionsTotal.WithLabelValues("failed").Inc()

		e.cfg.Logger.Warn("hedge-execution-failed",
			zap.String("opportunity", opp.Name),
			zap.Strings("errors", report.Errors))
	}
}

func (e *Executor) logOrder(opp *hedge.Opportunity, leg hedge.Leg, size float64, orderID string, status types.OrderStatus, errMsg string, latencyMs float64) {
	err := e.cfg.Log.LogOrder(&eventlog.Order{
		OpportunityName: opp.Name,
		MarketID:        leg.MarketID,
		TokenID:         leg.TokenID,
		Side:            leg.Side,
		Price:           leg.Price,
		Size:            size,
		OrderID:         orderID,
		Status:          status,
		Error:           errMsg,
		LatencyMs:       latencyMs,
	})
	if err != nil {
		e.cfg.Logger.Warn("log-order-failed", zap.Error(err))
	}
}

// notifyKillOnce sends the kill-switch alert on the first blocked trade only.
func (e *Executor) notifyKillOnce(ctx context.Context, reason, blocked string) {
	if e.killNotified || e.cfg.Notifier == nil {
		return
	}
	e.killNotified = true

	msg := fmt.Sprintf("KILL SWITCH TRIGGERED\nReason: %s\nBlocked: %s\nTrading suspended until restart.",
		reason, blocked)
	if err := e.cfg.Notifier.Send(ctx, msg); err != nil {
		e.cfg.Logger.Warn("kill-notify-failed", zap.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
