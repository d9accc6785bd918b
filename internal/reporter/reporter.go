// Package reporter renders the operator-facing messages: startup banner,
// per-opportunity alerts, and interval status summaries.
package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/internal/executor"
	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/internal/risk"
)

// Budgets quoted in the trade-instructions block of every alert.
var instructionBudgets = []float64{10, 25, 50, 100}

var scannerLabels = map[hedge.ScannerTag]string{
	hedge.ScannerEventGroup: "Event Group Arb",
	hedge.ScannerThreshold:  "Threshold Hedge",
	hedge.ScannerPattern:    "Known Pattern",
}

// Config holds the engine settings echoed in rendered messages.
type Config struct {
	AutoTrade    bool
	ScanInterval time.Duration
	TradeBudget  float64
	Bankroll     float64
	FeeRate      float64
	MaxSpread    float64
	MinDepthUSD  float64
}

// Reporter renders messages. It holds no I/O; callers pass the rendered text
// to a notification sink.
type Reporter struct {
	cfg Config
}

// New creates a reporter.
func New(cfg Config) *Reporter {
	return &Reporter{cfg: cfg}
}

// StartupInfo describes the configured scanners for the startup banner.
type StartupInfo struct {
	EventLimit      int
	ThresholdAssets int
	ThresholdLevels int
	Patterns        int
	KillSwitches    int
	DBPath          string
	OrdersEnabled   bool
}

// Startup renders the banner sent once when the engine comes up.
func (r *Reporter) Startup(info StartupInfo) string {
	var b strings.Builder

	b.WriteString("<b>Hedge engine online</b>\n\n")
	fmt.Fprintf(&b, "Scan every: %s\n", r.cfg.ScanInterval)
	fmt.Fprintf(&b, "Auto-trade: %s\n", onOff(r.cfg.AutoTrade))
	fmt.Fprintf(&b, "Budget: $%.0f/trade | Bankroll: $%.0f\n", r.cfg.TradeBudget, r.cfg.Bankroll)
	fmt.Fprintf(&b, "Fee estimate: %.0f%%\n", r.cfg.FeeRate*100)
	fmt.Fprintf(&b, "Max spread: %.1f%% | Min depth: $%.0f\n\n", r.cfg.MaxSpread*100, r.cfg.MinDepthUSD)

	fmt.Fprintf(&b, "Event groups: %d events/scan\n", info.EventLimit)
	fmt.Fprintf(&b, "Thresholds: %d assets, %d levels\n", info.ThresholdAssets, info.ThresholdLevels)
	fmt.Fprintf(&b, "Known patterns: %d\n", info.Patterns)
	fmt.Fprintf(&b, "Kill switches: %d active\n", info.KillSwitches)
	fmt.Fprintf(&b, "Event log: %s\n", info.DBPath)

	if info.OrdersEnabled {
		b.WriteString("Order gateway: ready\n")
	} else {
		b.WriteString("Order gateway: disabled (alerts only)\n")
	}

	return b.String()
}

// Alert renders a discovered opportunity, optionally with its execution
// outcome attached.
func (r *Reporter) Alert(opp *hedge.Opportunity, report *executor.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>HEDGE FOUND: %s</b>\n\n", opp.Name)

	label := scannerLabels[opp.Scanner]
	if label == "" {
		label = string(opp.Scanner)
	}
	fmt.Fprintf(&b, "Scanner: %s\n", label)
	fmt.Fprintf(&b, "Type: %s\n", opp.Type)
	fmt.Fprintf(&b, "Confidence: %s\n\n", opp.Confidence)

	b.WriteString("<b>Legs:</b>\n")
	for i, leg := range opp.Legs {
		fmt.Fprintf(&b, "  Leg %d: <b>%s</b> @ $%.4f\n", i+1, leg.Side, leg.Price)
		fmt.Fprintf(&b, "    %s\n", truncate(leg.Question, 60))
		fmt.Fprintf(&b, "    Volume: $%.0f\n", leg.Volume)
	}

	b.WriteString("\n<b>Financials:</b>\n")
	fmt.Fprintf(&b, "  Total cost: $%.4f\n", opp.TotalCost)
	fmt.Fprintf(&b, "  Min payout: $%.2f\n", opp.MinPayout)
	fmt.Fprintf(&b, "  Max payout: $%.2f\n", opp.MaxPayout)
	fmt.Fprintf(&b, "  Guaranteed: $%+.4f/unit\n", opp.GuaranteedProfit)
	fmt.Fprintf(&b, "  Best case: $%+.4f/unit\n", opp.BestCaseProfit)
	fmt.Fprintf(&b, "  Net after fees: $%+.4f/$\n", opp.NetProfitPerDollar)

	if opp.TotalCost > 0 {
		b.WriteString("\n<b>Trade instructions:</b>\n")
		for _, budget := range instructionBudgets {
			units := budget / opp.TotalCost
			minReturn := units * opp.MinPayout
			fmt.Fprintf(&b, "  $%.0f -> min $%.2f (profit $%+.2f)\n", budget, minReturn, minReturn-budget)
		}
	}

	r.renderExecution(&b, opp, report)

	return b.String()
}

func (r *Reporter) renderExecution(b *strings.Builder, opp *hedge.Opportunity, report *executor.Report) {
	if report == nil {
		if !r.cfg.AutoTrade {
			b.WriteString("\nAuto-trade OFF, execute manually on the venue\n")
		}
		return
	}

	b.WriteString("\n")

	switch {
	case report.Executed:
		b.WriteString("<b>AUTO-EXECUTED</b>\n")
		fmt.Fprintf(b, "  Spent: $%.2f\n", report.TotalSpent)
		fmt.Fprintf(b, "  Legs filled: %d/%d\n", len(report.Legs), len(opp.Legs))
		for _, leg := range report.Legs {
			fmt.Fprintf(b, "  %s $%.2f -> order %s\n", leg.Side, leg.AmountUSD, truncate(leg.OrderID, 12))
		}

	case report.Partial:
		b.WriteString("<b>PARTIAL EXECUTION</b>\n")
		fmt.Fprintf(b, "  Legs filled: %d/%d\n", len(report.Legs), len(opp.Legs))
		for _, errText := range report.Errors {
			fmt.Fprintf(b, "  failed: %s\n", errText)
		}

	case len(report.Errors) > 0:
		b.WriteString("<b>EXECUTION FAILED</b>\n")
		for i, errText := range report.Errors {
			if i == 3 {
				break
			}
			fmt.Fprintf(b, "  %s\n", errText)
		}
	}
}

// ActiveHedge is one live alert entry for the summary.
type ActiveHedge struct {
	Key    string
	Profit float64
}

// WalletBalances is an optional wallet snapshot for the summary.
type WalletBalances struct {
	USDCe float64
	POL   float64
}

// SummaryData gathers everything an interval summary shows.
type SummaryData struct {
	Uptime         time.Duration
	ScanCount      int
	OppsFound      int
	TradesExecuted int
	ActiveAlerts   int
	Stats          *eventlog.Stats
	Risk           risk.Status
	Wallet         *WalletBalances
	TopHedges      []ActiveHedge
}

// Summary renders the interval status report.
func (r *Reporter) Summary(data SummaryData) string {
	var b strings.Builder

	b.WriteString("<b>STATUS REPORT</b>\n")
	fmt.Fprintf(&b, "Uptime: %.1fh\n", data.Uptime.Hours())
	fmt.Fprintf(&b, "Scans: %d\n", data.ScanCount)
	fmt.Fprintf(&b, "Opportunities: %d\n", data.OppsFound)
	fmt.Fprintf(&b, "Trades executed: %d\n", data.TradesExecuted)
	fmt.Fprintf(&b, "Active hedges: %d\n", data.ActiveAlerts)

	if data.Stats != nil {
		b.WriteString("\n<b>Event log:</b>\n")
		fmt.Fprintf(&b, "  Scans logged: %d\n", data.Stats.TotalScans)
		fmt.Fprintf(&b, "  Opps logged: %d\n", data.Stats.TotalOpps)
		fmt.Fprintf(&b, "  Orders: %d\n", data.Stats.TotalOrders)
		fmt.Fprintf(&b, "  Order errors: %d\n", data.Stats.TotalErrors)
		fmt.Fprintf(&b, "  Incidents: %d\n", data.Stats.TotalIncidents)
	}

	b.WriteString("\n<b>Risk:</b>\n")
	fmt.Fprintf(&b, "  Killed: %v", data.Risk.Killed)
	if data.Risk.Killed {
		fmt.Fprintf(&b, " (%s)", data.Risk.KillReason)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Partial fills: streak %d, today %d\n", data.Risk.PartialFillStreak, data.Risk.PartialFillDay)
	fmt.Fprintf(&b, "  API errors (10m): %d\n", data.Risk.APIErrors10m)
	fmt.Fprintf(&b, "  Thin-book scans: %d\n", data.Risk.ThinBookStreak)
	fmt.Fprintf(&b, "  Trades last hour: %d\n", data.Risk.TradesLastHour)
	fmt.Fprintf(&b, "  Exposure: $%.2f\n", data.Risk.Exposure)

	if data.Wallet != nil {
		b.WriteString("\n<b>Wallet:</b>\n")
		fmt.Fprintf(&b, "  USDC.e: $%.2f\n", data.Wallet.USDCe)
		fmt.Fprintf(&b, "  POL: %.4f\n", data.Wallet.POL)
	}

	if len(data.TopHedges) > 0 {
		b.WriteString("\n<b>Active hedges:</b>\n")
		for i, h := range data.TopHedges {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  $%+.4f/$ %s\n", h.Profit, truncate(h.Key, 30))
		}
	}

	fmt.Fprintf(&b, "\nNext scan in %s\n", r.cfg.ScanInterval)

	return b.String()
}

// NoHedges renders the every-Nth-scan heartbeat when nothing was found.
func (r *Reporter) NoHedges(scanNumber, marketsChecked int) string {
	return fmt.Sprintf("Scan #%d: no hedges found (%d markets checked). Next scan in %s",
		scanNumber, marketsChecked, r.cfg.ScanInterval)
}

func onOff(v bool) string {
	if v {
		return "ON"
	}

	return "OFF (alerts only)"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
