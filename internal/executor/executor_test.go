package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/internal/risk"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// fakeOrders scripts one outcome per token id.
type fakeOrders struct {
	rejects map[string]string
	fails   map[string]error
	placed  []string
}

func (f *fakeOrders) PlaceLimitBuyGTC(_ context.Context, tokenID string, _, _ float64) (string, string, error) {
	if err, ok := f.fails[tokenID]; ok {
		return "", "", err
	}
	if reason, ok := f.rejects[tokenID]; ok {
		return "", reason, nil
	}
	f.placed = append(f.placed, tokenID)

	return "ord-" + tokenID, "", nil
}

type fakeDepth struct {
	failTokens map[string]string
	calls      int
}

func (f *fakeDepth) Verify(_ context.Context, tokenID string, _ float64) (bool, string) {
	f.calls++
	if reason, ok := f.failTokens[tokenID]; ok {
		return false, reason
	}

	return true, ""
}

type fakeLog struct {
	orders    []*eventlog.Order
	incidents []string
	pnlRows   int
}

func (f *fakeLog) LogOrder(o *eventlog.Order) error {
	f.orders = append(f.orders, o)
	return nil
}

func (f *fakeLog) LogIncident(kind, _, _ string) error {
	f.incidents = append(f.incidents, kind)
	return nil
}

func (f *fakeLog) LogPnL(_, _, _ float64, _ string) error {
	f.pnlRows++
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func newRiskManager(t *testing.T) *risk.Manager {
	t.Helper()

	m, err := risk.New(&risk.Config{
		Limits: risk.Limits{
			PartialFillStreak: 3,
			PartialFillDay:    8,
			APIErrors10m:      5,
			LatencyMs:         4000,
			LatencyWindow:     120 * time.Second,
			ThinBookScans:     4,
			MaxTradesPerHour:  20,
			MaxExposurePct:    0.5,
		},
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	return m
}

func twoLegOpportunity() *hedge.Opportunity {
	return hedge.New("BTC $68000 vs $72000", hedge.ScannerThreshold, hedge.TypeThreshold,
		[]hedge.Leg{
			{MarketID: "m-high", Question: "Above 72k?", Side: types.SideNo, Price: 0.22, TokenID: "tok-high"},
			{MarketID: "m-low", Question: "Above 68k?", Side: types.SideYes, Price: 0.72, TokenID: "tok-low"},
		}, 1.0, 2.0, 0.02)
}

func newExecutor(t *testing.T, orders OrderPlacer, depthV DepthVerifier, riskMgr *risk.Manager, log TradeLog, notifier Notifier) *Executor {
	t.Helper()

	e, err := New(Config{
		AutoTrade:   true,
		TradeBudget: 50,
		Bankroll:    100,
		MaxExposure: 0.5,
		Orders:      orders,
		Depth:       depthV,
		Risk:        riskMgr,
		Log:         log,
		Notifier:    notifier,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)

	return e
}

func TestExecuteFullHedge(t *testing.T) {
	orders := &fakeOrders{}
	depthV := &fakeDepth{}
	riskMgr := newRiskManager(t)
	log := &fakeLog{}

	e := newExecutor(t, orders, depthV, riskMgr, log, nil)

	report := e.Execute(context.Background(), twoLegOpportunity())

	assert.True(t, report.Executed)
	assert.False(t, report.Partial)
	require.Len(t, report.Legs, 2)
	assert.InDelta(t, 50.0, report.TotalSpent, 1e-9)
	assert.InDelta(t, 50.0, riskMgr.Exposure(), 1e-9)
	assert.Equal(t, 2, depthV.calls)
	assert.Equal(t, 1, log.pnlRows)

	// Budget split proportional to leg prices.
	scale := 50.0 / 0.94
	assert.InDelta(t, 0.22*scale, report.Legs[0].AmountUSD, 1e-9)
	assert.InDelta(t, 0.72*scale, report.Legs[1].AmountUSD, 1e-9)

	require.Len(t, log.orders, 2)
	assert.Equal(t, types.OrderSubmitted, log.orders[0].Status)
	assert.Equal(t, types.OrderSubmitted, log.orders[1].Status)
}

func TestExecuteAutoTradeOff(t *testing.T) {
	e, err := New(Config{
		AutoTrade:   false,
		TradeBudget: 50,
		Bankroll:    100,
		Orders:      &fakeOrders{},
		Depth:       &fakeDepth{},
		Risk:        newRiskManager(t),
		Log:         &fakeLog{},
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)

	report := e.Execute(context.Background(), twoLegOpportunity())

	assert.False(t, report.Executed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "auto_trade_off", report.Errors[0])
}

func TestExecuteBlockedByKillSwitch(t *testing.T) {
	riskMgr := newRiskManager(t)
	for i := 0; i < 5; i++ {
		riskMgr.APIError()
	}
	require.True(t, riskMgr.ShouldKill())

	orders := &fakeOrders{}
	log := &fakeLog{}
	notifier := &fakeNotifier{}

	e := newExecutor(t, orders, &fakeDepth{}, riskMgr, log, notifier)

	report := e.Execute(context.Background(), twoLegOpportunity())

	assert.False(t, report.Executed)
	assert.Empty(t, orders.placed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "api_errors")

	require.Len(t, log.incidents, 1)
	assert.Equal(t, eventlog.IncidentKillSwitch, log.incidents[0])

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "KILL SWITCH")

	// Second blocked trade logs another incident but does not re-notify.
	e.Execute(context.Background(), twoLegOpportunity())
	assert.Len(t, log.incidents, 2)
	assert.Len(t, notifier.sent, 1)
}

func TestExecutePartialFill(t *testing.T) {
	orders := &fakeOrders{rejects: map[string]string{"tok-low": "book_crossed"}}
	riskMgr := newRiskManager(t)
	log := &fakeLog{}

	e := newExecutor(t, orders, &fakeDepth{}, riskMgr, log, nil)

	report := e.Execute(context.Background(), twoLegOpportunity())

	assert.False(t, report.Executed)
	assert.True(t, report.Partial)
	require.Len(t, report.Legs, 1)
	assert.Equal(t, "m-high", report.Legs[0].MarketID)

	// Exposure covers only the submitted leg.
	scale := 50.0 / 0.94
	assert.InDelta(t, 0.22*scale, riskMgr.Exposure(), 1e-9)

	status := riskMgr.GetStatus()
	assert.Equal(t, 1, status.PartialFillStreak)

	require.Len(t, log.incidents, 1)
	assert.Equal(t, eventlog.IncidentPartialFill, log.incidents[0])

	require.Len(t, log.orders, 2)
	assert.Equal(t, types.OrderSubmitted, log.orders[0].Status)
	assert.Equal(t, types.OrderError, log.orders[1].Status)
	assert.Equal(t, "book_crossed", log.orders[1].Error)
}

func TestExecuteDepthRejectionMarksPartial(t *testing.T) {
	orders := &fakeOrders{}
	depthV := &fakeDepth{failTokens: map[string]string{"tok-high": "insufficient_depth ($5.82 < $20.00)"}}
	riskMgr := newRiskManager(t)
	log := &fakeLog{}

	e := newExecutor(t, orders, depthV, riskMgr, log, nil)

	report := e.Execute(context.Background(), twoLegOpportunity())

	assert.False(t, report.Executed)
	assert.True(t, report.Partial)
	require.Len(t, report.Legs, 1)
	assert.Contains(t, report.Errors[0], "depth_fail (NO)")
	assert.Contains(t, report.Errors[0], "insufficient_depth")
}

func TestExecuteAllLegsFail(t *testing.T) {
	orders := &fakeOrders{fails: map[string]error{
		"tok-high": fmt.Errorf("connection reset"),
		"tok-low":  fmt.Errorf("connection reset"),
	}}
	riskMgr := newRiskManager(t)
	log := &fakeLog{}

	e := newExecutor(t, orders, &fakeDepth{}, riskMgr, log, nil)

	report := e.Execute(context.Background(), twoLegOpportunity())

	assert.False(t, report.Executed)
	assert.Empty(t, report.Legs)
	assert.Zero(t, riskMgr.Exposure())
	assert.Len(t, report.Errors, 2)

	require.Len(t, log.orders, 2)
	assert.Equal(t, types.OrderException, log.orders[0].Status)
}

func TestExecuteSkipsEmptyTokenID(t *testing.T) {
	opp := hedge.New("NO sweep: Who will win", hedge.ScannerEventGroup, hedge.TypeGroupArb,
		[]hedge.Leg{
			{MarketID: "m1", Question: "A?", Side: types.SideNo, Price: 0.30, TokenID: "tok-a"},
			{MarketID: "m2", Question: "B?", Side: types.SideNo, Price: 0.31, TokenID: ""},
		}, 1.0, 1.0, 0.02)

	orders := &fakeOrders{}
	riskMgr := newRiskManager(t)
	log := &fakeLog{}

	e := newExecutor(t, orders, &fakeDepth{}, riskMgr, log, nil)

	report := e.Execute(context.Background(), opp)

	assert.False(t, report.Executed)
	require.Len(t, report.Legs, 1)
	assert.Contains(t, report.Errors[0], "no_token_id")
}

func TestExecuteExposureLimit(t *testing.T) {
	riskMgr := newRiskManager(t)
	riskMgr.AddExposure(45)

	orders := &fakeOrders{}

	e := newExecutor(t, orders, &fakeDepth{}, riskMgr, &fakeLog{}, nil)

	// 45 + 50 > 100 * 0.5.
	report := e.Execute(context.Background(), twoLegOpportunity())

	assert.False(t, report.Executed)
	assert.Empty(t, orders.placed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "exposure_limit")
}
