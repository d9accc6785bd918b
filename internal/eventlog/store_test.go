package eventlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-hedge/internal/depth"
	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "hedge_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testOpportunity() *hedge.Opportunity {
	return hedge.New("BTC 68k/72k", hedge.ScannerThreshold, hedge.TypeThreshold, []hedge.Leg{
		{MarketID: "m-high", Question: "BTC above 72000?", Side: types.SideNo, Price: 0.22, TokenID: "t-no"},
		{MarketID: "m-low", Question: "BTC above 68000?", Side: types.SideYes, Price: 0.72, TokenID: "t-yes"},
	}, 1.0, 2.0, 0.02)
}

func TestLogScanAndStats(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.LogScan(1, hedge.ScannerEventGroup, 50, 2, 123.4, ""))
	require.NoError(t, store.LogScan(1, hedge.ScannerThreshold, 30, 0, 88.0, "timeout"))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalScans)
	assert.Equal(t, 0, stats.TotalOpps)
}

func TestLogOpportunityRoundTrip(t *testing.T) {
	store := newTestStore(t)
	opp := testOpportunity()

	require.NoError(t, store.LogOpportunity(opp, false))
	require.NoError(t, store.LogOpportunity(opp, true))

	rows, err := store.RecentOpportunities(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first: the executed row.
	assert.True(t, rows[0].Executed)
	assert.False(t, rows[1].Executed)
	assert.Equal(t, "BTC 68k/72k", rows[0].Name)
	assert.Equal(t, "threshold", rows[0].Scanner)
	assert.InDelta(t, 0.94, rows[0].TotalCost, 1e-9)
	assert.Equal(t, []string{"m-high", "m-low"}, rows[0].MarketIDs, "leg order preserved")

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOpps)
	assert.Equal(t, 1, stats.TotalExecuted)
}

func TestLogOrderAndErrorCount(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.LogOrder(&Order{
		OpportunityName: "x",
		MarketID:        "m1",
		TokenID:         "t1",
		Side:            types.SideYes,
		Price:           0.72,
		Size:            48.6,
		OrderID:         "ord-1",
		Status:          types.OrderSubmitted,
		LatencyMs:       210,
	}))
	require.NoError(t, store.LogOrder(&Order{
		OpportunityName: "x",
		MarketID:        "m2",
		TokenID:         "t2",
		Side:            types.SideNo,
		Price:           0.22,
		Size:            50,
		Status:          types.OrderError,
		Error:           "book_crossed",
		LatencyMs:       95,
	}))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.TotalErrors)
}

func TestLogIncident(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.LogIncident(IncidentKillSwitch, "execution blocked", "api_errors_10m=5"))
	require.NoError(t, store.LogIncident(IncidentPartialFill, "1/2 legs", ""))

	rows, err := store.RecentIncidents(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, IncidentPartialFill, rows[0].Type)
	assert.Equal(t, IncidentKillSwitch, rows[1].Type)
	assert.Equal(t, "api_errors_10m=5", rows[1].KillReason)
}

func TestLogDepthCheckAndFillAndPnL(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.LogDepthCheck(&depth.Check{
		TokenID:     "tok",
		Spread:      0.02,
		AskDepthUSD: 5.82,
		VWAPCost:    4.1,
		DepthOK:     false,
		SpreadOK:    true,
	}))
	require.NoError(t, store.LogFill(&Fill{OrderID: "ord-1", MarketID: "m1", Side: types.SideYes, Price: 0.72, Size: 10, FeeEst: 0.14}))
	require.NoError(t, store.LogPnL(50, 47.3, 0, "hedged"))

	// Only counted relations appear in Stats; the writes above must not error.
	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalScans)
}

func TestOpenCreatesFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hedge.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.LogIncident(IncidentScanError, "boom", ""))
	require.NoError(t, first.Close())

	// Reopening applies the schema idempotently and keeps existing rows.
	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	stats, err := second.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalIncidents)
}
