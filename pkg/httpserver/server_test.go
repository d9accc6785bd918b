package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/pkg/healthprobe"
)

type fakeEventLog struct {
	stats *eventlog.Stats
	opps  []eventlog.OpportunityRow
	err   error
}

func (f *fakeEventLog) Stats() (*eventlog.Stats, error) {
	return f.stats, f.err
}

func (f *fakeEventLog) RecentOpportunities(limit int) ([]eventlog.OpportunityRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.opps) {
		return f.opps[:limit], nil
	}

	return f.opps, nil
}

func (f *fakeEventLog) RecentIncidents(int) ([]eventlog.IncidentRow, error) {
	if f.err != nil {
		return nil, f.err
	}

	return []eventlog.IncidentRow{{Type: "partial_fill", Details: "1/2 legs"}}, nil
}

func newTestServer(t *testing.T, log EventLogReader) *httptest.Server {
	t.Helper()

	hc := healthprobe.New()
	hc.SetReady(true)

	srv := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: hc,
		EventLog:      log,
	})

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeEventLog{stats: &eventlog.Stats{TotalScans: 12, TotalOpps: 3}})

	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 12, payload["total_scans"])
	assert.Equal(t, 3, payload["total_opps"])
}

func TestOpportunitiesEndpointHonorsLimit(t *testing.T) {
	opps := make([]eventlog.OpportunityRow, 10)
	for i := range opps {
		opps[i] = eventlog.OpportunityRow{Name: fmt.Sprintf("opp-%d", i), Scanner: "threshold"}
	}

	ts := newTestServer(t, &fakeEventLog{opps: opps})

	resp, err := http.Get(ts.URL + "/api/opportunities?limit=3")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rows []eventlog.OpportunityRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 3)
}

func TestIncidentsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeEventLog{})

	resp, err := http.Get(ts.URL + "/api/incidents")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rows []eventlog.IncidentRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "partial_fill", rows[0].Type)
}

func TestDiagnosticsQueryFailure(t *testing.T) {
	ts := newTestServer(t, &fakeEventLog{err: fmt.Errorf("db closed")})

	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestNoEventLogOmitsAPI(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
