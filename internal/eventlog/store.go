package eventlog

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/mselser95/polymarket-hedge/internal/depth"
	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// Incident kinds.
const (
	IncidentKillSwitch     = "kill_switch"
	IncidentPartialFill    = "partial_fill"
	IncidentScanError      = "scan_error"
	IncidentOrderError     = "order_error"
	IncidentMisExclusivity = "mis_exclusivity"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    scan_number INTEGER,
    scanner TEXT,
    markets_checked INTEGER DEFAULT 0,
    opportunities_found INTEGER DEFAULT 0,
    latency_ms REAL,
    error TEXT
);

CREATE TABLE IF NOT EXISTS opportunities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    name TEXT NOT NULL,
    scanner TEXT,
    hedge_type TEXT,
    total_cost REAL,
    min_payout REAL,
    guaranteed_profit REAL,
    net_profit_per_dollar REAL,
    confidence TEXT,
    market_ids TEXT,
    executed INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    opportunity_name TEXT,
    market_id TEXT NOT NULL,
    token_id TEXT,
    side TEXT NOT NULL,
    price REAL,
    size REAL,
    order_id TEXT,
    status TEXT,
    error TEXT,
    latency_ms REAL
);

CREATE TABLE IF NOT EXISTS fills (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    order_id TEXT,
    market_id TEXT NOT NULL,
    side TEXT NOT NULL,
    price REAL,
    size REAL,
    fee_est REAL
);

CREATE TABLE IF NOT EXISTS incidents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    incident_type TEXT NOT NULL,
    details TEXT,
    kill_reason TEXT
);

CREATE TABLE IF NOT EXISTS depth_checks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    token_id TEXT NOT NULL,
    spread REAL,
    ask_depth_usd REAL,
    vwap_cost REAL,
    depth_ok INTEGER,
    spread_ok INTEGER
);

CREATE TABLE IF NOT EXISTS pnl (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TEXT NOT NULL,
    trade_budget REAL,
    exposure REAL,
    realized REAL DEFAULT 0,
    notes TEXT
);
`

// Store is the append-only event log: seven relations, insert-only, one
// implicit transaction per write so a crash between ticks loses at most the
// in-flight row. A dashboard process may read the file concurrently.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Order is one order attempt row.
type Order struct {
	OpportunityName string
	MarketID        string
	TokenID         string
	Side            types.Side
	Price           float64
	Size            float64
	OrderID         string
	Status          types.OrderStatus
	Error           string
	LatencyMs       float64
}

// Fill is one recorded fill row.
type Fill struct {
	OrderID  string
	MarketID string
	Side     types.Side
	Price    float64
	Size     float64
	FeeEst   float64
}

// Stats holds counts for health reporting.
type Stats struct {
	TotalScans     int
	TotalOpps      int
	TotalExecuted  int
	TotalOrders    int
	TotalErrors    int
	TotalIncidents int
}

// OpportunityRow is a persisted opportunity, as read back for diagnostics.
type OpportunityRow struct {
	TS                 string   `json:"ts"`
	Name               string   `json:"name"`
	Scanner            string   `json:"scanner"`
	HedgeType          string   `json:"hedge_type"`
	TotalCost          float64  `json:"total_cost"`
	MinPayout          float64  `json:"min_payout"`
	GuaranteedProfit   float64  `json:"guaranteed_profit"`
	NetProfitPerDollar float64  `json:"net_profit_per_dollar"`
	Confidence         string   `json:"confidence"`
	MarketIDs          []string `json:"market_ids"`
	Executed           bool     `json:"executed"`
}

// IncidentRow is a persisted incident.
type IncidentRow struct {
	TS         string `json:"ts"`
	Type       string `json:"type"`
	Details    string `json:"details"`
	KillReason string `json:"kill_reason,omitempty"`
}

// Open opens (or creates) the event log at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying store handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// LogScan records one scanner pass of one tick.
func (s *Store) LogScan(scanNumber int, scanner hedge.ScannerTag, marketsChecked, oppsFound int, latencyMs float64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO scans (ts, scan_number, scanner, markets_checked, opportunities_found, latency_ms, error)
		 VALUES (?,?,?,?,?,?,?)`,
		now(), scanNumber, string(scanner), marketsChecked, oppsFound, latencyMs, errMsg)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	EventsLogged.WithLabelValues("scan").Inc()

	return nil
}

// LogOpportunity records a discovered opportunity. Market ids are serialised
// in leg order.
func (s *Store) LogOpportunity(opp *hedge.Opportunity, executed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marketIDs, err := json.Marshal(opp.MarketIDs())
	if err != nil {
		return fmt.Errorf("marshal market ids: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO opportunities (ts, name, scanner, hedge_type, total_cost, min_payout,
		 guaranteed_profit, net_profit_per_dollar, confidence, market_ids, executed)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		now(), opp.Name, string(opp.Scanner), string(opp.Type), opp.TotalCost, opp.MinPayout,
		opp.GuaranteedProfit, opp.NetProfitPerDollar, string(opp.Confidence), string(marketIDs),
		boolInt(executed))
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	EventsLogged.WithLabelValues("opportunity").Inc()

	return nil
}

// LogOrder records one order attempt.
func (s *Store) LogOrder(o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO orders (ts, opportunity_name, market_id, token_id, side, price, size,
		 order_id, status, error, latency_ms) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		now(), o.OpportunityName, o.MarketID, o.TokenID, string(o.Side), o.Price, o.Size,
		o.OrderID, string(o.Status), o.Error, o.LatencyMs)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	EventsLogged.WithLabelValues("order").Inc()

	return nil
}

// LogFill records one fill.
func (s *Store) LogFill(f *Fill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO fills (ts, order_id, market_id, side, price, size, fee_est)
		 VALUES (?,?,?,?,?,?,?)`,
		now(), f.OrderID, f.MarketID, string(f.Side), f.Price, f.Size, f.FeeEst)
	if err != nil {
		return fmt.Errorf("insert fill: %w", err)
	}

	EventsLogged.WithLabelValues("fill").Inc()

	return nil
}

// LogIncident records an incident row.
func (s *Store) LogIncident(kind, details, killReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO incidents (ts, incident_type, details, kill_reason) VALUES (?,?,?,?)`,
		now(), kind, details, killReason)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}

	EventsLogged.WithLabelValues("incident").Inc()

	return nil
}

// LogDepthCheck records one depth probe outcome.
func (s *Store) LogDepthCheck(c *depth.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO depth_checks (ts, token_id, spread, ask_depth_usd, vwap_cost, depth_ok, spread_ok)
		 VALUES (?,?,?,?,?,?,?)`,
		now(), c.TokenID, c.Spread, c.AskDepthUSD, c.VWAPCost, boolInt(c.DepthOK), boolInt(c.SpreadOK))
	if err != nil {
		return fmt.Errorf("insert depth check: %w", err)
	}

	EventsLogged.WithLabelValues("depth_check").Inc()

	return nil
}

// LogPnL records a budget/exposure snapshot. Realized stays zero until a
// settlement feed exists.
func (s *Store) LogPnL(budget, exposure, realized float64, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO pnl (ts, trade_budget, exposure, realized, notes) VALUES (?,?,?,?,?)`,
		now(), budget, exposure, realized, notes)
	if err != nil {
		return fmt.Errorf("insert pnl: %w", err)
	}

	EventsLogged.WithLabelValues("pnl").Inc()

	return nil
}

// Stats returns aggregate counts for health reporting.
func (s *Store) Stats() (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM scans`, &st.TotalScans},
		{`SELECT COUNT(*) FROM opportunities`, &st.TotalOpps},
		{`SELECT COUNT(*) FROM opportunities WHERE executed = 1`, &st.TotalExecuted},
		{`SELECT COUNT(*) FROM orders`, &st.TotalOrders},
		{`SELECT COUNT(*) FROM orders WHERE error != '' AND error IS NOT NULL`, &st.TotalErrors},
		{`SELECT COUNT(*) FROM incidents`, &st.TotalIncidents},
	}

	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	return st, nil
}

// RecentOpportunities returns the newest opportunity rows, newest first.
func (s *Store) RecentOpportunities(limit int) ([]OpportunityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT ts, name, scanner, hedge_type, total_cost, min_payout, guaranteed_profit,
		 net_profit_per_dollar, confidence, market_ids, executed
		 FROM opportunities ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query opportunities: %w", err)
	}
	defer rows.Close()

	var out []OpportunityRow
	for rows.Next() {
		var r OpportunityRow
		var marketIDs string
		var executed int
		err := rows.Scan(&r.TS, &r.Name, &r.Scanner, &r.HedgeType, &r.TotalCost, &r.MinPayout,
			&r.GuaranteedProfit, &r.NetProfitPerDollar, &r.Confidence, &marketIDs, &executed)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity row: %w", err)
		}

		_ = json.Unmarshal([]byte(marketIDs), &r.MarketIDs)
		r.Executed = executed != 0
		out = append(out, r)
	}

	return out, rows.Err()
}

// RecentIncidents returns the newest incident rows, newest first.
func (s *Store) RecentIncidents(limit int) ([]IncidentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT ts, incident_type, details, kill_reason FROM incidents ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	var out []IncidentRow
	for rows.Next() {
		var r IncidentRow
		if err := rows.Scan(&r.TS, &r.Type, &r.Details, &r.KillReason); err != nil {
			return nil, fmt.Errorf("scan incident row: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
