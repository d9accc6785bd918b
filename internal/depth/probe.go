package depth

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// BookFetcher fetches a token's order book.
type BookFetcher interface {
	OrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error)
}

// RiskRecorder receives the depth probe's side effects on the kill-switch
// counters.
type RiskRecorder interface {
	Latency(ms float64)
	ThinBook(thin bool)
	APIError()
}

// CheckRecorder persists depth-check rows.
type CheckRecorder interface {
	LogDepthCheck(check *Check) error
}

// Check is the recorded outcome of a single depth probe.
type Check struct {
	TokenID     string
	Spread      float64
	AskDepthUSD float64
	VWAPCost    float64
	DepthOK     bool
	SpreadOK    bool
}

// Config holds depth probe configuration.
type Config struct {
	MaxSpread   float64
	MinDepthUSD float64
	Books       BookFetcher
	Risk        RiskRecorder
	Recorder    CheckRecorder
	Logger      *zap.Logger
}

// Probe validates a leg against live order-book depth before execution: one
// book fetch, a VWAP sweep over the ask ladder, and a top-of-book spread
// check.
type Probe struct {
	cfg Config
}

// noBidsSpread stands in for the spread when one book side is empty.
const noBidsSpread = 999.0

// New creates a depth probe.
func New(cfg Config) (*Probe, error) {
	if cfg.Books == nil {
		return nil, fmt.Errorf("book fetcher cannot be nil")
	}
	if cfg.Risk == nil {
		return nil, fmt.Errorf("risk recorder cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Probe{cfg: cfg}, nil
}

// Verify checks whether targetUSD can be bought on tokenID's book within the
// configured spread and depth bounds. Returns pass plus a reject reason.
func (p *Probe) Verify(ctx context.Context, tokenID string, targetUSD float64) (bool, string) {
	start := time.Now()
	book, err := p.cfg.Books.OrderBook(ctx, tokenID)
	elapsed := float64(time.Since(start).Milliseconds())
	p.cfg.Risk.Latency(elapsed)
	DepthChecks.Inc()

	if err != nil {
		p.cfg.Risk.APIError()
		p.cfg.Risk.ThinBook(true)
		DepthCheckFailures.WithLabelValues("api_error").Inc()

		p.cfg.Logger.Warn("depth-check-gateway-error",
			zap.String("token_id", tokenID),
			zap.Error(err))

		return false, fmt.Sprintf("depth_check_error: %v", err)
	}

	asks := cleanLevels(book.Asks)
	if len(asks) == 0 {
		p.cfg.Risk.ThinBook(true)
		p.record(&Check{TokenID: tokenID, Spread: noBidsSpread})
		DepthCheckFailures.WithLabelValues("no_asks").Inc()

		return false, "no_asks"
	}

	spread := bestSpread(cleanLevels(book.Bids), asks)
	spreadOK := spread <= p.cfg.MaxSpread

	bestAsk := asks[0].Price
	quantity := targetUSD / bestAsk
	cost, enough := VWAPCost(asks, quantity)

	askDepthUSD := 0.0
	for _, l := range asks {
		askDepthUSD += l.Price * l.Size
	}
	depthOK := enough && askDepthUSD >= p.cfg.MinDepthUSD

	p.cfg.Risk.ThinBook(!depthOK)
	p.record(&Check{
		TokenID:     tokenID,
		Spread:      spread,
		AskDepthUSD: askDepthUSD,
		VWAPCost:    cost,
		DepthOK:     depthOK,
		SpreadOK:    spreadOK,
	})

	if !spreadOK {
		DepthCheckFailures.WithLabelValues("spread_too_wide").Inc()
		return false, fmt.Sprintf("spread_too_wide (%.4f)", spread)
	}
	if !depthOK {
		DepthCheckFailures.WithLabelValues("insufficient_depth").Inc()
		return false, fmt.Sprintf("insufficient_depth ($%.2f < $%.2f)", askDepthUSD, p.cfg.MinDepthUSD)
	}

	return true, "ok"
}

func (p *Probe) record(check *Check) {
	if p.cfg.Recorder == nil {
		return
	}

	if err := p.cfg.Recorder.LogDepthCheck(check); err != nil {
		p.cfg.Logger.Warn("depth-check-log-failed", zap.Error(err))
	}
}

// VWAPCost sweeps the ask ladder in ascending-price order, consuming sizes up
// to quantity. Returns the total cost of the consumed shares and whether the
// ladder held enough size. Levels must already be clean (positive sizes) and
// sorted ascending.
func VWAPCost(asks []types.Level, quantity float64) (float64, bool) {
	if quantity <= 0 {
		return 0, false
	}

	remaining := quantity
	cost := 0.0
	for _, l := range asks {
		take := remaining
		if l.Size < take {
			take = l.Size
		}
		cost += take * l.Price
		remaining -= take
		if remaining <= 0 {
			return cost, true
		}
	}

	return cost, false
}

// bestSpread returns best ask minus best bid, or a large stand-in when the
// bid side is empty.
func bestSpread(bids, asks []types.Level) float64 {
	if len(bids) == 0 || len(asks) == 0 {
		return noBidsSpread
	}

	bestBid := bids[0].Price
	for _, b := range bids {
		if b.Price > bestBid {
			bestBid = b.Price
		}
	}

	return asks[0].Price - bestBid
}

// cleanLevels drops zero-size levels and sorts ascending by price.
func cleanLevels(levels []types.Level) []types.Level {
	out := make([]types.Level, 0, len(levels))
	for _, l := range levels {
		if l.Size > 0 && l.Price > 0 {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })

	return out
}
