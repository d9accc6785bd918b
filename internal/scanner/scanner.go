// Package scanner implements the hedge discovery passes: event-group
// arbitrage, threshold pairs, and known structural patterns.
package scanner

import (
	"context"

	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// MarketSource is the read side of the market gateway the scanners consume.
type MarketSource interface {
	Events(ctx context.Context, limit int) ([]types.Event, error)
	TrendingMarkets(ctx context.Context, limit int) ([]types.Market, error)
	SearchMarkets(ctx context.Context, query string, limit int) ([]types.Market, error)
}

// IncidentRecorder receives scanner-raised incidents.
type IncidentRecorder interface {
	LogIncident(kind, details, killReason string) error
}

// Scanner is one discovery pass. Scan returns the opportunities found and the
// number of markets (or patterns) it inspected.
type Scanner interface {
	Tag() hedge.ScannerTag
	Scan(ctx context.Context) ([]*hedge.Opportunity, int, error)
}
