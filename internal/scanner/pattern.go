package scanner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// Pattern search hits are narrow queries; only the top result matters.
const patternSearchLimit = 5

// Pattern is one pre-researched hedge relation between two markets found by
// search term.
type Pattern struct {
	Name        string     `json:"name"`
	SearchA     string     `json:"search_a"`
	SearchB     string     `json:"search_b"`
	HedgeType   hedge.Type `json:"hedge_type"`
	Description string     `json:"description,omitempty"`
}

// DefaultPatterns returns the built-in pattern library.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:      "Fed Rates: Decrease vs Increase",
			SearchA:   "Fed decrease interest rates",
			SearchB:   "Fed increase interest rates",
			HedgeType: hedge.TypeComplementary,
		},
		{
			Name:      "Fed Rates: No Change vs Increase",
			SearchA:   "no change in Fed interest rates",
			SearchB:   "Fed increase interest rates",
			HedgeType: hedge.TypeComplementary,
		},
		{
			Name:      "Trump Nom: Shelton vs No One",
			SearchA:   "Trump nominate Judy Shelton",
			SearchB:   "Trump nominate no one",
			HedgeType: hedge.TypeExclusive,
		},
		{
			Name:      "Trump Nom: Miran vs No One",
			SearchA:   "Trump nominate Stephen Miran",
			SearchB:   "Trump nominate no one",
			HedgeType: hedge.TypeExclusive,
		},
		{
			Name:      "Iran Strike Timeframe",
			SearchA:   "strikes Iran by February",
			SearchB:   "strikes Iran by March",
			HedgeType: hedge.TypeSuperset,
		},
	}
}

// PatternScanner re-checks a library of named hedge relations every pass.
type PatternScanner struct {
	source MarketSource
	logger *zap.Logger

	patterns  []Pattern
	minProfit float64
	feeRate   float64
}

// PatternConfig holds PatternScanner configuration.
type PatternConfig struct {
	Source MarketSource
	Logger *zap.Logger
	// PatternsFile optionally extends the built-in library with a JSON array
	// of discovered patterns.
	PatternsFile string
	MinProfit    float64
	FeeRate      float64
}

// NewPatternScanner creates a pattern scanner. A missing or unreadable
// patterns file is not an error; the built-in library still runs.
func NewPatternScanner(cfg *PatternConfig) (*PatternScanner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("market source cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	patterns := DefaultPatterns()

	if cfg.PatternsFile != "" {
		discovered, err := loadPatterns(cfg.PatternsFile)
		if err != nil {
			cfg.Logger.Warn("patterns-file-load-failed",
				zap.String("path", cfg.PatternsFile),
				zap.Error(err))
		} else if len(discovered) > 0 {
			patterns = append(patterns, discovered...)
			cfg.Logger.Info("patterns-file-loaded",
				zap.String("path", cfg.PatternsFile),
				zap.Int("patterns", len(discovered)))
		}
	}

	return &PatternScanner{
		source:    cfg.Source,
		logger:    cfg.Logger,
		patterns:  patterns,
		minProfit: cfg.MinProfit,
		feeRate:   cfg.FeeRate,
	}, nil
}

func loadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read patterns file: %w", err)
	}

	var patterns []Pattern
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("parse patterns file: %w", err)
	}

	return patterns, nil
}

// Tag identifies this scanner.
func (s *PatternScanner) Tag() hedge.ScannerTag {
	return hedge.ScannerPattern
}

// PatternCount returns the number of loaded patterns, built-in plus file.
func (s *PatternScanner) PatternCount() int {
	return len(s.patterns)
}

// Scan evaluates every pattern against its current top search hits. The
// second return value is the number of patterns checked.
func (s *PatternScanner) Scan(ctx context.Context) ([]*hedge.Opportunity, int, error) {
	start := time.Now()
	defer func() {
		ScanDuration.WithLabelValues(string(s.Tag())).Observe(time.Since(start).Seconds())
		ScansTotal.WithLabelValues(string(s.Tag())).Inc()
	}()

	var opportunities []*hedge.Opportunity

	for _, pattern := range s.patterns {
		marketA := s.findMarket(ctx, pattern.SearchA)
		marketB := s.findMarket(ctx, pattern.SearchB)

		if marketA == nil || marketB == nil {
			continue
		}
		if marketA.Closed || marketB.Closed {
			continue
		}

		if opp := s.evaluate(pattern, marketA, marketB); opp != nil {
			opportunities = append(opportunities, opp)
		}
	}

	OpportunitiesFound.WithLabelValues(string(s.Tag())).Add(float64(len(opportunities)))
	MarketsChecked.WithLabelValues(string(s.Tag())).Add(float64(len(s.patterns)))

	s.logger.Debug("pattern-scan-complete",
		zap.Int("patterns", len(s.patterns)),
		zap.Int("opportunities", len(opportunities)))

	return opportunities, len(s.patterns), nil
}

func (s *PatternScanner) findMarket(ctx context.Context, search string) *types.Market {
	markets, err := s.source.SearchMarkets(ctx, search, patternSearchLimit)
	if err != nil {
		s.logger.Warn("pattern-search-failed",
			zap.String("term", search),
			zap.Error(err))
		return nil
	}
	if len(markets) == 0 {
		return nil
	}

	return &markets[0]
}

// evaluate prices the relation. Leg order matters for superset: the weaker
// claim's YES first, the stronger claim's NO second.
func (s *PatternScanner) evaluate(pattern Pattern, a, b *types.Market) *hedge.Opportunity {
	var legs []hedge.Leg
	var maxPayout float64

	switch pattern.HedgeType {
	case hedge.TypeComplementary:
		// At least one of A, B resolves YES.
		legs = []hedge.Leg{legFor(a, types.SideYes), legFor(b, types.SideYes)}
		maxPayout = 1.0

	case hedge.TypeExclusive:
		// A and B cannot both resolve YES.
		legs = []hedge.Leg{legFor(a, types.SideNo), legFor(b, types.SideNo)}
		maxPayout = 2.0

	case hedge.TypeSuperset:
		// A implies B: YES on B plus NO on A.
		legs = []hedge.Leg{legFor(b, types.SideYes), legFor(a, types.SideNo)}
		maxPayout = 2.0

	default:
		s.logger.Warn("pattern-unknown-hedge-type",
			zap.String("pattern", pattern.Name),
			zap.String("hedge_type", string(pattern.HedgeType)))
		return nil
	}

	cost := legs[0].Price + legs[1].Price
	if cost <= 0 || cost >= 1.0 {
		return nil
	}

	opp := hedge.New(pattern.Name, hedge.ScannerPattern, pattern.HedgeType, legs, 1.0, maxPayout, s.feeRate)
	if opp.NetProfitPerDollar <= s.minProfit {
		return nil
	}

	return opp
}

func legFor(m *types.Market, side types.Side) hedge.Leg {
	return hedge.Leg{
		MarketID: m.ID,
		Question: m.Question,
		Side:     side,
		Price:    m.Price(side),
		TokenID:  m.TokenID(side),
		Volume:   m.Volume24h,
	}
}
