package scanner

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

const (
	// Per-term search result limit.
	searchLimit = 50
	// Trending fallback fetch size when direct search finds too few levels.
	trendingLimit = 200
	// Levels within this relative distance of a canonical level are kept.
	levelTolerance = 0.05
)

// Questions carry thresholds either with thousands separators ("$72,000") or
// as a short suffix form ("68k", "1.5m").
var (
	thresholdCommaPattern  = regexp.MustCompile(`\$?([0-9]{1,3}(?:,[0-9]{3})+)(?:\s*(k|m))?`)
	thresholdSuffixPattern = regexp.MustCompile(`\$?([0-9]+(?:\.[0-9]+)?)(\s*[km])`)
)

// ThresholdScanner pairs price-threshold markets of one asset: NO on the
// higher level plus YES on the lower level pays at least $1.
type ThresholdScanner struct {
	source MarketSource
	logger *zap.Logger

	assets    []Asset
	minProfit float64
	feeRate   float64
}

// ThresholdConfig holds ThresholdScanner configuration.
type ThresholdConfig struct {
	Source    MarketSource
	Logger    *zap.Logger
	Assets    []Asset
	MinProfit float64
	FeeRate   float64
}

// NewThresholdScanner creates a threshold scanner. An empty asset list falls
// back to the built-in universe.
func NewThresholdScanner(cfg *ThresholdConfig) (*ThresholdScanner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("market source cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	assets := cfg.Assets
	if len(assets) == 0 {
		assets = DefaultAssets()
	}

	return &ThresholdScanner{
		source:    cfg.Source,
		logger:    cfg.Logger,
		assets:    assets,
		minProfit: cfg.MinProfit,
		feeRate:   cfg.FeeRate,
	}, nil
}

// Tag identifies this scanner.
func (s *ThresholdScanner) Tag() hedge.ScannerTag {
	return hedge.ScannerThreshold
}

// thresholdMarket is one resolved level of an asset.
type thresholdMarket struct {
	threshold float64
	market    types.Market
}

// Scan walks the asset universe and emits threshold pair opportunities.
func (s *ThresholdScanner) Scan(ctx context.Context) ([]*hedge.Opportunity, int, error) {
	start := time.Now()
	defer func() {
		ScanDuration.WithLabelValues(string(s.Tag())).Observe(time.Since(start).Seconds())
		ScansTotal.WithLabelValues(string(s.Tag())).Inc()
	}()

	var opportunities []*hedge.Opportunity
	marketsChecked := 0

	for _, asset := range s.assets {
		pairs, err := s.fetchAssetMarkets(ctx, asset)
		if err != nil {
			s.logger.Warn("threshold-asset-scan-failed",
				zap.String("asset", asset.Name),
				zap.Error(err))
			continue
		}
		marketsChecked += len(pairs)

		if len(pairs) < 2 {
			continue
		}

		for i := 0; i < len(pairs); i++ {
			for j := i + 1; j < len(pairs); j++ {
				if opp := s.pairOpportunity(asset.Name, pairs[i], pairs[j]); opp != nil {
					opportunities = append(opportunities, opp)
				}
			}
		}
	}

	OpportunitiesFound.WithLabelValues(string(s.Tag())).Add(float64(len(opportunities)))
	MarketsChecked.WithLabelValues(string(s.Tag())).Add(float64(marketsChecked))

	s.logger.Debug("threshold-scan-complete",
		zap.Int("assets", len(s.assets)),
		zap.Int("markets_checked", marketsChecked),
		zap.Int("opportunities", len(opportunities)))

	return opportunities, marketsChecked, nil
}

// pairOpportunity evaluates the hedge NO(high) + YES(low). Above high both
// legs lose except YES(low); between the two levels both pay; below low only
// NO(high) pays. Every outcome returns at least $1.
func (s *ThresholdScanner) pairOpportunity(asset string, low, high thresholdMarket) *hedge.Opportunity {
	noHigh := high.market.NoPrice
	yesLow := low.market.YesPrice
	cost := noHigh + yesLow

	if cost <= 0 || cost >= 1.0 {
		return nil
	}

	legs := []hedge.Leg{
		{
			MarketID: high.market.ID,
			Question: high.market.Question,
			Side:     types.SideNo,
			Price:    noHigh,
			TokenID:  high.market.NoTokenID,
			Volume:   high.market.Volume24h,
		},
		{
			MarketID: low.market.ID,
			Question: low.market.Question,
			Side:     types.SideYes,
			Price:    yesLow,
			TokenID:  low.market.YesTokenID,
			Volume:   low.market.Volume24h,
		},
	}

	name := fmt.Sprintf("%s $%s vs $%s", asset, formatLevel(low.threshold), formatLevel(high.threshold))

	opp := hedge.New(name, hedge.ScannerThreshold, hedge.TypeThreshold, legs, 1.0, 2.0, s.feeRate)
	if opp.NetProfitPerDollar <= s.minProfit {
		return nil
	}

	return opp
}

// fetchAssetMarkets resolves the asset's threshold levels to markets, one per
// level, preferring the higher-volume market when levels collide.
func (s *ThresholdScanner) fetchAssetMarkets(ctx context.Context, asset Asset) ([]thresholdMarket, error) {
	if len(asset.SearchTerms) == 0 {
		return nil, nil
	}

	found := make(map[float64]types.Market)

	for _, term := range asset.SearchTerms {
		markets, err := s.source.SearchMarkets(ctx, term, searchLimit)
		if err != nil {
			s.logger.Warn("threshold-search-failed",
				zap.String("asset", asset.Name),
				zap.String("term", term),
				zap.Error(err))
			continue
		}
		s.collectThresholds(found, markets, asset.Name)
	}

	if len(found) < 2 {
		trending, err := s.source.TrendingMarkets(ctx, trendingLimit)
		if err != nil {
			s.logger.Warn("threshold-trending-failed",
				zap.String("asset", asset.Name),
				zap.Error(err))
		} else {
			s.collectThresholds(found, trending, asset.Name)
		}
	}

	if len(asset.Levels) > 0 {
		filtered := make(map[float64]types.Market)
		for threshold, m := range found {
			for _, level := range asset.Levels {
				base := level
				if base < 1 {
					base = 1
				}
				if abs(threshold-level)/base < levelTolerance {
					filtered[threshold] = m
					break
				}
			}
		}
		if len(filtered) > 0 {
			found = filtered
		}
	}

	result := make([]thresholdMarket, 0, len(found))
	for threshold, m := range found {
		result = append(result, thresholdMarket{threshold: threshold, market: m})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].threshold < result[j].threshold
	})

	return result, nil
}

func (s *ThresholdScanner) collectThresholds(found map[float64]types.Market, markets []types.Market, asset string) {
	for _, m := range markets {
		if m.Closed || m.Resolved {
			continue
		}

		threshold, ok := ParseThreshold(m.Question, asset)
		if !ok {
			continue
		}

		existing, seen := found[threshold]
		if !seen || m.Volume24h > existing.Volume24h {
			found[threshold] = m
		}
	}
}

// ParseThreshold extracts the price level from a market question. It accepts
// comma-grouped numbers ("$72,000") and k/m suffix forms ("68k", "1.5m") and
// rejects questions that do not mention the asset.
func ParseThreshold(text, asset string) (float64, bool) {
	t := strings.ToLower(text)
	if !strings.Contains(t, strings.ToLower(asset)) {
		return 0, false
	}

	for _, pattern := range []*regexp.Regexp{thresholdCommaPattern, thresholdSuffixPattern} {
		for _, match := range pattern.FindAllStringSubmatch(t, -1) {
			raw := strings.ReplaceAll(match[1], ",", "")
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}

			switch strings.TrimSpace(match[2]) {
			case "k":
				value *= 1e3
			case "m":
				value *= 1e6
			}

			if value >= 1 {
				return value, true
			}
		}
	}

	return 0, false
}

func formatLevel(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
