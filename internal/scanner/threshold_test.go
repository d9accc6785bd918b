package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

func btcMarket(id, question string, yes float64, volume float64) types.Market {
	return types.Market{
		ID:         id,
		Question:   question,
		YesPrice:   yes,
		NoPrice:    1 - yes,
		YesTokenID: id + "-yes",
		NoTokenID:  id + "-no",
		Volume24h:  volume,
		Active:     true,
	}
}

func newThresholdScanner(t *testing.T, source MarketSource, assets []Asset) *ThresholdScanner {
	t.Helper()

	s, err := NewThresholdScanner(&ThresholdConfig{
		Source:    source,
		Logger:    zap.NewNop(),
		Assets:    assets,
		MinProfit: 0.003,
		FeeRate:   0.02,
	})
	require.NoError(t, err)

	return s
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		asset    string
		expected float64
		ok       bool
	}{
		{"comma grouped", "Will Bitcoin be above $72,000 on Friday?", "Bitcoin", 72000, true},
		{"comma grouped no dollar", "Bitcoin above 68,000 this week?", "Bitcoin", 68000, true},
		{"k suffix", "Bitcoin to 100k by June?", "Bitcoin", 100000, true},
		{"fractional k suffix", "Will Ethereum reach 4.5k?", "Ethereum", 4500, true},
		{"m suffix", "Bitcoin market cap adds 1.5m holders?", "Bitcoin", 1500000, true},
		{"case insensitive asset", "will BITCOIN be above $90,000?", "Bitcoin", 90000, true},
		{"asset missing", "Will Ethereum reach $5,000?", "Bitcoin", 0, false},
		{"no number", "Will Bitcoin dip this month?", "Bitcoin", 0, false},
		{"plain number without separator", "Bitcoin above 68000?", "Bitcoin", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := ParseThreshold(tt.text, tt.asset)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, value)
			}
		})
	}
}

func TestThresholdPairScan(t *testing.T) {
	source := &fakeSource{markets: []types.Market{
		btcMarket("m-low", "Will Bitcoin be above $68,000 on Friday?", 0.72, 9000),
		btcMarket("m-high", "Will Bitcoin be above $72,000 on Friday?", 0.78, 7000),
	}}

	s := newThresholdScanner(t, source, []Asset{{
		Name:        "Bitcoin",
		SearchTerms: []string{"Bitcoin above"},
		Levels:      []float64{68000, 72000},
	}})

	opps, checked, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, hedge.TypeThreshold, opp.Type)
	assert.Equal(t, "Bitcoin $68000 vs $72000", opp.Name)
	assert.InDelta(t, 0.94, opp.TotalCost, 1e-9)
	assert.Equal(t, 1.0, opp.MinPayout)
	assert.Equal(t, 2.0, opp.MaxPayout)
	assert.InDelta(t, 0.06/0.94-0.04, opp.NetProfitPerDollar, 1e-9)

	require.Len(t, opp.Legs, 2)
	assert.Equal(t, "m-high", opp.Legs[0].MarketID)
	assert.Equal(t, types.SideNo, opp.Legs[0].Side)
	assert.Equal(t, 0.22, opp.Legs[0].Price)
	assert.Equal(t, "m-low", opp.Legs[1].MarketID)
	assert.Equal(t, types.SideYes, opp.Legs[1].Side)
	assert.Equal(t, 0.72, opp.Legs[1].Price)
}

func TestThresholdSkipsExpensivePairs(t *testing.T) {
	// NO(high) + YES(low) = 0.45 + 0.60 >= 1 is no hedge at all.
	source := &fakeSource{markets: []types.Market{
		btcMarket("m-low", "Will Bitcoin be above $68,000 on Friday?", 0.60, 9000),
		btcMarket("m-high", "Will Bitcoin be above $72,000 on Friday?", 0.55, 7000),
	}}

	s := newThresholdScanner(t, source, []Asset{{
		Name:        "Bitcoin",
		SearchTerms: []string{"Bitcoin above"},
		Levels:      []float64{68000, 72000},
	}})

	opps, _, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestFetchAssetMarketsPrefersHigherVolume(t *testing.T) {
	source := &fakeSource{markets: []types.Market{
		btcMarket("m-thin", "Will Bitcoin be above $68,000 on Friday?", 0.70, 500),
		btcMarket("m-deep", "Bitcoin above $68,000 by end of week?", 0.72, 9000),
		btcMarket("m-high", "Will Bitcoin be above $72,000 on Friday?", 0.78, 7000),
	}}

	s := newThresholdScanner(t, source, nil)

	pairs, err := s.fetchAssetMarkets(context.Background(), Asset{
		Name:        "Bitcoin",
		SearchTerms: []string{"Bitcoin above"},
		Levels:      []float64{68000, 72000},
	})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, 68000.0, pairs[0].threshold)
	assert.Equal(t, "m-deep", pairs[0].market.ID)
	assert.Equal(t, 72000.0, pairs[1].threshold)
}

func TestFetchAssetMarketsTrendingFallback(t *testing.T) {
	source := &fakeSource{
		markets: []types.Market{
			btcMarket("m-low", "Will Bitcoin be above $68,000 on Friday?", 0.72, 9000),
		},
		trending: []types.Market{
			btcMarket("m-high", "Bitcoin hits $72,000 before July?", 0.78, 7000),
		},
	}

	s := newThresholdScanner(t, source, nil)

	pairs, err := s.fetchAssetMarkets(context.Background(), Asset{
		Name:        "Bitcoin",
		SearchTerms: []string{"Bitcoin above"},
		Levels:      []float64{68000, 72000},
	})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestFetchAssetMarketsLevelFilter(t *testing.T) {
	source := &fakeSource{markets: []types.Market{
		btcMarket("m-low", "Will Bitcoin be above $68,000 on Friday?", 0.72, 9000),
		btcMarket("m-odd", "Will Bitcoin be above $80,000 on Friday?", 0.85, 6000),
		btcMarket("m-high", "Will Bitcoin be above $72,000 on Friday?", 0.78, 7000),
	}}

	s := newThresholdScanner(t, source, nil)

	pairs, err := s.fetchAssetMarkets(context.Background(), Asset{
		Name:        "Bitcoin",
		SearchTerms: []string{"Bitcoin above"},
		Levels:      []float64{68000, 72000},
	})
	require.NoError(t, err)
	require.Len(t, pairs, 2, "80,000 is not near a canonical level")
	assert.Equal(t, 68000.0, pairs[0].threshold)
	assert.Equal(t, 72000.0, pairs[1].threshold)
}

func TestFetchAssetMarketsSkipsClosed(t *testing.T) {
	closed := btcMarket("m-closed", "Will Bitcoin be above $68,000 on Friday?", 0.72, 9000)
	closed.Closed = true

	s := newThresholdScanner(t, &fakeSource{markets: []types.Market{closed}}, nil)

	pairs, err := s.fetchAssetMarkets(context.Background(), Asset{
		Name:        "Bitcoin",
		SearchTerms: []string{"Bitcoin above"},
	})
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestThresholdScanDeterministic(t *testing.T) {
	source := &fakeSource{markets: []types.Market{
		btcMarket("m-1", "Will Bitcoin be above $68,000 on Friday?", 0.60, 9000),
		btcMarket("m-2", "Will Bitcoin be above $72,000 on Friday?", 0.70, 7000),
		btcMarket("m-3", "Will Bitcoin be above $80,000 on Friday?", 0.82, 5000),
	}}

	s := newThresholdScanner(t, source, []Asset{{
		Name:        "Bitcoin",
		SearchTerms: []string{"Bitcoin above"},
		Levels:      []float64{68000, 72000, 80000},
	}})

	first, _, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, _, err := s.Scan(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].AlertKey(), second[i].AlertKey())
		assert.Equal(t, first[i].TotalCost, second[i].TotalCost)
	}
}
