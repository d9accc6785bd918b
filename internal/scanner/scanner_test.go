package scanner

import (
	"context"
	"strings"

	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// fakeSource serves canned markets. SearchMarkets prefers an exact query
// lookup and otherwise substring-matches questions, mirroring the gateway.
type fakeSource struct {
	events   []types.Event
	markets  []types.Market
	trending []types.Market
	searches map[string][]types.Market
	err      error
}

func (f *fakeSource) Events(_ context.Context, _ int) ([]types.Event, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.events, nil
}

func (f *fakeSource) TrendingMarkets(_ context.Context, _ int) ([]types.Market, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.trending, nil
}

func (f *fakeSource) SearchMarkets(_ context.Context, query string, limit int) ([]types.Market, error) {
	if f.err != nil {
		return nil, f.err
	}

	if f.searches != nil {
		return f.searches[query], nil
	}

	needle := strings.ToLower(query)
	var out []types.Market
	for _, m := range f.markets {
		if strings.Contains(strings.ToLower(m.Question), needle) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}

	return out, nil
}

type fakeIncidents struct {
	kinds   []string
	details []string
}

func (f *fakeIncidents) LogIncident(kind, details, _ string) error {
	f.kinds = append(f.kinds, kind)
	f.details = append(f.details, details)

	return nil
}
