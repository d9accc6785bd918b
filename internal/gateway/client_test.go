package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/pkg/cache"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

const marketsPayload = `[
	{"id": "m1", "question": "Bitcoin above 68000 on Friday?", "slug": "btc-68k", "active": true,
	 "outcomePrices": "[\"0.72\", \"0.28\"]", "clobTokenIds": "[\"t1y\", \"t1n\"]", "volume24hr": 9000},
	{"id": "m2", "question": "Bitcoin above 72000 on Friday?", "slug": "btc-72k", "active": true,
	 "outcomePrices": "[\"0.78\", \"0.22\"]", "clobTokenIds": "[\"t2y\", \"t2n\"]", "volume24hr": 7000},
	{"id": "m3", "question": "Will Ethereum reach 5000?", "slug": "eth-5k", "active": true,
	 "outcomePrices": "[\"0.40\", \"0.60\"]", "clobTokenIds": "[\"t3y\", \"t3n\"]", "volume24hr": 3000}
]`

func newTestClient(t *testing.T, handler http.Handler, c cache.Cache) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
		RateLimit: 1000,
		Burst:     1000,
		Cache:     c,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)

	return client
}

func TestEvents(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("closed"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			{"id": "e1", "title": "Who will win?", "volume24hr": 12000, "markets": [
				{"id": "m1", "question": "A?", "active": true, "outcomePrices": "[\"0.3\",\"0.7\"]", "clobTokenIds": "[\"a\",\"b\"]", "volume24hr": 6000}
			]}
		]`))
	}), nil)

	events, err := client.Events(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Who will win?", events[0].Title)
	require.Len(t, events[0].Markets, 1)
	assert.Equal(t, 0.3, events[0].Markets[0].YesPrice)
}

func TestTrendingMarkets(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "volume24hr", r.URL.Query().Get("order"))
		w.Write([]byte(marketsPayload))
	}), nil)

	markets, err := client.TrendingMarkets(context.Background(), 200)
	require.NoError(t, err)
	require.Len(t, markets, 3)
	assert.Equal(t, "t1y", markets[0].YesTokenID)
}

func TestSearchMarketsFiltersAndLimits(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketsPayload))
	}), nil)

	matches, err := client.SearchMarkets(context.Background(), "bitcoin above", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m1", matches[0].ID)
	assert.Equal(t, "m2", matches[1].ID)

	one, err := client.SearchMarkets(context.Background(), "bitcoin above", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestSearchMarketsUsesCache(t *testing.T) {
	var calls atomic.Int64
	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	defer c.Close()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(marketsPayload))
	}), c)

	_, err = client.SearchMarkets(context.Background(), "bitcoin", 10)
	require.NoError(t, err)
	c.(*cache.RistrettoCache).Wait()

	_, err = client.SearchMarkets(context.Background(), "ethereum", 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load(), "second term served from cache")
}

func TestGetReturnsAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}), nil)

	_, err := client.Events(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, types.IsTransientAPIError(err))
}
