package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected Market
	}{
		{
			name: "nested-string-arrays",
			payload: `{
				"id": "mkt-1",
				"question": "Will Bitcoin reach $100,000 by December 31?",
				"slug": "btc-100k",
				"active": true,
				"closed": false,
				"outcomePrices": "[\"0.72\", \"0.28\"]",
				"clobTokenIds": "[\"tok-yes\", \"tok-no\"]",
				"volume24hr": 15230.5
			}`,
			expected: Market{
				ID:         "mkt-1",
				Question:   "Will Bitcoin reach $100,000 by December 31?",
				Slug:       "btc-100k",
				Active:     true,
				YesPrice:   0.72,
				NoPrice:    0.28,
				YesTokenID: "tok-yes",
				NoTokenID:  "tok-no",
				Volume24h:  15230.5,
			},
		},
		{
			name: "plain-arrays-and-string-volume",
			payload: `{
				"id": "mkt-2",
				"question": "Test?",
				"active": true,
				"outcomePrices": ["0.30", "0.70"],
				"clobTokenIds": ["a", "b"],
				"volume": "5000"
			}`,
			expected: Market{
				ID:         "mkt-2",
				Question:   "Test?",
				Active:     true,
				YesPrice:   0.30,
				NoPrice:    0.70,
				YesTokenID: "a",
				NoTokenID:  "b",
				Volume24h:  5000,
			},
		},
		{
			name: "missing-no-token",
			payload: `{
				"id": "mkt-3",
				"question": "Single token?",
				"active": true,
				"outcomePrices": "[\"0.45\"]",
				"clobTokenIds": "[\"only-yes\"]"
			}`,
			expected: Market{
				ID:         "mkt-3",
				Question:   "Single token?",
				Active:     true,
				YesPrice:   0.45,
				YesTokenID: "only-yes",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Market
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &m))
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestMarketTradeable(t *testing.T) {
	m := Market{Active: true}
	assert.True(t, m.Tradeable())

	m.Closed = true
	assert.False(t, m.Tradeable())

	m = Market{Active: true, Resolved: true}
	assert.False(t, m.Tradeable())

	m = Market{Active: false}
	assert.False(t, m.Tradeable())
}

func TestEventUnmarshalJSON(t *testing.T) {
	payload := `{
		"id": "evt-1",
		"title": "Who will win the election?",
		"description": "Party nominee markets.",
		"volume24hr": "12500",
		"markets": [
			{"id": "m1", "question": "Candidate A?", "active": true, "outcomePrices": "[\"0.40\", \"0.60\"]", "clobTokenIds": "[\"t1\", \"t2\"]"},
			{"id": "m2", "question": "Candidate B?", "active": true, "outcomePrices": "[\"0.55\", \"0.45\"]", "clobTokenIds": "[\"t3\", \"t4\"]"}
		]
	}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(payload), &e))

	assert.Equal(t, "evt-1", e.ID)
	assert.Equal(t, "Who will win the election?", e.Title)
	assert.Equal(t, 12500.0, e.Volume24h)
	require.Len(t, e.Markets, 2)
	assert.Equal(t, 0.40, e.Markets[0].YesPrice)
	assert.Equal(t, "t3", e.Markets[1].YesTokenID)
}

func TestOrderBookUnmarshalJSON(t *testing.T) {
	payload := `{
		"asset_id": "tok-1",
		"asks": [{"price": "0.74", "size": "3"}, {"price": "0.72", "size": "5"}],
		"bids": [{"price": "0.70", "size": "10"}, {"price": "0.68", "size": "4"}]
	}`

	var book OrderBook
	require.NoError(t, json.Unmarshal([]byte(payload), &book))

	best, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, Level{Price: 0.72, Size: 5}, best)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, Level{Price: 0.70, Size: 10}, bid)
}

func TestOrderBookBestLevelsSkipZeroSize(t *testing.T) {
	book := OrderBook{
		Asks: []Level{{Price: 0.50, Size: 0}, {Price: 0.55, Size: 2}},
		Bids: []Level{},
	}

	best, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 0.55, best.Price)

	_, ok = book.BestBid()
	assert.False(t, ok)
}
