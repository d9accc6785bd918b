package types

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Level is a single price level of a CLOB order book.
type Level struct {
	Price float64
	Size  float64
}

// UnmarshalJSON custom unmarshaler: the CLOB API serialises levels as
// {"price":"0.72","size":"100"}.
func (l *Level) UnmarshalJSON(data []byte) error {
	var raw struct {
		Price string `json:"price"`
		Size  string `json:"size"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	price, err := strconv.ParseFloat(raw.Price, 64)
	if err != nil {
		return err
	}

	size, err := strconv.ParseFloat(raw.Size, 64)
	if err != nil {
		return err
	}

	l.Price = price
	l.Size = size

	return nil
}

// OrderBook is a snapshot of one token's book. Level ordering follows the
// venue response; consumers sort as needed.
type OrderBook struct {
	TokenID string  `json:"asset_id"`
	Asks    []Level `json:"asks"`
	Bids    []Level `json:"bids"`
}

// BestAsk returns the lowest-priced ask with non-zero size.
func (b *OrderBook) BestAsk() (Level, bool) {
	return bestLevel(b.Asks, func(a, b float64) bool { return a < b })
}

// BestBid returns the highest-priced bid with non-zero size.
func (b *OrderBook) BestBid() (Level, bool) {
	return bestLevel(b.Bids, func(a, b float64) bool { return a > b })
}

func bestLevel(levels []Level, better func(a, b float64) bool) (Level, bool) {
	var best Level
	found := false

	for _, l := range levels {
		if l.Size <= 0 {
			continue
		}
		if !found || better(l.Price, best.Price) {
			best = l
			found = true
		}
	}

	return best, found
}
