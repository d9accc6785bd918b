package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Market is a single binary-outcome market, normalised from the Gamma API.
// YES pays $1 if the market resolves affirmatively, NO pays $1 otherwise.
type Market struct {
	ID         string
	Question   string
	Slug       string
	YesPrice   float64
	NoPrice    float64
	YesTokenID string
	NoTokenID  string
	Volume24h  float64
	Active     bool
	Closed     bool
	Resolved   bool
	EndDate    time.Time
}

// UnmarshalJSON custom unmarshaler that absorbs Gamma API drift: prices and
// token ids arrive as JSON arrays nested inside JSON strings, volumes arrive
// as numbers or strings depending on the endpoint.
func (m *Market) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            string          `json:"id"`
		Question      string          `json:"question"`
		Slug          string          `json:"slug"`
		Active        bool            `json:"active"`
		Closed        bool            `json:"closed"`
		Resolved      bool            `json:"resolved"`
		EndDate       string          `json:"endDate"`
		OutcomePrices json.RawMessage `json:"outcomePrices"`
		ClobTokenIDs  json.RawMessage `json:"clobTokenIds"`
		Volume24h     json.RawMessage `json:"volume24hr"`
		Volume        json.RawMessage `json:"volume"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.ID = raw.ID
	m.Question = raw.Question
	m.Slug = raw.Slug
	m.Active = raw.Active
	m.Closed = raw.Closed
	m.Resolved = raw.Resolved

	if raw.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, raw.EndDate); err == nil {
			m.EndDate = t
		}
	}

	prices := flexStringArray(raw.OutcomePrices)
	if len(prices) > 0 {
		m.YesPrice, _ = strconv.ParseFloat(prices[0], 64)
	}
	if len(prices) > 1 {
		m.NoPrice, _ = strconv.ParseFloat(prices[1], 64)
	}

	tokens := flexStringArray(raw.ClobTokenIDs)
	if len(tokens) > 0 {
		m.YesTokenID = tokens[0]
	}
	if len(tokens) > 1 {
		m.NoTokenID = tokens[1]
	}

	m.Volume24h = flexFloat(raw.Volume24h)
	if m.Volume24h == 0 {
		m.Volume24h = flexFloat(raw.Volume)
	}

	return nil
}

// Tradeable reports whether the market can still be traded.
func (m *Market) Tradeable() bool {
	return m.Active && !m.Closed && !m.Resolved
}

// TokenID returns the token id for the given side. Empty when the venue has
// not published one.
func (m *Market) TokenID(side Side) string {
	if side == SideNo {
		return m.NoTokenID
	}
	return m.YesTokenID
}

// Price returns the current price for the given side.
func (m *Market) Price(side Side) float64 {
	if side == SideNo {
		return m.NoPrice
	}
	return m.YesPrice
}

// Event is an ordered group of markets sharing one title, e.g. every
// candidate market of a single election.
type Event struct {
	ID          string
	Title       string
	Description string
	Volume24h   float64
	Markets     []Market
}

// UnmarshalJSON handles the same numeric drift as Market.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Volume24h   json.RawMessage `json:"volume24hr"`
		Volume      json.RawMessage `json:"volume"`
		Markets     []Market        `json:"markets"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.ID = raw.ID
	e.Title = raw.Title
	e.Description = raw.Description
	e.Markets = raw.Markets
	e.Volume24h = flexFloat(raw.Volume24h)
	if e.Volume24h == 0 {
		e.Volume24h = flexFloat(raw.Volume)
	}

	return nil
}

// flexStringArray decodes a JSON array of strings that may itself be nested
// inside a JSON string ("[\"0.3\",\"0.7\"]"), and tolerates numeric elements.
func flexStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	payload := raw
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		payload = json.RawMessage(inner)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil
	}

	out := make([]string, 0, len(elems))
	for _, el := range elems {
		var s string
		if err := json.Unmarshal(el, &s); err != nil {
			s = strings.TrimSpace(string(el))
		}
		out = append(out, s)
	}

	return out
}

// flexFloat decodes a number that may arrive as a JSON number or a string.
func flexFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}

	f, _ = strconv.ParseFloat(s, 64)
	return f
}
