package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/internal/hedge"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// Overround band for the exclusivity heuristic. Groups whose summed YES
// prices sit far outside unity are not mutually exclusive outcome sets.
const (
	overroundLow  = 0.8
	overroundHigh = 1.2
)

// EventGroupScanner looks for exclusive outcome groups whose summed
// same-side prices are below unity.
type EventGroupScanner struct {
	source    MarketSource
	incidents IncidentRecorder
	logger    *zap.Logger

	eventLimit   int
	minVolume24h float64
	minProfit    float64
	feeRate      float64
	keywords     []string
}

// EventGroupConfig holds EventGroupScanner configuration.
type EventGroupConfig struct {
	Source       MarketSource
	Incidents    IncidentRecorder
	Logger       *zap.Logger
	EventLimit   int
	MinVolume24h float64
	MinProfit    float64
	FeeRate      float64
	Keywords     []string
}

// NewEventGroupScanner creates an event-group scanner.
func NewEventGroupScanner(cfg *EventGroupConfig) (*EventGroupScanner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("market source cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	limit := cfg.EventLimit
	if limit <= 0 {
		limit = 50
	}

	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		keywords = append(keywords, strings.ToLower(k))
	}

	return &EventGroupScanner{
		source:       cfg.Source,
		incidents:    cfg.Incidents,
		logger:       cfg.Logger,
		eventLimit:   limit,
		minVolume24h: cfg.MinVolume24h,
		minProfit:    cfg.MinProfit,
		feeRate:      cfg.FeeRate,
		keywords:     keywords,
	}, nil
}

// Tag identifies this scanner.
func (s *EventGroupScanner) Tag() hedge.ScannerTag {
	return hedge.ScannerEventGroup
}

// Scan walks the current event groups and emits group arbitrage
// opportunities.
func (s *EventGroupScanner) Scan(ctx context.Context) ([]*hedge.Opportunity, int, error) {
	start := time.Now()
	defer func() {
		ScanDuration.WithLabelValues(string(s.Tag())).Observe(time.Since(start).Seconds())
		ScansTotal.WithLabelValues(string(s.Tag())).Inc()
	}()

	events, err := s.source.Events(ctx, s.eventLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch events: %w", err)
	}

	var opportunities []*hedge.Opportunity
	marketsChecked := 0

	for _, event := range events {
		active := make([]types.Market, 0, len(event.Markets))
		for _, m := range event.Markets {
			if m.Tradeable() {
				active = append(active, m)
			}
		}
		marketsChecked += len(active)

		if len(active) < 2 {
			continue
		}

		if !s.isExclusive(event, active) {
			continue
		}

		totalVolume := 0.0
		for _, m := range active {
			totalVolume += m.Volume24h
		}
		if totalVolume < s.minVolume24h {
			continue
		}

		if len(active) < 3 {
			continue
		}

		if opp := s.groupStrategy(event, active, types.SideYes); opp != nil {
			opportunities = append(opportunities, opp)
		}
		if opp := s.groupStrategy(event, active, types.SideNo); opp != nil {
			opportunities = append(opportunities, opp)
		}
	}

	OpportunitiesFound.WithLabelValues(string(s.Tag())).Add(float64(len(opportunities)))
	MarketsChecked.WithLabelValues(string(s.Tag())).Add(float64(marketsChecked))

	s.logger.Debug("event-group-scan-complete",
		zap.Int("events", len(events)),
		zap.Int("markets_checked", marketsChecked),
		zap.Int("opportunities", len(opportunities)))

	return opportunities, marketsChecked, nil
}

// isExclusive applies the keyword heuristic plus the overround band. A group
// whose text says "exactly one wins" but whose YES prices do not sum near 1
// is flagged as a mis-exclusivity incident, not traded.
func (s *EventGroupScanner) isExclusive(event types.Event, active []types.Market) bool {
	text := strings.ToLower(event.Title + " " + event.Description)

	matched := false
	for _, keyword := range s.keywords {
		if strings.Contains(text, keyword) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	totalYes := 0.0
	for _, m := range active {
		totalYes += m.YesPrice
	}

	if totalYes < overroundLow || totalYes > overroundHigh {
		if s.incidents != nil {
			details := fmt.Sprintf("event %q matched exclusivity keywords but sum(YES)=%.4f is outside [%.1f, %.1f]",
				event.Title, totalYes, overroundLow, overroundHigh)
			if err := s.incidents.LogIncident(eventlog.IncidentMisExclusivity, details, ""); err != nil {
				s.logger.Warn("log-incident-failed", zap.Error(err))
			}
		}
		return false
	}

	return true
}

// groupStrategy emits the all-YES or all-NO bundle for a group when its
// summed price clears the profit threshold.
func (s *EventGroupScanner) groupStrategy(event types.Event, active []types.Market, side types.Side) *hedge.Opportunity {
	totalCost := 0.0
	for _, m := range active {
		totalCost += m.Price(side)
	}

	if totalCost <= 0 || totalCost >= 1.0-s.minProfit-2*s.feeRate {
		return nil
	}

	legs := make([]hedge.Leg, 0, len(active))
	for _, m := range active {
		legs = append(legs, hedge.Leg{
			MarketID: m.ID,
			Question: m.Question,
			Side:     side,
			Price:    m.Price(side),
			TokenID:  m.TokenID(side),
			Volume:   m.Volume24h,
		})
	}

	name := truncate(event.Title, 40)
	if side == types.SideNo {
		name = "NO sweep: " + name
	}

	opp := hedge.New(name, hedge.ScannerEventGroup, hedge.TypeGroupArb, legs, 1.0, 1.0, s.feeRate)
	if opp.NetProfitPerDollar <= s.minProfit {
		return nil
	}

	return opp
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
