package hedge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// ScannerTag identifies which scanner produced an opportunity.
type ScannerTag string

const (
	ScannerEventGroup ScannerTag = "event_group"
	ScannerThreshold  ScannerTag = "threshold"
	ScannerPattern    ScannerTag = "pattern"
)

// Type classifies the hedge relation between the legs.
type Type string

const (
	TypeGroupArb      Type = "group_arb"
	TypeThreshold     Type = "threshold"
	TypeComplementary Type = "complementary"
	TypeExclusive     Type = "exclusive"
	TypeSuperset      Type = "superset"
)

// Confidence grades how certain the minimum payout is.
type Confidence string

const (
	ConfidenceGuaranteed Confidence = "GUARANTEED"
	ConfidenceHigh       Confidence = "HIGH"
	ConfidenceMedium     Confidence = "MEDIUM"
)

// Leg is one position of a hedge: buy one side of one market at its current
// price.
type Leg struct {
	MarketID string
	Question string
	Side     types.Side
	Price    float64
	TokenID  string
	Volume   float64
}

// Opportunity is a typed bundle of legs whose combined cost sits below the
// combined minimum payout. Values are immutable after construction; each
// scan pass produces fresh ones.
type Opportunity struct {
	ID                 string
	Name               string
	Scanner            ScannerTag
	Type               Type
	Legs               []Leg
	TotalCost          float64
	MinPayout          float64
	MaxPayout          float64
	GuaranteedProfit   float64
	BestCaseProfit     float64
	NetProfitPerDollar float64
	Confidence         Confidence
	DetectedAt         time.Time
}

// New builds an Opportunity and derives its financials. feeRate is charged
// twice (entry estimate for both legs of the round trip).
func New(name string, scanner ScannerTag, typ Type, legs []Leg, minPayout, maxPayout, feeRate float64) *Opportunity {
	totalCost := 0.0
	for _, leg := range legs {
		totalCost += leg.Price
	}

	guaranteed := minPayout - totalCost
	net := 0.0
	if totalCost > 0 {
		net = guaranteed/totalCost - 2*feeRate
	}

	return &Opportunity{
		ID:                 uuid.New().String(),
		Name:               name,
		Scanner:            scanner,
		Type:               typ,
		Legs:               legs,
		TotalCost:          totalCost,
		MinPayout:          minPayout,
		MaxPayout:          maxPayout,
		GuaranteedProfit:   guaranteed,
		BestCaseProfit:     maxPayout - totalCost,
		NetProfitPerDollar: net,
		Confidence:         ConfidenceGuaranteed,
		DetectedAt:         time.Now(),
	}
}

// AlertKey is a stable fingerprint over the involved market ids, independent
// of leg order. Used to suppress duplicate notifications across scans.
func (o *Opportunity) AlertKey() string {
	ids := make([]string, 0, len(o.Legs))
	for _, leg := range o.Legs {
		ids = append(ids, leg.MarketID)
	}
	sort.Strings(ids)

	return strings.Join(ids, "|")
}

// MarketIDs returns the market ids in leg order.
func (o *Opportunity) MarketIDs() []string {
	ids := make([]string, 0, len(o.Legs))
	for _, leg := range o.Legs {
		ids = append(ids, leg.MarketID)
	}

	return ids
}

// Valid reports whether the opportunity satisfies its structural invariants.
func (o *Opportunity) Valid() bool {
	if o.TotalCost <= 0 || len(o.Legs) == 0 {
		return false
	}

	if o.MinPayout > o.MaxPayout {
		return false
	}

	for _, leg := range o.Legs {
		if leg.Price <= 0 || leg.Price >= 1 {
			return false
		}
	}

	return true
}

func (o *Opportunity) String() string {
	return fmt.Sprintf("%s [%s/%s] cost=%.4f min_payout=%.2f net=%.4f legs=%d",
		o.Name, o.Scanner, o.Type, o.TotalCost, o.MinPayout, o.NetProfitPerDollar, len(o.Legs))
}
