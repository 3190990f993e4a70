// Package advisor recommends how many boxes of each size to keep in stock.
// Demand is simulated from a weighted mix of order patterns; the sizes
// covering 80% of it are marked high priority.
package advisor

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/pricing"
)

const (
	// DefaultMonthlyOrders is used when a request gives no order volume.
	DefaultMonthlyOrders = 100
	// DefaultSafetyBuffer is the extra stock kept, in percent.
	DefaultSafetyBuffer = 20.0

	paretoShare      = 0.8
	mediumPriorityAt = 10
)

var hundred = decimal.NewFromInt(100)

// ErrInvalidRequest is returned for negative order volumes or buffers.
var ErrInvalidRequest = errors.New("monthly orders and safety buffer must not be negative")

// Priority orders recommendations for purchasing.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is the stock to buy for one box.
type Recommendation struct {
	Box      model.Box `json:"box"`
	Quantity int       `json:"quantity"`
	RawNeed  int       `json:"rawNeed"`
	Coverage float64   `json:"coverage"`
	// Cost is in thousands of the catalog currency.
	Cost     float64  `json:"cost"`
	Priority Priority `json:"priority"`
}

// Stats summarises a Plan.
type Stats struct {
	MonthlyOrders  int     `json:"monthlyOrders"`
	TotalBoxes     int     `json:"totalBoxes"`
	TotalCost      float64 `json:"totalCost"`
	ParetoCount    int     `json:"paretoCount"`
	ParetoCoverage float64 `json:"paretoCoverage"`
	TotalCoverage  float64 `json:"totalCoverage"`
	UniqueSizes    int     `json:"uniqueSizes"`
}

// Plan is the advisor's output.
type Plan struct {
	Recommendations []Recommendation `json:"recommendations"`
	Stats           Stats            `json:"stats"`
}

// Advisor turns order volumes into stock recommendations.
type Advisor struct {
	patterns []Pattern
	ranges   map[string]SizeRange
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithPatterns replaces the default order mix.
func WithPatterns(p []Pattern) Option {
	return func(a *Advisor) {
		if len(p) > 0 {
			a.patterns = append([]Pattern(nil), p...)
		}
	}
}

// WithSizeRanges replaces the default size classes.
func WithSizeRanges(r map[string]SizeRange) Option {
	return func(a *Advisor) {
		if len(r) > 0 {
			a.ranges = r
		}
	}
}

// New creates an Advisor with the default patterns and size classes.
func New(opts ...Option) *Advisor {
	a := &Advisor{
		patterns: DefaultPatterns(),
		ranges:   DefaultSizeRanges(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MatchBox picks the box for a size class: among boxes inside the class's
// volume range, the one closest to its target; otherwise the box closest to
// the target overall. Ties keep catalog order.
func (a *Advisor) MatchBox(size string, boxes []model.Box) (model.Box, bool) {
	r, ok := a.ranges[size]
	if !ok {
		r = fallbackRange
	}

	best, bestScore, found := model.Box{}, math.Inf(1), false
	for _, b := range boxes {
		vol := b.Volume()
		if !r.contains(vol) {
			continue
		}
		if s := r.score(vol); s < bestScore {
			best, bestScore, found = b, s, true
		}
	}
	if found {
		return best, true
	}

	for _, b := range boxes {
		if s := r.score(b.Volume()); s < bestScore {
			best, bestScore, found = b, s, true
		}
	}
	return best, found
}

// Recommend builds a stock plan for monthlyOrders orders with safetyBuffer
// percent of extra stock. Quantities are rounded up to the box's price tiers.
func (a *Advisor) Recommend(monthlyOrders int, safetyBuffer float64, boxes []model.Box) (Plan, error) {
	if monthlyOrders < 0 || safetyBuffer < 0 {
		return Plan{}, ErrInvalidRequest
	}

	orders := decimal.NewFromInt(int64(monthlyOrders))
	needs := make(map[string]decimal.Decimal, len(boxes))
	for _, p := range a.patterns {
		if b, ok := a.MatchBox(p.Size, boxes); ok {
			needs[b.ID] = needs[b.ID].Add(orders.Mul(decimal.NewFromFloat(p.Weight)))
		}
	}

	multiplier := decimal.NewFromFloat(safetyBuffer).Div(hundred).Add(decimal.NewFromInt(1))
	plan := Plan{Recommendations: []Recommendation{}, Stats: Stats{MonthlyOrders: monthlyOrders}}
	for _, b := range boxes {
		raw, ok := needs[b.ID]
		if !ok {
			continue
		}
		qty := int(raw.Mul(multiplier).Ceil().IntPart())
		if qty <= 0 {
			continue
		}
		qty = pricing.RoundToTier(b.Prices, qty)

		rec := Recommendation{
			Box:      b,
			Quantity: qty,
			RawNeed:  int(raw.Round(0).IntPart()),
			Cost:     pricing.TotalCost(b.Prices, qty),
		}
		if monthlyOrders > 0 {
			rec.Coverage = raw.Div(orders).Mul(hundred).InexactFloat64()
		}
		plan.Recommendations = append(plan.Recommendations, rec)
		plan.Stats.TotalBoxes += qty
		plan.Stats.TotalCost += rec.Cost
	}

	sort.SliceStable(plan.Recommendations, func(i, j int) bool {
		return plan.Recommendations[i].Quantity > plan.Recommendations[j].Quantity
	})

	for _, rec := range plan.Recommendations {
		plan.Stats.TotalCoverage += rec.Coverage
	}
	cumulative := 0.0
	for _, rec := range plan.Recommendations {
		cumulative += rec.Coverage
		plan.Stats.ParetoCount++
		if cumulative >= plan.Stats.TotalCoverage*paretoShare {
			break
		}
	}
	plan.Stats.ParetoCoverage = math.Min(cumulative, plan.Stats.TotalCoverage)
	plan.Stats.UniqueSizes = len(plan.Recommendations)

	for i := range plan.Recommendations {
		rec := &plan.Recommendations[i]
		switch {
		case i < plan.Stats.ParetoCount:
			rec.Priority = PriorityHigh
		case rec.Quantity >= mediumPriorityAt:
			rec.Priority = PriorityMedium
		default:
			rec.Priority = PriorityLow
		}
	}
	return plan, nil
}
