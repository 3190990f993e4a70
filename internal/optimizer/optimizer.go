package optimizer

import (
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/eugenenazirov/boxkit/internal/courier"
	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/pricing"
)

const (
	exactLimit      = 6
	boundedLimit    = 10
	maxAlternatives = 3

	// DefaultMaxBoxes is the soft cap on boxes per order.
	DefaultMaxBoxes = 5
	// DefaultSearchBudget bounds the depth-first search for mid-sized orders.
	DefaultSearchBudget = 500 * time.Millisecond

	msgNoItems    = "no items to pack"
	msgNoBoxes    = "box catalog is empty"
	msgNoFit      = "no combination of catalog boxes fits these items"
	msgBudgetUsed = "search budget expired before a complete grouping was found; greedy result used"
	msgGreedyUsed = "no grouping within the box limit; greedy result used"
)

// Options tunes a single optimization.
type Options struct {
	// Padding is removed from every inner side of a box, in cm.
	Padding float64
	// ReferenceQuantity is the order batch box prices are resolved at.
	ReferenceQuantity int
	// ShippingRatePerKg prices dimensional weight; 0 disables shipping cost.
	ShippingRatePerKg float64
	// DimensionalFactor converts cm^3 into volumetric kilograms.
	DimensionalFactor float64
	// MaxBoxes is the soft cap on the number of boxes.
	MaxBoxes int
	// SearchBudget bounds the depth-first search.
	SearchBudget time.Duration
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Padding:           0,
		ReferenceQuantity: pricing.DefaultReferenceQuantity,
		ShippingRatePerKg: 0,
		DimensionalFactor: pricing.DefaultDimensionalFactor,
		MaxBoxes:          DefaultMaxBoxes,
		SearchBudget:      DefaultSearchBudget,
	}
}

func (o Options) normalized() Options {
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.MaxBoxes <= 0 {
		o.MaxBoxes = DefaultMaxBoxes
	}
	if o.SearchBudget <= 0 {
		o.SearchBudget = DefaultSearchBudget
	}
	return o
}

// Optimizer finds the cheapest grouping of order items into catalog boxes.
type Optimizer interface {
	Optimize(items []model.Item, boxes []model.Box, opts Options) Result
}

// Option configures the optimizer.
type Option func(*optimizer)

// WithClock overrides the time source used by the search budget.
func WithClock(clock func() time.Time) Option {
	return func(o *optimizer) {
		o.clock = clock
	}
}

// WithWorkers limits how many partitions are evaluated concurrently.
func WithWorkers(n int) Option {
	return func(o *optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCourierTiers sets the classifier that tags each box with its courier tier.
func WithCourierTiers(c *courier.Classifier) Option {
	return func(o *optimizer) {
		if c != nil {
			o.courier = c
		}
	}
}

type optimizer struct {
	clock   func() time.Time
	workers int
	courier *courier.Classifier
}

// New creates an Optimizer.
func New(opts ...Option) Optimizer {
	o := &optimizer{
		clock:   time.Now,
		workers: runtime.GOMAXPROCS(0),
		courier: courier.NewClassifier(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run holds the state of one Optimize call.
type run struct {
	opts    Options
	units   []model.Item
	fitter  *fitter
	calc    pricing.Calculator
	clock   func() time.Time
	workers int
	courier *courier.Classifier
}

func (o *optimizer) Optimize(items []model.Item, boxes []model.Box, opts Options) Result {
	opts = opts.normalized()
	units := model.Expand(items)
	analysis := Analysis{ItemCount: len(units), OriginalItemCount: len(items)}

	if len(units) == 0 {
		analysis.Message = msgNoItems
		return Result{Alternatives: []Solution{}, Analysis: analysis}
	}
	if len(boxes) == 0 {
		analysis.Message = msgNoBoxes
		return Result{Alternatives: []Solution{}, Analysis: analysis}
	}

	r := &run{
		opts:    opts,
		units:   units,
		fitter:  newFitter(units, boxes, opts.Padding),
		calc:    pricing.NewCalculator(opts.ReferenceQuantity, opts.ShippingRatePerKg, opts.DimensionalFactor),
		clock:   o.clock,
		workers: o.workers,
		courier: o.courier,
	}

	var solutions []Solution
	switch n := len(units); {
	case n <= exactLimit:
		analysis.Strategy = StrategyExact
		solutions, analysis.PartitionsEvaluated = r.exact()
	case n <= boundedLimit:
		analysis.Strategy = StrategyBounded
		solutions, analysis.PartitionsEvaluated, analysis.BudgetExpired = r.bounded()
		if len(solutions) == 0 {
			solutions = r.greedy()
			analysis.Message = msgGreedyUsed
			if analysis.BudgetExpired {
				analysis.Message = msgBudgetUsed
			}
		}
	default:
		analysis.Strategy = StrategyGreedy
		solutions = r.greedy()
	}
	analysis.SolutionsEvaluated = len(solutions)

	unique := rank(solutions, opts.MaxBoxes)
	if len(unique) == 0 {
		analysis.Message = msgNoFit
		return Result{Alternatives: []Solution{}, Analysis: analysis}
	}

	optimal := unique[0]
	alternatives := make([]Solution, 0, maxAlternatives)
	for _, alt := range unique[1:min(len(unique), maxAlternatives+1)] {
		alt.CostDiff = alt.TotalCost - optimal.TotalCost
		if optimal.TotalCost > 0 {
			alt.CostDiffPercent = int(math.Round(alt.CostDiff / optimal.TotalCost * 100))
		}
		alternatives = append(alternatives, alt)
	}

	return Result{Optimal: &optimal, Alternatives: alternatives, Analysis: analysis}
}

// rank sorts solutions by cost, drops those above the box cap when some
// solution respects it, and keeps one solution per (box count, rounded cost).
func rank(solutions []Solution, maxBoxes int) []Solution {
	sort.SliceStable(solutions, func(i, j int) bool {
		if solutions[i].TotalCost != solutions[j].TotalCost {
			return solutions[i].TotalCost < solutions[j].TotalCost
		}
		return solutions[i].NumBoxes < solutions[j].NumBoxes
	})

	withinCap := false
	for _, s := range solutions {
		if s.NumBoxes <= maxBoxes {
			withinCap = true
			break
		}
	}

	type dedupKey struct {
		boxes int
		cost  float64
	}
	seen := make(map[dedupKey]struct{}, len(solutions))
	unique := make([]Solution, 0, len(solutions))
	for _, s := range solutions {
		if withinCap && s.NumBoxes > maxBoxes {
			continue
		}
		key := dedupKey{boxes: s.NumBoxes, cost: math.Round(s.TotalCost)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

// evaluate assigns every group its smallest fitting box and prices the
// result. It reports false when some group fits no box.
func (r *run) evaluate(groups [][]int) (Solution, bool) {
	assignments := make([]Assignment, 0, len(groups))
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		entry := r.fitter.smallest(group)
		if !entry.ok {
			return Solution{}, false
		}
		items := r.fitter.itemsOf(group)
		a := Assignment{
			Box:        summarizeBox(entry.box),
			Items:      items,
			Summary:    summarizeItems(items),
			Placements: entry.placements,
			Fit:        entry.fit,
			Cost:       r.calc.Price(entry.box),
		}
		if tier, ok := r.courier.TierFor(entry.box); ok {
			a.CourierTier = tier.ID
		}
		assignments = append(assignments, a)
	}
	return r.price(assignments), true
}

func (r *run) price(assignments []Assignment) Solution {
	s := Solution{Assignments: assignments, NumBoxes: len(assignments)}
	for _, a := range assignments {
		s.TotalBoxCost += a.Cost.Box
		s.TotalShippingCost += a.Cost.Shipping
	}
	s.TotalCost = s.TotalBoxCost + s.TotalShippingCost
	return s
}

func summarizeItems(items []model.Item) []ItemCount {
	out := make([]ItemCount, 0, len(items))
	index := make(map[int]int, len(items))
	for _, item := range items {
		if pos, ok := index[item.Origin]; ok {
			out[pos].Quantity++
			continue
		}
		index[item.Origin] = len(out)
		out = append(out, ItemCount{Origin: item.Origin, Name: item.Name, Color: item.Color, Quantity: 1})
	}
	return out
}
