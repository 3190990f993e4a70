package optimizer

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/boxkit/internal/catalog"
	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/pricing"
)

func box(id string, w, h, d, price float64) model.Box {
	return model.Box{
		ID:     id,
		Width:  w,
		Height: h,
		Depth:  d,
		Type:   model.BoxTypeRegular,
		Prices: model.PriceTable{25: price},
	}
}

func item(name string, w, h, d float64, qty int) model.Item {
	return model.Item{Name: name, Width: w, Height: h, Depth: d, Quantity: qty}
}

// twoCubeBoxes hold one 9cm cube (small) or two side by side (double).
func twoCubeBoxes() []model.Box {
	return []model.Box{
		box("double", 20, 10, 10, 15),
		box("small", 10, 10, 10, 10),
	}
}

func satarBoxes(t *testing.T) []model.Box {
	t.Helper()
	suppliers, err := catalog.Default()
	require.NoError(t, err)
	return suppliers[0].Boxes
}

func TestSetPartitionsFollowBellNumbers(t *testing.T) {
	t.Parallel()

	bell := []int{0, 1, 2, 5, 15, 52, 203}
	for n := 1; n < len(bell); n++ {
		partitions := setPartitions(n)
		require.Len(t, partitions, bell[n], "n=%d", n)

		for _, p := range partitions {
			seen := make(map[int]int)
			for _, group := range p {
				require.NotEmpty(t, group)
				for _, elem := range group {
					seen[elem]++
				}
			}
			require.Len(t, seen, n)
			for elem, count := range seen {
				require.Equal(t, 1, count, "element %d repeated in %v", elem, p)
			}
		}
	}
	assert.Nil(t, setPartitions(0))
}

func TestOptimizeSingleItem(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("NVMe", 14, 2, 10, 1)}
	boxes := []model.Box{box("nvme-box", 15, 10, 8, 13)}

	result := New().Optimize(items, boxes, DefaultOptions())

	require.NotNil(t, result.Optimal)
	assert.Equal(t, StrategyExact, result.Analysis.Strategy)
	assert.Equal(t, 1, result.Analysis.PartitionsEvaluated)
	assert.Equal(t, 1, result.Optimal.NumBoxes)
	assert.Empty(t, result.Alternatives)

	a := result.Optimal.Assignments[0]
	assert.Equal(t, "nvme-box", a.Box.ID)
	assert.Equal(t, "small", a.CourierTier)
	assert.True(t, a.Fit.Fits)
	assert.False(t, a.Fit.Tight)
	assert.InDelta(t, 23.33, a.Fit.Efficiency, 0.01)
	assert.InDelta(t, 520, result.Optimal.TotalCost, 1e-9)
	require.Len(t, a.Placements, 1)
	assert.False(t, a.Placements[0].Overflow)
}

func TestOptimizePrefersSharedBox(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("cube", 9, 9, 9, 2)}

	result := New().Optimize(items, twoCubeBoxes(), DefaultOptions())

	require.NotNil(t, result.Optimal)
	assert.Equal(t, 2, result.Analysis.ItemCount)
	assert.Equal(t, 1, result.Analysis.OriginalItemCount)
	assert.Equal(t, 2, result.Analysis.PartitionsEvaluated)
	assert.Equal(t, 2, result.Analysis.SolutionsEvaluated)

	optimal := result.Optimal
	assert.Equal(t, 1, optimal.NumBoxes)
	assert.Equal(t, "double", optimal.Assignments[0].Box.ID)
	assert.InDelta(t, 600, optimal.TotalCost, 1e-9)
	assert.Equal(t, []ItemCount{{Origin: 0, Name: "cube", Quantity: 2}}, optimal.Assignments[0].Summary)

	require.Len(t, result.Alternatives, 1)
	alt := result.Alternatives[0]
	assert.Equal(t, 2, alt.NumBoxes)
	assert.InDelta(t, 800, alt.TotalCost, 1e-9)
	assert.InDelta(t, 200, alt.CostDiff, 1e-9)
	assert.Equal(t, 33, alt.CostDiffPercent)
	for _, a := range alt.Assignments {
		assert.Equal(t, "small", a.Box.ID)
	}
}

func TestOptimizeCountsPartitions(t *testing.T) {
	t.Parallel()

	items := []model.Item{
		item("a", 2, 2, 2, 1),
		item("b", 3, 2, 2, 1),
		item("c", 4, 2, 2, 1),
		item("d", 5, 2, 2, 1),
	}
	boxes := []model.Box{box("crate", 20, 20, 20, 10)}

	result := New().Optimize(items, boxes, DefaultOptions())

	require.NotNil(t, result.Optimal)
	assert.Equal(t, 15, result.Analysis.PartitionsEvaluated)
	assert.Equal(t, 1, result.Optimal.NumBoxes)
	assert.LessOrEqual(t, len(result.Alternatives), maxAlternatives)
}

func TestOptimizeEmptyInput(t *testing.T) {
	t.Parallel()

	result := New().Optimize(nil, twoCubeBoxes(), DefaultOptions())

	assert.Nil(t, result.Optimal)
	assert.NotNil(t, result.Alternatives)
	assert.Empty(t, result.Alternatives)
	assert.Equal(t, 0, result.Analysis.ItemCount)
	assert.Equal(t, msgNoItems, result.Analysis.Message)

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"optimal":null,"alternatives":[],"analysis":{"itemCount":0,"message":"no items to pack"}}`, string(raw))
}

func TestOptimizeEmptyCatalog(t *testing.T) {
	t.Parallel()

	result := New().Optimize([]model.Item{item("cube", 9, 9, 9, 1)}, nil, DefaultOptions())

	assert.Nil(t, result.Optimal)
	assert.Empty(t, result.Alternatives)
	assert.Equal(t, msgNoBoxes, result.Analysis.Message)
}

func TestOptimizeNothingFits(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("fridge", 80, 180, 70, 1)}

	result := New().Optimize(items, twoCubeBoxes(), DefaultOptions())

	assert.Nil(t, result.Optimal)
	assert.Empty(t, result.Alternatives)
	assert.Equal(t, msgNoFit, result.Analysis.Message)
}

func TestOptimizeBoundedRespectsBoxCap(t *testing.T) {
	t.Parallel()

	items := []model.Item{
		item("NVMe", 14, 2, 10, 1),
		item("charger", 10, 5, 8, 1),
		item("router", 20, 5, 15, 1),
		item("mouse", 12, 4, 9, 1),
		item("speaker", 8, 8, 8, 1),
		item("keyboard", 25, 6, 18, 1),
		item("cable", 6, 3, 4, 1),
	}
	opts := DefaultOptions()

	start := time.Now()
	result := New().Optimize(items, satarBoxes(t), opts)
	elapsed := time.Since(start)

	require.NotNil(t, result.Optimal)
	assert.Equal(t, StrategyBounded, result.Analysis.Strategy)
	assert.LessOrEqual(t, result.Optimal.NumBoxes, opts.MaxBoxes)
	assert.Less(t, elapsed, opts.SearchBudget+3*time.Second)

	packed := 0
	for _, a := range result.Optimal.Assignments {
		for _, c := range a.Summary {
			packed += c.Quantity
		}
		assert.True(t, a.Fit.Fits, a.Box.ID)
	}
	assert.Equal(t, len(items), packed)

	for _, alt := range result.Alternatives {
		assert.GreaterOrEqual(t, alt.TotalCost, result.Optimal.TotalCost)
	}
}

func TestOptimizeBudgetExpiryFallsBackToGreedy(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}

	items := []model.Item{item("cube", 4, 4, 4, 8)}
	boxes := []model.Box{box("crate", 20, 20, 20, 10)}

	result := New(WithClock(clock)).Optimize(items, boxes, DefaultOptions())

	require.NotNil(t, result.Optimal)
	assert.Equal(t, StrategyBounded, result.Analysis.Strategy)
	assert.True(t, result.Analysis.BudgetExpired)
	assert.Equal(t, msgBudgetUsed, result.Analysis.Message)
	assert.Equal(t, 1, result.Optimal.NumBoxes)
}

func TestOptimizeLargeOrderUsesGreedy(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("cube", 5, 5, 5, 12)}
	boxes := []model.Box{
		box("small", 10, 10, 10, 10),
		box("big", 20, 20, 20, 20),
	}

	result := New().Optimize(items, boxes, DefaultOptions())

	require.NotNil(t, result.Optimal)
	assert.Equal(t, StrategyGreedy, result.Analysis.Strategy)
	assert.Equal(t, 12, result.Analysis.ItemCount)
	assert.Equal(t, 1, result.Optimal.NumBoxes)
	assert.Equal(t, "big", result.Optimal.Assignments[0].Box.ID)
	assert.Len(t, result.Optimal.Assignments[0].Placements, 12)
}

func TestOptimizeGreedyStacksFlatItems(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("plate", 10, 1, 10, 11)}
	boxes := []model.Box{
		box("plate", 10, 1, 10, 10),
		box("tray", 10, 11, 10, 12),
	}

	result := New().Optimize(items, boxes, DefaultOptions())

	require.NotNil(t, result.Optimal)
	assert.Equal(t, StrategyGreedy, result.Analysis.Strategy)
	assert.Zero(t, result.Analysis.PartitionsEvaluated, "greedy does not enumerate partitions")
	assert.Positive(t, result.Analysis.SolutionsEvaluated)
	assert.Equal(t, 1, result.Optimal.NumBoxes)
	assert.Equal(t, "tray", result.Optimal.Assignments[0].Box.ID)
	assert.True(t, result.Optimal.Assignments[0].Fit.Tight)
}

func TestMergePassJoinsCheaperPairs(t *testing.T) {
	t.Parallel()

	units := model.Expand([]model.Item{item("plate", 10, 1, 10, 2)})
	boxes := []model.Box{
		box("plate", 10, 1, 10, 10),
		box("tray", 10, 11, 10, 12),
	}
	r := &run{
		opts:    DefaultOptions(),
		units:   units,
		fitter:  newFitter(units, boxes, 0),
		calc:    pricing.NewCalculator(pricing.DefaultReferenceQuantity, 0, pricing.DefaultDimensionalFactor),
		clock:   time.Now,
		workers: 1,
	}

	merged, changed := r.mergePass([][]int{{0}, {1}})

	assert.True(t, changed)
	assert.Equal(t, [][]int{{0, 1}}, merged)

	// A pair whose union costs more stays apart.
	r.fitter = newFitter(units, []model.Box{box("plate", 10, 1, 10, 10), box("tray", 10, 11, 10, 25)}, 0)
	kept, changed := r.mergePass([][]int{{0}, {1}})
	assert.False(t, changed)
	assert.Len(t, kept, 2)
}

func TestOptimizeIsDeterministic(t *testing.T) {
	t.Parallel()

	items := []model.Item{
		item("a", 9, 9, 9, 1),
		item("b", 9, 9, 9, 1),
		item("c", 5, 4, 3, 2),
		item("d", 2, 2, 8, 1),
	}
	boxes := append(twoCubeBoxes(), box("crate", 20, 20, 20, 30))

	serial, err := json.Marshal(New(WithWorkers(1)).Optimize(items, boxes, DefaultOptions()))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		parallel, err := json.Marshal(New(WithWorkers(8)).Optimize(items, boxes, DefaultOptions()))
		require.NoError(t, err)
		assert.JSONEq(t, string(serial), string(parallel))
	}
}

func TestOptimizeAddsShippingCost(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("cube", 9, 9, 9, 2)}

	plain := New().Optimize(items, twoCubeBoxes(), DefaultOptions())

	opts := DefaultOptions()
	opts.ShippingRatePerKg = 1000
	shipped := New().Optimize(items, twoCubeBoxes(), opts)

	require.NotNil(t, plain.Optimal)
	require.NotNil(t, shipped.Optimal)
	assert.Zero(t, plain.Optimal.TotalShippingCost)
	assert.Greater(t, shipped.Optimal.TotalShippingCost, 0.0)
	assert.InDelta(t, shipped.Optimal.TotalBoxCost+shipped.Optimal.TotalShippingCost, shipped.Optimal.TotalCost, 1e-9)
	assert.Greater(t, shipped.Optimal.TotalCost, plain.Optimal.TotalCost)
}

func TestRankDeduplicatesAndCapsBoxes(t *testing.T) {
	t.Parallel()

	solutions := []Solution{
		{NumBoxes: 2, TotalCost: 120},
		{NumBoxes: 1, TotalCost: 100.4},
		{NumBoxes: 6, TotalCost: 50},
		{NumBoxes: 1, TotalCost: 100.2},
	}

	got := rank(solutions, 5)

	require.Len(t, got, 2)
	assert.InDelta(t, 100.2, got[0].TotalCost, 1e-9)
	assert.Equal(t, 2, got[1].NumBoxes)
}

func TestRankKeepsOverCapWhenNothingElse(t *testing.T) {
	t.Parallel()

	got := rank([]Solution{{NumBoxes: 7, TotalCost: 60}, {NumBoxes: 6, TotalCost: 50}}, 5)

	require.Len(t, got, 2)
	assert.Equal(t, 6, got[0].NumBoxes)
}
