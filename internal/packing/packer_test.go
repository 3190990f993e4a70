package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/boxkit/internal/model"
)

func box(id string, w, h, d float64) model.Box {
	return model.Box{ID: id, Width: w, Height: h, Depth: d, Type: model.BoxTypeRegular, Prices: model.PriceTable{25: 20}}
}

func item(name string, w, h, d float64, qty int) model.Item {
	return model.Item{Name: name, Width: w, Height: h, Depth: d, Quantity: qty}
}

func TestPackSingleItemFitsInSomeOrientation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		item model.Item
		box  model.Box
	}{
		{name: "nvme", item: item("nvme", 14, 2, 10, 1), box: box("xs", 15, 8, 10)},
		{name: "upright item laid flat", item: item("tall", 4, 20, 6, 1), box: box("flat", 25, 5, 25)},
		{name: "exact fit", item: item("cube", 10, 10, 10, 1), box: box("cube", 10, 10, 10)},
		{name: "rotated into depth", item: item("long", 3, 3, 28, 1), box: box("long", 30, 5, 5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			placements := Pack([]model.Item{tc.item}, tc.box, 0)
			require.Len(t, placements, 1)
			assert.False(t, placements[0].Overflow)
			assert.True(t, placements[0].Dims.FitsWithin(tc.box.Dims()))
		})
	}
}

func TestPackOversizedItemOverflows(t *testing.T) {
	t.Parallel()

	placements := Pack([]model.Item{item("gpu", 32, 6, 14, 1)}, box("small", 15, 10, 10), 0)
	require.Len(t, placements, 1)
	assert.True(t, placements[0].Overflow)
	assert.Equal(t, 1, CountOverflow(placements))
	assert.False(t, AllFit(placements))
}

func TestPackPaddingReducesInterior(t *testing.T) {
	t.Parallel()

	it := []model.Item{item("cube", 10, 10, 10, 1)}
	assert.True(t, AllFit(Pack(it, box("b", 12, 12, 12), 1)))
	assert.False(t, AllFit(Pack(it, box("b", 12, 12, 12), 1.5)))

	placements := Pack(it, box("b", 4, 4, 4), 2)
	require.Len(t, placements, 1)
	assert.True(t, placements[0].Overflow, "no usable interior left after padding")
}

func TestPackExpandsQuantityAndKeepsGoingAfterOverflow(t *testing.T) {
	t.Parallel()

	placements := Pack([]model.Item{item("brick", 10, 10, 10, 3)}, box("b", 20, 10, 10), 0)
	require.Len(t, placements, 3)
	assert.Equal(t, 1, CountOverflow(placements))
	for _, p := range placements {
		assert.Equal(t, 1, p.Item.Quantity)
	}
}

func TestPackStacksWithoutOverlap(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("plate", 20, 2, 20, 4)}
	placements := Pack(items, box("b", 20, 8, 20), 0)
	require.True(t, AllFit(placements))

	heights := map[float64]bool{}
	for _, p := range placements {
		heights[p.Position.Y] = true
		assert.Zero(t, p.Position.X)
		assert.Zero(t, p.Position.Z)
	}
	assert.Len(t, heights, 4, "plates stack on top of each other")
	assertNoOverlap(t, placements)
}

func TestPackPrefersFlatOrientation(t *testing.T) {
	t.Parallel()

	placements := Pack([]model.Item{item("board", 30, 24, 4, 1)}, box("b", 35, 30, 30), 0)
	require.True(t, AllFit(placements))
	assert.Equal(t, 4.0, placements[0].Dims.H)
	assert.Equal(t, Point{}, placements[0].Position, "first item goes to the back-left corner")
}

func TestPackPlacesLargestFootprintFirst(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("small", 4, 4, 4, 1), item("large", 20, 4, 20, 1)}
	placements := Pack(items, box("b", 20, 10, 20), 0)
	require.True(t, AllFit(placements))
	assert.Equal(t, "large", placements[0].Item.Name)
	assert.Equal(t, 4.0, placements[1].Position.Y, "small item sits on the large one")
	assertNoOverlap(t, placements)
}

func TestPackIsDeterministic(t *testing.T) {
	t.Parallel()

	items := []model.Item{item("a", 12, 5, 8, 2), item("b", 6, 6, 6, 3), item("c", 20, 3, 10, 1)}
	b := box("b", 30, 20, 30)
	assert.Equal(t, Pack(items, b, 0.5), Pack(items, b, 0.5))
}

func TestPackEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Pack(nil, box("b", 10, 10, 10), 0))
}

func assertNoOverlap(t *testing.T, placements []Placement) {
	t.Helper()
	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			a, b := placements[i], placements[j]
			ca := cuboid{x: a.Position.X, y: a.Position.Y, z: a.Position.Z, w: a.Dims.W, h: a.Dims.H, d: a.Dims.D}
			cb := cuboid{x: b.Position.X, y: b.Position.Y, z: b.Position.Z, w: b.Dims.W, h: b.Dims.H, d: b.Dims.D}
			assert.False(t, ca.intersects(cb), "placements %d and %d overlap", i, j)
		}
	}
}
