package optimizer

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/packing"
)

type fitEntry struct {
	box        model.Box
	placements []packing.Placement
	fit        packing.Fit
	ok         bool
}

// fitter memoizes the smallest fitting box per group for one Optimize call.
// Units of the same order line are identical, so a group is keyed by the
// multiset of origins it contains.
type fitter struct {
	units   []model.Item
	boxes   []model.Box
	padding float64

	mu    sync.Mutex
	cache map[string]fitEntry
}

func newFitter(units []model.Item, boxes []model.Box, padding float64) *fitter {
	return &fitter{
		units:   units,
		boxes:   boxes,
		padding: padding,
		cache:   make(map[string]fitEntry),
	}
}

func (f *fitter) smallest(group []int) fitEntry {
	items := f.itemsOf(group)
	key := groupKey(items)

	f.mu.Lock()
	entry, hit := f.cache[key]
	f.mu.Unlock()
	if hit {
		return entry
	}

	box, placements, ok := packing.SmallestFitting(f.boxes, items, f.padding)
	entry = fitEntry{box: box, placements: placements, ok: ok}
	if ok {
		entry.fit = packing.EvaluateFit(box, items, f.padding)
	}

	f.mu.Lock()
	f.cache[key] = entry
	f.mu.Unlock()
	return entry
}

func (f *fitter) fits(group []int) bool {
	return f.smallest(group).ok
}

// itemsOf returns the group's units ordered by origin so equal multisets
// always pack identically.
func (f *fitter) itemsOf(group []int) []model.Item {
	items := make([]model.Item, 0, len(group))
	for _, idx := range group {
		items = append(items, f.units[idx])
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Origin < items[j].Origin
	})
	return items
}

func groupKey(items []model.Item) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(item.Origin))
	}
	return b.String()
}
