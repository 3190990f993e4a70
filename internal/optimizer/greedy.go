package optimizer

// greedy builds a first-fit-decreasing grouping and then makes one pass
// merging pairs of groups whose union fits a box that costs less than the two
// it replaces. Both the baseline and, when it changed, the merged grouping are
// returned.
func (r *run) greedy() []Solution {
	var groups [][]int
	for _, unit := range r.byVolumeDesc() {
		placed := false
		for g := range groups {
			candidate := append(append([]int(nil), groups[g]...), unit)
			if r.fitter.fits(candidate) {
				groups[g] = candidate
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []int{unit})
		}
	}

	baseline, ok := r.evaluate(groups)
	if !ok {
		return nil
	}
	solutions := []Solution{baseline}

	if merged, changed := r.mergePass(groups); changed {
		if s, ok := r.evaluate(merged); ok {
			solutions = append(solutions, s)
		}
	}
	return solutions
}

// mergePass walks every pair once and replaces a pair by its union whenever
// the union fits a cheaper box.
func (r *run) mergePass(groups [][]int) ([][]int, bool) {
	out := make([][]int, len(groups))
	copy(out, groups)
	changed := false

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); {
			union := append(append([]int(nil), out[i]...), out[j]...)
			merged := r.fitter.smallest(union)
			if merged.ok && r.calc.Price(merged.box).Total < r.groupCost(out[i])+r.groupCost(out[j]) {
				out[i] = union
				out = append(out[:j], out[j+1:]...)
				changed = true
				continue
			}
			j++
		}
	}
	return out, changed
}

func (r *run) groupCost(group []int) float64 {
	entry := r.fitter.smallest(group)
	return r.calc.Price(entry.box).Total
}
