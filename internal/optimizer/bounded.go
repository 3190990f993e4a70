package optimizer

import "sort"

// bounded assigns units, largest volume first, to an existing group or a new
// one, depth first, never exceeding MaxBoxes groups. Branches whose group no
// longer fits any box are cut. The search stops once SearchBudget has elapsed
// and returns whatever complete solutions it found.
func (r *run) bounded() (solutions []Solution, evaluated int, expired bool) {
	order := r.byVolumeDesc()
	start := r.clock()

	var search func(pos int, groups [][]int)
	search = func(pos int, groups [][]int) {
		if expired {
			return
		}
		if r.clock().Sub(start) > r.opts.SearchBudget {
			expired = true
			return
		}

		if pos == len(order) {
			evaluated++
			if s, ok := r.evaluate(groups); ok {
				solutions = append(solutions, s)
			}
			return
		}

		unit := order[pos]
		for g := range groups {
			candidate := append(append([]int(nil), groups[g]...), unit)
			if !r.fitter.fits(candidate) {
				continue
			}
			next := make([][]int, len(groups))
			copy(next, groups)
			next[g] = candidate
			search(pos+1, next)
		}

		if len(groups) < r.opts.MaxBoxes {
			alone := []int{unit}
			if !r.fitter.fits(alone) {
				return
			}
			next := make([][]int, len(groups), len(groups)+1)
			copy(next, groups)
			search(pos+1, append(next, alone))
		}
	}
	search(0, nil)

	return solutions, evaluated, expired
}

// byVolumeDesc returns unit indices, largest volume first.
func (r *run) byVolumeDesc() []int {
	order := make([]int, len(r.units))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return r.units[order[i]].Volume() > r.units[order[j]].Volume()
	})
	return order
}
