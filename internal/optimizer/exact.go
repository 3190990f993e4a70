package optimizer

import "golang.org/x/sync/errgroup"

// exact evaluates every set partition of the units.
func (r *run) exact() ([]Solution, int) {
	partitions := setPartitions(len(r.units))

	results := make([]Solution, len(partitions))
	valid := make([]bool, len(partitions))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, partition := range partitions {
		g.Go(func() error {
			results[i], valid[i] = r.evaluate(partition)
			return nil
		})
	}
	_ = g.Wait()

	solutions := make([]Solution, 0, len(partitions))
	for i := range partitions {
		if valid[i] {
			solutions = append(solutions, results[i])
		}
	}
	return solutions, len(partitions)
}

// setPartitions lists every partition of {0..n-1}, built one element at a
// time: each partition of the prefix is extended by adding the next element
// to each existing group or to a new group of its own. The result has
// Bell(n) entries.
func setPartitions(n int) [][][]int {
	if n == 0 {
		return nil
	}
	partials := [][][]int{{}}
	for elem := 0; elem < n; elem++ {
		next := make([][][]int, 0, len(partials)*2)
		for _, p := range partials {
			for g := range p {
				next = append(next, withElement(p, g, elem))
			}
			next = append(next, withElement(p, len(p), elem))
		}
		partials = next
	}
	return partials
}

// withElement copies p and adds elem to group g, opening a new group when g
// equals len(p).
func withElement(p [][]int, g, elem int) [][]int {
	out := make([][]int, len(p), len(p)+1)
	for i, group := range p {
		out[i] = append([]int(nil), group...)
	}
	if g == len(p) {
		return append(out, []int{elem})
	}
	out[g] = append(out[g], elem)
	return out
}
