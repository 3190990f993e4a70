package packing

import (
	"sort"

	"github.com/eugenenazirov/boxkit/internal/model"
)

const (
	// GridStep is the spacing, in cm, of the candidate position scan.
	GridStep = 2.0

	// score weights: footprint dominates, then position, then stacking height
	footprintWeight = 10000.0
	xWeight         = 1.0
	zWeight         = 100.0
	floorWeight     = 10.0

	epsilon = 1e-9
)

// Point is a position inside the usable interior of a box. Y is vertical.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Placement is the outcome of packing one unit item. Dims is the chosen
// orientation; Position is its minimum corner. Overflow marks an item that
// could not be placed, in which case Dims and Position are zero.
type Placement struct {
	Item     model.Item       `json:"item"`
	Dims     model.Dimensions `json:"dims"`
	Position Point            `json:"position"`
	Overflow bool             `json:"overflow,omitempty"`
}

type cuboid struct {
	x, y, z, w, h, d float64
}

func (c cuboid) overlapsFootprint(x, z, w, d float64) bool {
	return x < c.x+c.w-epsilon && x+w > c.x+epsilon &&
		z < c.z+c.d-epsilon && z+d > c.z+epsilon
}

func (c cuboid) intersects(o cuboid) bool {
	return c.overlapsFootprint(o.x, o.z, o.w, o.d) &&
		o.y < c.y+c.h-epsilon && o.y+o.h > c.y+epsilon
}

// Pack places items inside box with padding removed from every side. Items
// with a quantity above one are packed as that many units. Larger footprints
// are placed first; every item gets a Placement, failures are marked
// Overflow and do not stop the remaining items from being placed.
func Pack(items []model.Item, box model.Box, padding float64) []Placement {
	units := unitsOf(items)
	if len(units) == 0 {
		return nil
	}

	usable := box.Dims().Shrink(padding)
	placements := make([]Placement, 0, len(units))
	if !usable.Positive() {
		for _, unit := range units {
			placements = append(placements, Placement{Item: unit, Overflow: true})
		}
		return placements
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].BaseArea() > units[j].BaseArea()
	})

	s := &packState{usable: usable}
	for _, unit := range units {
		p, ok := s.place(unit)
		if !ok {
			placements = append(placements, Placement{Item: unit, Overflow: true})
			continue
		}
		placements = append(placements, p)
	}
	return placements
}

// AllFit reports whether no placement overflowed.
func AllFit(placements []Placement) bool {
	return CountOverflow(placements) == 0
}

// CountOverflow returns the number of items that could not be placed.
func CountOverflow(placements []Placement) int {
	n := 0
	for _, p := range placements {
		if p.Overflow {
			n++
		}
	}
	return n
}

type packState struct {
	usable     model.Dimensions
	occupied   []cuboid
	maxX, maxZ float64
}

func (s *packState) place(item model.Item) (Placement, bool) {
	var (
		best      cuboid
		bestScore float64
		found     bool
	)

	for _, o := range orientations(item.Dims()) {
		if o.W > s.usable.W+epsilon || o.D > s.usable.D+epsilon || o.H > s.usable.H+epsilon {
			continue
		}
		for z := 0.0; z+o.D <= s.usable.D+epsilon; z += GridStep {
			for x := 0.0; x+o.W <= s.usable.W+epsilon; x += GridStep {
				floor := s.floorAt(x, z, o.W, o.D)
				if floor+o.H > s.usable.H+epsilon {
					continue
				}
				candidate := cuboid{x: x, y: floor, z: z, w: o.W, h: o.H, d: o.D}
				if s.collides(candidate) {
					continue
				}
				score := s.score(candidate)
				if !found || score < bestScore {
					best, bestScore, found = candidate, score, true
				}
			}
		}
	}

	if !found {
		return Placement{}, false
	}

	s.occupied = append(s.occupied, best)
	s.maxX = max(s.maxX, best.x+best.w)
	s.maxZ = max(s.maxZ, best.z+best.d)

	return Placement{
		Item:     item,
		Dims:     model.Dimensions{W: best.w, H: best.h, D: best.d},
		Position: Point{X: best.x, Y: best.y, Z: best.z},
	}, true
}

// floorAt is the highest top surface under the footprint, 0 on the box floor.
func (s *packState) floorAt(x, z, w, d float64) float64 {
	floor := 0.0
	for _, o := range s.occupied {
		if o.overlapsFootprint(x, z, w, d) {
			floor = max(floor, o.y+o.h)
		}
	}
	return floor
}

func (s *packState) collides(c cuboid) bool {
	for _, o := range s.occupied {
		if o.intersects(c) {
			return true
		}
	}
	return false
}

func (s *packState) score(c cuboid) float64 {
	footprint := max(s.maxX, c.x+c.w) * max(s.maxZ, c.z+c.d)
	return footprint*footprintWeight + c.x*xWeight + c.z*zWeight - c.y*floorWeight
}

// orientations returns the six axis permutations, flattest first and, for
// equal heights, largest base first.
func orientations(d model.Dimensions) []model.Dimensions {
	all := []model.Dimensions{
		{W: d.W, H: d.H, D: d.D},
		{W: d.D, H: d.H, D: d.W},
		{W: d.W, H: d.D, D: d.H},
		{W: d.H, H: d.W, D: d.D},
		{W: d.D, H: d.W, D: d.H},
		{W: d.H, H: d.D, D: d.W},
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].H != all[j].H {
			return all[i].H < all[j].H
		}
		return all[i].W*all[i].D > all[j].W*all[j].D
	})
	return all
}

func unitsOf(items []model.Item) []model.Item {
	units := make([]model.Item, 0, len(items))
	for _, item := range items {
		n := item.Units()
		unit := item
		unit.Quantity = 1
		for i := 0; i < n; i++ {
			units = append(units, unit)
		}
	}
	return units
}
