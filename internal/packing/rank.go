package packing

import (
	"sort"

	"github.com/eugenenazirov/boxkit/internal/model"
)

const (
	goodFillThreshold = 30.0
	infeasibleScore   = -1000.0
)

// Ranking is the assessment of one candidate box. Packed is the geometric
// verdict; Fit is informational.
type Ranking struct {
	Box        model.Box   `json:"box"`
	Fit        Fit         `json:"fit"`
	Packed     bool        `json:"packed"`
	Placements []Placement `json:"placements"`
	Score      float64     `json:"score"`
}

// Rank packs items into every box and orders the results: boxes that hold
// every item first, by efficiency descending, then the rest in catalog order.
func Rank(boxes []model.Box, items []model.Item, padding float64) []Ranking {
	if len(items) == 0 {
		return nil
	}

	ranked := make([]Ranking, 0, len(boxes))
	for _, box := range boxes {
		fit := EvaluateFit(box, items, padding)
		placements := Pack(items, box, padding)
		packed := AllFit(placements)
		ranked = append(ranked, Ranking{
			Box:        box,
			Fit:        fit,
			Packed:     packed,
			Placements: placements,
			Score:      rankScore(packed, fit.Efficiency),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Packed != b.Packed {
			return a.Packed
		}
		if a.Packed {
			return a.Fit.Efficiency > b.Fit.Efficiency
		}
		return false
	})
	return ranked
}

func rankScore(packed bool, efficiency float64) float64 {
	switch {
	case !packed:
		return infeasibleScore
	case efficiency > goodFillThreshold:
		return 150 - efficiency
	default:
		return 50 - efficiency
	}
}

// Best returns the highest ranked box that holds every item.
func Best(boxes []model.Box, items []model.Item, padding float64) (model.Box, bool) {
	return BestOf(Rank(boxes, items, padding))
}

// BestOf returns the first packed box of rankings already ordered by Rank.
func BestOf(rankings []Ranking) (model.Box, bool) {
	for _, r := range rankings {
		if r.Packed {
			return r.Box, true
		}
	}
	return model.Box{}, false
}

// SmallestFitting returns the smallest-volume box that holds every item,
// together with the placements. Equal volumes keep catalog order. Boxes the
// volumetric check already rules out are not packed.
func SmallestFitting(boxes []model.Box, items []model.Item, padding float64) (model.Box, []Placement, bool) {
	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return boxes[order[i]].Volume() < boxes[order[j]].Volume()
	})

	for _, idx := range order {
		box := boxes[idx]
		if fit := EvaluateFit(box, items, padding); fit.Reason != ReasonNone {
			continue
		}
		placements := Pack(items, box, padding)
		if AllFit(placements) {
			return box, placements, true
		}
	}
	return model.Box{}, nil, false
}
