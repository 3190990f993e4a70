// Package courier maps boxes onto the size tiers couriers charge by.
package courier

import (
	"math"
	"sort"

	"github.com/eugenenazirov/boxkit/internal/model"
)

// Tier is a courier size class. MaxWeightKg of +Inf means no weight limit.
type Tier struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Max         model.Dimensions `json:"max"`
	MaxWeightKg float64          `json:"-"`
}

// DefaultTiers returns the courier tiers, smallest first.
func DefaultTiers() []Tier {
	return []Tier{
		{ID: "small", Name: "Small", Max: model.Dimensions{W: 60, H: 35, D: 40}, MaxWeightKg: 20},
		{ID: "medium", Name: "Medium", Max: model.Dimensions{W: 80, H: 50, D: 60}, MaxWeightKg: 40},
		{ID: "large", Name: "Large", Max: model.Dimensions{W: 100, H: 70, D: 80}, MaxWeightKg: 60},
		{ID: "xlarge", Name: "Extra Large", Max: model.Dimensions{W: 100, H: 70, D: 80}, MaxWeightKg: math.Inf(1)},
	}
}

// Accepts reports whether the box fits the tier's limits under some rotation.
func (t Tier) Accepts(box model.Box) bool {
	return box.Dims().FitsWithin(t.Max)
}

// Classifier resolves boxes to the first tier that accepts them.
type Classifier struct {
	tiers []Tier
}

// NewClassifier uses the given tiers in order, or DefaultTiers when none are given.
func NewClassifier(tiers ...Tier) *Classifier {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Classifier{tiers: append([]Tier(nil), tiers...)}
}

// Tiers returns a copy of the configured tiers.
func (c *Classifier) Tiers() []Tier {
	return append([]Tier(nil), c.tiers...)
}

// TierFor returns the smallest tier that accepts the box.
func (c *Classifier) TierFor(box model.Box) (Tier, bool) {
	for _, t := range c.tiers {
		if t.Accepts(box) {
			return t, true
		}
	}
	return Tier{}, false
}

// Lookup returns the tier with the given id.
func (c *Classifier) Lookup(id string) (Tier, bool) {
	for _, t := range c.tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// BoxesFor filters boxes down to those a tier accepts. An unknown tier id
// returns every box.
func (c *Classifier) BoxesFor(boxes []model.Box, tierID string) []model.Box {
	tier, ok := c.Lookup(tierID)
	if !ok {
		return boxes
	}

	out := make([]model.Box, 0, len(boxes))
	for _, b := range boxes {
		if tier.Accepts(b) {
			out = append(out, b)
		}
	}
	return out
}

// Recommendation is the largest box that still ships in a tier.
type Recommendation struct {
	Tier   Tier      `json:"tier"`
	Box    model.Box `json:"box"`
	Volume float64   `json:"volume"`
}

// Recommend picks, per tier, the largest box the tier accepts. A box already
// recommended for a smaller tier is not repeated.
func (c *Classifier) Recommend(boxes []model.Box) []Recommendation {
	seen := make(map[string]struct{})
	var out []Recommendation
	for _, t := range c.tiers {
		fitting := c.BoxesFor(boxes, t.ID)
		if len(fitting) == 0 {
			continue
		}
		sorted := append([]model.Box(nil), fitting...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Volume() > sorted[j].Volume()
		})
		largest := sorted[0]
		if _, dup := seen[largest.ID]; dup {
			continue
		}
		seen[largest.ID] = struct{}{}
		out = append(out, Recommendation{Tier: t, Box: largest, Volume: largest.Volume()})
	}
	return out
}
