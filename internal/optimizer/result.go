package optimizer

import (
	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/packing"
	"github.com/eugenenazirov/boxkit/internal/pricing"
)

// Strategy names the search used for an order.
type Strategy string

const (
	StrategyExact   Strategy = "exact"
	StrategyBounded Strategy = "bounded"
	StrategyGreedy  Strategy = "greedy"
)

// Result is the optimal solution plus up to three cheaper-first alternatives.
// Optimal is nil when there is nothing to pack or no grouping fits.
type Result struct {
	Optimal      *Solution  `json:"optimal"`
	Alternatives []Solution `json:"alternatives"`
	Analysis     Analysis   `json:"analysis"`
}

// Analysis describes how a Result was produced.
type Analysis struct {
	ItemCount           int      `json:"itemCount"`
	OriginalItemCount   int      `json:"originalItemCount,omitempty"`
	Strategy            Strategy `json:"strategy,omitempty"`
	// PartitionsEvaluated is set by the exact and bounded searches only.
	PartitionsEvaluated int      `json:"partitionsEvaluated,omitempty"`
	SolutionsEvaluated  int      `json:"solutionsEvaluated,omitempty"`
	BudgetExpired       bool     `json:"budgetExpired,omitempty"`
	Message             string   `json:"message,omitempty"`
}

// Solution is a complete assignment of every unit to a box.
type Solution struct {
	Assignments       []Assignment `json:"assignments"`
	NumBoxes          int          `json:"numBoxes"`
	TotalBoxCost      float64      `json:"totalBoxCost"`
	TotalShippingCost float64      `json:"totalShippingCost"`
	TotalCost         float64      `json:"totalCost"`
	// CostDiff and CostDiffPercent compare an alternative with the optimal one.
	CostDiff        float64 `json:"costDiff,omitempty"`
	CostDiffPercent int     `json:"costDiffPercent,omitempty"`
}

// Assignment is one box and the units packed into it.
type Assignment struct {
	Box        BoxSummary          `json:"box"`
	Items      []model.Item        `json:"items"`
	Summary    []ItemCount         `json:"itemSummary"`
	Placements []packing.Placement `json:"placements"`
	Fit        packing.Fit         `json:"fit"`
	Cost       pricing.Cost        `json:"cost"`
	// CourierTier is empty when the box exceeds every courier tier.
	CourierTier string `json:"courierTier,omitempty"`
}

// BoxSummary is the part of a catalog box downstream consumers need.
type BoxSummary struct {
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Depth  float64       `json:"depth"`
	Type   model.BoxType `json:"type"`
	Layers int           `json:"layers"`
}

func summarizeBox(b model.Box) BoxSummary {
	return BoxSummary{
		ID:     b.ID,
		Name:   b.Name,
		Width:  b.Width,
		Height: b.Height,
		Depth:  b.Depth,
		Type:   b.Type,
		Layers: b.Layers,
	}
}

// ItemCount counts the units of one order line inside an assignment.
type ItemCount struct {
	Origin   int    `json:"origin"`
	Name     string `json:"name,omitempty"`
	Color    string `json:"color,omitempty"`
	Quantity int    `json:"quantity"`
}
