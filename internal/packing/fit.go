package packing

import "github.com/eugenenazirov/boxkit/internal/model"

const (
	tightThreshold    = 85.0
	overfullThreshold = 100.0
)

// FitReason explains why a box cannot hold a set of items.
type FitReason string

const (
	// ReasonNone means the box may hold the items.
	ReasonNone FitReason = ""
	// ReasonNoInterior means padding leaves no usable space.
	ReasonNoInterior FitReason = "no-interior"
	// ReasonTooSmall means some item does not fit in any orientation.
	ReasonTooSmall FitReason = "too-small"
	// ReasonVolume means the items need more volume than the box has.
	ReasonVolume FitReason = "volume"
)

// Fit is the volumetric assessment of a (box, items, padding) tuple.
// Efficiency is the percentage used for classification: the dimensional fit
// for a lone single-unit item, the volume ratio otherwise.
type Fit struct {
	Fits             bool             `json:"fits"`
	Tight            bool             `json:"tight"`
	Reason           FitReason        `json:"reason,omitempty"`
	Efficiency       float64          `json:"efficiency"`
	VolumeEfficiency float64          `json:"volumeEfficiency"`
	Usable           model.Dimensions `json:"usable"`
	ItemVolume       float64          `json:"itemVolume"`
}

// EvaluateFit computes the usable interior, the item volume and the fill
// percentage of box for items.
func EvaluateFit(box model.Box, items []model.Item, padding float64) Fit {
	usable := box.Dims().Shrink(padding)
	fit := Fit{Usable: usable}
	if !usable.Positive() {
		fit.Reason = ReasonNoInterior
		return fit
	}

	units := 0
	for _, item := range items {
		fit.ItemVolume += item.Volume() * float64(item.Units())
		units += item.Units()
		if !item.Dims().FitsWithin(usable) {
			fit.Reason = ReasonTooSmall
		}
	}
	if fit.Reason != ReasonNone {
		fit.ItemVolume = 0
		return fit
	}

	fit.VolumeEfficiency = fit.ItemVolume / usable.Volume() * 100
	fit.Efficiency = fit.VolumeEfficiency
	if len(items) == 1 && units == 1 {
		fit.Efficiency = dimensionalEfficiency(items[0].Dims(), usable)
	}

	switch {
	case fit.Efficiency > overfullThreshold:
		fit.Reason = ReasonVolume
	case fit.Efficiency > tightThreshold:
		fit.Fits, fit.Tight = true, true
	default:
		fit.Fits = true
	}
	return fit
}

// dimensionalEfficiency multiplies the per-axis ratios of the sorted item
// dimensions to the sorted interior dimensions.
func dimensionalEfficiency(item, usable model.Dimensions) float64 {
	a, b := item.Sorted(), usable.Sorted()
	return a[0] / b[0] * (a[1] / b[1]) * (a[2] / b[2]) * 100
}
