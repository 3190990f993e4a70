package model

import "sort"

// BoxType tags a catalog box by construction.
type BoxType string

const (
	// BoxTypeFlat is a laptop-style folding box.
	BoxTypeFlat BoxType = "laptop"
	// BoxTypeRegular is a regular slotted carton.
	BoxTypeRegular BoxType = "regular"
)

// Dimensions is a width/height/depth triple in centimetres.
type Dimensions struct {
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
	D float64 `json:"d" yaml:"d"`
}

// Volume returns W*H*D.
func (d Dimensions) Volume() float64 {
	return d.W * d.H * d.D
}

// Sorted returns the three dimensions largest first.
func (d Dimensions) Sorted() [3]float64 {
	s := []float64{d.W, d.H, d.D}
	sort.Sort(sort.Reverse(sort.Float64Slice(s)))
	return [3]float64{s[0], s[1], s[2]}
}

// Shrink removes padding from every side of each axis.
func (d Dimensions) Shrink(padding float64) Dimensions {
	return Dimensions{W: d.W - 2*padding, H: d.H - 2*padding, D: d.D - 2*padding}
}

// Positive reports whether every axis is strictly positive.
func (d Dimensions) Positive() bool {
	return d.W > 0 && d.H > 0 && d.D > 0
}

// FitsWithin reports whether d fits inside outer under some axis permutation.
func (d Dimensions) FitsWithin(outer Dimensions) bool {
	a, b := d.Sorted(), outer.Sorted()
	return a[0] <= b[0] && a[1] <= b[1] && a[2] <= b[2]
}

// Item is an order line. Quantity > 1 stands for that many identical units.
type Item struct {
	Name     string  `json:"name,omitempty"`
	Color    string  `json:"color,omitempty"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Depth    float64 `json:"depth"`
	Quantity int     `json:"quantity"`
	// Origin is the index of the order line a unit was expanded from.
	Origin int `json:"origin"`
}

// Dims returns the item's dimensions.
func (i Item) Dims() Dimensions {
	return Dimensions{W: i.Width, H: i.Height, D: i.Depth}
}

// Volume returns the volume of a single unit.
func (i Item) Volume() float64 {
	return i.Width * i.Height * i.Depth
}

// BaseArea returns the width*depth footprint of a unit as given.
func (i Item) BaseArea() float64 {
	return i.Width * i.Depth
}

// Units returns the quantity, treating non-positive values as one.
func (i Item) Units() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

// Expand flattens order lines into unit items with Quantity 1. Each unit
// records the index of its originating line.
func Expand(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for idx, item := range items {
		for n := 0; n < item.Units(); n++ {
			unit := item
			unit.Quantity = 1
			unit.Origin = idx
			out = append(out, unit)
		}
	}
	return out
}

// TotalUnits sums the quantities of the given lines.
func TotalUnits(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Units()
	}
	return total
}

// PriceTable maps an order-quantity threshold to the price of that many boxes,
// in thousands of the local currency.
type PriceTable map[int]float64

// Thresholds returns the positive thresholds in ascending order.
func (p PriceTable) Thresholds() []int {
	out := make([]int, 0, len(p))
	for tier := range p {
		if tier > 0 {
			out = append(out, tier)
		}
	}
	sort.Ints(out)
	return out
}

// Box is a catalog entry.
type Box struct {
	ID      string     `json:"id" yaml:"id"`
	Name    string     `json:"name,omitempty" yaml:"name"`
	Width   float64    `json:"width" yaml:"w"`
	Height  float64    `json:"height" yaml:"h"`
	Depth   float64    `json:"depth" yaml:"d"`
	Type    BoxType    `json:"type" yaml:"type"`
	Layers  int        `json:"layers" yaml:"layers"`
	Colors  []string   `json:"colors,omitempty" yaml:"colors"`
	Prices  PriceTable `json:"prices" yaml:"prices"`
	Typical string     `json:"typical,omitempty" yaml:"typical"`
}

// Dims returns the box's outer dimensions.
func (b Box) Dims() Dimensions {
	return Dimensions{W: b.Width, H: b.Height, D: b.Depth}
}

// Volume returns the outer volume of the box.
func (b Box) Volume() float64 {
	return b.Width * b.Height * b.Depth
}
