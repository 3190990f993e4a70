package advisor

import "math"

// Pattern is a kind of order and the share of monthly orders it represents.
type Pattern struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
	Size   string  `json:"size" yaml:"size"`
}

// SizeRange bounds a size class by box volume in cm^3. A zero Max is open ended.
type SizeRange struct {
	Min float64 `json:"min,omitempty" yaml:"min"`
	Max float64 `json:"max,omitempty" yaml:"max"`
}

func (r SizeRange) contains(vol float64) bool {
	return vol >= r.Min && (r.Max == 0 || vol <= r.Max)
}

// target is the volume a size class aims for: its upper bound, or the lower
// bound when open ended.
func (r SizeRange) target() float64 {
	if r.Max > 0 {
		return r.Max
	}
	return r.Min
}

// score ranks in-range boxes; lower is closer to the target.
func (r SizeRange) score(vol float64) float64 {
	return math.Abs(vol - r.target())
}

// fallbackRange applies to size classes missing from the range table.
var fallbackRange = SizeRange{Max: 10000}

// DefaultPatterns is the order mix of a PC component shop.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{ID: "storage-upgrade", Name: "Storage Upgrade", Weight: 0.15, Size: "xs"},
		{ID: "ram-upgrade", Name: "Memory Upgrade", Weight: 0.12, Size: "s"},
		{ID: "gpu-only", Name: "GPU Upgrade", Weight: 0.18, Size: "m"},
		{ID: "cpu-cooler-combo", Name: "CPU + Cooler Combo", Weight: 0.10, Size: "m"},
		{ID: "platform-upgrade", Name: "Platform Upgrade", Weight: 0.12, Size: "l"},
		{ID: "gpu-psu-combo", Name: "GPU + PSU Combo", Weight: 0.08, Size: "l"},
		{ID: "full-build-internal", Name: "Full Build (No Case)", Weight: 0.08, Size: "xl"},
		{ID: "peripherals-bundle", Name: "Peripherals Bundle", Weight: 0.07, Size: "m"},
		{ID: "case-order", Name: "PC Case Only", Weight: 0.05, Size: "case-m"},
		{ID: "monitor-order", Name: "Monitor Only", Weight: 0.05, Size: "monitor-m"},
	}
}

// DefaultSizeRanges maps size classes to box volumes.
func DefaultSizeRanges() map[string]SizeRange {
	return map[string]SizeRange{
		"xs":        {Max: 1500},
		"s":         {Max: 6000},
		"m":         {Max: 20000},
		"l":         {Max: 50000},
		"xl":        {Max: 100000},
		"xxl":       {Max: 150000},
		"case-m":    {Min: 100000, Max: 130000},
		"case-l":    {Min: 130000},
		"monitor-s": {Min: 60000, Max: 80000},
		"monitor-m": {Min: 80000, Max: 100000},
		"monitor-l": {Min: 100000},
	}
}
