// Package pricing resolves bulk price tiers and prices box assignments,
// including dimensional shipping weight.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/boxkit/internal/model"
)

var thousand = decimal.NewFromInt(1000)

// ResolveTier returns the largest threshold not exceeding qty, or the smallest
// threshold when qty is below all of them. ok is false for an empty table.
func ResolveTier(prices model.PriceTable, qty int) (tier int, ok bool) {
	tiers := prices.Thresholds()
	if len(tiers) == 0 {
		return 0, false
	}
	tier = tiers[0]
	for _, t := range tiers {
		if qty >= t {
			tier = t
		}
	}
	return tier, true
}

// TierPrice returns the price of one block at the tier resolved for qty.
func TierPrice(prices model.PriceTable, qty int) float64 {
	tier, ok := ResolveTier(prices, qty)
	if !ok {
		return 0
	}
	return prices[tier]
}

// UnitPrice returns the price of a single box, in whole currency units, at the
// tier resolved for qty.
func UnitPrice(prices model.PriceTable, qty int) float64 {
	tier, ok := ResolveTier(prices, qty)
	if !ok {
		return 0
	}
	return decimal.NewFromFloat(prices[tier]).
		Mul(thousand).
		Div(decimal.NewFromInt(int64(tier))).
		InexactFloat64()
}

// TotalCost prices qty boxes in whole tier blocks: floor(qty/tier) * price.
// Units that do not fill a complete block are not priced.
// TODO: confirm with purchasing whether a partial block should be charged at
// the next block price; until then this mirrors the supplier sheet maths.
func TotalCost(prices model.PriceTable, qty int) float64 {
	if qty <= 0 {
		return 0
	}
	tier, ok := ResolveTier(prices, qty)
	if !ok {
		return 0
	}
	blocks := decimal.NewFromInt(int64(qty / tier))
	return blocks.Mul(decimal.NewFromFloat(prices[tier])).InexactFloat64()
}

// RoundToTier rounds qty up to the smallest threshold that covers it. Above
// the largest threshold it rounds up to a multiple of the largest one.
func RoundToTier(prices model.PriceTable, qty int) int {
	if qty <= 0 {
		return 0
	}
	tiers := prices.Thresholds()
	if len(tiers) == 0 {
		return qty
	}
	for _, t := range tiers {
		if t >= qty {
			return t
		}
	}
	largest := tiers[len(tiers)-1]
	return ((qty + largest - 1) / largest) * largest
}

// FormatThousands renders a price given in thousands, e.g. 13 -> "13K",
// 1240 -> "1.2M".
func FormatThousands(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.1fM", v/1000)
	}
	return decimal.NewFromFloat(v).String() + "K"
}

// FormatCost renders an amount in whole currency units.
func FormatCost(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1000:
		return decimal.NewFromFloat(v/1000).Round(0).String() + "K"
	default:
		return decimal.NewFromFloat(v).Round(0).String()
	}
}
