package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/boxkit/internal/model"
)

const (
	// DefaultReferenceQuantity is the batch size boxes are priced at.
	DefaultReferenceQuantity = 25
	// DefaultDimensionalFactor converts cm^3 to volumetric kilograms.
	DefaultDimensionalFactor = 5000.0
)

// Cost is the price breakdown of one box. Unit is the supplier's list price
// per box at the tier the reference quantity falls in.
type Cost struct {
	Unit     float64 `json:"unitPrice"`
	Box      float64 `json:"boxCost"`
	Shipping float64 `json:"shippingCost"`
	Total    float64 `json:"totalCost"`
}

// Calculator prices box assignments. The zero value prices at the default
// reference quantity with shipping disabled.
type Calculator struct {
	// ReferenceQuantity is the order batch the box price tier is resolved at.
	ReferenceQuantity int
	// ShippingRatePerKg is charged per volumetric kilogram; 0 disables shipping.
	ShippingRatePerKg float64
	// DimensionalFactor divides cm^3 to get volumetric kilograms.
	DimensionalFactor float64
}

// NewCalculator builds a Calculator, substituting defaults for non-positive
// reference quantity and dimensional factor.
func NewCalculator(referenceQty int, shippingRatePerKg, dimensionalFactor float64) Calculator {
	c := Calculator{
		ReferenceQuantity: referenceQty,
		ShippingRatePerKg: shippingRatePerKg,
		DimensionalFactor: dimensionalFactor,
	}
	return c.normalized()
}

func (c Calculator) normalized() Calculator {
	if c.ReferenceQuantity <= 0 {
		c.ReferenceQuantity = DefaultReferenceQuantity
	}
	if c.DimensionalFactor <= 0 {
		c.DimensionalFactor = DefaultDimensionalFactor
	}
	if c.ShippingRatePerKg < 0 {
		c.ShippingRatePerKg = 0
	}
	return c
}

// BoxCost is the per-box price: the tier price at the reference quantity,
// converted from thousands and divided by the reference quantity. A box
// without price tiers costs nothing.
func (c Calculator) BoxCost(box model.Box) float64 {
	c = c.normalized()
	price := TierPrice(box.Prices, c.ReferenceQuantity)
	if price == 0 {
		return 0
	}
	return decimal.NewFromFloat(price).
		Mul(thousand).
		Div(decimal.NewFromInt(int64(c.ReferenceQuantity))).
		InexactFloat64()
}

// DimensionalWeight returns the volumetric weight of the box in kilograms.
func (c Calculator) DimensionalWeight(box model.Box) float64 {
	c = c.normalized()
	return decimal.NewFromFloat(box.Volume()).
		Div(decimal.NewFromFloat(c.DimensionalFactor)).
		InexactFloat64()
}

// ShippingCost charges the dimensional weight at the configured rate.
func (c Calculator) ShippingCost(box model.Box) float64 {
	c = c.normalized()
	if c.ShippingRatePerKg <= 0 {
		return 0
	}
	return decimal.NewFromFloat(c.DimensionalWeight(box)).
		Mul(decimal.NewFromFloat(c.ShippingRatePerKg)).
		InexactFloat64()
}

// Price returns the full breakdown for a single box.
func (c Calculator) Price(box model.Box) Cost {
	c = c.normalized()
	boxCost := c.BoxCost(box)
	shipping := c.ShippingCost(box)
	return Cost{
		Unit:     UnitPrice(box.Prices, c.ReferenceQuantity),
		Box:      boxCost,
		Shipping: shipping,
		Total:    boxCost + shipping,
	}
}
