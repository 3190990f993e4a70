package api

import (
	"time"

	"github.com/eugenenazirov/boxkit/internal/advisor"
	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/optimizer"
	"github.com/eugenenazirov/boxkit/internal/packing"
)

type itemRequest struct {
	Name     string  `json:"name" validate:"max=120"`
	Color    string  `json:"color" validate:"max=40"`
	Width    float64 `json:"width" validate:"gt=0"`
	Height   float64 `json:"height" validate:"gt=0"`
	Depth    float64 `json:"depth" validate:"gt=0"`
	Quantity int     `json:"quantity" validate:"gte=0,lte=200"`
}

func toItems(reqs []itemRequest) []model.Item {
	items := make([]model.Item, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, model.Item{
			Name:     r.Name,
			Color:    r.Color,
			Width:    r.Width,
			Height:   r.Height,
			Depth:    r.Depth,
			Quantity: r.Quantity,
		})
	}
	return items
}

type optimizeRequest struct {
	Items                 []itemRequest `json:"items" validate:"dive"`
	Supplier              string        `json:"supplier"`
	Padding               *float64      `json:"padding" validate:"omitempty,gte=0,lte=10"`
	ReferenceQuantityTier *int          `json:"referenceQuantityTier" validate:"omitempty,gt=0"`
	ShippingRatePerKg     *float64      `json:"shippingRatePerKg" validate:"omitempty,gte=0"`
	DimensionalFactor     *float64      `json:"dimensionalFactor" validate:"omitempty,gt=0"`
	MaxBoxes              *int          `json:"maxBoxes" validate:"omitempty,gt=0,lte=20"`
	CourierTier           string        `json:"courierTier" validate:"max=40"`
}

// options overlays the request's overrides on the server defaults.
func (r optimizeRequest) options(defaults optimizer.Options) optimizer.Options {
	opts := defaults
	if r.Padding != nil {
		opts.Padding = *r.Padding
	}
	if r.ReferenceQuantityTier != nil {
		opts.ReferenceQuantity = *r.ReferenceQuantityTier
	}
	if r.ShippingRatePerKg != nil {
		opts.ShippingRatePerKg = *r.ShippingRatePerKg
	}
	if r.DimensionalFactor != nil {
		opts.DimensionalFactor = *r.DimensionalFactor
	}
	if r.MaxBoxes != nil {
		opts.MaxBoxes = *r.MaxBoxes
	}
	return opts
}

type optimizeResponse struct {
	Supplier    string `json:"supplier"`
	CourierTier string `json:"courierTier,omitempty"`
	optimizer.Result
	CalculationTimeMs int64 `json:"calculationTimeMs"`
}

type rankRequest struct {
	Items    []itemRequest `json:"items" validate:"required,min=1,dive"`
	Supplier string        `json:"supplier"`
	Padding  *float64      `json:"padding" validate:"omitempty,gte=0,lte=10"`
}

type rankResponse struct {
	Supplier string            `json:"supplier"`
	Best     *string           `json:"best"`
	Rankings []packing.Ranking `json:"rankings"`
}

type stockRequest struct {
	Supplier      string   `json:"supplier"`
	MonthlyOrders *int     `json:"monthlyOrders" validate:"omitempty,gte=0,lte=1000000"`
	SafetyBuffer  *float64 `json:"safetyBuffer" validate:"omitempty,gte=0,lte=100"`
}

type stockResponse struct {
	Supplier string `json:"supplier"`
	advisor.Plan
}

type boxRequest struct {
	ID      string          `json:"id" validate:"required,max=64"`
	Name    string          `json:"name" validate:"max=120"`
	Width   float64         `json:"width" validate:"gt=0"`
	Height  float64         `json:"height" validate:"gt=0"`
	Depth   float64         `json:"depth" validate:"gt=0"`
	Type    string          `json:"type" validate:"omitempty,oneof=laptop regular"`
	Layers  int             `json:"layers" validate:"gte=0"`
	Colors  []string        `json:"colors"`
	Prices  map[int]float64 `json:"prices" validate:"omitempty,dive,keys,gt=0,endkeys,gte=0"`
	Typical string          `json:"typical" validate:"max=200"`
}

func (b boxRequest) toModel() model.Box {
	typ := model.BoxType(b.Type)
	if typ == "" {
		typ = model.BoxTypeRegular
	}
	return model.Box{
		ID:      b.ID,
		Name:    b.Name,
		Width:   b.Width,
		Height:  b.Height,
		Depth:   b.Depth,
		Type:    typ,
		Layers:  b.Layers,
		Colors:  b.Colors,
		Prices:  model.PriceTable(b.Prices),
		Typical: b.Typical,
	}
}

type boxesRequest struct {
	Boxes []boxRequest `json:"boxes" validate:"required,min=1,max=100,dive"`
}

type boxView struct {
	model.Box
	CourierTier string `json:"courierTier,omitempty"`
}

type boxesResponse struct {
	Supplier  string    `json:"supplier"`
	Boxes     []boxView `json:"boxes"`
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type supplierSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BoxCount  int       `json:"boxCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type suppliersResponse struct {
	Suppliers []supplierSummary `json:"suppliers"`
}

type courierTierView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Max         model.Dimensions `json:"max"`
	MaxWeightKg *float64         `json:"maxWeightKg"`
}

type courierRecommendation struct {
	Tier   string    `json:"tier"`
	Box    model.Box `json:"box"`
	Volume float64   `json:"volume"`
}

type courierTiersResponse struct {
	Supplier        string                  `json:"supplier"`
	Tiers           []courierTierView       `json:"tiers"`
	Recommendations []courierRecommendation `json:"recommendations"`
}
