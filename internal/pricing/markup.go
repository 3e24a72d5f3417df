package pricing

import "github.com/shopspring/decimal"

// DefaultMarkupTiers are the suggested markup percentages.
var DefaultMarkupTiers = []int{25, 30, 35, 40, 45}

// SubunitsPerUnit converts a per-unit-weight cost into a per-subunit cost
// (ounces per pound).
const SubunitsPerUnit = 16

var quarters = decimal.NewFromInt(4)

// TierPrice is the selling price at one markup percentage.
type TierPrice struct {
	Percent int             `json:"percent"`
	Price   decimal.Decimal `json:"price"`
}

// Projection is the price guidance derived from a total cost.
type Projection struct {
	TotalCost         decimal.Decimal `json:"total_cost"`
	CostPerUnitWeight decimal.Decimal `json:"cost_per_unit_weight"`
	CostPerSubunit    decimal.Decimal `json:"cost_per_subunit"`
	Prices            []TierPrice     `json:"prices"`
}

// At returns the price for percent, if it was projected.
func (p Projection) At(percent int) (decimal.Decimal, bool) {
	for _, tp := range p.Prices {
		if tp.Percent == percent {
			return tp.Price, true
		}
	}
	return decimal.Zero, false
}

// Map returns the prices keyed by percent.
func (p Projection) Map() map[int]decimal.Decimal {
	m := make(map[int]decimal.Decimal, len(p.Prices))
	for _, tp := range p.Prices {
		m[tp.Percent] = tp.Price
	}
	return m
}

// MarkupPrice marks total up by percent and rounds up to the next quarter.
// It never rounds down.
func MarkupPrice(total decimal.Decimal, percent int) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 + percent)).Div(hundred)
	return total.Mul(factor).Mul(quarters).Ceil().Div(quarters)
}

// Project computes markup prices for each tier plus per-weight figures.
// Nil tiers use DefaultMarkupTiers; a zero case weight yields zero per-weight
// costs.
func Project(total, caseWeight decimal.Decimal, tiers []int) Projection {
	if tiers == nil {
		tiers = DefaultMarkupTiers
	}

	p := Projection{
		TotalCost: total,
		Prices:    make([]TierPrice, 0, len(tiers)),
	}
	if !caseWeight.IsZero() {
		p.CostPerUnitWeight = total.Div(caseWeight)
		p.CostPerSubunit = p.CostPerUnitWeight.Div(decimal.NewFromInt(SubunitsPerUnit))
	}
	for _, pct := range tiers {
		p.Prices = append(p.Prices, TierPrice{Percent: pct, Price: MarkupPrice(total, pct)})
	}
	return p
}
