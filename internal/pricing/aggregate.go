package pricing

import "github.com/shopspring/decimal"

// Aggregation folds per-material contributions into a raw cost.
type Aggregation func(contributions []decimal.Decimal) decimal.Decimal

// Sum treats the materials as a bill of materials.
func Sum(contributions []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range contributions {
		total = total.Add(c)
	}
	return total
}

// Mean prices a case filled from one of several interchangeable materials.
// No contributions yields zero.
func Mean(contributions []decimal.Decimal) decimal.Decimal {
	if len(contributions) == 0 {
		return decimal.Zero
	}
	return Sum(contributions).Div(decimal.NewFromInt(int64(len(contributions))))
}

// AggregationTable maps a designation to its raw-cost strategy. Designations
// missing from the table use Sum.
type AggregationTable map[Designation]Aggregation

// DefaultAggregations averages combo items and sums everything else.
var DefaultAggregations = AggregationTable{
	DesignationCombo: Mean,
}

// For returns the strategy for d.
func (t AggregationTable) For(d Designation) Aggregation {
	if agg, ok := t[d]; ok && agg != nil {
		return agg
	}
	return Sum
}
