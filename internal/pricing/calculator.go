package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDesignationRate substitutes a missing designation rate.
var DefaultDesignationRate = decimal.NewFromInt(1)

// Result groups a breakdown with the warnings raised while computing it.
type Result struct {
	Breakdown CostBreakdown `json:"breakdown"`
	Warnings  []Warning     `json:"warnings"`
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithAggregations replaces the designation strategy table.
func WithAggregations(table AggregationTable) CalculatorOption {
	return func(c *Calculator) { c.aggregations = table }
}

// WithDesignationDefault sets the rate used when a designation has none.
func WithDesignationDefault(rate decimal.Decimal) CalculatorOption {
	return func(c *Calculator) { c.designationDefault = rate }
}

// Calculator composes the five cost components of an item. It never writes.
type Calculator struct {
	resolver           *Resolver
	aggregations       AggregationTable
	designationDefault decimal.Decimal
}

// NewCalculator builds a Calculator over resolver.
func NewCalculator(resolver *Resolver, opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		resolver:           resolver,
		aggregations:       DefaultAggregations,
		designationDefault: DefaultDesignationRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute resolves every cost the composition refers to as of asOf and
// returns the breakdown. Missing costs zero their component (or fall back to
// the designation default) and add a warning; only ledger failures error.
func (c *Calculator) Compute(ctx context.Context, comp ItemComposition, tenant TenantID, asOf time.Time) (Result, error) {
	var (
		b        CostBreakdown
		warnings []Warning
	)

	if comp.Ranch {
		rec, ok, err := c.resolver.ResolveTenantWide(ctx, tenant, SubjectRanchRate, asOf)
		if err != nil {
			return Result{}, fmt.Errorf("compute ranch cost: %w", err)
		}
		if ok {
			b.RanchCost = rec.Value
		} else {
			warnings = append(warnings, Warning{Code: WarnRanchUnresolved, Message: "no ranch rate found, using 0"})
		}
	}

	raw, rawWarnings, err := c.rawCost(ctx, comp, tenant, asOf)
	if err != nil {
		return Result{}, err
	}
	b.RawCost = raw
	warnings = append(warnings, rawWarnings...)

	rec, ok, err := c.resolver.Resolve(ctx, tenant, SubjectPackaging, comp.PackagingID, asOf)
	if err != nil {
		return Result{}, fmt.Errorf("compute packaging cost: %w", err)
	}
	switch {
	case ok && rec.Parts != nil:
		b.PackagingCost = rec.Parts.Total()
	case ok:
		b.PackagingCost = rec.Value
	default:
		warnings = append(warnings, Warning{Code: WarnPackagingUnresolved, SubjectID: comp.PackagingID, Message: "no packaging cost found, using 0"})
	}

	if !comp.LaborHours.IsZero() {
		rec, ok, err := c.resolver.ResolveTenantWide(ctx, tenant, SubjectLaborRate, asOf)
		if err != nil {
			return Result{}, fmt.Errorf("compute labor cost: %w", err)
		}
		if ok {
			b.LaborCost = comp.LaborHours.Mul(rec.Value)
		} else {
			warnings = append(warnings, Warning{Code: WarnLaborUnresolved, Message: "no labor rate found, assuming 0 per hour"})
		}
	}

	rec, ok, err = c.resolver.Resolve(ctx, tenant, SubjectDesignationRate, string(comp.Designation), asOf)
	if err != nil {
		return Result{}, fmt.Errorf("compute designation cost: %w", err)
	}
	if ok {
		b.DesignationCost = rec.Value
	} else {
		b.DesignationCost = c.designationDefault
		warnings = append(warnings, Warning{
			Code:      WarnDesignationDefaulted,
			SubjectID: string(comp.Designation),
			Message:   fmt.Sprintf("no designation rate found for %q, using default %s", comp.Designation, c.designationDefault.StringFixed(2)),
		})
	}

	b.Total = b.RanchCost.Add(b.RawCost).Add(b.PackagingCost).Add(b.LaborCost).Add(b.DesignationCost)
	return Result{Breakdown: b, Warnings: warnings}, nil
}

func (c *Calculator) rawCost(ctx context.Context, comp ItemComposition, tenant TenantID, asOf time.Time) (decimal.Decimal, []Warning, error) {
	yield := EffectiveYield(comp.YieldFraction)

	var (
		contributions []decimal.Decimal
		warnings      []Warning
	)
	seen := make(map[string]struct{}, len(comp.RawMaterialIDs))
	for _, id := range comp.RawMaterialIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		rec, ok, err := c.resolver.Resolve(ctx, tenant, SubjectRawMaterial, id, asOf)
		if err != nil {
			return decimal.Zero, nil, fmt.Errorf("compute raw cost: %w", err)
		}
		if !ok {
			warnings = append(warnings, Warning{Code: WarnRawMaterialUnresolved, SubjectID: id, Message: "no cost found for raw material, skipped"})
			continue
		}
		contributions = append(contributions, rec.Value.Div(yield).Mul(comp.CaseWeight))
	}

	return c.aggregations.For(comp.Designation)(contributions), warnings, nil
}

// EffectiveYield substitutes 1 for a zero yield fraction.
func EffectiveYield(yield decimal.Decimal) decimal.Decimal {
	if yield.IsZero() {
		return decimal.NewFromInt(1)
	}
	return yield
}
