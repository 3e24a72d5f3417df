package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeStocker/producepricer/internal/ledger"
	"github.com/CadeStocker/producepricer/internal/pricing"
)

const (
	tenantA pricing.TenantID = "tenant-a"
	tenantB pricing.TenantID = "tenant-b"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	w, err := decimal.NewFromString(want)
	require.NoError(t, err)
	assert.Truef(t, got.Equal(w), "%s = %s, want %s", name, got, want)
}

func record(t *testing.T, tenant pricing.TenantID, st pricing.SubjectType, id, value, date string) pricing.CostRecord {
	t.Helper()
	return pricing.CostRecord{
		Tenant:        tenant,
		SubjectType:   st,
		SubjectID:     id,
		Value:         dec(t, value),
		EffectiveDate: day(t, date),
	}
}

func newCalculator(l *ledger.Memory) *pricing.Calculator {
	return pricing.NewCalculator(pricing.NewResolver(l))
}

func warningCodes(ws []pricing.Warning) []pricing.WarningCode {
	codes := make([]pricing.WarningCode, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

func TestCompute_NonComboSumsContributions(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "10", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectDesignationRate, "retail", "0", "2024-01-01"))

	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"carrot"},
		Designation:    pricing.DesignationRetail,
		CaseWeight:     dec(t, "10"),
		YieldFraction:  dec(t, "0.8"),
	}

	res, err := newCalculator(l).Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)

	assertDecimal(t, "raw", res.Breakdown.RawCost, "125.00")
	assertDecimal(t, "total", res.Breakdown.Total, "125.00")
}

func TestCompute_ComboAveragesContributions(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "celery", "10", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "broccoli", "20", "2024-01-01"))

	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"celery", "broccoli"},
		Designation:    pricing.DesignationCombo,
		CaseWeight:     dec(t, "1"),
		YieldFraction:  dec(t, "1"),
	}

	res, err := newCalculator(l).Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertDecimal(t, "combo raw", res.Breakdown.RawCost, "15.00")

	comp.Designation = pricing.DesignationFoodservice
	res, err = newCalculator(l).Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertDecimal(t, "foodservice raw", res.Breakdown.RawCost, "30.00")
}

func TestCompute_CustomAggregationTable(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "celery", "10", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "broccoli", "20", "2024-01-01"))

	calc := pricing.NewCalculator(pricing.NewResolver(l),
		pricing.WithAggregations(pricing.AggregationTable{pricing.DesignationFoodservice: pricing.Mean}))
	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"celery", "broccoli"},
		Designation:    pricing.DesignationFoodservice,
		CaseWeight:     dec(t, "1"),
		YieldFraction:  dec(t, "1"),
	}

	res, err := calc.Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertDecimal(t, "foodservice raw", res.Breakdown.RawCost, "15.00")

	comp.Designation = pricing.DesignationCombo
	res, err = calc.Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertDecimal(t, "combo raw outside the table", res.Breakdown.RawCost, "30.00")
}

func TestCompute_ComboDropsUnresolvedMaterialsFromCount(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "celery", "12", "2024-01-01"))

	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"celery", "ghost"},
		Designation:    pricing.DesignationCombo,
		CaseWeight:     dec(t, "1"),
		YieldFraction:  dec(t, "1"),
	}

	res, err := newCalculator(l).Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertDecimal(t, "raw", res.Breakdown.RawCost, "12")
	assert.Contains(t, warningCodes(res.Warnings), pricing.WarnRawMaterialUnresolved)
}

func TestCompute_ComboWithNoResolvedMaterialsIsZero(t *testing.T) {
	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"ghost"},
		Designation:    pricing.DesignationCombo,
		CaseWeight:     dec(t, "5"),
	}

	res, err := newCalculator(ledger.NewMemory()).Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.True(t, res.Breakdown.RawCost.IsZero())
}

func TestCompute_ZeroYieldMatchesYieldOne(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "kale", "7.5", "2024-01-01"))

	base := pricing.ItemComposition{
		RawMaterialIDs: []string{"kale"},
		Designation:    pricing.DesignationRetail,
		CaseWeight:     dec(t, "4"),
	}
	zero := base
	zero.YieldFraction = decimal.Zero
	one := base
	one.YieldFraction = dec(t, "1")

	calc := newCalculator(l)
	got, err := calc.Compute(context.Background(), zero, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	want, err := calc.Compute(context.Background(), one, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)

	assert.True(t, got.Breakdown.RawCost.Equal(want.Breakdown.RawCost))
	assertDecimal(t, "raw", got.Breakdown.RawCost, "30")
}

func TestCompute_AllComponents(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "onion", "20", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectRanchRate, pricing.TenantWide, "3.5", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectLaborRate, pricing.TenantWide, "18", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectDesignationRate, "snakpak", "0.75", "2024-01-01"))
	parts := pricing.PackagingParts{
		Box:          dec(t, "1.00"),
		Bag:          dec(t, "0.25"),
		TrayChemical: dec(t, "0.10"),
		LabelTape:    dec(t, "0.05"),
	}
	pkg := record(t, tenantA, pricing.SubjectPackaging, "box-10", "999", "2024-01-01")
	pkg.Parts = &parts
	l.Append(pkg)

	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"onion"},
		PackagingID:    "box-10",
		Designation:    pricing.DesignationSnakPak,
		Ranch:          true,
		CaseWeight:     dec(t, "2"),
		YieldFraction:  dec(t, "0.5"),
		LaborHours:     dec(t, "0.25"),
	}

	res, err := newCalculator(l).Compute(context.Background(), comp, tenantA, day(t, "2024-03-01"))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	b := res.Breakdown
	assertDecimal(t, "ranch", b.RanchCost, "3.5")
	assertDecimal(t, "raw", b.RawCost, "80")
	assertDecimal(t, "packaging", b.PackagingCost, "1.40")
	assertDecimal(t, "labor", b.LaborCost, "4.5")
	assertDecimal(t, "designation", b.DesignationCost, "0.75")
	assertDecimal(t, "total", b.Total, "90.15")
}

func TestCompute_MissingRatesWarnAndFallBack(t *testing.T) {
	comp := pricing.ItemComposition{
		PackagingID: "none",
		Designation: pricing.DesignationRetail,
		Ranch:       true,
		LaborHours:  dec(t, "1"),
	}

	res, err := newCalculator(ledger.NewMemory()).Compute(context.Background(), comp, tenantA, day(t, "2024-03-01"))
	require.NoError(t, err)

	b := res.Breakdown
	assert.True(t, b.RanchCost.IsZero())
	assert.True(t, b.PackagingCost.IsZero())
	assert.True(t, b.LaborCost.IsZero())
	assertDecimal(t, "designation default", b.DesignationCost, "1.00")
	assertDecimal(t, "total", b.Total, "1.00")
	assert.ElementsMatch(t, []pricing.WarningCode{
		pricing.WarnRanchUnresolved,
		pricing.WarnPackagingUnresolved,
		pricing.WarnLaborUnresolved,
		pricing.WarnDesignationDefaulted,
	}, warningCodes(res.Warnings))
}

func TestCompute_DesignationDefaultIsConfigurable(t *testing.T) {
	calc := pricing.NewCalculator(pricing.NewResolver(ledger.NewMemory()), pricing.WithDesignationDefault(decimal.Zero))

	res, err := calc.Compute(context.Background(), pricing.ItemComposition{Designation: pricing.DesignationRetail}, tenantA, day(t, "2024-03-01"))
	require.NoError(t, err)
	assert.True(t, res.Breakdown.DesignationCost.IsZero())
	assert.True(t, res.Breakdown.Total.IsZero())
}

func TestCompute_NoLaborHoursSkipsLaborRate(t *testing.T) {
	res, err := newCalculator(ledger.NewMemory()).Compute(context.Background(), pricing.ItemComposition{Designation: pricing.DesignationRetail}, tenantA, day(t, "2024-03-01"))
	require.NoError(t, err)
	assert.NotContains(t, warningCodes(res.Warnings), pricing.WarnLaborUnresolved)
}

func TestCompute_IgnoresOtherTenantsCosts(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantB, pricing.SubjectRawMaterial, "carrot", "10", "2024-01-01"))
	l.Append(record(t, tenantB, pricing.SubjectLaborRate, pricing.TenantWide, "20", "2024-01-01"))

	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"carrot"},
		Designation:    pricing.DesignationRetail,
		CaseWeight:     dec(t, "10"),
		YieldFraction:  dec(t, "1"),
		LaborHours:     dec(t, "1"),
	}

	res, err := newCalculator(l).Compute(context.Background(), comp, tenantA, day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.True(t, res.Breakdown.RawCost.IsZero())
	assert.True(t, res.Breakdown.LaborCost.IsZero())
}

func TestCompute_FutureDatedCostAppliesOnceReached(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "leek", "10", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "leek", "14", "2024-06-01"))

	comp := pricing.ItemComposition{
		RawMaterialIDs: []string{"leek"},
		Designation:    pricing.DesignationRetail,
		CaseWeight:     dec(t, "1"),
		YieldFraction:  dec(t, "1"),
	}
	calc := newCalculator(l)

	before, err := calc.Compute(context.Background(), comp, tenantA, day(t, "2024-05-31"))
	require.NoError(t, err)
	assertDecimal(t, "before", before.Breakdown.RawCost, "10")

	after, err := calc.Compute(context.Background(), comp, tenantA, day(t, "2024-06-01"))
	require.NoError(t, err)
	assertDecimal(t, "after", after.Breakdown.RawCost, "14")
}
