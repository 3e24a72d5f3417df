package pricing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeStocker/producepricer/internal/ledger"
	"github.com/CadeStocker/producepricer/internal/pricing"
)

func paid(t *testing.T, s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(t, s))
}

func TestCompare_BelowMarket(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "25", "2024-03-01"))
	c := pricing.NewComparer(pricing.NewResolver(l), 30)

	cmp, err := c.Compare(context.Background(), tenantA, paid(t, "20"), pricing.SubjectRawMaterial, "carrot", day(t, "2024-03-10"))
	require.NoError(t, err)

	assert.Equal(t, pricing.StatusBelowMarket, cmp.Status)
	require.True(t, cmp.Difference.Valid)
	assertDecimal(t, "difference", cmp.Difference.Decimal, "-5.00")
	require.True(t, cmp.Percentage.Valid)
	assertDecimal(t, "percentage", cmp.Percentage.Decimal, "-20.0")
	require.NotNil(t, cmp.MarketDate)
	assert.Equal(t, day(t, "2024-03-01"), *cmp.MarketDate)
}

func TestCompare_NoPricePaidSkipsMarket(t *testing.T) {
	c := pricing.NewComparer(pricing.NewResolver(failingLedger{}), 30)

	cmp, err := c.Compare(context.Background(), tenantA, decimal.NullDecimal{}, pricing.SubjectRawMaterial, "carrot", day(t, "2024-03-10"))
	require.NoError(t, err)

	assert.Equal(t, pricing.StatusNoPricePaid, cmp.Status)
	assert.False(t, cmp.PaidPrice.Valid)
	assert.False(t, cmp.MarketPrice.Valid)
	assert.Nil(t, cmp.MarketDate)
	assert.False(t, cmp.Difference.Valid)
	assert.False(t, cmp.Percentage.Valid)
}

func TestCompare_MarketOutsideWindow(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "25", "2024-01-30"))
	c := pricing.NewComparer(pricing.NewResolver(l), 30)

	cmp, err := c.Compare(context.Background(), tenantA, paid(t, "20"), pricing.SubjectRawMaterial, "carrot", day(t, "2024-03-10"))
	require.NoError(t, err)

	assert.Equal(t, pricing.StatusNoMarketData, cmp.Status)
	assert.True(t, cmp.PaidPrice.Valid)
	assert.False(t, cmp.MarketPrice.Valid)
	assert.Nil(t, cmp.MarketDate)
}

func TestCompare_OtherTenantHasNoMarket(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantB, pricing.SubjectRawMaterial, "carrot", "25", "2024-03-01"))

	cmp, err := pricing.NewComparer(pricing.NewResolver(l), 30).Compare(context.Background(), tenantA, paid(t, "20"), pricing.SubjectRawMaterial, "carrot", day(t, "2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, pricing.StatusNoMarketData, cmp.Status)
}

func TestNewComparer_DefaultsLookback(t *testing.T) {
	assert.Equal(t, pricing.DefaultMarketLookbackDays, pricing.NewComparer(nil, 0).LookbackDays())
	assert.Equal(t, 7, pricing.NewComparer(nil, 7).LookbackDays())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		paid       string
		market     string
		status     pricing.Status
		percentage string
	}{
		{name: "equal", paid: "10", market: "10", status: pricing.StatusAtMarket, percentage: "0"},
		{name: "within a cent above", paid: "10.009", market: "10", status: pricing.StatusAtMarket, percentage: "0.09"},
		{name: "within a cent below", paid: "9.991", market: "10", status: pricing.StatusAtMarket, percentage: "-0.09"},
		{name: "exactly a cent above", paid: "10.01", market: "10", status: pricing.StatusAboveMarket, percentage: "0.1"},
		{name: "above", paid: "30", market: "25", status: pricing.StatusAboveMarket, percentage: "20"},
		{name: "below", paid: "20", market: "25", status: pricing.StatusBelowMarket, percentage: "-20"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmp := pricing.Classify(dec(t, tc.paid), dec(t, tc.market), day(t, "2024-01-01"))
			assert.Equal(t, tc.status, cmp.Status)
			require.True(t, cmp.Percentage.Valid)
			assertDecimal(t, "percentage", cmp.Percentage.Decimal, tc.percentage)
		})
	}
}

func TestClassify_ZeroMarketHasNoPercentage(t *testing.T) {
	cmp := pricing.Classify(dec(t, "5"), decimal.Zero, day(t, "2024-01-01"))
	assert.False(t, cmp.Percentage.Valid)
	assert.Equal(t, pricing.StatusAboveMarket, cmp.Status)
	assertDecimal(t, "difference", cmp.Difference.Decimal, "5")
}
