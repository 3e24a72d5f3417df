package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/service"
	"github.com/CadeStocker/producepricer/internal/store"
)

func TestWritePriceSheet(t *testing.T) {
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	breakdown := pricing.CostBreakdown{
		RawCost: decimal.RequireFromString("18.50"),
		Total:   decimal.RequireFromString("18.50"),
	}
	projection := pricing.Project(breakdown.Total, decimal.NewFromInt(1), []int{25, 30})
	rows := []service.PriceSheetRow{
		{
			ItemID:      "carrot-sticks",
			Name:        "Carrot Sticks",
			Code:        "CS-10",
			Designation: pricing.DesignationRetail,
			AsOfDate:    &asOf,
			Breakdown:   &breakdown,
			Projection:  &projection,
		},
		{ItemID: "new", Name: "New Item", Designation: pricing.DesignationCombo},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePriceSheet(&buf, rows, []int{25, 30}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(priceSheetName, "L1")
	require.NoError(t, err)
	assert.Equal(t, "25%", header)

	name, err := f.GetCellValue(priceSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Carrot Sticks", name)

	date, err := f.GetCellValue(priceSheetName, "D2")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", date)

	price, err := f.GetCellValue(priceSheetName, "L2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "23.25", price)

	empty, err := f.GetCellValue(priceSheetName, "J3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWriteRawPriceSheet(t *testing.T) {
	latest := pricing.CostRecord{Value: decimal.NewFromInt(10), EffectiveDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	rows := []service.RawPriceRow{
		{
			Material: store.RawMaterial{ID: "carrot", Name: "Carrot", Unit: "lb"},
			Summary:  pricing.HistorySummary{SubjectID: "carrot", Latest: &latest, Average: decimal.NewFromInt(10), Count: 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRawPriceSheet(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(rawSheetName)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Carrot", got[1][0])
	assert.Equal(t, "2024-02-01", got[1][3])
	assert.Equal(t, "1", got[1][6])
}
