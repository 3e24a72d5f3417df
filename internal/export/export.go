// Package export renders price sheets as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/CadeStocker/producepricer/internal/service"
)

const (
	priceSheetName = "Price Sheet"
	rawSheetName   = "Raw Materials"
	dateLayout     = "2006-01-02"
	moneyFormat    = 2 // 0.00
)

// WritePriceSheet writes one row per item with its cost breakdown and a
// column per markup tier. Items without a snapshot leave the cost cells empty.
func WritePriceSheet(w io.Writer, rows []service.PriceSheetRow, tiers []int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", priceSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headers := []any{"Item", "Code", "Designation", "As Of", "Raw", "Packaging", "Labor", "Designation Fee", "Ranch", "Total", "Per Unit Weight"}
	for _, pct := range tiers {
		headers = append(headers, fmt.Sprintf("%d%%", pct))
	}
	if err := f.SetSheetRow(priceSheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		values := []any{r.Name, r.Code, string(r.Designation)}
		if r.Breakdown != nil && r.Projection != nil {
			b := r.Breakdown
			values = append(values,
				r.AsOfDate.Format(dateLayout),
				money(b.RawCost), money(b.PackagingCost), money(b.LaborCost),
				money(b.DesignationCost), money(b.RanchCost), money(b.Total),
				money(r.Projection.CostPerUnitWeight))
			prices := r.Projection.Map()
			for _, pct := range tiers {
				values = append(values, money(prices[pct]))
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(priceSheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", r.ItemID, err)
		}
	}

	if err := applyMoneyFormat(f, priceSheetName, 5, len(headers), len(rows)); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteRawPriceSheet writes latest, previous and average cost per raw material.
func WriteRawPriceSheet(w io.Writer, rows []service.RawPriceRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rawSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headers := []any{"Material", "Unit", "Latest", "Latest Date", "Previous", "Average", "Entries"}
	if err := f.SetSheetRow(rawSheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		values := []any{r.Material.Name, r.Material.Unit}
		s := r.Summary
		if s.Latest != nil {
			values = append(values, money(s.Latest.Value), s.Latest.EffectiveDate.Format(dateLayout))
		} else {
			values = append(values, nil, nil)
		}
		if s.Previous != nil {
			values = append(values, money(s.Previous.Value))
		} else {
			values = append(values, nil)
		}
		values = append(values, money(s.Average), s.Count)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(rawSheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", r.Material.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func applyMoneyFormat(f *excelize.File, sheet string, fromCol, toCol, rows int) error {
	if rows == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}
	start, err := excelize.CoordinatesToCellName(fromCol, 2)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(toCol, rows+1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, start, end, style); err != nil {
		return fmt.Errorf("apply money style: %w", err)
	}
	return nil
}
