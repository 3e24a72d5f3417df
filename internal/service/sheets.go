package service

import (
	"context"
	"fmt"
	"time"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

// PriceSheetRow is one item's latest saved cost with its markup tiers.
// Breakdown and Projection are nil when the item has no snapshot yet.
type PriceSheetRow struct {
	ItemID      string                 `json:"item_id"`
	Name        string                 `json:"name"`
	Code        string                 `json:"code"`
	Designation pricing.Designation    `json:"designation"`
	AsOfDate    *time.Time             `json:"as_of_date"`
	Breakdown   *pricing.CostBreakdown `json:"breakdown"`
	Projection  *pricing.Projection    `json:"projection"`
}

// PriceSheet lists every item of the tenant with its latest snapshot.
func (s *Service) PriceSheet(ctx context.Context, tenant pricing.TenantID) ([]PriceSheetRow, error) {
	items, err := s.store.ListItems(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("price sheet: %w", err)
	}

	snapshots := s.engine(s.store.Queries).snapshots
	rows := make([]PriceSheetRow, 0, len(items))
	for _, it := range items {
		row := PriceSheetRow{
			ItemID:      it.ID,
			Name:        it.Name,
			Code:        it.Code,
			Designation: it.Composition.Designation,
		}

		snap, ok, err := snapshots.Latest(ctx, tenant, it.ID)
		if err != nil {
			return nil, fmt.Errorf("price sheet: %w", err)
		}
		if ok {
			asOf := snap.AsOfDate
			breakdown := snap.Breakdown
			projection := pricing.Project(breakdown.Total, it.Composition.CaseWeight, s.opts.MarkupTiers)
			row.AsOfDate = &asOf
			row.Breakdown = &breakdown
			row.Projection = &projection
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MarkupTiers returns the configured markup percentages.
func (s *Service) MarkupTiers() []int {
	return s.opts.MarkupTiers
}

// RawPriceRow summarizes one raw material's cost history.
type RawPriceRow struct {
	Material store.RawMaterial      `json:"material"`
	Summary  pricing.HistorySummary `json:"summary"`
}

// RawPriceSheet returns latest, previous and average cost per raw material.
func (s *Service) RawPriceSheet(ctx context.Context, tenant pricing.TenantID) ([]RawPriceRow, error) {
	materials, err := s.store.ListRawMaterials(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("raw price sheet: %w", err)
	}

	rows := make([]RawPriceRow, 0, len(materials))
	for _, m := range materials {
		history, err := s.store.CostHistory(ctx, tenant, pricing.SubjectRawMaterial, m.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("raw price sheet: %w", err)
		}
		rows = append(rows, RawPriceRow{Material: m, Summary: pricing.SummarizeHistory(m.ID, history)})
	}
	return rows, nil
}
