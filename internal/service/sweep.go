package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

// SweepStats counts the outcome of one SweepAll run.
type SweepStats struct {
	Tenants int `json:"tenants"`
	Items   int `json:"items"`
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// SweepAll recomputes every item of every tenant so future-dated records
// take effect once their date arrives. A failing tenant is logged and the
// sweep moves on.
func (s *Service) SweepAll(ctx context.Context) (SweepStats, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("sweep: %w", err)
	}

	var stats SweepStats
	for _, t := range tenants {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Tenants++
		if err := s.sweepTenant(ctx, t.ID, &stats); err != nil {
			stats.Failed++
			s.logger.Error("sweep tenant failed", zap.String("tenant", string(t.ID)), zap.Error(err))
		}
	}

	s.logger.Info("sweep finished",
		zap.Int("tenants", stats.Tenants),
		zap.Int("items", stats.Items),
		zap.Int("saved", stats.Saved),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

func (s *Service) sweepTenant(ctx context.Context, tenant pricing.TenantID, stats *SweepStats) error {
	unlock := s.lockTenant(tenant)
	defer unlock()

	var results []pricing.Recompute
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		ids, err := q.ItemIDs(ctx, tenant)
		if err != nil {
			return err
		}
		results, err = s.recomputeAll(ctx, q, tenant, ids)
		return err
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		stats.Items++
		if r.Saved {
			stats.Saved++
		} else {
			stats.Skipped++
		}
	}
	return nil
}
