// Package seed bootstraps a tenant so a fresh database is usable.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

const defaultDeviceName = "bootstrap"

// Config contains the values required by startup seed.
type Config struct {
	Tenant          pricing.TenantID
	TenantName      string
	APIKey          string
	DeviceName      string
	DesignationRate decimal.Decimal
	EffectiveDate   time.Time
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way. An empty tenant or key
// is a no-op.
func Run(ctx context.Context, st *store.Store, cfg Config) (Stats, error) {
	if cfg.Tenant == "" || cfg.APIKey == "" {
		return Stats{}, nil
	}
	if cfg.TenantName == "" {
		cfg.TenantName = string(cfg.Tenant)
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = defaultDeviceName
	}
	if cfg.EffectiveDate.IsZero() {
		cfg.EffectiveDate = time.Now()
	}

	stats := Stats{}
	err := st.InTx(ctx, func(q *store.Queries) error {
		if err := ensureTenant(ctx, q, cfg, &stats); err != nil {
			return err
		}
		if err := ensureAPIKey(ctx, q, cfg, &stats); err != nil {
			return err
		}
		return ensureDesignationRates(ctx, q, cfg, &stats)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("run seed: %w", err)
	}
	return stats, nil
}

func ensureTenant(ctx context.Context, q *store.Queries, cfg Config, stats *Stats) error {
	created, err := q.EnsureTenant(ctx, store.Tenant{ID: cfg.Tenant, Name: cfg.TenantName})
	if err != nil {
		return err
	}
	if created {
		stats.Inserts++
	}
	return nil
}

func ensureAPIKey(ctx context.Context, q *store.Queries, cfg Config, stats *Stats) error {
	created, err := q.EnsureAPIKey(ctx, cfg.Tenant, store.HashAPIKey(cfg.APIKey), cfg.DeviceName)
	if err != nil {
		return err
	}
	if created {
		stats.Inserts++
	}
	return nil
}

// ensureDesignationRates records the default rate for every designation that
// has no rate yet.
func ensureDesignationRates(ctx context.Context, q *store.Queries, cfg Config, stats *Stats) error {
	for _, d := range pricing.Designations {
		existing, err := q.CostHistory(ctx, cfg.Tenant, pricing.SubjectDesignationRate, string(d), 1)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}

		if _, err := q.AppendCost(ctx, pricing.CostRecord{
			Tenant:        cfg.Tenant,
			SubjectType:   pricing.SubjectDesignationRate,
			SubjectID:     string(d),
			Value:         cfg.DesignationRate,
			EffectiveDate: cfg.EffectiveDate,
		}); err != nil {
			return err
		}
		stats.Inserts++
	}
	return nil
}
