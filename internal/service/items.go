package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

// ItemResult is a saved item and the snapshot attempt that followed.
type ItemResult struct {
	Item      store.Item        `json:"item"`
	Recompute pricing.Recompute `json:"recompute"`
}

// Quote is a cost computed on demand, never persisted.
type Quote struct {
	AsOfDate   time.Time             `json:"as_of_date"`
	Breakdown  pricing.CostBreakdown `json:"breakdown"`
	Warnings   []pricing.Warning     `json:"warnings"`
	Projection pricing.Projection    `json:"projection"`
}

// SaveRawMaterial adds or renames a raw material in the catalog.
func (s *Service) SaveRawMaterial(ctx context.Context, m store.RawMaterial) error {
	if m.ID == "" || m.Name == "" {
		return fmt.Errorf("%w: raw material id and name are required", ErrInvalidInput)
	}
	return s.store.UpsertRawMaterial(ctx, m)
}

// ListRawMaterials returns the tenant's raw material catalog.
func (s *Service) ListRawMaterials(ctx context.Context, tenant pricing.TenantID) ([]store.RawMaterial, error) {
	return s.store.ListRawMaterials(ctx, tenant)
}

// SavePackaging adds or renames a packaging configuration.
func (s *Service) SavePackaging(ctx context.Context, p store.Packaging) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("%w: packaging id and name are required", ErrInvalidInput)
	}
	return s.store.UpsertPackaging(ctx, p)
}

// SaveItem creates or replaces an item and recomputes its cost.
func (s *Service) SaveItem(ctx context.Context, it store.Item) (ItemResult, error) {
	if err := validateItem(it); err != nil {
		return ItemResult{}, err
	}

	unlock := s.lockTenant(it.Tenant)
	defer unlock()

	var out ItemResult
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		if err := q.UpsertItem(ctx, it); err != nil {
			return err
		}
		saved, _, err := q.GetItem(ctx, it.Tenant, it.ID)
		if err != nil {
			return err
		}
		out.Item = saved

		res, err := s.engine(q).snapshots.RecomputeAndPersist(ctx, it.Tenant, it.ID)
		if err != nil {
			return err
		}
		out.Recompute = res
		return nil
	})
	if err != nil {
		return ItemResult{}, fmt.Errorf("save item %s: %w", it.ID, err)
	}

	s.logWarnings(it.Tenant, it.ID, out.Recompute.Warnings)
	s.logger.Info("item saved",
		zap.String("tenant", string(it.Tenant)),
		zap.String("item", it.ID),
		zap.Bool("snapshot_saved", out.Recompute.Saved))
	return out, nil
}

// GetItem loads one item.
func (s *Service) GetItem(ctx context.Context, tenant pricing.TenantID, itemID string) (store.Item, error) {
	it, ok, err := s.store.GetItem(ctx, tenant, itemID)
	if err != nil {
		return store.Item{}, err
	}
	if !ok {
		return store.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return it, nil
}

// ListItems returns the tenant's items.
func (s *Service) ListItems(ctx context.Context, tenant pricing.TenantID) ([]store.Item, error) {
	return s.store.ListItems(ctx, tenant)
}

// Recompute recalculates one item as of today and persists a snapshot when
// the total is positive.
func (s *Service) Recompute(ctx context.Context, tenant pricing.TenantID, itemID string) (pricing.Recompute, error) {
	unlock := s.lockTenant(tenant)
	defer unlock()

	var out pricing.Recompute
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		res, err := s.engine(q).snapshots.RecomputeAndPersist(ctx, tenant, itemID)
		out = res
		return err
	})
	if err != nil {
		return pricing.Recompute{}, fmt.Errorf("recompute item %s: %w", itemID, err)
	}
	for _, w := range out.Warnings {
		if w.Code == pricing.WarnItemNotFound {
			return pricing.Recompute{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
	}
	s.logWarnings(tenant, itemID, out.Warnings)
	return out, nil
}

// LatestSnapshot returns the item's most recent snapshot. The bool is false
// when the item has never been saved with a positive total.
func (s *Service) LatestSnapshot(ctx context.Context, tenant pricing.TenantID, itemID string) (pricing.Snapshot, bool, error) {
	return s.engine(s.store.Queries).snapshots.Latest(ctx, tenant, itemID)
}

// SnapshotHistory returns up to limit snapshots, newest first.
func (s *Service) SnapshotHistory(ctx context.Context, tenant pricing.TenantID, itemID string, limit int) ([]pricing.Snapshot, error) {
	return s.engine(s.store.Queries).snapshots.History(ctx, tenant, itemID, limit)
}

// QuoteComposition costs an ad-hoc composition as of asOf (today when zero).
func (s *Service) QuoteComposition(ctx context.Context, tenant pricing.TenantID, comp pricing.ItemComposition, asOf time.Time) (Quote, error) {
	if err := validateComposition(comp); err != nil {
		return Quote{}, err
	}
	if asOf.IsZero() {
		asOf = s.today()
	}
	asOf = pricing.Day(asOf)

	res, err := s.engine(s.store.Queries).calc.Compute(ctx, comp, tenant, asOf)
	if err != nil {
		return Quote{}, fmt.Errorf("quote composition: %w", err)
	}
	return Quote{
		AsOfDate:   asOf,
		Breakdown:  res.Breakdown,
		Warnings:   res.Warnings,
		Projection: pricing.Project(res.Breakdown.Total, comp.CaseWeight, s.opts.MarkupTiers),
	}, nil
}

// QuoteItem costs a stored item as of asOf without saving a snapshot.
func (s *Service) QuoteItem(ctx context.Context, tenant pricing.TenantID, itemID string, asOf time.Time) (Quote, error) {
	it, err := s.GetItem(ctx, tenant, itemID)
	if err != nil {
		return Quote{}, err
	}
	return s.QuoteComposition(ctx, tenant, it.Composition, asOf)
}

func validateItem(it store.Item) error {
	if it.Tenant == "" {
		return fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}
	if it.ID == "" || it.Name == "" {
		return fmt.Errorf("%w: item id and name are required", ErrInvalidInput)
	}
	return validateComposition(it.Composition)
}

var one = decimal.NewFromInt(1)

func validateComposition(c pricing.ItemComposition) error {
	switch {
	case !c.Designation.Valid():
		return fmt.Errorf("%w: designation %q", ErrInvalidInput, c.Designation)
	case c.CaseWeight.IsNegative():
		return fmt.Errorf("%w: case weight must not be negative", ErrInvalidInput)
	case c.YieldFraction.IsNegative() || c.YieldFraction.GreaterThan(one):
		return fmt.Errorf("%w: yield fraction must be between 0 and 1", ErrInvalidInput)
	case c.LaborHours.IsNegative():
		return fmt.Errorf("%w: labor hours must not be negative", ErrInvalidInput)
	}
	return nil
}
