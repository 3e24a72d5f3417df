package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompositionSource loads the current definition of an item.
type CompositionSource interface {
	Composition(ctx context.Context, tenant TenantID, itemID string) (ItemComposition, bool, error)
}

// SnapshotRepository stores snapshots append-only. AppendSnapshot assigns the
// sequence; LatestSnapshot orders by (as-of date desc, sequence desc).
type SnapshotRepository interface {
	AppendSnapshot(ctx context.Context, s Snapshot) (Snapshot, error)
	LatestSnapshot(ctx context.Context, tenant TenantID, itemID string) (Snapshot, bool, error)
	SnapshotHistory(ctx context.Context, tenant TenantID, itemID string, limit int) ([]Snapshot, error)
}

// Recompute reports the outcome of one RecomputeAndPersist call.
type Recompute struct {
	ItemID     string        `json:"item_id"`
	Saved      bool          `json:"saved"`
	SnapshotID uuid.UUID     `json:"snapshot_id,omitempty"`
	Breakdown  CostBreakdown `json:"breakdown"`
	Warnings   []Warning     `json:"warnings"`
}

// SnapshotOption configures a SnapshotStore.
type SnapshotOption func(*SnapshotStore)

// WithClock overrides the time source used for as-of dates.
func WithClock(now func() time.Time) SnapshotOption {
	return func(s *SnapshotStore) { s.now = now }
}

// WithSnapshotLogger attaches a logger.
func WithSnapshotLogger(logger *zap.Logger) SnapshotOption {
	return func(s *SnapshotStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SnapshotStore recomputes item totals and keeps their immutable history.
type SnapshotStore struct {
	calc         *Calculator
	compositions CompositionSource
	snapshots    SnapshotRepository
	now          func() time.Time
	logger       *zap.Logger
}

// NewSnapshotStore wires a SnapshotStore.
func NewSnapshotStore(calc *Calculator, compositions CompositionSource, snapshots SnapshotRepository, opts ...SnapshotOption) *SnapshotStore {
	s := &SnapshotStore{
		calc:         calc,
		compositions: compositions,
		snapshots:    snapshots,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecomputeAndPersist computes the item's cost as of today and appends a
// snapshot when the total is positive. Calling it twice without a ledger
// change appends two snapshots with equal breakdowns.
func (s *SnapshotStore) RecomputeAndPersist(ctx context.Context, tenant TenantID, itemID string) (Recompute, error) {
	out := Recompute{ItemID: itemID}

	comp, ok, err := s.compositions.Composition(ctx, tenant, itemID)
	if err != nil {
		return out, fmt.Errorf("load composition %s: %w", itemID, err)
	}
	if !ok {
		out.Warnings = []Warning{{Code: WarnItemNotFound, SubjectID: itemID, Message: "item not found"}}
		return out, nil
	}

	asOf := Day(s.now())
	res, err := s.calc.Compute(ctx, comp, tenant, asOf)
	if err != nil {
		return out, err
	}
	out.Breakdown = res.Breakdown
	out.Warnings = res.Warnings

	if !res.Breakdown.Total.IsPositive() {
		out.Warnings = append(out.Warnings, Warning{
			Code:      WarnTotalNotPositive,
			SubjectID: itemID,
			Message:   fmt.Sprintf("total cost not positive (%s), not saved", res.Breakdown.Total.StringFixed(2)),
		})
		s.logger.Warn("snapshot skipped",
			zap.String("tenant", string(tenant)),
			zap.String("item", itemID),
			zap.String("total", res.Breakdown.Total.String()))
		return out, nil
	}

	snap, err := s.snapshots.AppendSnapshot(ctx, Snapshot{
		ID:        uuid.New(),
		Tenant:    tenant,
		ItemID:    itemID,
		AsOfDate:  asOf,
		Breakdown: res.Breakdown,
	})
	if err != nil {
		return out, fmt.Errorf("append snapshot %s: %w", itemID, err)
	}

	out.Saved = true
	out.SnapshotID = snap.ID
	s.logger.Debug("snapshot saved",
		zap.String("tenant", string(tenant)),
		zap.String("item", itemID),
		zap.Int64("sequence", snap.Sequence),
		zap.String("total", snap.Breakdown.Total.String()))
	return out, nil
}

// Latest returns the item's most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context, tenant TenantID, itemID string) (Snapshot, bool, error) {
	snap, ok, err := s.snapshots.LatestSnapshot(ctx, tenant, itemID)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("latest snapshot %s: %w", itemID, err)
	}
	if !ok || snap.Tenant != tenant {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// History returns up to limit snapshots, newest first.
func (s *SnapshotStore) History(ctx context.Context, tenant TenantID, itemID string, limit int) ([]Snapshot, error) {
	snaps, err := s.snapshots.SnapshotHistory(ctx, tenant, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot history %s: %w", itemID, err)
	}
	return snaps, nil
}
