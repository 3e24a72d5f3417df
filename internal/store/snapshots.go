package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/pricing"
)

const snapshotColumns = `id, uid, tenant_id, item_id, as_of_date,
	raw_cost, packaging_cost, labor_cost, designation_cost, ranch_cost, total_cost`

// AppendSnapshot implements pricing.SnapshotRepository.
func (q *Queries) AppendSnapshot(ctx context.Context, s pricing.Snapshot) (pricing.Snapshot, error) {
	b := s.Breakdown
	s.AsOfDate = pricing.Day(s.AsOfDate)
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO item_snapshots (
			uid, tenant_id, item_id, as_of_date,
			raw_cost, packaging_cost, labor_cost, designation_cost, ranch_cost, total_cost
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID.String(), string(s.Tenant), s.ItemID, formatDate(s.AsOfDate),
		b.RawCost.String(), b.PackagingCost.String(), b.LaborCost.String(),
		b.DesignationCost.String(), b.RanchCost.String(), b.Total.String())
	if err != nil {
		return pricing.Snapshot{}, fmt.Errorf("insert snapshot for item %s: %w", s.ItemID, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return pricing.Snapshot{}, fmt.Errorf("read snapshot id: %w", err)
	}
	s.Sequence = seq
	return s, nil
}

// LatestSnapshot implements pricing.SnapshotRepository.
func (q *Queries) LatestSnapshot(ctx context.Context, tenant pricing.TenantID, itemID string) (pricing.Snapshot, bool, error) {
	s, err := scanSnapshot(q.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM item_snapshots
		WHERE tenant_id = ? AND item_id = ?
		ORDER BY as_of_date DESC, id DESC
		LIMIT 1`, string(tenant), itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.Snapshot{}, false, nil
	}
	if err != nil {
		return pricing.Snapshot{}, false, fmt.Errorf("query latest snapshot: %w", err)
	}
	return s, true, nil
}

// SnapshotHistory implements pricing.SnapshotRepository. A non-positive
// limit returns every snapshot.
func (q *Queries) SnapshotHistory(ctx context.Context, tenant pricing.TenantID, itemID string, limit int) ([]pricing.Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM item_snapshots
		WHERE tenant_id = ? AND item_id = ?
		ORDER BY as_of_date DESC, id DESC
		LIMIT ?`, string(tenant), itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshot history: %w", err)
	}
	defer rows.Close()

	var out []pricing.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSnapshot(row scanner) (pricing.Snapshot, error) {
	var (
		s                  pricing.Snapshot
		tenant, asOf       string
		raw, pkg, labor    decimal.Decimal
		designation, ranch decimal.Decimal
		total              decimal.Decimal
	)
	if err := row.Scan(&s.Sequence, &s.ID, &tenant, &s.ItemID, &asOf,
		&raw, &pkg, &labor, &designation, &ranch, &total); err != nil {
		return pricing.Snapshot{}, err
	}

	date, err := parseDate(asOf)
	if err != nil {
		return pricing.Snapshot{}, err
	}
	s.Tenant = pricing.TenantID(tenant)
	s.AsOfDate = date
	s.Breakdown = pricing.CostBreakdown{
		RawCost:         raw,
		PackagingCost:   pkg,
		LaborCost:       labor,
		DesignationCost: designation,
		RanchCost:       ranch,
		Total:           total,
	}
	return s, nil
}
