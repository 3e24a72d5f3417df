package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/pricing"
)

const costColumns = `id, tenant_id, subject_type, subject_id, value,
	box_cost, bag_cost, tray_chemical_cost, label_tape_cost, effective_date`

// AppendCost inserts rec and returns it with its sequence assigned. The
// effective date is stored as a calendar date.
func (q *Queries) AppendCost(ctx context.Context, rec pricing.CostRecord) (pricing.CostRecord, error) {
	var box, bag, tray, label decimal.NullDecimal
	if rec.Parts != nil {
		box = decimal.NewNullDecimal(rec.Parts.Box)
		bag = decimal.NewNullDecimal(rec.Parts.Bag)
		tray = decimal.NewNullDecimal(rec.Parts.TrayChemical)
		label = decimal.NewNullDecimal(rec.Parts.LabelTape)
	}

	rec.EffectiveDate = pricing.Day(rec.EffectiveDate)
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO cost_records (
			tenant_id, subject_type, subject_id, value,
			box_cost, bag_cost, tray_chemical_cost, label_tape_cost, effective_date
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(rec.Tenant), string(rec.SubjectType), rec.SubjectID, rec.Value.String(),
		box, bag, tray, label, formatDate(rec.EffectiveDate))
	if err != nil {
		return pricing.CostRecord{}, fmt.Errorf("insert cost record %s %s: %w", rec.SubjectType, rec.SubjectID, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return pricing.CostRecord{}, fmt.Errorf("read cost record id: %w", err)
	}
	rec.Sequence = seq
	return rec, nil
}

// Latest implements pricing.Ledger over the composite lookup index.
func (q *Queries) Latest(ctx context.Context, query pricing.Query) (pricing.CostRecord, bool, error) {
	stmt := `SELECT ` + costColumns + ` FROM cost_records
		WHERE tenant_id = ? AND subject_type = ? AND subject_id = ? AND effective_date <= ?`
	args := []any{string(query.Tenant), string(query.SubjectType), query.SubjectID, formatDate(query.AsOf)}
	if query.Since != nil {
		stmt += ` AND effective_date >= ?`
		args = append(args, formatDate(*query.Since))
	}
	stmt += ` ORDER BY effective_date DESC, id DESC LIMIT 1`

	rec, err := scanCost(q.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.CostRecord{}, false, nil
	}
	if err != nil {
		return pricing.CostRecord{}, false, fmt.Errorf("query latest cost: %w", err)
	}
	return rec, true, nil
}

// CostHistory returns up to limit records of one subject, most recent first.
// A non-positive limit returns all of them.
func (q *Queries) CostHistory(ctx context.Context, tenant pricing.TenantID, subjectType pricing.SubjectType, subjectID string, limit int) ([]pricing.CostRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, `SELECT `+costColumns+` FROM cost_records
		WHERE tenant_id = ? AND subject_type = ? AND subject_id = ?
		ORDER BY effective_date DESC, id DESC
		LIMIT ?`, string(tenant), string(subjectType), subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("query cost history: %w", err)
	}
	defer rows.Close()

	var out []pricing.CostRecord
	for rows.Next() {
		rec, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cost record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCost(row scanner) (pricing.CostRecord, error) {
	var (
		rec                   pricing.CostRecord
		tenant, subjectType   string
		value                 decimal.Decimal
		box, bag, tray, label decimal.NullDecimal
		effective             string
	)
	if err := row.Scan(&rec.Sequence, &tenant, &subjectType, &rec.SubjectID, &value,
		&box, &bag, &tray, &label, &effective); err != nil {
		return pricing.CostRecord{}, err
	}

	date, err := parseDate(effective)
	if err != nil {
		return pricing.CostRecord{}, err
	}
	rec.Tenant = pricing.TenantID(tenant)
	rec.SubjectType = pricing.SubjectType(subjectType)
	rec.Value = value
	rec.EffectiveDate = date
	if box.Valid || bag.Valid || tray.Valid || label.Valid {
		rec.Parts = &pricing.PackagingParts{
			Box:          box.Decimal,
			Bag:          bag.Decimal,
			TrayChemical: tray.Decimal,
			LabelTape:    label.Decimal,
		}
	}
	return rec, nil
}
