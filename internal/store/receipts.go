package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/pricing"
)

// Receipt logs a delivery of a raw material and the price paid, if known.
type Receipt struct {
	ID            uuid.UUID           `json:"id"`
	Tenant        pricing.TenantID    `json:"tenant_id"`
	RawMaterialID string              `json:"raw_material_id"`
	PricePaid     decimal.NullDecimal `json:"price_paid"`
	ReceivedAt    time.Time           `json:"received_at"`
	Notes         string              `json:"notes"`
}

const receiptColumns = `id, tenant_id, raw_material_id, price_paid, received_at, notes`

// InsertReceipt stores r. A zero ID is replaced with a new one.
func (q *Queries) InsertReceipt(ctx context.Context, r Receipt) (Receipt, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.ReceivedAt = pricing.Day(r.ReceivedAt)
	if _, err := q.db.ExecContext(ctx, `
		INSERT INTO receipts (id, tenant_id, raw_material_id, price_paid, received_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID.String(), string(r.Tenant), r.RawMaterialID, r.PricePaid, formatDate(r.ReceivedAt), r.Notes); err != nil {
		return Receipt{}, fmt.Errorf("insert receipt: %w", err)
	}
	return r, nil
}

// GetReceipt loads one receipt of the tenant.
func (q *Queries) GetReceipt(ctx context.Context, tenant pricing.TenantID, id uuid.UUID) (Receipt, bool, error) {
	r, err := scanReceipt(q.db.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts
		WHERE tenant_id = ? AND id = ?`, string(tenant), id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, fmt.Errorf("get receipt %s: %w", id, err)
	}
	return r, true, nil
}

// ListReceipts returns up to limit receipts, newest first.
func (q *Queries) ListReceipts(ctx context.Context, tenant pricing.TenantID, limit int) ([]Receipt, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, `SELECT `+receiptColumns+` FROM receipts
		WHERE tenant_id = ?
		ORDER BY received_at DESC, created_at DESC
		LIMIT ?`, string(tenant), limit)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReceipt(row scanner) (Receipt, error) {
	var (
		r                Receipt
		tenant, received string
	)
	if err := row.Scan(&r.ID, &tenant, &r.RawMaterialID, &r.PricePaid, &received, &r.Notes); err != nil {
		return Receipt{}, err
	}
	date, err := parseDate(received)
	if err != nil {
		return Receipt{}, err
	}
	r.Tenant = pricing.TenantID(tenant)
	r.ReceivedAt = date
	return r, nil
}
