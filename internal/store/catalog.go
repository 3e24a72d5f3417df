package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/pricing"
)

// RawMaterial is a purchased input with a market cost.
type RawMaterial struct {
	Tenant pricing.TenantID `json:"tenant_id"`
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Unit   string           `json:"unit"`
}

// Packaging is a packaging configuration whose cost is tracked in parts.
type Packaging struct {
	Tenant pricing.TenantID `json:"tenant_id"`
	ID     string           `json:"id"`
	Name   string           `json:"name"`
}

// Item is a sellable product and its current composition.
type Item struct {
	Tenant      pricing.TenantID        `json:"tenant_id"`
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Code        string                  `json:"code"`
	Composition pricing.ItemComposition `json:"composition"`
}

// UpsertRawMaterial creates or renames a raw material.
func (q *Queries) UpsertRawMaterial(ctx context.Context, m RawMaterial) error {
	if m.Unit == "" {
		m.Unit = "lb"
	}
	if _, err := q.db.ExecContext(ctx, `
		INSERT INTO raw_materials (tenant_id, id, name, unit)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, id) DO UPDATE SET name = excluded.name, unit = excluded.unit
	`, string(m.Tenant), m.ID, m.Name, m.Unit); err != nil {
		return fmt.Errorf("upsert raw material %s: %w", m.ID, err)
	}
	return nil
}

// RawMaterialExists reports whether id is in the tenant's catalog.
func (q *Queries) RawMaterialExists(ctx context.Context, tenant pricing.TenantID, id string) (bool, error) {
	var exists bool
	if err := q.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM raw_materials WHERE tenant_id = ? AND id = ?)
	`, string(tenant), id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check raw material %s: %w", id, err)
	}
	return exists, nil
}

// ListRawMaterials returns the tenant's raw materials ordered by name.
func (q *Queries) ListRawMaterials(ctx context.Context, tenant pricing.TenantID) ([]RawMaterial, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, unit FROM raw_materials WHERE tenant_id = ? ORDER BY name, id
	`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("list raw materials: %w", err)
	}
	defer rows.Close()

	var out []RawMaterial
	for rows.Next() {
		m := RawMaterial{Tenant: tenant}
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit); err != nil {
			return nil, fmt.Errorf("scan raw material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertPackaging creates or renames a packaging configuration.
func (q *Queries) UpsertPackaging(ctx context.Context, p Packaging) error {
	if _, err := q.db.ExecContext(ctx, `
		INSERT INTO packaging (tenant_id, id, name)
		VALUES (?, ?, ?)
		ON CONFLICT (tenant_id, id) DO UPDATE SET name = excluded.name
	`, string(p.Tenant), p.ID, p.Name); err != nil {
		return fmt.Errorf("upsert packaging %s: %w", p.ID, err)
	}
	return nil
}

// PackagingExists reports whether id is in the tenant's catalog.
func (q *Queries) PackagingExists(ctx context.Context, tenant pricing.TenantID, id string) (bool, error) {
	var exists bool
	if err := q.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM packaging WHERE tenant_id = ? AND id = ?)
	`, string(tenant), id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check packaging %s: %w", id, err)
	}
	return exists, nil
}

// UpsertItem replaces the item's definition and raw material list.
func (q *Queries) UpsertItem(ctx context.Context, it Item) error {
	c := it.Composition
	if _, err := q.db.ExecContext(ctx, `
		INSERT INTO items (
			tenant_id, id, name, code, designation, ranch,
			case_weight, yield_fraction, labor_hours, packaging_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			designation = excluded.designation,
			ranch = excluded.ranch,
			case_weight = excluded.case_weight,
			yield_fraction = excluded.yield_fraction,
			labor_hours = excluded.labor_hours,
			packaging_id = excluded.packaging_id,
			updated_at = CURRENT_TIMESTAMP
	`, string(it.Tenant), it.ID, it.Name, it.Code, string(c.Designation), c.Ranch,
		c.CaseWeight.String(), c.YieldFraction.String(), c.LaborHours.String(), c.PackagingID); err != nil {
		return fmt.Errorf("upsert item %s: %w", it.ID, err)
	}

	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM item_raw_materials WHERE tenant_id = ? AND item_id = ?
	`, string(it.Tenant), it.ID); err != nil {
		return fmt.Errorf("clear raw materials of item %s: %w", it.ID, err)
	}
	for pos, id := range c.RawMaterialIDs {
		if _, err := q.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO item_raw_materials (tenant_id, item_id, raw_material_id, position)
			VALUES (?, ?, ?, ?)
		`, string(it.Tenant), it.ID, id, pos); err != nil {
			return fmt.Errorf("link raw material %s to item %s: %w", id, it.ID, err)
		}
	}
	return nil
}

// GetItem loads one item with its composition.
func (q *Queries) GetItem(ctx context.Context, tenant pricing.TenantID, id string) (Item, bool, error) {
	it, err := scanItem(q.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE tenant_id = ? AND id = ?`, string(tenant), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, fmt.Errorf("get item %s: %w", id, err)
	}
	it.Tenant = tenant

	materials, err := q.itemRawMaterials(ctx, tenant, id)
	if err != nil {
		return Item{}, false, err
	}
	it.Composition.RawMaterialIDs = materials
	return it, true, nil
}

// ListItems returns every item of the tenant ordered by name, compositions
// included.
func (q *Queries) ListItems(ctx context.Context, tenant pricing.TenantID) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items WHERE tenant_id = ? ORDER BY name, id`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Tenant = tenant
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list items: %w", err)
	}
	rows.Close()

	for i := range items {
		materials, err := q.itemRawMaterials(ctx, tenant, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Composition.RawMaterialIDs = materials
	}
	return items, nil
}

// Composition implements pricing.CompositionSource.
func (q *Queries) Composition(ctx context.Context, tenant pricing.TenantID, itemID string) (pricing.ItemComposition, bool, error) {
	it, ok, err := q.GetItem(ctx, tenant, itemID)
	if err != nil || !ok {
		return pricing.ItemComposition{}, ok, err
	}
	return it.Composition, true, nil
}

// ItemIDsUsingRawMaterial lists items whose composition references id.
func (q *Queries) ItemIDsUsingRawMaterial(ctx context.Context, tenant pricing.TenantID, id string) ([]string, error) {
	return q.itemIDs(ctx, `
		SELECT item_id FROM item_raw_materials
		WHERE tenant_id = ? AND raw_material_id = ?
		ORDER BY item_id
	`, string(tenant), id)
}

// ItemIDsUsingPackaging lists items packed with id.
func (q *Queries) ItemIDsUsingPackaging(ctx context.Context, tenant pricing.TenantID, id string) ([]string, error) {
	return q.itemIDs(ctx, `
		SELECT id FROM items WHERE tenant_id = ? AND packaging_id = ? ORDER BY id
	`, string(tenant), id)
}

// ItemIDsWithDesignation lists items tagged d.
func (q *Queries) ItemIDsWithDesignation(ctx context.Context, tenant pricing.TenantID, d pricing.Designation) ([]string, error) {
	return q.itemIDs(ctx, `
		SELECT id FROM items WHERE tenant_id = ? AND designation = ? ORDER BY id
	`, string(tenant), string(d))
}

// RanchItemIDs lists items that carry the ranch fee.
func (q *Queries) RanchItemIDs(ctx context.Context, tenant pricing.TenantID) ([]string, error) {
	return q.itemIDs(ctx, `
		SELECT id FROM items WHERE tenant_id = ? AND ranch = 1 ORDER BY id
	`, string(tenant))
}

// ItemIDs lists every item of the tenant.
func (q *Queries) ItemIDs(ctx context.Context, tenant pricing.TenantID) ([]string, error) {
	return q.itemIDs(ctx, `SELECT id FROM items WHERE tenant_id = ? ORDER BY id`, string(tenant))
}

const itemColumns = `id, name, code, designation, ranch, case_weight, yield_fraction, labor_hours, packaging_id`

func scanItem(row scanner) (Item, error) {
	var (
		it                       Item
		designation              string
		caseWeight, yield, labor decimal.Decimal
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Code, &designation, &it.Composition.Ranch,
		&caseWeight, &yield, &labor, &it.Composition.PackagingID); err != nil {
		return Item{}, err
	}
	it.Composition.Designation = pricing.Designation(designation)
	it.Composition.CaseWeight = caseWeight
	it.Composition.YieldFraction = yield
	it.Composition.LaborHours = labor
	return it, nil
}

func (q *Queries) itemRawMaterials(ctx context.Context, tenant pricing.TenantID, itemID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT raw_material_id FROM item_raw_materials
		WHERE tenant_id = ? AND item_id = ?
		ORDER BY position
	`, string(tenant), itemID)
	if err != nil {
		return nil, fmt.Errorf("list raw materials of item %s: %w", itemID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan raw material id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) itemIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query item ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
