package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/CadeStocker/producepricer/internal/pricing"
)

// Tenant is an isolated organization.
type Tenant struct {
	ID   pricing.TenantID `json:"id"`
	Name string           `json:"name"`
}

// EnsureTenant creates the tenant if missing and reports whether it did.
func (q *Queries) EnsureTenant(ctx context.Context, t Tenant) (bool, error) {
	res, err := q.db.ExecContext(ctx, `INSERT OR IGNORE INTO tenants (id, name) VALUES (?, ?)`, string(t.ID), t.Name)
	if err != nil {
		return false, fmt.Errorf("insert tenant %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert tenant %s: %w", t.ID, err)
	}
	return n > 0, nil
}

// ListTenants returns every tenant ordered by id.
func (q *Queries) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name FROM tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, Tenant{ID: pricing.TenantID(id), Name: name})
	}
	return tenants, rows.Err()
}

// HashAPIKey returns the stored form of a raw API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// EnsureAPIKey registers a hashed key for tenant and reports whether it was new.
func (q *Queries) EnsureAPIKey(ctx context.Context, tenant pricing.TenantID, keyHash, deviceName string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO api_keys (tenant_id, key_hash, device_name)
		VALUES (?, ?, ?)
	`, string(tenant), keyHash, deviceName)
	if err != nil {
		return false, fmt.Errorf("insert api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert api key: %w", err)
	}
	return n > 0, nil
}

// TenantForKey returns the tenant owning an active key hash.
func (q *Queries) TenantForKey(ctx context.Context, keyHash string) (pricing.TenantID, bool, error) {
	var tenant string
	err := q.db.QueryRowContext(ctx, `
		SELECT tenant_id FROM api_keys WHERE key_hash = ? AND active = 1
	`, keyHash).Scan(&tenant)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup api key: %w", err)
	}
	return pricing.TenantID(tenant), true, nil
}

// APIKey describes a stored key. The raw key is never stored.
type APIKey struct {
	ID         int64            `json:"id"`
	Tenant     pricing.TenantID `json:"tenant_id"`
	DeviceName string           `json:"device_name"`
	Active     bool             `json:"active"`
	CreatedAt  time.Time        `json:"created_at"`
}

const sqliteTimestamp = "2006-01-02 15:04:05"

// CreateAPIKey stores keyHash for tenant and returns the new key's metadata.
func (q *Queries) CreateAPIKey(ctx context.Context, tenant pricing.TenantID, keyHash, deviceName string) (APIKey, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO api_keys (tenant_id, key_hash, device_name) VALUES (?, ?, ?)
	`, string(tenant), keyHash, deviceName)
	if err != nil {
		return APIKey{}, fmt.Errorf("create api key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return APIKey{}, fmt.Errorf("create api key: %w", err)
	}
	key, ok, err := q.GetAPIKey(ctx, tenant, id)
	if err != nil {
		return APIKey{}, err
	}
	if !ok {
		return APIKey{}, fmt.Errorf("create api key: row %d vanished", id)
	}
	return key, nil
}

// GetAPIKey loads one key of the tenant.
func (q *Queries) GetAPIKey(ctx context.Context, tenant pricing.TenantID, id int64) (APIKey, bool, error) {
	key, err := scanAPIKey(q.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, device_name, active, created_at FROM api_keys
		WHERE tenant_id = ? AND id = ?
	`, string(tenant), id))
	if errors.Is(err, sql.ErrNoRows) {
		return APIKey{}, false, nil
	}
	if err != nil {
		return APIKey{}, false, fmt.Errorf("get api key %d: %w", id, err)
	}
	return key, true, nil
}

// ListAPIKeys returns the tenant's keys, oldest first.
func (q *Queries) ListAPIKeys(ctx context.Context, tenant pricing.TenantID) ([]APIKey, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, tenant_id, device_name, active, created_at FROM api_keys
		WHERE tenant_id = ? ORDER BY id
	`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	keys := []APIKey{}
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SetAPIKeyActive revokes or re-activates a key. The bool is false when the
// tenant has no such key.
func (q *Queries) SetAPIKeyActive(ctx context.Context, tenant pricing.TenantID, id int64, active bool) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE api_keys SET active = ? WHERE tenant_id = ? AND id = ?
	`, active, string(tenant), id)
	if err != nil {
		return false, fmt.Errorf("update api key %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update api key %d: %w", id, err)
	}
	return n > 0, nil
}

// DeleteAPIKey removes a key. The bool is false when the tenant has no such key.
func (q *Queries) DeleteAPIKey(ctx context.Context, tenant pricing.TenantID, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM api_keys WHERE tenant_id = ? AND id = ?`, string(tenant), id)
	if err != nil {
		return false, fmt.Errorf("delete api key %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete api key %d: %w", id, err)
	}
	return n > 0, nil
}

func scanAPIKey(row scanner) (APIKey, error) {
	var (
		key       APIKey
		tenant    string
		createdAt string
	)
	if err := row.Scan(&key.ID, &tenant, &key.DeviceName, &key.Active, &createdAt); err != nil {
		return APIKey{}, err
	}
	key.Tenant = pricing.TenantID(tenant)
	created, err := time.Parse(sqliteTimestamp, createdAt)
	if err != nil {
		return APIKey{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	key.CreatedAt = created
	return key, nil
}
