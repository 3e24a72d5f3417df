package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeStocker/producepricer/internal/db"
)

func TestUp_AppliesOnce(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "migrate-test.db"))
	require.NoError(t, err)
	defer database.Close()

	applied, err := Up(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 4, applied)

	applied, err = Up(ctx, database)
	require.NoError(t, err)
	assert.Zero(t, applied)

	for _, table := range []string{"tenants", "api_keys", "cost_records", "items", "item_raw_materials", "item_snapshots", "receipts"} {
		var name string
		err := database.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestUp_LedgerIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "append-only.db"))
	require.NoError(t, err)
	defer database.Close()

	_, err = Up(ctx, database)
	require.NoError(t, err)

	_, err = database.ExecContext(ctx, `INSERT INTO tenants (id, name) VALUES ('t1', 'T1')`)
	require.NoError(t, err)
	_, err = database.ExecContext(ctx, `
		INSERT INTO cost_records (tenant_id, subject_type, subject_id, value, effective_date)
		VALUES ('t1', 'raw_material', 'carrot', '10', '2024-01-01')`)
	require.NoError(t, err)

	_, err = database.ExecContext(ctx, `UPDATE cost_records SET value = '11'`)
	assert.Error(t, err)
	_, err = database.ExecContext(ctx, `DELETE FROM cost_records`)
	assert.Error(t, err)
}
