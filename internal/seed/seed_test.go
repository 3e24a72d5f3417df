package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/db"
	"github.com/CadeStocker/producepricer/internal/migrations"
	"github.com/CadeStocker/producepricer/internal/store"
)

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if _, err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	st := store.New(database)
	cfg := Config{
		Tenant:          "acme",
		TenantName:      "Acme Produce",
		APIKey:          "secret-key",
		DesignationRate: decimal.RequireFromString("1.00"),
		EffectiveDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, st, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 6 {
				t.Fatalf("expected 6 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM tenants WHERE id = ?`, "acme", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM api_keys WHERE tenant_id = ?`, "acme", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM cost_records WHERE tenant_id = ? AND subject_type = 'designation_rate'`, "acme", 4)

	tenant, ok, err := st.TenantForKey(ctx, store.HashAPIKey("secret-key"))
	if err != nil {
		t.Fatalf("lookup api key: %v", err)
	}
	if !ok || tenant != "acme" {
		t.Fatalf("expected key to map to acme, got %q (found=%v)", tenant, ok)
	}
}

func TestRunSkipsWithoutBootstrap(t *testing.T) {
	t.Parallel()

	stats, err := Run(context.Background(), nil, Config{})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 0 {
		t.Fatalf("expected no inserts, got %d", stats.Inserts)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, arg any, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(query, arg).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
