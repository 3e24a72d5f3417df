package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeStocker/producepricer/internal/pricing"
)

func entry(date string, value int64) pricing.CostRecord {
	d, _ := time.Parse("2006-01-02", date)
	return pricing.CostRecord{
		Tenant:        "t1",
		SubjectType:   pricing.SubjectRawMaterial,
		SubjectID:     "carrot",
		Value:         decimal.NewFromInt(value),
		EffectiveDate: d,
	}
}

func query(asOf string) pricing.Query {
	d, _ := time.Parse("2006-01-02", asOf)
	return pricing.Query{Tenant: "t1", SubjectType: pricing.SubjectRawMaterial, SubjectID: "carrot", AsOf: d}
}

func TestMemory_KeepsSubjectOrdered(t *testing.T) {
	m := NewMemory()
	m.Append(entry("2024-03-01", 3))
	m.Append(entry("2024-01-01", 1))
	m.Append(entry("2024-02-01", 2))
	m.Append(entry("2024-02-01", 22))

	history := m.History("t1", pricing.SubjectRawMaterial, "carrot")
	require.Len(t, history, 4)
	var values []int64
	for _, r := range history {
		values = append(values, r.Value.IntPart())
	}
	assert.Equal(t, []int64{1, 2, 22, 3}, values)
	assert.Equal(t, 4, m.Len())
}

func TestMemory_Latest(t *testing.T) {
	m := NewMemory()
	m.Append(entry("2024-01-01", 1))
	m.Append(entry("2024-02-01", 2))
	m.Append(entry("2024-02-01", 22))

	tests := []struct {
		asOf string
		ok   bool
		want int64
	}{
		{asOf: "2023-12-31", ok: false},
		{asOf: "2024-01-01", ok: true, want: 1},
		{asOf: "2024-01-31", ok: true, want: 1},
		{asOf: "2024-02-01", ok: true, want: 22},
		{asOf: "2030-01-01", ok: true, want: 22},
	}
	for _, tc := range tests {
		rec, ok, err := m.Latest(context.Background(), query(tc.asOf))
		require.NoError(t, err)
		require.Equal(t, tc.ok, ok, tc.asOf)
		if ok {
			assert.Equal(t, tc.want, rec.Value.IntPart(), tc.asOf)
		}
	}
}

func TestMemory_LatestRespectsSince(t *testing.T) {
	m := NewMemory()
	m.Append(entry("2024-01-01", 1))

	q := query("2024-03-01")
	since, _ := time.Parse("2006-01-02", "2024-01-02")
	q.Since = &since
	_, ok, err := m.Latest(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_SeparatesTenants(t *testing.T) {
	m := NewMemory()
	rec := entry("2024-01-01", 1)
	rec.Tenant = "t2"
	m.Append(rec)

	_, ok, err := m.Latest(context.Background(), query("2024-03-01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_AppendTruncatesToDay(t *testing.T) {
	m := NewMemory()
	rec := entry("2024-01-01", 1)
	rec.EffectiveDate = rec.EffectiveDate.Add(18 * time.Hour)
	stored := m.Append(rec)

	assert.Equal(t, 0, stored.EffectiveDate.Hour())
	assert.Equal(t, int64(1), stored.Sequence)
}
