package pricing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeStocker/producepricer/internal/ledger"
	"github.com/CadeStocker/producepricer/internal/pricing"
)

func TestResolve_OtherTenantLooksMissing(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantB, pricing.SubjectRawMaterial, "carrot", "10", "2024-01-01"))

	r := pricing.NewResolver(l)
	_, ok, err := r.Resolve(context.Background(), tenantA, pricing.SubjectRawMaterial, "carrot", day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.Resolve(context.Background(), tenantA, pricing.SubjectRawMaterial, "never-existed", day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_SameDateHigherSequenceWins(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "10", "2024-01-05"))
	correction := l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "11", "2024-01-05"))

	rec, ok, err := pricing.NewResolver(l).Resolve(context.Background(), tenantA, pricing.SubjectRawMaterial, "carrot", day(t, "2024-01-05"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, correction.Sequence, rec.Sequence)
	assertDecimal(t, "value", rec.Value, "11")
}

func TestResolve_LaterDateBeatsLaterInsertion(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "12", "2024-03-01"))
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "9", "2024-02-01"))

	rec, ok, err := pricing.NewResolver(l).Resolve(context.Background(), tenantA, pricing.SubjectRawMaterial, "carrot", day(t, "2024-04-01"))
	require.NoError(t, err)
	require.True(t, ok)
	assertDecimal(t, "value", rec.Value, "12")
}

func TestResolve_IgnoresRecordsAfterReferenceDate(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectLaborRate, pricing.TenantWide, "15", "2024-01-01"))
	l.Append(record(t, tenantA, pricing.SubjectLaborRate, pricing.TenantWide, "17", "2024-07-01"))

	rec, ok, err := pricing.NewResolver(l).ResolveTenantWide(context.Background(), tenantA, pricing.SubjectLaborRate, day(t, "2024-06-30"))
	require.NoError(t, err)
	require.True(t, ok)
	assertDecimal(t, "labor", rec.Value, "15")
}

func TestResolve_LookbackWindow(t *testing.T) {
	l := ledger.NewMemory()
	l.Append(record(t, tenantA, pricing.SubjectRawMaterial, "carrot", "10", "2024-01-22"))
	r := pricing.NewResolver(l)

	tests := []struct {
		name     string
		asOf     string
		lookback int
		want     bool
	}{
		{name: "40 days old outside 30 day window", asOf: "2024-03-02", lookback: 30, want: false},
		{name: "exactly on window start", asOf: "2024-02-21", lookback: 30, want: true},
		{name: "one day past window start", asOf: "2024-02-22", lookback: 30, want: false},
		{name: "zero lookback same day", asOf: "2024-01-22", lookback: 0, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := r.Resolve(context.Background(), tenantA, pricing.SubjectRawMaterial, "carrot", day(t, tc.asOf), pricing.WithLookback(tc.lookback))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestResolve_EmptyTenantNeverQueries(t *testing.T) {
	r := pricing.NewResolver(failingLedger{})
	_, ok, err := r.Resolve(context.Background(), "", pricing.SubjectRawMaterial, "carrot", day(t, "2024-01-01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_WrapsLedgerErrors(t *testing.T) {
	r := pricing.NewResolver(failingLedger{})
	_, _, err := r.Resolve(context.Background(), tenantA, pricing.SubjectRawMaterial, "carrot", day(t, "2024-01-01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errLedgerDown)
}

func TestResolve_DropsRecordFromForeignTenant(t *testing.T) {
	leaky := leakyLedger{rec: record(t, tenantB, pricing.SubjectRawMaterial, "carrot", "10", "2024-01-01")}
	_, ok, err := pricing.NewResolver(leaky).Resolve(context.Background(), tenantA, pricing.SubjectRawMaterial, "carrot", day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

var errLedgerDown = errors.New("ledger down")

type failingLedger struct{}

func (failingLedger) Latest(context.Context, pricing.Query) (pricing.CostRecord, bool, error) {
	return pricing.CostRecord{}, false, errLedgerDown
}

// leakyLedger ignores the tenant filter.
type leakyLedger struct{ rec pricing.CostRecord }

func (l leakyLedger) Latest(context.Context, pricing.Query) (pricing.CostRecord, bool, error) {
	return l.rec, true, nil
}
