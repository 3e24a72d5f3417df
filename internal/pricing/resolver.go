package pricing

import (
	"context"
	"fmt"
	"time"
)

// Query selects the most recent record for one (tenant, subject) pair.
// Since is inclusive and optional; AsOf is inclusive.
type Query struct {
	Tenant      TenantID
	SubjectType SubjectType
	SubjectID   string
	AsOf        time.Time
	Since       *time.Time
}

// Ledger is the append-only cost history. Latest must filter on every field of
// q and order by (effective date desc, sequence desc).
type Ledger interface {
	Latest(ctx context.Context, q Query) (CostRecord, bool, error)
}

// ResolveOption adjusts a single Resolve call.
type ResolveOption func(*Query)

// WithLookback bounds the search to records effective no earlier than days
// before the reference date.
func WithLookback(days int) ResolveOption {
	return func(q *Query) {
		since := q.AsOf.AddDate(0, 0, -days)
		q.Since = &since
	}
}

// Resolver answers "most recent cost as of date X" against a Ledger.
type Resolver struct {
	ledger Ledger
}

// NewResolver wraps ledger.
func NewResolver(ledger Ledger) *Resolver {
	return &Resolver{ledger: ledger}
}

// Resolve returns the winning record, or false when nothing matches. A subject
// that belongs to another tenant looks exactly like one that does not exist.
// The error is reserved for ledger failures.
func (r *Resolver) Resolve(ctx context.Context, tenant TenantID, subjectType SubjectType, subjectID string, asOf time.Time, opts ...ResolveOption) (CostRecord, bool, error) {
	if tenant == "" || subjectID == "" {
		return CostRecord{}, false, nil
	}

	q := Query{
		Tenant:      tenant,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		AsOf:        Day(asOf),
	}
	for _, opt := range opts {
		opt(&q)
	}

	rec, ok, err := r.ledger.Latest(ctx, q)
	if err != nil {
		return CostRecord{}, false, fmt.Errorf("resolve %s %s: %w", subjectType, subjectID, err)
	}
	if !ok || rec.Tenant != tenant {
		return CostRecord{}, false, nil
	}
	return rec, true, nil
}

// ResolveTenantWide resolves a subject keyed by TenantWide.
func (r *Resolver) ResolveTenantWide(ctx context.Context, tenant TenantID, subjectType SubjectType, asOf time.Time, opts ...ResolveOption) (CostRecord, bool, error) {
	return r.Resolve(ctx, tenant, subjectType, TenantWide, asOf, opts...)
}
