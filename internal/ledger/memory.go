// Package ledger holds an in-memory cost ledger indexed per (tenant, subject).
//
// It backs the pricing engine's tests. The server persists costs through
// internal/store instead; nothing outside tests imports this package.
package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/CadeStocker/producepricer/internal/pricing"
)

type subjectKey struct {
	tenant      pricing.TenantID
	subjectType pricing.SubjectType
	subjectID   string
}

// Memory is an append-only ledger. Each subject keeps its records sorted by
// (effective date, sequence) so Latest is a binary search.
type Memory struct {
	mu    sync.RWMutex
	seq   int64
	index map[subjectKey][]pricing.CostRecord
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{index: make(map[subjectKey][]pricing.CostRecord)}
}

// Append stores rec, assigning its sequence, and returns the stored copy.
func (m *Memory) Append(rec pricing.CostRecord) pricing.CostRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	rec.Sequence = m.seq
	rec.EffectiveDate = pricing.Day(rec.EffectiveDate)
	if rec.Parts != nil {
		parts := *rec.Parts
		rec.Parts = &parts
	}

	key := subjectKey{rec.Tenant, rec.SubjectType, rec.SubjectID}
	records := m.index[key]
	// The new sequence is the highest, so it sorts after every record that
	// shares its date.
	pos := sort.Search(len(records), func(i int) bool {
		return records[i].EffectiveDate.After(rec.EffectiveDate)
	})
	records = append(records, pricing.CostRecord{})
	copy(records[pos+1:], records[pos:])
	records[pos] = rec
	m.index[key] = records

	return rec
}

// Latest implements pricing.Ledger.
func (m *Memory) Latest(_ context.Context, q pricing.Query) (pricing.CostRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.index[subjectKey{q.Tenant, q.SubjectType, q.SubjectID}]
	asOf := pricing.Day(q.AsOf)
	i := sort.Search(len(records), func(i int) bool {
		return records[i].EffectiveDate.After(asOf)
	})
	if i == 0 {
		return pricing.CostRecord{}, false, nil
	}

	rec := records[i-1]
	if q.Since != nil && rec.EffectiveDate.Before(pricing.Day(*q.Since)) {
		return pricing.CostRecord{}, false, nil
	}
	return rec, true, nil
}

// History returns every record of one subject, oldest first.
func (m *Memory) History(tenant pricing.TenantID, subjectType pricing.SubjectType, subjectID string) []pricing.CostRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.index[subjectKey{tenant, subjectType, subjectID}]
	out := make([]pricing.CostRecord, len(records))
	copy(out, records)
	return out
}

// Len reports the total number of records held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, records := range m.index {
		n += len(records)
	}
	return n
}
