package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// HistorySummary is the latest, previous and average cost of one subject.
type HistorySummary struct {
	SubjectID string          `json:"subject_id"`
	Latest    *CostRecord     `json:"latest"`
	Previous  *CostRecord     `json:"previous"`
	Average   decimal.Decimal `json:"average"`
	Count     int             `json:"count"`
}

// SummarizeHistory orders records most recent first and summarizes them.
// Records are assumed to belong to one subject.
func SummarizeHistory(subjectID string, records []CostRecord) HistorySummary {
	s := HistorySummary{SubjectID: subjectID, Count: len(records)}
	if len(records) == 0 {
		return s
	}

	ordered := make([]CostRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].After(ordered[j]) })

	values := make([]decimal.Decimal, len(ordered))
	for i, r := range ordered {
		values[i] = r.Value
	}

	s.Latest = &ordered[0]
	if len(ordered) > 1 {
		s.Previous = &ordered[1]
	}
	s.Average = Mean(values)
	return s
}
