// Package pricing resolves historical costs per tenant and turns an item's
// composition into a total cost, a market comparison and markup tiers.
//
// Everything in this package is computation over a Ledger. Missing data never
// fails a calculation; it is reported as a Warning next to the result.
package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantID identifies an isolated customer organization.
type TenantID string

// SubjectType names the kind of entity a cost record is about.
type SubjectType string

const (
	SubjectRawMaterial     SubjectType = "raw_material"
	SubjectPackaging       SubjectType = "packaging"
	SubjectLaborRate       SubjectType = "labor_rate"
	SubjectDesignationRate SubjectType = "designation_rate"
	SubjectRanchRate       SubjectType = "ranch_rate"
)

// TenantWide is the subject id used by subjects that exist once per tenant.
const TenantWide = "tenant"

// Valid reports whether t is one of the known subject types.
func (t SubjectType) Valid() bool {
	switch t {
	case SubjectRawMaterial, SubjectPackaging, SubjectLaborRate, SubjectDesignationRate, SubjectRanchRate:
		return true
	}
	return false
}

// IsTenantWide reports whether records of this type are keyed by TenantWide.
func (t SubjectType) IsTenantWide() bool {
	return t == SubjectLaborRate || t == SubjectRanchRate
}

// Designation is the category tag of a sellable item.
type Designation string

const (
	DesignationSnakPak     Designation = "snakpak"
	DesignationRetail      Designation = "retail"
	DesignationFoodservice Designation = "foodservice"
	DesignationCombo       Designation = "combo"
)

// Designations lists every known designation in display order.
var Designations = []Designation{DesignationSnakPak, DesignationRetail, DesignationFoodservice, DesignationCombo}

// Valid reports whether d is a known designation.
func (d Designation) Valid() bool {
	for _, known := range Designations {
		if d == known {
			return true
		}
	}
	return false
}

// PackagingParts holds the sub-costs of one packaging cost entry.
type PackagingParts struct {
	Box          decimal.Decimal `json:"box"`
	Bag          decimal.Decimal `json:"bag"`
	TrayChemical decimal.Decimal `json:"tray_chemical"`
	LabelTape    decimal.Decimal `json:"label_tape"`
}

// Total sums the four sub-costs.
func (p PackagingParts) Total() decimal.Decimal {
	return p.Box.Add(p.Bag).Add(p.TrayChemical).Add(p.LabelTape)
}

// CostRecord is one immutable ledger entry. Sequence is assigned by the ledger
// on append and orders entries that share an effective date.
type CostRecord struct {
	Tenant        TenantID        `json:"tenant_id"`
	SubjectType   SubjectType     `json:"subject_type"`
	SubjectID     string          `json:"subject_id"`
	Value         decimal.Decimal `json:"value"`
	Parts         *PackagingParts `json:"parts,omitempty"`
	EffectiveDate time.Time       `json:"effective_date"`
	Sequence      int64           `json:"sequence"`
}

// After reports whether r wins over other in "most recent" ordering.
func (r CostRecord) After(other CostRecord) bool {
	if !r.EffectiveDate.Equal(other.EffectiveDate) {
		return r.EffectiveDate.After(other.EffectiveDate)
	}
	return r.Sequence > other.Sequence
}

// ItemComposition is the current definition of a sellable item.
type ItemComposition struct {
	RawMaterialIDs []string        `json:"raw_material_ids"`
	PackagingID    string          `json:"packaging_id"`
	Designation    Designation     `json:"designation"`
	Ranch          bool            `json:"ranch"`
	CaseWeight     decimal.Decimal `json:"case_weight"`
	YieldFraction  decimal.Decimal `json:"yield_fraction"`
	LaborHours     decimal.Decimal `json:"labor_hours"`
}

// CostBreakdown is the computed cost of one item at one point in time.
type CostBreakdown struct {
	RawCost         decimal.Decimal `json:"raw_cost"`
	PackagingCost   decimal.Decimal `json:"packaging_cost"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	DesignationCost decimal.Decimal `json:"designation_cost"`
	RanchCost       decimal.Decimal `json:"ranch_cost"`
	Total           decimal.Decimal `json:"total"`
}

// Equal compares every component numerically.
func (b CostBreakdown) Equal(other CostBreakdown) bool {
	return b.RawCost.Equal(other.RawCost) &&
		b.PackagingCost.Equal(other.PackagingCost) &&
		b.LaborCost.Equal(other.LaborCost) &&
		b.DesignationCost.Equal(other.DesignationCost) &&
		b.RanchCost.Equal(other.RanchCost) &&
		b.Total.Equal(other.Total)
}

// Snapshot is a persisted breakdown. Snapshots are never updated.
type Snapshot struct {
	ID        uuid.UUID     `json:"id"`
	Tenant    TenantID      `json:"tenant_id"`
	ItemID    string        `json:"item_id"`
	AsOfDate  time.Time     `json:"as_of_date"`
	Sequence  int64         `json:"sequence"`
	Breakdown CostBreakdown `json:"breakdown"`
}

// WarningCode classifies a non-fatal condition met during a computation.
type WarningCode string

const (
	WarnRanchUnresolved       WarningCode = "ranch_rate_unresolved"
	WarnRawMaterialUnresolved WarningCode = "raw_material_unresolved"
	WarnPackagingUnresolved   WarningCode = "packaging_unresolved"
	WarnLaborUnresolved       WarningCode = "labor_rate_unresolved"
	WarnDesignationDefaulted  WarningCode = "designation_rate_defaulted"
	WarnTotalNotPositive      WarningCode = "total_not_positive"
	WarnItemNotFound          WarningCode = "item_not_found"
)

// Warning is surfaced to the caller instead of failing the computation.
type Warning struct {
	Code      WarningCode `json:"code"`
	SubjectID string      `json:"subject_id,omitempty"`
	Message   string      `json:"message"`
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
