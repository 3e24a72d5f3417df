package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

// CostInput is a new ledger entry. SubjectID is ignored for tenant-wide
// subjects; a zero EffectiveDate means today. Packaging entries with Parts
// take their value from the parts.
type CostInput struct {
	SubjectType   pricing.SubjectType
	SubjectID     string
	Value         decimal.Decimal
	Parts         *pricing.PackagingParts
	EffectiveDate time.Time
}

// CostResult is the stored record plus every item recomputed because of it.
type CostResult struct {
	Record     pricing.CostRecord  `json:"record"`
	Recomputed []pricing.Recompute `json:"recomputed"`
}

// RecordCost appends a cost record and recomputes every affected item in the
// same transaction.
func (s *Service) RecordCost(ctx context.Context, tenant pricing.TenantID, in CostInput) (CostResult, error) {
	rec, err := s.costRecord(tenant, in)
	if err != nil {
		return CostResult{}, err
	}

	unlock := s.lockTenant(tenant)
	defer unlock()

	var out CostResult
	err = s.store.InTx(ctx, func(q *store.Queries) error {
		if err := s.checkSubjectExists(ctx, q, rec); err != nil {
			return err
		}

		stored, err := q.AppendCost(ctx, rec)
		if err != nil {
			return err
		}
		out.Record = stored

		itemIDs, err := affectedItems(ctx, q, stored)
		if err != nil {
			return err
		}
		out.Recomputed, err = s.recomputeAll(ctx, q, tenant, itemIDs)
		return err
	})
	if err != nil {
		return CostResult{}, fmt.Errorf("record %s cost: %w", in.SubjectType, err)
	}

	s.logger.Info("cost recorded",
		zap.String("tenant", string(tenant)),
		zap.String("subject", string(out.Record.SubjectType)+"/"+out.Record.SubjectID),
		zap.String("value", out.Record.Value.String()),
		zap.Time("effective_date", out.Record.EffectiveDate),
		zap.Int("recomputed", len(out.Recomputed)))
	return out, nil
}

// CostHistory returns the subject's ledger entries, most recent first.
func (s *Service) CostHistory(ctx context.Context, tenant pricing.TenantID, subjectType pricing.SubjectType, subjectID string, limit int) ([]pricing.CostRecord, error) {
	if !subjectType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, subjectType)
	}
	if subjectType.IsTenantWide() {
		subjectID = pricing.TenantWide
	}
	return s.store.CostHistory(ctx, tenant, subjectType, subjectID, limit)
}

func (s *Service) costRecord(tenant pricing.TenantID, in CostInput) (pricing.CostRecord, error) {
	if tenant == "" {
		return pricing.CostRecord{}, fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}
	if !in.SubjectType.Valid() {
		return pricing.CostRecord{}, fmt.Errorf("%w: %q", ErrUnknownSubject, in.SubjectType)
	}

	rec := pricing.CostRecord{
		Tenant:        tenant,
		SubjectType:   in.SubjectType,
		SubjectID:     in.SubjectID,
		Value:         in.Value,
		EffectiveDate: in.EffectiveDate,
	}
	if rec.EffectiveDate.IsZero() {
		rec.EffectiveDate = s.today()
	}
	rec.EffectiveDate = pricing.Day(rec.EffectiveDate)

	switch {
	case in.SubjectType.IsTenantWide():
		rec.SubjectID = pricing.TenantWide
	case in.SubjectType == pricing.SubjectDesignationRate:
		if !pricing.Designation(in.SubjectID).Valid() {
			return pricing.CostRecord{}, fmt.Errorf("%w: designation %q", ErrUnknownSubject, in.SubjectID)
		}
	case in.SubjectID == "":
		return pricing.CostRecord{}, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}

	if in.Parts != nil {
		if in.SubjectType != pricing.SubjectPackaging {
			return pricing.CostRecord{}, fmt.Errorf("%w: parts only apply to packaging", ErrInvalidInput)
		}
		parts := *in.Parts
		rec.Parts = &parts
		rec.Value = parts.Total()
		for _, p := range []decimal.Decimal{parts.Box, parts.Bag, parts.TrayChemical, parts.LabelTape} {
			if p.IsNegative() {
				return pricing.CostRecord{}, fmt.Errorf("%w: packaging parts must not be negative", ErrInvalidInput)
			}
		}
	}
	if rec.Value.IsNegative() {
		return pricing.CostRecord{}, fmt.Errorf("%w: value must not be negative", ErrInvalidInput)
	}
	return rec, nil
}

func (s *Service) checkSubjectExists(ctx context.Context, q *store.Queries, rec pricing.CostRecord) error {
	var (
		exists bool
		err    error
	)
	switch rec.SubjectType {
	case pricing.SubjectRawMaterial:
		exists, err = q.RawMaterialExists(ctx, rec.Tenant, rec.SubjectID)
	case pricing.SubjectPackaging:
		exists, err = q.PackagingExists(ctx, rec.Tenant, rec.SubjectID)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s %q", ErrUnknownSubject, rec.SubjectType, rec.SubjectID)
	}
	return nil
}

// affectedItems lists the items whose cost depends on rec's subject.
func affectedItems(ctx context.Context, q *store.Queries, rec pricing.CostRecord) ([]string, error) {
	switch rec.SubjectType {
	case pricing.SubjectRawMaterial:
		return q.ItemIDsUsingRawMaterial(ctx, rec.Tenant, rec.SubjectID)
	case pricing.SubjectPackaging:
		return q.ItemIDsUsingPackaging(ctx, rec.Tenant, rec.SubjectID)
	case pricing.SubjectDesignationRate:
		return q.ItemIDsWithDesignation(ctx, rec.Tenant, pricing.Designation(rec.SubjectID))
	case pricing.SubjectRanchRate:
		return q.RanchItemIDs(ctx, rec.Tenant)
	case pricing.SubjectLaborRate:
		return q.ItemIDs(ctx, rec.Tenant)
	}
	return nil, nil
}

func (s *Service) recomputeAll(ctx context.Context, q *store.Queries, tenant pricing.TenantID, itemIDs []string) ([]pricing.Recompute, error) {
	snapshots := s.engine(q).snapshots
	out := make([]pricing.Recompute, 0, len(itemIDs))
	for _, id := range itemIDs {
		res, err := snapshots.RecomputeAndPersist(ctx, tenant, id)
		if err != nil {
			return nil, err
		}
		s.logWarnings(tenant, id, res.Warnings)
		out = append(out, res)
	}
	return out, nil
}
