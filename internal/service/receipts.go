package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

// ReceiptInput logs a delivery. A zero ReceivedAt means today.
type ReceiptInput struct {
	RawMaterialID string
	PricePaid     decimal.NullDecimal
	ReceivedAt    time.Time
	Notes         string
}

// ReceiptComparison pairs a receipt with its market comparison.
type ReceiptComparison struct {
	Receipt    store.Receipt      `json:"receipt"`
	Comparison pricing.Comparison `json:"comparison"`
}

// RecordReceipt stores a receipt and compares its price with the market cost
// of the raw material on the receiving date.
func (s *Service) RecordReceipt(ctx context.Context, tenant pricing.TenantID, in ReceiptInput) (ReceiptComparison, error) {
	if in.RawMaterialID == "" {
		return ReceiptComparison{}, fmt.Errorf("%w: raw material id is required", ErrInvalidInput)
	}
	if in.PricePaid.Valid && in.PricePaid.Decimal.IsNegative() {
		return ReceiptComparison{}, fmt.Errorf("%w: price paid must not be negative", ErrInvalidInput)
	}
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = s.today()
	}

	exists, err := s.store.RawMaterialExists(ctx, tenant, in.RawMaterialID)
	if err != nil {
		return ReceiptComparison{}, fmt.Errorf("record receipt: %w", err)
	}
	if !exists {
		return ReceiptComparison{}, fmt.Errorf("%w: raw material %q", ErrUnknownSubject, in.RawMaterialID)
	}

	r, err := s.store.InsertReceipt(ctx, store.Receipt{
		Tenant:        tenant,
		RawMaterialID: in.RawMaterialID,
		PricePaid:     in.PricePaid,
		ReceivedAt:    in.ReceivedAt,
		Notes:         in.Notes,
	})
	if err != nil {
		return ReceiptComparison{}, fmt.Errorf("record receipt: %w", err)
	}

	out, err := s.compare(ctx, r)
	if err != nil {
		return ReceiptComparison{}, err
	}
	s.logger.Info("receipt recorded",
		zap.String("tenant", string(tenant)),
		zap.String("subject", r.RawMaterialID),
		zap.String("status", string(out.Comparison.Status)))
	return out, nil
}

// CompareReceipt reruns the market comparison of a stored receipt.
func (s *Service) CompareReceipt(ctx context.Context, tenant pricing.TenantID, id uuid.UUID) (ReceiptComparison, error) {
	r, ok, err := s.store.GetReceipt(ctx, tenant, id)
	if err != nil {
		return ReceiptComparison{}, fmt.Errorf("compare receipt: %w", err)
	}
	if !ok {
		return ReceiptComparison{}, fmt.Errorf("%w: %s", ErrReceiptNotFound, id)
	}
	return s.compare(ctx, r)
}

// ReceivingLog returns up to limit receipts, newest first, each compared
// with the market.
func (s *Service) ReceivingLog(ctx context.Context, tenant pricing.TenantID, limit int) ([]ReceiptComparison, error) {
	receipts, err := s.store.ListReceipts(ctx, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("receiving log: %w", err)
	}

	out := make([]ReceiptComparison, 0, len(receipts))
	for _, r := range receipts {
		rc, err := s.compare(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

func (s *Service) compare(ctx context.Context, r store.Receipt) (ReceiptComparison, error) {
	cmp, err := s.engine(s.store.Queries).comparer.Compare(ctx, r.Tenant, r.PricePaid, pricing.SubjectRawMaterial, r.RawMaterialID, r.ReceivedAt)
	if err != nil {
		return ReceiptComparison{}, fmt.Errorf("compare receipt %s: %w", r.ID, err)
	}
	return ReceiptComparison{Receipt: r, Comparison: cmp}, nil
}
