package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/apierror"
	"github.com/CadeStocker/producepricer/internal/service"
)

type receiptRequest struct {
	RawMaterialID string           `json:"raw_material_id" validate:"required,max=120"`
	PricePaid     *decimal.Decimal `json:"price_paid" validate:"omitempty,gte=0"`
	ReceivedAt    string           `json:"received_at" validate:"omitempty,datetime=2006-01-02"`
	Notes         string           `json:"notes" validate:"max=500"`
}

func (s *server) handleRecordReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	received, err := parseDate(req.ReceivedAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("received_at must be YYYY-MM-DD"))
		return
	}

	in := service.ReceiptInput{
		RawMaterialID: req.RawMaterialID,
		ReceivedAt:    received,
		Notes:         req.Notes,
	}
	if req.PricePaid != nil {
		in.PricePaid = decimal.NewNullDecimal(*req.PricePaid)
	}

	res, err := s.svc.RecordReceipt(r.Context(), tenantFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *server) handleReceivingLog(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("limit must be an integer"))
		return
	}
	log, err := s.svc.ReceivingLog(r.Context(), tenantFrom(r.Context()), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *server) handleCompareReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("receipt id must be a UUID"))
		return
	}
	res, err := s.svc.CompareReceipt(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
