package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/apierror"
	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/service"
)

type costRequest struct {
	SubjectType   pricing.SubjectType `json:"subject_type" validate:"required,oneof=raw_material packaging labor_rate designation_rate ranch_rate"`
	SubjectID     string              `json:"subject_id" validate:"max=120"`
	Value         decimal.Decimal     `json:"value" validate:"gte=0"`
	Parts         *partsRequest       `json:"parts"`
	EffectiveDate string              `json:"effective_date" validate:"omitempty,datetime=2006-01-02"`
}

type partsRequest struct {
	Box          decimal.Decimal `json:"box" validate:"gte=0"`
	Bag          decimal.Decimal `json:"bag" validate:"gte=0"`
	TrayChemical decimal.Decimal `json:"tray_chemical" validate:"gte=0"`
	LabelTape    decimal.Decimal `json:"label_tape" validate:"gte=0"`
}

func (s *server) handleRecordCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	effective, err := parseDate(req.EffectiveDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("effective_date must be YYYY-MM-DD"))
		return
	}

	in := service.CostInput{
		SubjectType:   req.SubjectType,
		SubjectID:     req.SubjectID,
		Value:         req.Value,
		EffectiveDate: effective,
	}
	if req.Parts != nil {
		in.Parts = &pricing.PackagingParts{
			Box:          req.Parts.Box,
			Bag:          req.Parts.Bag,
			TrayChemical: req.Parts.TrayChemical,
			LabelTape:    req.Parts.LabelTape,
		}
	}

	res, err := s.svc.RecordCost(r.Context(), tenantFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleCostHistory serves the ledger of one subject. Tenant-wide subjects
// accept any id, conventionally "tenant".
func (s *server) handleCostHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("limit must be an integer"))
		return
	}

	history, err := s.svc.CostHistory(r.Context(), tenantFrom(r.Context()),
		pricing.SubjectType(chi.URLParam(r, "subjectType")), chi.URLParam(r, "subjectID"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
