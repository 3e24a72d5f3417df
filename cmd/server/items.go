package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/CadeStocker/producepricer/internal/apierror"
	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

type compositionRequest struct {
	RawMaterialIDs []string        `json:"raw_material_ids" validate:"dive,required"`
	PackagingID    string          `json:"packaging_id"`
	Designation    string          `json:"designation" validate:"required,oneof=snakpak retail foodservice combo"`
	Ranch          bool            `json:"ranch"`
	CaseWeight     decimal.Decimal `json:"case_weight" validate:"gte=0"`
	YieldFraction  decimal.Decimal `json:"yield_fraction" validate:"gte=0,lte=1"`
	LaborHours     decimal.Decimal `json:"labor_hours" validate:"gte=0"`
}

func (c compositionRequest) composition() pricing.ItemComposition {
	return pricing.ItemComposition{
		RawMaterialIDs: c.RawMaterialIDs,
		PackagingID:    c.PackagingID,
		Designation:    pricing.Designation(c.Designation),
		Ranch:          c.Ranch,
		CaseWeight:     c.CaseWeight,
		YieldFraction:  c.YieldFraction,
		LaborHours:     c.LaborHours,
	}
}

type itemRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Code string `json:"code" validate:"max=40"`
	compositionRequest
}

type quoteRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
	compositionRequest
}

func (s *server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListItems(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.svc.GetItem(r.Context(), tenantFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *server) handleSaveItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !bindAndValidate(w, r, &req) {
		return
	}

	res, err := s.svc.SaveItem(r.Context(), store.Item{
		Tenant:      tenantFrom(r.Context()),
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Code:        req.Code,
		Composition: req.composition(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Recompute(r.Context(), tenantFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("limit must be an integer"))
		return
	}
	history, err := s.svc.SnapshotHistory(r.Context(), tenantFrom(r.Context()), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	snap, ok, err := s.svc.LatestSnapshot(r.Context(), tenantFrom(r.Context()), itemID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, apierror.New("no snapshot for item "+itemID))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleQuoteItem(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDate(r.URL.Query().Get("as_of"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("as_of must be YYYY-MM-DD"))
		return
	}
	quote, err := s.svc.QuoteItem(r.Context(), tenantFrom(r.Context()), chi.URLParam(r, "id"), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	asOf, err := parseDate(req.AsOf)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apierror.New("as_of must be YYYY-MM-DD"))
		return
	}

	quote, err := s.svc.QuoteComposition(r.Context(), tenantFrom(r.Context()), req.composition(), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
