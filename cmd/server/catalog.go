package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CadeStocker/producepricer/internal/store"
)

type rawMaterialRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Unit string `json:"unit" validate:"omitempty,max=16"`
}

type packagingRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (s *server) handleListRawMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.svc.ListRawMaterials(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleSaveRawMaterial(w http.ResponseWriter, r *http.Request) {
	var req rawMaterialRequest
	if !bindAndValidate(w, r, &req) {
		return
	}

	m := store.RawMaterial{
		Tenant: tenantFrom(r.Context()),
		ID:     chi.URLParam(r, "id"),
		Name:   req.Name,
		Unit:   req.Unit,
	}
	if m.Unit == "" {
		m.Unit = "lb"
	}
	if err := s.svc.SaveRawMaterial(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) handleSavePackaging(w http.ResponseWriter, r *http.Request) {
	var req packagingRequest
	if !bindAndValidate(w, r, &req) {
		return
	}

	p := store.Packaging{
		Tenant: tenantFrom(r.Context()),
		ID:     chi.URLParam(r, "id"),
		Name:   req.Name,
	}
	if err := s.svc.SavePackaging(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
