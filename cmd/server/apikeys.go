package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/CadeStocker/producepricer/internal/apierror"
	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

type apiKeyRequest struct {
	DeviceName string `json:"device_name" validate:"required,max=120"`
}

func (s *server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.svc.ListAPIKeys(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	issued, err := s.svc.CreateAPIKey(r.Context(), tenantFrom(r.Context()), req.DeviceName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, issued)
}

func (s *server) handleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	s.updateAPIKey(w, r, s.svc.RevokeAPIKey)
}

func (s *server) handleActivateAPIKey(w http.ResponseWriter, r *http.Request) {
	s.updateAPIKey(w, r, s.svc.ActivateAPIKey)
}

func (s *server) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := apiKeyID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteAPIKey(r.Context(), tenantFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type apiKeyUpdate func(ctx context.Context, tenant pricing.TenantID, id int64) (store.APIKey, error)

func (s *server) updateAPIKey(w http.ResponseWriter, r *http.Request, update apiKeyUpdate) {
	id, ok := apiKeyID(w, r)
	if !ok {
		return
	}
	key, err := update(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func apiKeyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, apierror.New("api key id must be a positive integer"))
		return 0, false
	}
	return id, true
}
