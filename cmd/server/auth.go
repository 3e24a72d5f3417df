package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/apierror"
	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

const apiKeyHeader = "X-API-Key"

type tenantKey struct{}

// keyDirectory maps a hashed API key to its tenant.
type keyDirectory interface {
	TenantForKey(ctx context.Context, keyHash string) (pricing.TenantID, bool, error)
}

// authMiddleware resolves the X-API-Key header to a tenant and rejects the
// request when the key is missing, unknown or revoked.
func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			writeJSON(w, http.StatusUnauthorized, apierror.New("missing API key"))
			return
		}

		tenant, ok, err := s.keys.TenantForKey(r.Context(), store.HashAPIKey(key))
		if err != nil {
			s.logger.Error("resolve API key", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, apierror.New("internal error"))
			return
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, apierror.New("invalid API key"))
			return
		}

		ctx := context.WithValue(r.Context(), tenantKey{}, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tenantFrom returns the tenant attached by authMiddleware.
func tenantFrom(ctx context.Context) pricing.TenantID {
	tenant, _ := ctx.Value(tenantKey{}).(pricing.TenantID)
	return tenant
}
