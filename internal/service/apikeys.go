package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

const apiKeyPrefix = "pp_"

// IssuedAPIKey is a new key. Key is only returned here; the store keeps a hash.
type IssuedAPIKey struct {
	store.APIKey
	Key string `json:"key"`
}

// CreateAPIKey issues a random key for a device of the tenant.
func (s *Service) CreateAPIKey(ctx context.Context, tenant pricing.TenantID, deviceName string) (IssuedAPIKey, error) {
	deviceName = strings.TrimSpace(deviceName)
	if tenant == "" || deviceName == "" {
		return IssuedAPIKey{}, fmt.Errorf("%w: device name is required", ErrInvalidInput)
	}

	raw := newAPIKey()
	key, err := s.store.CreateAPIKey(ctx, tenant, store.HashAPIKey(raw), deviceName)
	if err != nil {
		return IssuedAPIKey{}, err
	}
	s.logger.Info("api key created",
		zap.String("tenant", string(tenant)),
		zap.Int64("key_id", key.ID),
		zap.String("device", deviceName))
	return IssuedAPIKey{APIKey: key, Key: raw}, nil
}

// ListAPIKeys returns the tenant's keys without their secrets.
func (s *Service) ListAPIKeys(ctx context.Context, tenant pricing.TenantID) ([]store.APIKey, error) {
	return s.store.ListAPIKeys(ctx, tenant)
}

// RevokeAPIKey deactivates a key so it no longer authenticates.
func (s *Service) RevokeAPIKey(ctx context.Context, tenant pricing.TenantID, id int64) (store.APIKey, error) {
	return s.setAPIKeyActive(ctx, tenant, id, false)
}

// ActivateAPIKey re-enables a revoked key.
func (s *Service) ActivateAPIKey(ctx context.Context, tenant pricing.TenantID, id int64) (store.APIKey, error) {
	return s.setAPIKeyActive(ctx, tenant, id, true)
}

// DeleteAPIKey removes a key for good.
func (s *Service) DeleteAPIKey(ctx context.Context, tenant pricing.TenantID, id int64) error {
	found, err := s.store.DeleteAPIKey(ctx, tenant, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %d", ErrAPIKeyNotFound, id)
	}
	s.logger.Info("api key deleted", zap.String("tenant", string(tenant)), zap.Int64("key_id", id))
	return nil
}

func (s *Service) setAPIKeyActive(ctx context.Context, tenant pricing.TenantID, id int64, active bool) (store.APIKey, error) {
	var key store.APIKey
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		found, err := q.SetAPIKeyActive(ctx, tenant, id, active)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %d", ErrAPIKeyNotFound, id)
		}
		key, _, err = q.GetAPIKey(ctx, tenant, id)
		return err
	})
	if err != nil {
		return store.APIKey{}, err
	}
	s.logger.Info("api key updated",
		zap.String("tenant", string(tenant)),
		zap.Int64("key_id", id),
		zap.Bool("active", active))
	return key, nil
}

// newAPIKey joins two random UUIDs into a 64 hex character secret.
func newAPIKey() string {
	return apiKeyPrefix + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
