package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/store"
)

// apiKeyPrefix marks tenant API keys so leaked keys are recognizable in
// logs and secret scanners.
const apiKeyPrefix = "tak_"

// TenantService owns tenant administration: creation with API key issuance,
// brand profile and CMS connection management.
type TenantService struct {
	logger  *slog.Logger
	tenants store.TenantStore
}

// NewTenantService creates a TenantService.
func NewTenantService(log *slog.Logger, tenants store.TenantStore) *TenantService {
	if log == nil {
		log = slog.Default()
	}

	return &TenantService{
		logger:  log.With("component", "tenant_service"),
		tenants: tenants,
	}
}

// CreateTenant creates an active tenant with a freshly issued API key. The
// key is returned exactly once, on the created tenant.
func (s *TenantService) CreateTenant(ctx context.Context, name, slug string) (*domain.Tenant, error) {
	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("generate API key: %w", err)
	}

	tenant, err := domain.NewTenant(name, slug, apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.tenants.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tenant created", "tenant_id", tenant.ID, "slug", slug)
	return tenant, nil
}

// GetTenant returns a tenant with its brand profile and CMS connections.
func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return s.tenants.GetTenant(ctx, id)
}

// UpdateTenant applies a partial update.
func (s *TenantService) UpdateTenant(ctx context.Context, id uuid.UUID, update store.TenantUpdate) (*domain.Tenant, error) {
	if err := s.tenants.UpdateTenant(ctx, id, update); err != nil {
		return nil, err
	}
	return s.tenants.GetTenant(ctx, id)
}

// UpsertBrandProfile creates or replaces the tenant's brand profile.
func (s *TenantService) UpsertBrandProfile(ctx context.Context, tenantID uuid.UUID, params store.BrandProfileParams) (*domain.BrandProfile, error) {
	if _, err := s.tenants.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	profile, err := s.tenants.UpsertBrandProfile(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "brand profile upserted", "tenant_id", tenantID)
	return profile, nil
}

// CreateCMSConnection adds a publishing target to the tenant.
func (s *TenantService) CreateCMSConnection(ctx context.Context, tenantID uuid.UUID, provider, accessToken, contentDatabaseID, triggerDatabaseID string) (*domain.CMSConnection, error) {
	if _, err := s.tenants.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	conn, err := domain.NewCMSConnection(tenantID, provider, accessToken, contentDatabaseID, triggerDatabaseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.tenants.CreateCMSConnection(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "CMS connection created",
		"tenant_id", tenantID,
		"provider", conn.Provider)
	return conn, nil
}

// generateAPIKey issues a prefixed 256-bit random key.
func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}
