package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/inkpress/inkpress-api/internal/domain"
)

// BrandProfileParams carries the fields of a brand profile upsert. JSON
// fields are passed through opaquely.
type BrandProfileParams struct {
	CompanyName       string
	Industry          string
	BrandTone         string
	TargetAudience    string
	WritingGuidelines string
	DefaultAuthor     string
	SEOPreferences    json.RawMessage
	ContentRules      json.RawMessage
	CustomPrompt      string
}

// TenantUpdate carries the mutable tenant fields; nil pointers mean "leave
// unchanged".
type TenantUpdate struct {
	Name     *string
	IsActive *bool
}

// TenantStore defines the interface for persisting tenants, brand profiles
// and CMS connections. GetTenant and its variants load the tenant together
// with its brand profile and CMS connections.
type TenantStore interface {
	// CreateTenant persists a new tenant.
	CreateTenant(ctx context.Context, tenant *domain.Tenant) error

	// GetTenant retrieves a tenant by ID with brand profile and CMS
	// connections attached. Returns ErrTenantNotFound if it does not exist.
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)

	// GetTenantBySlug retrieves a tenant by its unique slug.
	GetTenantBySlug(ctx context.Context, slug string) (*domain.Tenant, error)

	// GetTenantByAPIKey retrieves a tenant by its API key. Used by the
	// tenant-key middleware; returns ErrTenantNotFound for unknown keys.
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error)

	// UpdateTenant applies the given partial update.
	UpdateTenant(ctx context.Context, id uuid.UUID, update TenantUpdate) error

	// ListActiveTenants returns all active tenants with their relations,
	// used by the CMS poller.
	ListActiveTenants(ctx context.Context) ([]*domain.Tenant, error)

	// UpsertBrandProfile creates or replaces the tenant's brand profile.
	UpsertBrandProfile(ctx context.Context, tenantID uuid.UUID, params BrandProfileParams) (*domain.BrandProfile, error)

	// CreateCMSConnection persists a new CMS connection for the tenant.
	CreateCMSConnection(ctx context.Context, conn *domain.CMSConnection) error

	// WithTx returns a TenantStore bound to the given transaction.
	WithTx(tx *sql.Tx) TenantStore
}
