package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/platform/logger"
	"github.com/inkpress/inkpress-api/internal/store"
)

// TenantStore implements store.TenantStore using PostgreSQL.
type TenantStore struct {
	db store.DBTX
}

// NewTenantStore creates a TenantStore over the given connection or
// transaction.
func NewTenantStore(db store.DBTX) *TenantStore {
	return &TenantStore{db: db}
}

// WithTx returns a TenantStore bound to the given transaction.
func (s *TenantStore) WithTx(tx *sql.Tx) store.TenantStore {
	return NewTenantStore(tx)
}

// CreateTenant persists a new tenant.
func (s *TenantStore) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	log := logger.FromContext(ctx)

	if err := tenant.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tenants (id, name, slug, api_key, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Slug,
		tenant.APIKey,
		tenant.IsActive,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: slug %q", store.ErrSlugExists, tenant.Slug)
		}
		log.Error("failed to create tenant", "tenant_id", tenant.ID, "error", err)
		return MapError(fmt.Errorf("failed to create tenant: %w", err))
	}

	return nil
}

// GetTenant retrieves a tenant by ID with brand profile and CMS connections
// attached.
func (s *TenantStore) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return s.getTenantBy(ctx, "id = $1", id)
}

// GetTenantBySlug retrieves a tenant by its unique slug.
func (s *TenantStore) GetTenantBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return s.getTenantBy(ctx, "slug = $1", slug)
}

// GetTenantByAPIKey retrieves a tenant by its API key.
func (s *TenantStore) GetTenantByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error) {
	return s.getTenantBy(ctx, "api_key = $1", apiKey)
}

func (s *TenantStore) getTenantBy(ctx context.Context, where string, arg any) (*domain.Tenant, error) {
	query := `
		SELECT id, name, slug, api_key, is_active, created_at, updated_at
		FROM tenants
		WHERE ` + where

	var tenant domain.Tenant
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.APIKey,
		&tenant.IsActive,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTenantNotFound
		}
		return nil, MapError(fmt.Errorf("failed to get tenant: %w", err))
	}

	if err := s.attachRelations(ctx, &tenant); err != nil {
		return nil, err
	}

	return &tenant, nil
}

// ListActiveTenants returns all active tenants with their relations.
func (s *TenantStore) ListActiveTenants(ctx context.Context) ([]*domain.Tenant, error) {
	query := `
		SELECT id, name, slug, api_key, is_active, created_at, updated_at
		FROM tenants
		WHERE is_active = TRUE
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to list active tenants: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var tenants []*domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Slug,
			&tenant.APIKey,
			&tenant.IsActive,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, MapError(fmt.Errorf("failed to scan tenant row: %w", err))
		}
		tenants = append(tenants, &tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating tenant rows: %w", err))
	}

	for _, tenant := range tenants {
		if err := s.attachRelations(ctx, tenant); err != nil {
			return nil, err
		}
	}

	return tenants, nil
}

// UpdateTenant applies the given partial update.
func (s *TenantStore) UpdateTenant(ctx context.Context, id uuid.UUID, update store.TenantUpdate) error {
	set := "updated_at = $1"
	args := []any{time.Now().UTC()}

	if update.Name != nil {
		args = append(args, *update.Name)
		set += fmt.Sprintf(", name = $%d", len(args))
	}
	if update.IsActive != nil {
		args = append(args, *update.IsActive)
		set += fmt.Sprintf(", is_active = $%d", len(args))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tenants SET %s WHERE id = $%d", set, len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(fmt.Errorf("failed to update tenant: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTenantNotFound
	}

	return nil
}

// UpsertBrandProfile creates or replaces the tenant's brand profile.
func (s *TenantStore) UpsertBrandProfile(ctx context.Context, tenantID uuid.UUID, params store.BrandProfileParams) (*domain.BrandProfile, error) {
	log := logger.FromContext(ctx)

	profile := &domain.BrandProfile{
		ID:                uuid.New(),
		TenantID:          tenantID,
		CompanyName:       params.CompanyName,
		Industry:          params.Industry,
		BrandTone:         params.BrandTone,
		TargetAudience:    params.TargetAudience,
		WritingGuidelines: params.WritingGuidelines,
		DefaultAuthor:     params.DefaultAuthor,
		SEOPreferences:    params.SEOPreferences,
		ContentRules:      params.ContentRules,
		CustomPrompt:      params.CustomPrompt,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO brand_profiles (id, tenant_id, company_name, industry, brand_tone,
			target_audience, writing_guidelines, default_author, seo_preferences,
			content_rules, custom_prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tenant_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			industry = EXCLUDED.industry,
			brand_tone = EXCLUDED.brand_tone,
			target_audience = EXCLUDED.target_audience,
			writing_guidelines = EXCLUDED.writing_guidelines,
			default_author = EXCLUDED.default_author,
			seo_preferences = EXCLUDED.seo_preferences,
			content_rules = EXCLUDED.content_rules,
			custom_prompt = EXCLUDED.custom_prompt,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		profile.ID,
		profile.TenantID,
		profile.CompanyName,
		profile.Industry,
		profile.BrandTone,
		profile.TargetAudience,
		profile.WritingGuidelines,
		profile.DefaultAuthor,
		nullableJSON(profile.SEOPreferences),
		nullableJSON(profile.ContentRules),
		profile.CustomPrompt,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		log.Error("failed to upsert brand profile", "tenant_id", tenantID, "error", err)
		return nil, MapError(fmt.Errorf("failed to upsert brand profile: %w", err))
	}

	return profile, nil
}

// CreateCMSConnection persists a new CMS connection for the tenant.
func (s *TenantStore) CreateCMSConnection(ctx context.Context, conn *domain.CMSConnection) error {
	log := logger.FromContext(ctx)

	if err := conn.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO cms_connections (id, tenant_id, provider, access_token,
			content_database_id, trigger_database_id, config, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(ctx, query,
		conn.ID,
		conn.TenantID,
		conn.Provider,
		conn.AccessToken,
		conn.ContentDatabaseID,
		conn.TriggerDatabaseID,
		nullableJSON(conn.Config),
		conn.IsActive,
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create CMS connection", "tenant_id", conn.TenantID, "error", err)
		return MapError(fmt.Errorf("failed to create CMS connection: %w", err))
	}

	return nil
}

// attachRelations loads the tenant's brand profile and CMS connections.
func (s *TenantStore) attachRelations(ctx context.Context, tenant *domain.Tenant) error {
	profile, err := s.getBrandProfile(ctx, tenant.ID)
	if err != nil {
		return err
	}
	tenant.BrandProfile = profile

	connections, err := s.getCMSConnections(ctx, tenant.ID)
	if err != nil {
		return err
	}
	tenant.CMSConnections = connections

	return nil
}

func (s *TenantStore) getBrandProfile(ctx context.Context, tenantID uuid.UUID) (*domain.BrandProfile, error) {
	query := `
		SELECT id, tenant_id, company_name, industry, brand_tone, target_audience,
			writing_guidelines, default_author, seo_preferences, content_rules,
			custom_prompt, created_at, updated_at
		FROM brand_profiles
		WHERE tenant_id = $1
	`

	var profile domain.BrandProfile
	var seoPrefs, contentRules []byte
	err := s.db.QueryRowContext(ctx, query, tenantID).Scan(
		&profile.ID,
		&profile.TenantID,
		&profile.CompanyName,
		&profile.Industry,
		&profile.BrandTone,
		&profile.TargetAudience,
		&profile.WritingGuidelines,
		&profile.DefaultAuthor,
		&seoPrefs,
		&contentRules,
		&profile.CustomPrompt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, MapError(fmt.Errorf("failed to get brand profile: %w", err))
	}

	profile.SEOPreferences = seoPrefs
	profile.ContentRules = contentRules
	return &profile, nil
}

func (s *TenantStore) getCMSConnections(ctx context.Context, tenantID uuid.UUID) ([]*domain.CMSConnection, error) {
	query := `
		SELECT id, tenant_id, provider, access_token, content_database_id,
			trigger_database_id, config, is_active, created_at, updated_at
		FROM cms_connections
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to list CMS connections: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var connections []*domain.CMSConnection
	for rows.Next() {
		var conn domain.CMSConnection
		var config []byte
		if err := rows.Scan(
			&conn.ID,
			&conn.TenantID,
			&conn.Provider,
			&conn.AccessToken,
			&conn.ContentDatabaseID,
			&conn.TriggerDatabaseID,
			&config,
			&conn.IsActive,
			&conn.CreatedAt,
			&conn.UpdatedAt,
		); err != nil {
			return nil, MapError(fmt.Errorf("failed to scan CMS connection row: %w", err))
		}
		conn.Config = config
		connections = append(connections, &conn)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating CMS connection rows: %w", err))
	}

	return connections, nil
}

// nullableJSON stores empty JSON fields as NULL instead of the empty
// string, which JSONB columns reject.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
