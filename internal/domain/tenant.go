package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Tenant and its related entities
var (
	ErrEmptyTenantID      = errors.New("tenant ID cannot be empty")
	ErrEmptyTenantName    = errors.New("tenant name cannot be empty")
	ErrEmptyTenantSlug    = errors.New("tenant slug cannot be empty")
	ErrEmptyCompanyName   = errors.New("brand profile company name cannot be empty")
	ErrEmptyAccessToken   = errors.New("CMS connection access token cannot be empty")
	ErrEmptyContentDB     = errors.New("CMS connection content database ID cannot be empty")
	ErrUnknownCMSProvider = errors.New("unknown CMS provider")
)

// CMS provider identifiers for CMSConnection.Provider.
const (
	CMSProviderNotion = "notion"
)

// Tenant is one customer of the platform. Each tenant owns at most one brand
// profile and any number of CMS connections. The API key authenticates the
// tenant's content API calls.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	APIKey    string    `json:"api_key,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// BrandProfile is nil until the tenant configures one. Content
	// generation refuses to run without it.
	BrandProfile *BrandProfile `json:"brand_profile,omitempty"`

	// CMSConnections holds the tenant's configured publishing targets.
	CMSConnections []*CMSConnection `json:"cms_connections,omitempty"`
}

// NewTenant creates an active Tenant with a fresh UUID and the given API key.
func NewTenant(name, slug, apiKey string) (*Tenant, error) {
	now := time.Now().UTC()
	tenant := &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		APIKey:    apiKey,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	return tenant, nil
}

// Validate checks if the Tenant has valid data.
func (t *Tenant) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTenantID
	}

	if t.Name == "" {
		return ErrEmptyTenantName
	}

	if t.Slug == "" {
		return ErrEmptyTenantSlug
	}

	return nil
}

// ActiveCMSConnection returns the first active CMS connection, or nil if the
// tenant has none. The pipeline publishes through at most one connection.
func (t *Tenant) ActiveCMSConnection() *CMSConnection {
	for _, conn := range t.CMSConnections {
		if conn.IsActive {
			return conn
		}
	}
	return nil
}

// BrandProfile captures the voice and editorial constraints used to steer
// generation for a tenant. SEOPreferences and ContentRules are opaque JSON
// configured by the tenant; the pipeline passes them through to prompts
// without interpreting their internal shape.
type BrandProfile struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	CompanyName       string          `json:"company_name"`
	Industry          string          `json:"industry"`
	BrandTone         string          `json:"brand_tone"`
	TargetAudience    string          `json:"target_audience"`
	WritingGuidelines string          `json:"writing_guidelines,omitempty"`
	DefaultAuthor     string          `json:"default_author,omitempty"`
	SEOPreferences    json.RawMessage `json:"seo_preferences,omitempty"`
	ContentRules      json.RawMessage `json:"content_rules,omitempty"`

	// CustomPrompt, when non-empty, replaces the default system prompt
	// wholesale; occurrences of {TOPIC} are substituted at run time.
	CustomPrompt string    `json:"custom_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks if the BrandProfile has valid data.
func (p *BrandProfile) Validate() error {
	if p.TenantID == uuid.Nil {
		return ErrEmptyTenantID
	}

	if p.CompanyName == "" {
		return ErrEmptyCompanyName
	}

	return nil
}

// ContentRuleList decodes ContentRules as a list of rule strings. Returns
// nil when the field is empty or not a JSON array; the rules are advisory
// prompt material, not something to fail generation over.
func (p *BrandProfile) ContentRuleList() []string {
	if len(p.ContentRules) == 0 {
		return nil
	}

	var rules []string
	if err := json.Unmarshal(p.ContentRules, &rules); err != nil {
		return nil
	}
	return rules
}

// CMSConnection describes one publishing target for a tenant. Config is an
// opaque provider-specific JSON blob.
type CMSConnection struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	Provider          string          `json:"provider"`
	AccessToken       string          `json:"-"`
	ContentDatabaseID string          `json:"content_database_id"`
	TriggerDatabaseID string          `json:"trigger_database_id,omitempty"`
	Config            json.RawMessage `json:"config,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewCMSConnection creates an active CMSConnection with a fresh UUID.
func NewCMSConnection(tenantID uuid.UUID, provider, accessToken, contentDatabaseID, triggerDatabaseID string) (*CMSConnection, error) {
	if provider == "" {
		provider = CMSProviderNotion
	}

	now := time.Now().UTC()
	conn := &CMSConnection{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Provider:          provider,
		AccessToken:       accessToken,
		ContentDatabaseID: contentDatabaseID,
		TriggerDatabaseID: triggerDatabaseID,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := conn.Validate(); err != nil {
		return nil, err
	}

	return conn, nil
}

// Validate checks if the CMSConnection has valid data.
func (c *CMSConnection) Validate() error {
	if c.TenantID == uuid.Nil {
		return ErrEmptyTenantID
	}

	if c.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	if c.ContentDatabaseID == "" {
		return ErrEmptyContentDB
	}

	return nil
}
