package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/api/shared"
	"github.com/inkpress/inkpress-api/internal/service"
	"github.com/inkpress/inkpress-api/internal/store"
)

// TenantHandler serves the admin tenant management endpoints.
type TenantHandler struct {
	logger  *slog.Logger
	tenants *service.TenantService
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(log *slog.Logger, tenants *service.TenantService) *TenantHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TenantHandler{
		logger:  log.With("component", "tenant_handler"),
		tenants: tenants,
	}
}

// CreateTenantRequest is the tenant creation payload.
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Slug string `json:"slug" validate:"required,min=1,max=100"`
}

// UpdateTenantRequest is the partial tenant update payload.
type UpdateTenantRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// BrandProfileRequest is the brand profile upsert payload.
type BrandProfileRequest struct {
	CompanyName       string          `json:"company_name" validate:"required,min=1,max=200"`
	Industry          string          `json:"industry" validate:"required,min=1,max=200"`
	BrandTone         string          `json:"brand_tone" validate:"required,min=1"`
	TargetAudience    string          `json:"target_audience" validate:"required,min=1"`
	WritingGuidelines string          `json:"writing_guidelines,omitempty"`
	DefaultAuthor     string          `json:"default_author,omitempty"`
	SEOPreferences    json.RawMessage `json:"seo_preferences,omitempty"`
	ContentRules      json.RawMessage `json:"content_rules,omitempty"`
	CustomPrompt      string          `json:"custom_prompt,omitempty"`
}

// CreateCMSConnectionRequest is the CMS connection creation payload.
type CreateCMSConnectionRequest struct {
	Provider          string `json:"provider" validate:"required"`
	AccessToken       string `json:"access_token" validate:"required"`
	ContentDatabaseID string `json:"content_database_id" validate:"required"`
	TriggerDatabaseID string `json:"trigger_database_id,omitempty"`
}

// Create handles POST /api/tenants. The response includes the API key; it
// is the only time the key is returned.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	tenant, err := h.tenants.CreateTenant(r.Context(), req.Name, req.Slug)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, tenant)
}

// Get handles GET /api/tenants/{id}. The API key is redacted.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.tenants.GetTenant(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	tenant.APIKey = ""
	shared.RespondWithJSON(w, r, http.StatusOK, tenant)
}

// Update handles PATCH /api/tenants/{id}.
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	var req UpdateTenantRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	tenant, err := h.tenants.UpdateTenant(r.Context(), id, store.TenantUpdate{
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	tenant.APIKey = ""
	shared.RespondWithJSON(w, r, http.StatusOK, tenant)
}

// UpsertBrandProfile handles PUT /api/tenants/{id}/brand-profile.
func (h *TenantHandler) UpsertBrandProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	var req BrandProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	profile, err := h.tenants.UpsertBrandProfile(r.Context(), id, store.BrandProfileParams{
		CompanyName:       req.CompanyName,
		Industry:          req.Industry,
		BrandTone:         req.BrandTone,
		TargetAudience:    req.TargetAudience,
		WritingGuidelines: req.WritingGuidelines,
		DefaultAuthor:     req.DefaultAuthor,
		SEOPreferences:    req.SEOPreferences,
		ContentRules:      req.ContentRules,
		CustomPrompt:      req.CustomPrompt,
	})
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

// CreateCMSConnection handles POST /api/tenants/{id}/cms-connections.
func (h *TenantHandler) CreateCMSConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	var req CreateCMSConnectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	conn, err := h.tenants.CreateCMSConnection(r.Context(), id,
		req.Provider, req.AccessToken, req.ContentDatabaseID, req.TriggerDatabaseID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, conn)
}

// tenantID parses the {id} route parameter, responding with 400 on garbage.
func (h *TenantHandler) tenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid tenant ID format", err)
		return uuid.Nil, false
	}
	return id, true
}
