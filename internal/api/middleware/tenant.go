package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/inkpress/inkpress-api/internal/api/shared"
	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/store"
)

// TenantKeyHeader carries the tenant API key on content routes.
const TenantKeyHeader = "X-Tenant-Key"

// TenantAuth resolves the X-Tenant-Key header to an active tenant and
// stores it in the request context.
type TenantAuth struct {
	tenants store.TenantStore
}

// NewTenantAuth creates the tenant auth middleware.
func NewTenantAuth(tenants store.TenantStore) *TenantAuth {
	return &TenantAuth{tenants: tenants}
}

// Middleware rejects requests without a valid API key for an active tenant.
// Unknown and deactivated keys are indistinguishable to the caller.
func (a *TenantAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(TenantKeyHeader)
		if apiKey == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing X-Tenant-Key header", nil)
			return
		}

		tenant, err := a.tenants.GetTenantByAPIKey(r.Context(), apiKey)
		if err != nil {
			if errors.Is(err, store.ErrTenantNotFound) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid API key", nil)
				return
			}
			shared.RespondWithError(w, r, http.StatusInternalServerError, "An unexpected error occurred", err)
			return
		}

		if !tenant.IsActive {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid API key", nil)
			return
		}

		ctx := context.WithValue(r.Context(), shared.TenantContextKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the tenant placed in the context by the
// middleware.
func TenantFromContext(ctx context.Context) (*domain.Tenant, bool) {
	tenant, ok := ctx.Value(shared.TenantContextKey).(*domain.Tenant)
	return tenant, ok
}
