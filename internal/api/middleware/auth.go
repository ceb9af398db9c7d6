package middleware

import (
	"net/http"
	"strings"

	"github.com/inkpress/inkpress-api/internal/api/shared"
	"github.com/inkpress/inkpress-api/internal/service/auth"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AdminAuth guards administrative routes with a JWT bearer token.
type AdminAuth struct {
	validator TokenValidator
}

// NewAdminAuth creates the admin auth middleware.
func NewAdminAuth(validator TokenValidator) *AdminAuth {
	return &AdminAuth{validator: validator}
}

// Middleware rejects requests without a valid "Authorization: Bearer" token.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing or malformed Authorization header", nil)
			return
		}

		if _, err := a.validator.ValidateToken(token); err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
