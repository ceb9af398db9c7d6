package api

import (
	"errors"
	"net/http"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/api/shared"
	"github.com/inkpress/inkpress-api/internal/service"
	"github.com/inkpress/inkpress-api/internal/service/auth"
	"github.com/inkpress/inkpress-api/internal/store"
)

// MapErrorToStatusCode translates domain and store errors to HTTP status
// codes. Unknown errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTaskNotRetryable):
		return http.StatusConflict
	case errors.Is(err, agent.ErrTaskInFlight):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for the error. Internal
// details never leak; they are logged alongside the trace ID instead.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrTenantNotFound):
		return "Tenant not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, store.ErrSlugExists):
		return "A tenant with this slug already exists"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"
	case errors.Is(err, service.ErrTaskNotRetryable):
		return "Only failed tasks can be retried"
	case errors.Is(err, agent.ErrTaskInFlight):
		return "Task is already being executed"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"
	default:
		return "An unexpected error occurred"
	}
}

// RespondWithMappedError is a convenience wrapper combining the status and
// message mapping with the shared error responder.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
