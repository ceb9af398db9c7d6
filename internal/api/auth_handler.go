package api

import (
	"log/slog"
	"net/http"

	"github.com/inkpress/inkpress-api/internal/api/shared"
	"github.com/inkpress/inkpress-api/internal/service/auth"
)

// AuthHandler serves the admin login endpoint.
type AuthHandler struct {
	logger *slog.Logger
	jwt    *auth.JWTService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(log *slog.Logger, jwt *auth.JWTService) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		logger: log.With("component", "auth_handler"),
		jwt:    jwt,
	}
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the admin password for a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Password is required", err)
		return
	}

	token, err := h.jwt.Login(req.Password)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin login succeeded")
	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{Token: token})
}
