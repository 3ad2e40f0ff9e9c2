package handler

import (
	"context"
	"net/http"

	"steel-spark/internal/identity"
	"steel-spark/internal/middleware"
	"steel-spark/internal/model"

	"github.com/rs/zerolog"
)

// Authenticator is the subset of the identity facade the auth endpoints use.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*model.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*model.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	auth   Authenticator
	logger zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth Authenticator, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/auth/register requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to register", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to log in", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout requests.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		writeServiceError(w, err, "failed to log out", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFromContext(r.Context())
	if user == nil {
		writeServiceError(w, model.ErrUnauthenticated, "", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
