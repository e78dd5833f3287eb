package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/juniorxam/vacina/internal/auth"
	"github.com/juniorxam/vacina/internal/services"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, login, secret, ip string) (*services.LoginResponse, error)
	ChangePassword(ctx context.Context, login, current, next, ip string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
	timing   *auth.TimingDelay
}

// NewAuthHandler creates a new AuthHandler. timing may be nil.
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, timing *auth.TimingDelay) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
		timing:   timing,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// Login handles POST /auth/login. Every rejection, whatever its cause,
// gets the same 401 body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	resp, err := h.service.Login(r.Context(), strings.TrimSpace(req.Login), req.Password, ipAddress)

	if h.timing != nil {
		h.timing.WaitFrom(start, err == nil)
	}

	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ChangePassword handles POST /auth/password for the calling account
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	if err := h.service.ChangePassword(r.Context(), claims.Login, req.CurrentPassword, req.NewPassword, ipAddress); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
