package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/juniorxam/vacina/internal/models"
	"github.com/juniorxam/vacina/internal/services"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// AccountServiceInterface defines the account administration contract
type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, actor *models.Principal, in services.CreateAccountInput, ip string) (*models.Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]*models.Account, error)
	ResetPassword(ctx context.Context, actor *models.Principal, login, password, ip string) error
	SetActive(ctx context.Context, actor *models.Principal, login string, active bool, ip string) error
}

// AccountHandler handles account administration requests
type AccountHandler struct {
	service  AccountServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface, ipConfig *pkghttp.IPConfig) *AccountHandler {
	return &AccountHandler{service: service, ipConfig: ipConfig}
}

// CreateAccountRequest represents the request body for a new account
type CreateAccountRequest struct {
	Login       string `json:"login" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required"`
	Name        string `json:"name" validate:"required,max=120"`
	Tier        string `json:"tier" validate:"required,tier"`
	AllowedUnit string `json:"allowed_unit" validate:"max=80"`
}

// ResetPasswordRequest represents the request body for an administrative reset
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// SetActiveRequest represents the request body for enabling or disabling an account
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// List handles GET /accounts. ?active=true hides disabled accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, accounts)
}

// Create handles POST /accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.service.CreateAccount(r.Context(), actor(r), services.CreateAccountInput{
		Login:       req.Login,
		Password:    req.Password,
		Name:        req.Name,
		Tier:        req.Tier,
		AllowedUnit: req.AllowedUnit,
	}, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, account)
}

// ResetPassword handles PUT /accounts/{login}/password
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.service.ResetPassword(r.Context(), actor(r), chi.URLParam(r, "login"), req.Password,
		pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetActive handles PUT /accounts/{login}/active
func (h *AccountHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.service.SetActive(r.Context(), actor(r), chi.URLParam(r, "login"), *req.Active,
		pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
