package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/juniorxam/vacina/internal/models"
	"github.com/juniorxam/vacina/internal/services"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// EmployeeServiceInterface defines the employee registry contract
type EmployeeServiceInterface interface {
	Register(ctx context.Context, actor *models.Principal, in services.RegisterEmployeeInput, ip string) (*models.Employee, error)
	Get(ctx context.Context, idComp string) (*models.Employee, error)
	Search(ctx context.Context, actor *models.Principal, term string, limit int) ([]*models.Employee, error)
}

// DoseHistoryInterface returns the doses of one employee
type DoseHistoryInterface interface {
	History(ctx context.Context, idComp string) ([]*models.Dose, error)
}

// EmployeeHandler handles employee registry requests
type EmployeeHandler struct {
	service  EmployeeServiceInterface
	history  DoseHistoryInterface
	ipConfig *pkghttp.IPConfig
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(service EmployeeServiceInterface, history DoseHistoryInterface, ipConfig *pkghttp.IPConfig) *EmployeeHandler {
	return &EmployeeHandler{service: service, history: history, ipConfig: ipConfig}
}

// RegisterEmployeeRequest represents the request body for a new employee
type RegisterEmployeeRequest struct {
	IDComp          string `json:"id_comp" validate:"max=40"`
	Registration    string `json:"registration" validate:"required_without=IDComp,max=20"`
	Bond            string `json:"bond" validate:"max=10"`
	Name            string `json:"name" validate:"required,max=150"`
	CPF             string `json:"cpf" validate:"omitempty,cpf"`
	BirthDate       string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sex             string `json:"sex" validate:"omitempty,oneof=M F"`
	JobTitle        string `json:"job_title" validate:"max=120"`
	Unit            string `json:"unit" validate:"max=80"`
	PhysicalUnit    string `json:"physical_unit" validate:"max=120"`
	Superintendence string `json:"superintendence" validate:"max=120"`
	Phone           string `json:"phone" validate:"max=30"`
	Email           string `json:"email" validate:"omitempty,email"`
	HiredAt         string `json:"hired_at" validate:"omitempty,datetime=2006-01-02"`
	BondType        string `json:"bond_type" validate:"max=40"`
}

// Search handles GET /employees?q=&limit=
func (h *EmployeeHandler) Search(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.Search(r.Context(), actor(r), strings.TrimSpace(r.URL.Query().Get("q")), queryLimit(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, employees)
}

// Get handles GET /employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	employee, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, employee)
}

// History handles GET /employees/{id}/doses
func (h *EmployeeHandler) History(w http.ResponseWriter, r *http.Request) {
	doses, err := h.history.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, doses)
}

// Create handles POST /employees
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RegisterEmployeeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	hiredAt, err := parseDate(req.HiredAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	employee, err := h.service.Register(r.Context(), actor(r), services.RegisterEmployeeInput{
		IDComp:          req.IDComp,
		Registration:    req.Registration,
		Bond:            req.Bond,
		Name:            req.Name,
		CPF:             req.CPF,
		BirthDate:       birthDate,
		Sex:             req.Sex,
		JobTitle:        req.JobTitle,
		Unit:            req.Unit,
		PhysicalUnit:    req.PhysicalUnit,
		Superintendence: req.Superintendence,
		Phone:           req.Phone,
		Email:           req.Email,
		HiredAt:         hiredAt,
		BondType:        req.BondType,
	}, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, employee)
}
