package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/juniorxam/vacina/internal/models"
	"github.com/juniorxam/vacina/internal/services"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// VaccinationServiceInterface defines the dose registration contract
type VaccinationServiceInterface interface {
	ListVaccines(ctx context.Context) ([]*models.Vaccine, error)
	RegisterDose(ctx context.Context, actor *models.Principal, in services.RegisterDoseInput, ip string) (*models.Dose, error)
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Dose, error)
	DeleteDose(ctx context.Context, actor *models.Principal, id int64, reason, ip string) error
}

// DoseHandler handles vaccine catalog and dose requests
type DoseHandler struct {
	service  VaccinationServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewDoseHandler creates a new DoseHandler
func NewDoseHandler(service VaccinationServiceInterface, ipConfig *pkghttp.IPConfig) *DoseHandler {
	return &DoseHandler{service: service, ipConfig: ipConfig}
}

// RegisterDoseRequest represents the request body for one application
type RegisterDoseRequest struct {
	IDComp       string `json:"id_comp" validate:"required,max=40"`
	Vaccine      string `json:"vaccine" validate:"required,max=120"`
	Dose         string `json:"dose" validate:"max=40"`
	AppliedOn    string `json:"applied_on" validate:"omitempty,datetime=2006-01-02"`
	Lot          string `json:"lot" validate:"max=60"`
	Manufacturer string `json:"manufacturer" validate:"max=120"`
	Site         string `json:"site" validate:"max=120"`
	Route        string `json:"route" validate:"max=60"`
	CampaignID   *int64 `json:"campaign_id" validate:"omitempty,gt=0"`
}

// DeleteDoseRequest carries the mandatory reason for a deletion
type DeleteDoseRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListVaccines handles GET /vaccines
func (h *DoseHandler) ListVaccines(w http.ResponseWriter, r *http.Request) {
	vaccines, err := h.service.ListVaccines(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, vaccines)
}

// Register handles POST /doses
func (h *DoseHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterDoseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := services.RegisterDoseInput{
		IDComp:       req.IDComp,
		Vaccine:      req.Vaccine,
		Dose:         req.Dose,
		Lot:          req.Lot,
		Manufacturer: req.Manufacturer,
		Site:         req.Site,
		Route:        req.Route,
		CampaignID:   req.CampaignID,
	}
	if applied, err := parseDate(req.AppliedOn); err != nil {
		writeServiceError(w, err)
		return
	} else if applied != nil {
		in.AppliedOn = *applied
	}

	dose, err := h.service.RegisterDose(r.Context(), actor(r), in, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, dose)
}

// ListByPeriod handles GET /doses?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *DoseHandler) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil || from == nil {
		pkghttp.WriteBadRequest(w, "from and to are required dates (YYYY-MM-DD)")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil || to == nil {
		pkghttp.WriteBadRequest(w, "from and to are required dates (YYYY-MM-DD)")
		return
	}

	doses, err := h.service.ListByPeriod(r.Context(), *from, *to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, doses)
}

// Delete handles DELETE /doses/{id}
func (h *DoseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		pkghttp.WriteBadRequest(w, "invalid dose id")
		return
	}

	var req DeleteDoseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.DeleteDose(r.Context(), actor(r), id, req.Reason, pkghttp.ExtractClientIP(r, h.ipConfig)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
