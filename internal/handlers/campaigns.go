package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/juniorxam/vacina/internal/models"
	"github.com/juniorxam/vacina/internal/services"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// CampaignServiceInterface defines the campaign contract
type CampaignServiceInterface interface {
	Create(ctx context.Context, actor *models.Principal, in services.CreateCampaignInput, ip string) (*models.Campaign, error)
	List(ctx context.Context) ([]*models.Campaign, error)
	ListActive(ctx context.Context) ([]*models.Campaign, error)
}

// CampaignHandler handles campaign requests
type CampaignHandler struct {
	service  CampaignServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(service CampaignServiceInterface, ipConfig *pkghttp.IPConfig) *CampaignHandler {
	return &CampaignHandler{service: service, ipConfig: ipConfig}
}

// CreateCampaignRequest represents the request body for a new campaign
type CreateCampaignRequest struct {
	Name           string `json:"name" validate:"required,max=120"`
	Vaccine        string `json:"vaccine" validate:"required,max=120"`
	TargetAudience string `json:"target_audience" validate:"max=200"`
	StartsOn       string `json:"starts_on" validate:"required,datetime=2006-01-02"`
	EndsOn         string `json:"ends_on" validate:"required,datetime=2006-01-02"`
	Status         string `json:"status" validate:"omitempty,oneof=PLANNED ACTIVE FINISHED CANCELLED"`
	Description    string `json:"description" validate:"max=1000"`
}

// List handles GET /campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, campaigns)
}

// ListActive handles GET /campaigns/active
func (h *CampaignHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, campaigns)
}

// Create handles POST /campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Both dates already passed the datetime validator.
	startsOn, _ := time.Parse(time.DateOnly, req.StartsOn)
	endsOn, _ := time.Parse(time.DateOnly, req.EndsOn)

	campaign, err := h.service.Create(r.Context(), actor(r), services.CreateCampaignInput{
		Name:           req.Name,
		Vaccine:        req.Vaccine,
		TargetAudience: req.TargetAudience,
		StartsOn:       startsOn,
		EndsOn:         endsOn,
		Status:         req.Status,
		Description:    req.Description,
	}, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, campaign)
}
