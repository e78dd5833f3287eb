package handlers

import (
	"context"
	"net/http"

	"github.com/juniorxam/vacina/internal/models"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// ReportServiceInterface defines the dashboard aggregates
type ReportServiceInterface interface {
	Summary(ctx context.Context) (*models.CoverageSummary, error)
	Monthly(ctx context.Context) ([]models.MonthlyDoses, error)
	ByVaccine(ctx context.Context) ([]models.VaccineDoses, error)
}

// ReportHandler serves coverage reports
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary handles GET /reports/summary
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, summary)
}

// Monthly handles GET /reports/monthly
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	months, err := h.service.Monthly(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, months)
}

// ByVaccine handles GET /reports/by-vaccine
func (h *ReportHandler) ByVaccine(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.ByVaccine(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, counts)
}
