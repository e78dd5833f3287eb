package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// AdminServiceInterface defines the maintenance contract.
type AdminServiceInterface interface {
	CacheStats() database.CacheStats
	ClearCache(ctx context.Context, actor *models.Principal, ip string) (int, error)
	ListBackups() ([]models.BackupFile, error)
	CreateBackup(ctx context.Context, actor *models.Principal, ip string) (*models.BackupFile, error)
}

// AuditReader lists the durable audit trail.
type AuditReader interface {
	ListRecent(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error)
}

// AdminHandler handles maintenance HTTP requests.
type AdminHandler struct {
	service  AdminServiceInterface
	audit    AuditReader
	ipConfig *pkghttp.IPConfig
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service AdminServiceInterface, audit AuditReader, ipConfig *pkghttp.IPConfig) *AdminHandler {
	return &AdminHandler{service: service, audit: audit, ipConfig: ipConfig}
}

// CacheStats handles GET /admin/cache
func (h *AdminHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.service.CacheStats())
}

// ClearCache handles DELETE /admin/cache
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ClearCache(r.Context(), actor(r), pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// ListBackups handles GET /admin/backups
func (h *AdminHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListBackups()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, files)
}

// CreateBackup handles POST /admin/backups
func (h *AdminHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.CreateBackup(r.Context(), actor(r), pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, file)
}

// AuditLog handles GET /admin/audit
// Accepts optional ?module=, ?login= and ?limit=N.
func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := h.audit.ListRecent(r.Context(),
		strings.ToUpper(strings.TrimSpace(q.Get("module"))),
		strings.TrimSpace(q.Get("login")),
		queryLimit(r),
	)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve audit log")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, logs)
}
