package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/juniorxam/vacina/internal/auth"
	"github.com/juniorxam/vacina/internal/handlers"
	"github.com/juniorxam/vacina/internal/middleware"
	"github.com/juniorxam/vacina/internal/models"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth      *handlers.AuthHandler
	Accounts  *handlers.AccountHandler
	Employees *handlers.EmployeeHandler
	Campaigns *handlers.CampaignHandler
	Doses     *handlers.DoseHandler
	Reports   *handlers.ReportHandler
	Admin     *handlers.AdminHandler
	Health    handlers.HealthChecker
}

// Limits holds the request ceilings applied per route group
type Limits struct {
	Login  middleware.RateLimitConfig
	Writes middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	limits Limits,
	ipConfig *pkghttp.IPConfig,
	logger *slog.Logger,
) {
	// Public routes - no authentication required
	router.Get("/health", handlers.Health(h.Health))
	router.Handle("/metrics", promhttp.Handler())
	router.With(middleware.RateLimitByIP(limits.Login, ipConfig)).Post("/auth/login", h.Auth.Login)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager, logger))

		r.Post("/auth/password", h.Auth.ChangePassword)

		// Read-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTier(models.TierViewer))
			r.Get("/vaccines", h.Doses.ListVaccines)
			r.Get("/campaigns", h.Campaigns.List)
			r.Get("/campaigns/active", h.Campaigns.ListActive)
			r.Get("/employees", h.Employees.Search)
			r.Get("/employees/{id}", h.Employees.Get)
			r.Get("/employees/{id}/doses", h.Employees.History)
			r.Get("/doses", h.Doses.ListByPeriod)
			r.Get("/reports/summary", h.Reports.Summary)
			r.Get("/reports/monthly", h.Reports.Monthly)
			r.Get("/reports/by-vaccine", h.Reports.ByVaccine)
		})

		// Data entry routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTier(models.TierOperator))
			r.Use(middleware.RateLimitByLogin(limits.Writes, ipConfig))
			r.Post("/employees", h.Employees.Create)
			r.Post("/campaigns", h.Campaigns.Create)
			r.Post("/doses", h.Doses.Register)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTier(models.TierAdmin))
			r.Delete("/doses/{id}", h.Doses.Delete)
			r.Get("/accounts", h.Accounts.List)
			r.Post("/accounts", h.Accounts.Create)
			r.Put("/accounts/{login}/password", h.Accounts.ResetPassword)
			r.Put("/accounts/{login}/active", h.Accounts.SetActive)
			r.Get("/admin/audit", h.Admin.AuditLog)
			r.Get("/admin/cache", h.Admin.CacheStats)
			r.Delete("/admin/cache", h.Admin.ClearCache)
			r.Get("/admin/backups", h.Admin.ListBackups)
			r.Post("/admin/backups", h.Admin.CreateBackup)
		})
	})
}
