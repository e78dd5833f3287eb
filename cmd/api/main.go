package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/auth"
	"github.com/juniorxam/vacina/internal/background"
	"github.com/juniorxam/vacina/internal/config"
	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/handlers"
	middlewareCustom "github.com/juniorxam/vacina/internal/middleware"
	"github.com/juniorxam/vacina/internal/repositories"
	"github.com/juniorxam/vacina/internal/routes"
	"github.com/juniorxam/vacina/internal/services"
	pkgauth "github.com/juniorxam/vacina/pkg/auth"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
	pkglogger "github.com/juniorxam/vacina/pkg/logger"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Open the store
	db, err := database.Open(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost)
	fs := afero.NewOsFs()

	// Schema, catalog seed, legacy import and first administrator
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	err = database.NewBootstrapper(db, cfg, hasher, fs, logger).Run(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to bootstrap database", slog.Any("error", err))
		os.Exit(1)
	}

	clk := clock.WallClock

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	vaccineRepo := repositories.NewVaccineRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)
	doseRepo := repositories.NewDoseRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Initialize security services
	auditLogger := pkglogger.NewAuditLogger(logger)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, clk)
	throttle := services.NewIPThrottle(cfg.Auth.IPMaxFailedAttempts, cfg.Auth.IPThrottleWindow, clk)
	lockout := services.NewLockoutService(loginAttemptRepo, services.LockoutConfig{
		MaxFailedAttempts: cfg.Auth.AccountMaxFailedAttempts,
		Window:            cfg.Auth.AccountLockoutWindow,
	}, clk, logger)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:      cfg.Auth.TimingDelayBase,
		RandomDelay:    cfg.Auth.TimingDelayRandom,
		DelayOnSuccess: cfg.Auth.TimingDelayOnSuccess,
	})

	backupManager := background.NewBackupManager(db, fs, cfg.Backup, clk, logger)
	cleanupManager := background.NewCleanupManager(lockout, throttle, logger, cfg.Auth.CleanupInterval)

	// Initialize services
	auditService := services.NewAuditService(auditRepo, clk, logger)
	authService := services.NewAuthService(accountRepo, throttle, lockout, hasher, tokenManager, auditService, auditLogger, clk, logger)
	accountService := services.NewAccountService(accountRepo, hasher, auditService, auditLogger, clk, logger)
	employeeService := services.NewEmployeeService(employeeRepo, auditService, clk, logger)
	campaignService := services.NewCampaignService(campaignRepo, auditService, clk, logger)
	vaccinationService := services.NewVaccinationService(doseRepo, vaccineRepo, employeeRepo, campaignRepo, auditService, clk, logger)
	reportService := services.NewReportService(reportRepo, clk, logger)
	adminService := services.NewAdminService(db.Cache(), backupManager, auditService, logger)

	// Initialize handlers
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, ipConfig, timingDelay),
		Accounts:  handlers.NewAccountHandler(accountService, ipConfig),
		Employees: handlers.NewEmployeeHandler(employeeService, vaccinationService, ipConfig),
		Campaigns: handlers.NewCampaignHandler(campaignService, ipConfig),
		Doses:     handlers.NewDoseHandler(vaccinationService, ipConfig),
		Reports:   handlers.NewReportHandler(reportService),
		Admin:     handlers.NewAdminHandler(adminService, auditService, ipConfig),
		Health:    db,
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.RequestLogger(logger, cfg.Server.Env))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, h, tokenManager, routes.Limits{
		Login:  middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.LoginRequestsPerMinute},
		Writes: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.WriteRequestsPerMinute},
	}, ipConfig, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		cleanupManager.Start(gctx)
		return nil
	})

	if cfg.Backup.Enabled {
		g.Go(func() error {
			backupManager.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		db.Close()
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
