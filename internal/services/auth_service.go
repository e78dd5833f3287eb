package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/auth"
	"github.com/juniorxam/vacina/internal/metrics"
	"github.com/juniorxam/vacina/internal/models"
	pkgauth "github.com/juniorxam/vacina/pkg/auth"
	pkglogger "github.com/juniorxam/vacina/pkg/logger"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	GetByLogin(ctx context.Context, login string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	List(ctx context.Context, activeOnly bool) ([]*models.Account, error)
	UpdatePassword(ctx context.Context, login, hash string, changedAt time.Time) error
	SetActive(ctx context.Context, login string, active bool) error
}

// PasswordHasher hashes and verifies account secrets
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	Verify(hash, password string) (ok bool, needsRehash bool)
}

// AuthService handles authentication business logic
type AuthService struct {
	accounts    AccountRepository
	throttle    *IPThrottle
	lockout     *LockoutService
	hasher      PasswordHasher
	tm          *auth.TokenManager
	audit       *AuditService
	auditLogger *pkglogger.AuditLogger
	clock       clock.Clock
	logger      *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	accounts AccountRepository,
	throttle *IPThrottle,
	lockout *LockoutService,
	hasher PasswordHasher,
	tm *auth.TokenManager,
	audit *AuditService,
	auditLogger *pkglogger.AuditLogger,
	clk clock.Clock,
	logger *slog.Logger,
) *AuthService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &AuthService{
		accounts:    accounts,
		throttle:    throttle,
		lockout:     lockout,
		hasher:      hasher,
		tm:          tm,
		audit:       audit,
		auditLogger: auditLogger,
		clock:       clk,
		logger:      logger,
	}
}

// LoginResponse represents the response from a successful login
type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Principal   *models.Principal `json:"user"`
}

// Authenticate checks login and secret arriving from ip. Throttled
// addresses, locked logins, unknown or inactive accounts and wrong secrets
// all yield models.ErrUnauthorized; any other error is a store failure.
func (s *AuthService) Authenticate(ctx context.Context, login, secret, ip string) (*models.Principal, error) {
	login = strings.TrimSpace(login)

	if !s.throttle.Allow(ip) {
		metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_failed", Login: login, IPAddress: ip, FailureReason: "address_throttled",
		})
		return nil, models.ErrUnauthorized
	}

	status, err := s.lockout.Check(ctx, login)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if status.Locked {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_failed", Login: login, IPAddress: ip, FailureReason: "account_locked",
			Metadata: map[string]string{"minutes_left": fmt.Sprint(status.MinutesLeft)},
		})
		return nil, models.ErrUnauthorized
	}

	account, err := s.matchAccount(ctx, login, secret)
	if err != nil {
		if !errors.Is(err, models.ErrUnauthorized) {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		s.registerFailure(ctx, login, ip)
		return nil, models.ErrUnauthorized
	}

	s.throttle.Reset(ip)
	if err := s.lockout.Clear(ctx, login); err != nil {
		s.logger.Error("failed to clear login attempts", slog.String("login", login), slog.Any("error", err))
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success", Login: login, IPAddress: ip, Success: true,
	})

	return &models.Principal{
		Login:       account.Login,
		Name:        account.Name,
		Tier:        account.Tier,
		AllowedUnit: account.AllowedUnit,
	}, nil
}

// matchAccount returns the active account whose secret matches, upgrading
// outdated hashes on the way.
func (s *AuthService) matchAccount(ctx context.Context, login, secret string) (*models.Account, error) {
	if login == "" || secret == "" {
		return nil, models.ErrUnauthorized
	}

	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	ok, needsRehash := s.hasher.Verify(account.PasswordHash, secret)
	if !ok || !account.Active {
		return nil, models.ErrUnauthorized
	}

	if needsRehash {
		s.upgradeHash(ctx, account.Login, secret)
	}
	return account, nil
}

func (s *AuthService) upgradeHash(ctx context.Context, login, secret string) {
	hash, err := s.hasher.HashPassword(secret)
	if err != nil {
		s.logger.Error("failed to rehash password", slog.String("login", login), slog.Any("error", err))
		return
	}
	if err := s.accounts.UpdatePassword(ctx, login, hash, s.clock.Now()); err != nil {
		s.logger.Error("failed to store upgraded hash", slog.String("login", login), slog.Any("error", err))
		return
	}
	s.logger.Info("password hash upgraded", slog.String("login", login))
}

func (s *AuthService) registerFailure(ctx context.Context, login, ip string) {
	s.throttle.RegisterFailure(ip)
	if err := s.lockout.RecordFailure(ctx, login, ip); err != nil {
		s.logger.Error("failed to record login failure", slog.String("login", login), slog.Any("error", err))
	}

	metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_failed", Login: login, IPAddress: ip, FailureReason: "invalid_credentials",
	})
}

// Login authenticates and issues an access token
func (s *AuthService) Login(ctx context.Context, login, secret, ip string) (*LoginResponse, error) {
	principal, err := s.Authenticate(ctx, login, secret, ip)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			return nil, err
		}
		s.logger.Error("authentication failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, expiresAt, err := s.tm.GenerateAccessToken(principal)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("login", principal.Login), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Record(ctx, principal.Login, models.AuditModuleAuth, "LOGIN", "", ip)

	return &LoginResponse{AccessToken: token, ExpiresAt: expiresAt, Principal: principal}, nil
}

// ChangePassword replaces the caller's own password after verifying the
// current one.
func (s *AuthService) ChangePassword(ctx context.Context, login, current, next, ip string) error {
	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to load account", slog.String("login", login), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if ok, _ := s.hasher.Verify(account.PasswordHash, current); !ok {
		s.auditLogger.LogPasswordChange(login, login, ip, false)
		return models.ErrUnauthorized
	}
	if current == next {
		return models.ErrSamePassword
	}
	if err := pkgauth.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.HashPassword(next)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if err := s.accounts.UpdatePassword(ctx, login, hash, s.clock.Now()); err != nil {
		s.logger.Error("failed to update password", slog.String("login", login), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(login, login, ip, true)
	s.audit.Record(ctx, login, models.AuditModuleAuth, "PASSWORD_CHANGED", "", ip)
	return nil
}
