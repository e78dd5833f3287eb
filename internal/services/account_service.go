package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/models"
	pkgauth "github.com/juniorxam/vacina/pkg/auth"
	pkglogger "github.com/juniorxam/vacina/pkg/logger"
)

// CreateAccountInput carries the fields of a new account
type CreateAccountInput struct {
	Login       string
	Password    string
	Name        string
	Tier        string
	AllowedUnit string
}

// AccountService handles account administration
type AccountService struct {
	repo        AccountRepository
	hasher      PasswordHasher
	audit       *AuditService
	auditLogger *pkglogger.AuditLogger
	clock       clock.Clock
	logger      *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo AccountRepository, hasher PasswordHasher, audit *AuditService, auditLogger *pkglogger.AuditLogger, clk clock.Clock, logger *slog.Logger) *AccountService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &AccountService{
		repo:        repo,
		hasher:      hasher,
		audit:       audit,
		auditLogger: auditLogger,
		clock:       clk,
		logger:      logger,
	}
}

func requireTier(actor *models.Principal, required models.Tier) error {
	if actor == nil || !models.AuthorizeAtLeast(actor.Tier, required) {
		return models.ErrForbidden
	}
	return nil
}

// CreateAccount creates a new account on behalf of an administrator
func (s *AccountService) CreateAccount(ctx context.Context, actor *models.Principal, in CreateAccountInput, ip string) (*models.Account, error) {
	if err := requireTier(actor, models.TierAdmin); err != nil {
		return nil, err
	}

	login := strings.TrimSpace(in.Login)
	name := strings.ToUpper(strings.TrimSpace(in.Name))
	if login == "" || name == "" {
		return nil, fmt.Errorf("%w: login and name are required", models.ErrBadRequest)
	}

	tier, err := models.ParseTier(in.Tier)
	if err != nil {
		return nil, err
	}
	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	unit := strings.TrimSpace(in.AllowedUnit)
	if unit == "" {
		unit = models.AllUnits
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account := &models.Account{
		Login:        login,
		PasswordHash: hash,
		Name:         name,
		Tier:         tier,
		AllowedUnit:  unit,
		Active:       true,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.String("login", login), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("account created", slog.String("login", login), slog.String("tier", string(tier)))
	s.auditLogger.LogAccountAction("account_created", login, actor.Login, map[string]string{"tier": string(tier)})
	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleAccounts, "ACCOUNT_CREATED",
		models.AuditMetadata{"login": login, "tier": tier}, ip)

	return account, nil
}

// ListAccounts returns accounts ordered by name
func (s *AccountService) ListAccounts(ctx context.Context, activeOnly bool) ([]*models.Account, error) {
	accounts, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return accounts, nil
}

// ResetPassword sets a new password for login on behalf of an administrator
func (s *AccountService) ResetPassword(ctx context.Context, actor *models.Principal, login, password, ip string) error {
	if err := requireTier(actor, models.TierAdmin); err != nil {
		return err
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, login, hash, s.clock.Now()); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to reset password", slog.String("login", login), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(login, actor.Login, ip, true)
	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleAccounts, "PASSWORD_RESET",
		models.AuditMetadata{"login": login}, ip)
	return nil
}

// SetActive enables or disables an account. Administrators cannot disable
// themselves.
func (s *AccountService) SetActive(ctx context.Context, actor *models.Principal, login string, active bool, ip string) error {
	if err := requireTier(actor, models.TierAdmin); err != nil {
		return err
	}
	if !active && actor.Login == login {
		return fmt.Errorf("%w: cannot disable your own account", models.ErrBadRequest)
	}

	if err := s.repo.SetActive(ctx, login, active); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to update account status", slog.String("login", login), slog.Any("error", err))
		return models.ErrInternalServer
	}

	action := "ACCOUNT_DISABLED"
	if active {
		action = "ACCOUNT_ENABLED"
	}
	s.auditLogger.LogAccountAction(strings.ToLower(action), login, actor.Login, nil)
	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleAccounts, action,
		models.AuditMetadata{"login": login}, ip)
	return nil
}
