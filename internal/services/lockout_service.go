package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/models"
)

// LoginAttemptRepository defines the durable failed-login store
type LoginAttemptRepository interface {
	RecordFailure(ctx context.Context, login, ipAddress string, at time.Time) error
	ListSince(ctx context.Context, login string, since time.Time) ([]models.LoginAttempt, error)
	DeleteByLogin(ctx context.Context, login string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LockoutConfig holds the durable per-login lockout policy
type LockoutConfig struct {
	MaxFailedAttempts int
	Window            time.Duration
}

// LockoutService locks a login after MaxFailedAttempts failures recorded
// within the trailing Window. Unlike IPThrottle its state survives restarts.
type LockoutService struct {
	repo   LoginAttemptRepository
	config LockoutConfig
	clock  clock.Clock
	logger *slog.Logger
}

func NewLockoutService(repo LoginAttemptRepository, config LockoutConfig, clk clock.Clock, logger *slog.Logger) *LockoutService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &LockoutService{
		repo:   repo,
		config: config,
		clock:  clk,
		logger: logger,
	}
}

// Check reports whether login is locked out. MinutesLeft counts down from
// the oldest of the most recent MaxFailedAttempts failures.
func (s *LockoutService) Check(ctx context.Context, login string) (*models.LockoutStatus, error) {
	now := s.clock.Now()
	attempts, err := s.repo.ListSince(ctx, login, now.Add(-s.config.Window))
	if err != nil {
		return nil, fmt.Errorf("failed to check lockout: %w", err)
	}

	status := &models.LockoutStatus{FailedAttempts: len(attempts)}
	if len(attempts) < s.config.MaxFailedAttempts {
		return status, nil
	}

	oldest := attempts[len(attempts)-s.config.MaxFailedAttempts].AttemptedAt
	status.Locked = true
	status.MinutesLeft = max(0, int((s.config.Window - now.Sub(oldest)).Minutes()))

	s.logger.Warn("login locked out",
		slog.String("login", login),
		slog.Int("failed_attempts", status.FailedAttempts),
		slog.Int("minutes_left", status.MinutesLeft))

	return status, nil
}

// RecordFailure appends a failed attempt for login from ipAddress.
func (s *LockoutService) RecordFailure(ctx context.Context, login, ipAddress string) error {
	return s.repo.RecordFailure(ctx, login, ipAddress, s.clock.Now())
}

// Clear removes every recorded failure of login.
func (s *LockoutService) Clear(ctx context.Context, login string) error {
	if _, err := s.repo.DeleteByLogin(ctx, login); err != nil {
		return err
	}
	return nil
}

// Cleanup deletes records older than twice the window; they can no longer
// contribute to a lockout.
func (s *LockoutService) Cleanup(ctx context.Context) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, s.clock.Now().Add(-2*s.config.Window))
}
