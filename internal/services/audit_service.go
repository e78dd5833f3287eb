package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/models"
)

// AuditLogRepository defines the interface for audit trail storage
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListRecent(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error)
}

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditService writes the durable audit trail alongside the process log
type AuditService struct {
	repo   AuditLogRepository
	clock  clock.Clock
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, clk clock.Clock, logger *slog.Logger) *AuditService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &AuditService{repo: repo, clock: clk, logger: logger}
}

// Record appends an audit entry. Persistence failures are logged and never
// reach the caller.
func (s *AuditService) Record(ctx context.Context, login, module, action, details, ip string) {
	s.logger.InfoContext(ctx, "audit event",
		slog.String("login", login),
		slog.String("module", module),
		slog.String("action", action),
	)

	entry := &models.AuditLog{
		CreatedAt: s.clock.Now(),
		Login:     login,
		Module:    module,
		Action:    action,
		Details:   details,
		IPAddress: ip,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", action),
			slog.Any("error", err),
		)
	}
}

// RecordMetadata is Record with structured details.
func (s *AuditService) RecordMetadata(ctx context.Context, login, module, action string, metadata models.AuditMetadata, ip string) {
	s.Record(ctx, login, module, action, metadata.String(), ip)
}

// ListRecent returns the newest entries, optionally filtered.
func (s *AuditService) ListRecent(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	logs, err := s.repo.ListRecent(ctx, module, login, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
