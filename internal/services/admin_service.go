package services

import (
	"context"
	"log/slog"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

// QueryCache is the subset of the read cache exposed to administrators.
type QueryCache interface {
	Stats() database.CacheStats
	InvalidateAll() int
}

// BackupRunner lists and takes store snapshots.
type BackupRunner interface {
	List() ([]models.BackupFile, error)
	CreateNow(ctx context.Context) (*models.BackupFile, error)
}

// AdminService backs the maintenance endpoints.
type AdminService struct {
	cache   QueryCache
	backups BackupRunner
	audit   *AuditService
	logger  *slog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(cache QueryCache, backups BackupRunner, audit *AuditService, logger *slog.Logger) *AdminService {
	return &AdminService{
		cache:   cache,
		backups: backups,
		audit:   audit,
		logger:  logger,
	}
}

// CacheStats returns the read cache counters.
func (s *AdminService) CacheStats() database.CacheStats {
	return s.cache.Stats()
}

// ClearCache drops every cached read and returns how many were dropped.
func (s *AdminService) ClearCache(ctx context.Context, actor *models.Principal, ip string) (int, error) {
	if err := requireTier(actor, models.TierAdmin); err != nil {
		return 0, err
	}

	n := s.cache.InvalidateAll()
	s.logger.Info("query cache cleared", slog.String("login", actor.Login), slog.Int("entries", n))
	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleSystem, "CACHE_CLEARED",
		models.AuditMetadata{"entries": n}, ip)
	return n, nil
}

// ListBackups returns the snapshots on disk, newest first.
func (s *AdminService) ListBackups() ([]models.BackupFile, error) {
	files, err := s.backups.List()
	if err != nil {
		s.logger.Error("failed to list backups", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return files, nil
}

// CreateBackup takes a snapshot immediately.
func (s *AdminService) CreateBackup(ctx context.Context, actor *models.Principal, ip string) (*models.BackupFile, error) {
	if err := requireTier(actor, models.TierAdmin); err != nil {
		return nil, err
	}

	file, err := s.backups.CreateNow(ctx)
	if err != nil {
		s.logger.Error("manual backup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleSystem, "BACKUP_CREATED",
		models.AuditMetadata{"file": file.Name, "size": file.Size}, ip)
	return file, nil
}
