package repositories

import (
	"context"
	"fmt"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

// AuditLogRepository handles audit trail data access
type AuditLogRepository struct {
	db *database.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends an entry and fills in its ID.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	id, err := r.db.Insert(ctx, `
		INSERT INTO audit_logs (created_at, login, module, action, details, ip_address)
		VALUES (?, ?, ?, ?, ?, ?)`,
		database.FormatTime(log.CreatedAt), log.Login, log.Module, log.Action, log.Details, log.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	log.ID = id
	return nil
}

// ListRecent returns the newest entries first, optionally narrowed to one
// module and one login.
func (r *AuditLogRepository) ListRecent(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error) {
	query := "SELECT id, created_at, login, module, action, details, ip_address FROM audit_logs WHERE 1 = 1"
	args := make([]any, 0, 3)
	if module != "" {
		query += " AND module = ?"
		args = append(args, module)
	}
	if login != "" {
		query += " AND login = ?"
		args = append(args, login)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	logs := make([]*models.AuditLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, &models.AuditLog{
			ID:        row.Int64("id"),
			CreatedAt: row.Time("created_at"),
			Login:     row.String("login"),
			Module:    row.String("module"),
			Action:    row.String("action"),
			Details:   row.String("details"),
			IPAddress: row.String("ip_address"),
		})
	}
	return logs, nil
}
