package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

// LoginAttemptRepository stores durable failed-login records. Reads bypass
// the query cache: lockout decisions must see every committed failure.
type LoginAttemptRepository struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// RecordFailure appends a failed-login record for login.
func (r *LoginAttemptRepository) RecordFailure(ctx context.Context, login, ipAddress string, at time.Time) error {
	_, err := r.db.Execute(ctx,
		"INSERT INTO login_attempts (login, ip_address, attempted_at) VALUES (?, ?, ?)",
		login, ipAddress, database.FormatTime(at),
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// ListSince returns the failures of login strictly after since, oldest first.
func (r *LoginAttemptRepository) ListSince(ctx context.Context, login string, since time.Time) ([]models.LoginAttempt, error) {
	rows, err := r.db.FetchAll(ctx, `
		SELECT id, login, ip_address, attempted_at
		FROM login_attempts
		WHERE login = ? AND attempted_at > ?
		ORDER BY attempted_at ASC, id ASC`,
		login, database.FormatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list login attempts: %w", err)
	}

	attempts := make([]models.LoginAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, models.LoginAttempt{
			ID:          row.Int64("id"),
			Login:       row.String("login"),
			IPAddress:   row.String("ip_address"),
			AttemptedAt: row.Time("attempted_at"),
		})
	}
	return attempts, nil
}

// DeleteByLogin removes every failure recorded for login.
func (r *LoginAttemptRepository) DeleteByLogin(ctx context.Context, login string) (int64, error) {
	n, err := r.db.Execute(ctx, "DELETE FROM login_attempts WHERE login = ?", login)
	if err != nil {
		return 0, fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes failures recorded before cutoff.
func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.db.Execute(ctx,
		"DELETE FROM login_attempts WHERE attempted_at < ?", database.FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login attempts: %w", err)
	}
	return n, nil
}
