package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = "login, password_hash, name, tier, allowed_unit, active, created_at, password_changed_at"

func accountFromRow(row database.Row) *models.Account {
	return &models.Account{
		Login:             row.String("login"),
		PasswordHash:      row.String("password_hash"),
		Name:              row.String("name"),
		Tier:              models.Tier(row.String("tier")),
		AllowedUnit:       row.String("allowed_unit"),
		Active:            row.Bool("active"),
		CreatedAt:         row.Time("created_at"),
		PasswordChangedAt: row.TimePtr("password_changed_at"),
	}
}

// GetByLogin reads the account directly from the store, never the cache.
func (r *AccountRepository) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE login = ?", login)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return accountFromRow(row), nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	_, err := r.db.Execute(ctx, `
		INSERT INTO accounts (login, password_hash, name, tier, allowed_unit, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.Login, account.PasswordHash, account.Name, string(account.Tier),
		account.AllowedUnit, account.Active, database.FormatTime(account.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", database.MapSQLiteError(err))
	}
	return nil
}

// List returns accounts ordered by name through the read cache.
func (r *AccountRepository) List(ctx context.Context, activeOnly bool) ([]*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name"

	table, err := r.db.QueryTable(ctx, query, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*models.Account, 0, table.Len())
	for _, row := range table.Records() {
		accounts = append(accounts, accountFromRow(row))
	}
	return accounts, nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, login, hash string, changedAt time.Time) error {
	n, err := r.db.Execute(ctx,
		"UPDATE accounts SET password_hash = ?, password_changed_at = ? WHERE login = ?",
		hash, database.FormatTime(changedAt), login,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) SetActive(ctx context.Context, login string, active bool) error {
	n, err := r.db.Execute(ctx, "UPDATE accounts SET active = ? WHERE login = ?", active, login)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
