package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/juniorxam/vacina/internal/models"
	"github.com/mattn/go-sqlite3"
)

// Error wraps a failed store operation with the statement that caused it.
type Error struct {
	Op    string
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("database %s failed (%s): %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, query string, err error) *Error {
	return &Error{Op: op, Query: truncateQuery(query), Err: err}
}

// MapSQLiteError translates driver errors into the model sentinel errors.
// Errors it does not recognise are returned unchanged.
func MapSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return models.ErrConflict
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
			return models.ErrBadRequest
		}
	}

	return err
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func truncateQuery(query string) string {
	const maxLen = 50
	runes := []rune(query)
	if len(runes) <= maxLen {
		return query
	}
	return string(runes[:maxLen]) + "..."
}
