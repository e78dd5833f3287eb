package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestRetrier(rec *recordingSleep) *Retrier {
	r := NewRetrier(6, 80*time.Millisecond, testLogger())
	r.Sleep = rec.sleep
	return r
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked message", errors.New("database is locked"), true},
		{"busy message", errors.New("Database Is Busy"), true},
		{"locked table", errors.New("database table is locked: items"), true},
		{"wrapped locked", fmt.Errorf("insert: %w", errors.New("database is locked")), true},
		{"sqlite busy code", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"sqlite locked code", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"constraint", errors.New("UNIQUE constraint failed: items.name"), false},
		{"syntax", errors.New(`near "SELEC": syntax error`), false},
		{"locked without database", errors.New("account locked"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRetrier_ExhaustsAfterSixAttempts(t *testing.T) {
	rec := &recordingSleep{}
	r := newTestRetrier(rec)
	locked := errors.New("database is locked")

	attempts := 0
	_, err := r.Do(context.Background(), "UPDATE accounts SET active = 0", func() (int64, error) {
		attempts++
		return 0, locked
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, locked)
	assert.Equal(t, 6, attempts)
	assert.Equal(t, []time.Duration{
		80 * time.Millisecond,
		160 * time.Millisecond,
		320 * time.Millisecond,
		640 * time.Millisecond,
		1280 * time.Millisecond,
	}, rec.delays)
}

func TestRetrier_NonRetryableAttemptsOnce(t *testing.T) {
	rec := &recordingSleep{}
	r := newTestRetrier(rec)
	constraint := errors.New("UNIQUE constraint failed: accounts.login")

	attempts := 0
	_, err := r.Do(context.Background(), "INSERT INTO accounts", func() (int64, error) {
		attempts++
		return 0, constraint
	})

	assert.ErrorIs(t, err, constraint)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, rec.delays)

	var dbErr *Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "INSERT INTO accounts", dbErr.Query)
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	rec := &recordingSleep{}
	r := newTestRetrier(rec)

	attempts := 0
	n, err := r.Do(context.Background(), "DELETE FROM login_attempts", func() (int64, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("database is busy")
		}
		return 4, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 3, attempts)
	assert.Len(t, rec.delays, 2)
}

func TestRetrier_StopsWhenContextCancelled(t *testing.T) {
	r := NewRetrier(6, time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := r.Do(ctx, "UPDATE accounts", func() (int64, error) {
		attempts++
		return 0, errors.New("database is locked")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDB_ExecuteRetriesBusyStore(t *testing.T) {
	cfg := testDatabaseConfig(t)
	cfg.BusyTimeout = 10 * time.Millisecond
	db, err := Open(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	createItems(t, db)
	ctx := context.Background()

	// A second connection holds the write lock until the first backoff.
	holder, err := db.conn.Conn(ctx)
	require.NoError(t, err)
	defer holder.Close()
	_, err = holder.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)

	var delays []time.Duration
	db.retrier.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		if len(delays) == 1 {
			_, err := holder.ExecContext(ctx, "COMMIT")
			return err
		}
		return nil
	}

	n, err := db.Execute(ctx, "INSERT INTO items (name) VALUES ('a')")

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, delays, 1)
	assert.Equal(t, int64(1), countItems(t, db))
}
