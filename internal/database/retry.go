package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/juniorxam/vacina/internal/metrics"
	"github.com/mattn/go-sqlite3"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// IsRetryable reports whether err signals transient single-writer contention.
// Only busy/locked failures qualify; everything else must surface at once.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database is busy") ||
		(strings.Contains(msg, "locked") && strings.Contains(msg, "database"))
}

// Retrier runs a unit of work, retrying busy/locked failures with
// exponential backoff: BaseBackoff * 2^attempt between attempts.
type Retrier struct {
	MaxAttempts int
	BaseBackoff time.Duration
	Sleep       SleepFunc
	logger      *slog.Logger
}

func NewRetrier(maxAttempts int, baseBackoff time.Duration, logger *slog.Logger) *Retrier {
	return &Retrier{
		MaxAttempts: maxAttempts,
		BaseBackoff: baseBackoff,
		Sleep:       sleepContext,
		logger:      logger,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or
// MaxAttempts is reached. On exhaustion the last retryable error is returned.
// No sleep happens after the final attempt.
func (r *Retrier) Do(ctx context.Context, query string, fn func() (int64, error)) (int64, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		n, err := fn()
		if err == nil {
			metrics.WriteAttemptsTotal.WithLabelValues("ok").Inc()
			return n, nil
		}

		if !IsRetryable(err) {
			metrics.WriteAttemptsTotal.WithLabelValues("failed").Inc()
			r.logger.Error("write failed",
				slog.String("query", truncateQuery(query)),
				slog.Any("error", err),
			)
			return 0, newError("execute", query, err)
		}

		lastErr = err
		if attempt == attempts-1 {
			break
		}

		metrics.WriteAttemptsTotal.WithLabelValues("retry").Inc()
		delay := r.BaseBackoff * time.Duration(1<<attempt)
		r.logger.Warn("store busy, retrying write",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", delay),
			slog.String("query", truncateQuery(query)),
		)

		sleep := r.Sleep
		if sleep == nil {
			sleep = sleepContext
		}
		if err := sleep(ctx, delay); err != nil {
			return 0, newError("execute", query, errors.Join(lastErr, err))
		}
	}

	metrics.WriteAttemptsTotal.WithLabelValues("exhausted").Inc()
	r.logger.Error("write retries exhausted",
		slog.Int("attempts", attempts),
		slog.String("query", truncateQuery(query)),
		slog.Any("error", lastErr),
	)
	return 0, newError("execute", query, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
