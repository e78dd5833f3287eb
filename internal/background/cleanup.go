package background

import (
	"context"
	"log/slog"
	"time"
)

// AttemptPruner removes durable failed-login records that no longer count
// toward any lockout.
type AttemptPruner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// AddressSweeper drops expired per-address throttle entries.
type AddressSweeper interface {
	Sweep() int
}

// DefaultCleanupInterval applies when no positive interval is given.
const DefaultCleanupInterval = time.Hour

// CleanupManager periodically prunes stale login attempt state
type CleanupManager struct {
	attempts  AttemptPruner
	addresses AddressSweeper
	logger    *slog.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	attempts AttemptPruner,
	addresses AddressSweeper,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupManager{
		attempts:  attempts,
		addresses: addresses,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	swept := cm.addresses.Sweep()

	rowsDeleted, err := cm.attempts.Cleanup(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to prune login attempts", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 || swept > 0 {
		cm.logger.Info("login attempt cleanup completed",
			slog.Int64("rows_deleted", rowsDeleted),
			slog.Int("addresses_swept", swept),
		)
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
