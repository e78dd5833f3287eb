package background

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/config"
	"github.com/juniorxam/vacina/internal/metrics"
	"github.com/juniorxam/vacina/internal/models"
	"github.com/spf13/afero"
)

const (
	backupPrefix     = "backup_"
	backupSuffix     = ".db"
	backupTimeLayout = "20060102_150405"
)

// Snapshotter writes a consistent copy of the live store to a path.
type Snapshotter interface {
	Backup(ctx context.Context, destPath string) error
}

// BackupManager takes store snapshots on a schedule and on demand, and
// prunes snapshots older than the retention period.
type BackupManager struct {
	store  Snapshotter
	fs     afero.Fs
	cfg    config.BackupConfig
	clock  clock.Clock
	logger *slog.Logger
	stopCh chan struct{}

	mu   sync.Mutex
	last time.Time
}

// NewBackupManager creates a new backup manager
func NewBackupManager(store Snapshotter, fs afero.Fs, cfg config.BackupConfig, clk clock.Clock, logger *slog.Logger) *BackupManager {
	if clk == nil {
		clk = clock.WallClock
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	return &BackupManager{
		store:  store,
		fs:     fs,
		cfg:    cfg,
		clock:  clk,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start checks every CheckInterval whether Interval has elapsed since the
// newest snapshot and takes one if so.
func (bm *BackupManager) Start(ctx context.Context) {
	bm.runScheduled(ctx)

	for {
		select {
		case <-bm.clock.After(bm.cfg.CheckInterval):
			bm.runScheduled(ctx)
		case <-bm.stopCh:
			bm.logger.Info("backup manager stopped")
			return
		case <-ctx.Done():
			bm.logger.Info("backup manager context cancelled")
			return
		}
	}
}

// Stop signals the backup manager to stop
func (bm *BackupManager) Stop() {
	close(bm.stopCh)
}

func (bm *BackupManager) runScheduled(ctx context.Context) {
	due, err := bm.due()
	if err != nil {
		bm.logger.Error("failed to inspect backup directory", slog.Any("error", err))
		return
	}
	if !due {
		return
	}

	if _, err := bm.CreateNow(ctx); err != nil {
		return
	}
	if _, err := bm.Prune(); err != nil {
		bm.logger.Error("failed to prune backups", slog.Any("error", err))
	}
}

func (bm *BackupManager) due() (bool, error) {
	bm.mu.Lock()
	last := bm.last
	bm.mu.Unlock()

	if last.IsZero() {
		files, err := bm.List()
		if err != nil {
			return false, err
		}
		if len(files) == 0 {
			return true, nil
		}
		last = files[0].CreatedAt
	}
	return bm.clock.Now().Sub(last) >= bm.cfg.Interval, nil
}

// CreateNow writes a snapshot immediately.
func (bm *BackupManager) CreateNow(ctx context.Context) (*models.BackupFile, error) {
	if err := bm.fs.MkdirAll(bm.cfg.Dir, 0o750); err != nil {
		metrics.BackupsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := bm.clock.Now().UTC()
	name := fmt.Sprintf("%s%s_%s%s", backupPrefix, now.Format(backupTimeLayout), uuid.NewString()[:8], backupSuffix)
	path := filepath.Join(bm.cfg.Dir, name)

	if err := bm.store.Backup(ctx, path); err != nil {
		metrics.BackupsTotal.WithLabelValues("failed").Inc()
		bm.logger.Error("store backup failed", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("backup failed: %w", err)
	}

	info, err := bm.fs.Stat(path)
	if err != nil {
		metrics.BackupsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("backup written but not readable: %w", err)
	}

	bm.mu.Lock()
	bm.last = now
	bm.mu.Unlock()

	metrics.BackupsTotal.WithLabelValues("ok").Inc()
	metrics.BackupBytes.Set(float64(info.Size()))

	file := &models.BackupFile{
		Name:      name,
		Size:      info.Size(),
		SizeHuman: humanize.Bytes(uint64(info.Size())),
		CreatedAt: now,
	}
	bm.logger.Info("backup created", slog.String("name", name), slog.String("size", file.SizeHuman))
	return file, nil
}

// List returns the snapshots in the backup directory, newest first. A
// missing directory holds no snapshots.
func (bm *BackupManager) List() ([]models.BackupFile, error) {
	entries, err := afero.ReadDir(bm.fs, bm.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.BackupFile{}, nil
		}
		return nil, err
	}

	files := make([]models.BackupFile, 0, len(entries))
	for _, e := range entries {
		createdAt, ok := parseBackupName(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		files = append(files, models.BackupFile{
			Name:      e.Name(),
			Size:      e.Size(),
			SizeHuman: humanize.Bytes(uint64(e.Size())),
			CreatedAt: createdAt,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Prune deletes snapshots older than the retention period and returns how
// many were removed. The newest snapshot is always kept.
func (bm *BackupManager) Prune() (int, error) {
	if bm.cfg.Retention <= 0 {
		return 0, nil
	}

	files, err := bm.List()
	if err != nil {
		return 0, err
	}

	cutoff := bm.clock.Now().Add(-bm.cfg.Retention)
	removed := 0
	for i, f := range files {
		if i == 0 || !f.CreatedAt.Before(cutoff) {
			continue
		}
		if err := bm.fs.Remove(filepath.Join(bm.cfg.Dir, f.Name)); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		bm.logger.Info("old backups removed", slog.Int("count", removed))
	}
	return removed, nil
}

// parseBackupName extracts the creation time from backup_<stamp>_<id>.db.
func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
		return time.Time{}, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
	if len(rest) < len(backupTimeLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(backupTimeLayout, rest[:len(backupTimeLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
