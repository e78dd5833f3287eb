package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juniorxam/vacina/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePruner struct {
	calls atomic.Int32
	err   error
}

func (p *fakePruner) Cleanup(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

type fakeSweeper struct{ calls atomic.Int32 }

func (s *fakeSweeper) Sweep() int {
	s.calls.Add(1)
	return 1
}

func TestCleanupManager_RunsImmediatelyAndStops(t *testing.T) {
	pruner, sweeper := &fakePruner{}, &fakeSweeper{}
	cm := NewCleanupManager(pruner, sweeper, testLogger(), time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	cm.Stop()
	<-done

	assert.Equal(t, int32(1), pruner.calls.Load())
}

func TestCleanupManager_NonPositiveIntervalFallsBack(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		cm := NewCleanupManager(&fakePruner{}, &fakeSweeper{}, testLogger(), interval)
		assert.Equal(t, DefaultCleanupInterval, cm.interval)
	}
}

func TestCleanupManager_PrunerErrorIsLogged(t *testing.T) {
	pruner, sweeper := &fakePruner{err: errors.New("database is locked")}, &fakeSweeper{}
	cm := NewCleanupManager(pruner, sweeper, testLogger(), time.Hour)

	cm.runCleanup(context.Background())

	assert.Equal(t, int32(1), pruner.calls.Load())
	assert.Equal(t, int32(1), sweeper.calls.Load())
}

// fakeStore writes a small file in place of a real snapshot.
type fakeStore struct {
	mu    sync.Mutex
	fs    afero.Fs
	paths []string
	err   error
}

func (s *fakeStore) Backup(ctx context.Context, destPath string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.paths = append(s.paths, destPath)
	s.mu.Unlock()
	return afero.WriteFile(s.fs, destPath, make([]byte, 2048), 0o640)
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func newTestBackupManager(t *testing.T) (*BackupManager, *fakeStore, *testclock.Clock) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store := &fakeStore{fs: fs}
	clk := testclock.NewClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	cfg := config.BackupConfig{
		Dir:           "backups",
		Interval:      24 * time.Hour,
		CheckInterval: time.Minute,
		Retention:     48 * time.Hour,
	}
	return NewBackupManager(store, fs, cfg, clk, testLogger()), store, clk
}

func TestBackupManager_CreateNowAndList(t *testing.T) {
	bm, store, _ := newTestBackupManager(t)

	file, err := bm.CreateNow(context.Background())
	require.NoError(t, err)

	require.Len(t, store.paths, 1)
	assert.Equal(t, filepath.Join("backups", file.Name), store.paths[0])
	assert.Regexp(t, `^backup_20240601_080000_[0-9a-f]{8}\.db$`, file.Name)
	assert.Equal(t, int64(2048), file.Size)
	assert.Equal(t, "2.0 kB", file.SizeHuman)

	files, err := bm.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, file.Name, files[0].Name)
	assert.Equal(t, file.CreatedAt, files[0].CreatedAt)
}

func TestBackupManager_ListIgnoresForeignFilesAndMissingDir(t *testing.T) {
	bm, _, _ := newTestBackupManager(t)

	files, err := bm.List()
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, afero.WriteFile(bm.fs, "backups/notes.txt", []byte("x"), 0o640))
	require.NoError(t, afero.WriteFile(bm.fs, "backups/backup_garbage.db", []byte("x"), 0o640))

	files, err = bm.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestBackupManager_FailedSnapshot(t *testing.T) {
	bm, store, _ := newTestBackupManager(t)
	store.err = errors.New("disk I/O error")

	_, err := bm.CreateNow(context.Background())

	assert.Error(t, err)
	files, _ := bm.List()
	assert.Empty(t, files)
}

func TestBackupManager_ScheduleHonorsInterval(t *testing.T) {
	bm, store, clk := newTestBackupManager(t)
	ctx := context.Background()

	bm.runScheduled(ctx)
	assert.Len(t, store.paths, 1)

	clk.Advance(23 * time.Hour)
	bm.runScheduled(ctx)
	assert.Len(t, store.paths, 1)

	clk.Advance(time.Hour)
	bm.runScheduled(ctx)
	assert.Len(t, store.paths, 2)
}

func TestBackupManager_StartWakesOnInjectedClock(t *testing.T) {
	bm, store, clk := newTestBackupManager(t)

	done := make(chan struct{})
	go func() {
		bm.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 10*time.Millisecond)

	// Each wake-up checks the schedule; a day later a new snapshot is due.
	require.NoError(t, clk.WaitAdvance(time.Minute, time.Second, 1))
	require.NoError(t, clk.WaitAdvance(24*time.Hour, time.Second, 1))
	require.Eventually(t, func() bool { return store.count() == 2 }, time.Second, 10*time.Millisecond)

	bm.Stop()
	<-done
}

func TestBackupManager_NonPositiveCheckIntervalFallsBack(t *testing.T) {
	bm := NewBackupManager(&fakeStore{fs: afero.NewMemMapFs()}, afero.NewMemMapFs(),
		config.BackupConfig{Dir: "backups", Interval: time.Hour}, nil, testLogger())

	assert.Equal(t, time.Minute, bm.cfg.CheckInterval)
}

func TestBackupManager_ScheduleResumesFromNewestFile(t *testing.T) {
	bm, store, _ := newTestBackupManager(t)
	require.NoError(t, afero.WriteFile(bm.fs, "backups/backup_20240601_020000_abcd1234.db", []byte("x"), 0o640))

	bm.runScheduled(context.Background())

	assert.Empty(t, store.paths)
}

func TestBackupManager_PruneKeepsNewest(t *testing.T) {
	bm, _, _ := newTestBackupManager(t)
	for _, name := range []string{
		"backup_20240520_080000_aaaaaaaa.db",
		"backup_20240525_080000_bbbbbbbb.db",
		"backup_20240531_080000_cccccccc.db",
	} {
		require.NoError(t, afero.WriteFile(bm.fs, filepath.Join("backups", name), []byte("x"), 0o640))
	}

	removed, err := bm.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	files, err := bm.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "backup_20240531_080000_cccccccc.db", files[0].Name)

	// An expired lone snapshot is still the newest one.
	bm.clock.(*testclock.Clock).Advance(30 * 24 * time.Hour)
	removed, err = bm.Prune()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
