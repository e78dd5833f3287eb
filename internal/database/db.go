package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/config"
	"github.com/juniorxam/vacina/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

const slowQueryThreshold = time.Second

// DB is the data-access object for the embedded store. Every statement runs
// inside WithConn; no caller holds a connection across operations.
type DB struct {
	conn     *sql.DB
	path     string
	mmapSize int64
	cacheTTL time.Duration
	retrier  *Retrier
	cache    *QueryCache
	clock    clock.Clock
	logger   *slog.Logger
}

type Option func(*DB)

// WithClock replaces the wall clock used by the read cache.
func WithClock(clk clock.Clock) Option {
	return func(db *DB) {
		db.clock = clk
	}
}

// WithSleep replaces the backoff sleep used between write retries.
func WithSleep(fn SleepFunc) Option {
	return func(db *DB) {
		db.retrier.Sleep = fn
	}
}

func Open(cfg *config.DatabaseConfig, logger *slog.Logger, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	ttl := cfg.QueryCacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	db := &DB{
		conn:     conn,
		path:     cfg.Path,
		mmapSize: cfg.MmapSize,
		cacheTTL: ttl,
		retrier:  NewRetrier(cfg.MaxWriteAttempts, cfg.BaseBackoff, logger),
		clock:    clock.WallClock,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(db)
	}
	db.cache = NewQueryCache(db.clock, logger)

	logger.Info("database opened",
		slog.String("path", cfg.Path),
		slog.Int("max_write_attempts", cfg.MaxWriteAttempts),
		slog.Duration("cache_ttl", ttl),
	)

	return db, nil
}

func (db *DB) Close() error {
	db.logger.Info("closing database")
	return db.conn.Close()
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) Cache() *QueryCache {
	return db.cache
}

func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// WithConn acquires a dedicated connection, applies the per-scope pragmas,
// and runs fn in a transaction. The transaction commits when fn returns nil
// and rolls back when it returns an error or panics. The connection is
// released on every path.
func (db *DB) WithConn(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if _, err := conn.ExecContext(ctx, "PRAGMA temp_store=MEMORY"); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA mmap_size=%d", db.mmapSize)); err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Execute runs one mutating statement with write retries and returns the
// number of affected rows.
func (db *DB) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	return db.write(ctx, stmt, func(ctx context.Context, tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
}

// Insert runs one INSERT with write retries and returns the new row id.
func (db *DB) Insert(ctx context.Context, stmt string, args ...any) (int64, error) {
	return db.write(ctx, stmt, func(ctx context.Context, tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	})
}

// ExecuteBatch runs stmt once per argument set inside a single transaction
// and returns the summed affected rows. An empty batch returns 0 without
// touching the store.
func (db *DB) ExecuteBatch(ctx context.Context, stmt string, argSets [][]any) (int64, error) {
	if len(argSets) == 0 {
		return 0, nil
	}

	return db.write(ctx, stmt, func(ctx context.Context, tx *sql.Tx) (int64, error) {
		prepared, err := tx.PrepareContext(ctx, stmt)
		if err != nil {
			return 0, err
		}
		defer prepared.Close()

		var total int64
		for _, args := range argSets {
			res, err := prepared.ExecContext(ctx, args...)
			if err != nil {
				return 0, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	})
}

// Tx runs fn as one retried write unit. Cache entries for every table in
// tables are purged around the write.
func (db *DB) Tx(ctx context.Context, tables []string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	for _, t := range tables {
		db.cache.InvalidateTable(t)
	}
	_, err := db.retrier.Do(ctx, "transaction", func() (int64, error) {
		return 0, db.WithConn(ctx, fn)
	})
	if err != nil {
		return err
	}
	for _, t := range tables {
		db.cache.InvalidateTable(t)
	}
	return nil
}

func (db *DB) write(ctx context.Context, stmt string, fn func(ctx context.Context, tx *sql.Tx) (int64, error)) (int64, error) {
	db.cache.InvalidateForStatement(stmt)

	n, err := db.retrier.Do(ctx, stmt, func() (int64, error) {
		var result int64
		err := db.WithConn(ctx, func(ctx context.Context, tx *sql.Tx) error {
			var err error
			result, err = fn(ctx, tx)
			return err
		})
		return result, err
	})
	if err != nil {
		return 0, err
	}

	db.cache.InvalidateForStatement(stmt)
	return n, nil
}

// FetchOne returns the first row of query, or models.ErrNotFound.
func (db *DB) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := db.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.ErrNotFound
	}
	return rows[0], nil
}

// FetchAll returns every row of query in result order. Uncached.
func (db *DB) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	table, err := db.read(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return table.Records(), nil
}

// QueryTable returns the result of query, served from the read cache when
// an identical query with identical parameters was read less than ttl ago.
// A non-positive ttl selects the configured default. The returned table is
// always a private copy.
func (db *DB) QueryTable(ctx context.Context, query string, ttl time.Duration, args ...any) (*Table, error) {
	if ttl <= 0 {
		ttl = db.cacheTTL
	}

	key := cacheKey(query, args)
	if table, ok := db.cache.get(key, ttl); ok {
		db.logger.Debug("cache hit", slog.String("query", truncateQuery(query)))
		return table, nil
	}
	db.logger.Debug("cache miss", slog.String("query", truncateQuery(query)))

	gen := db.cache.generation()
	table, err := db.read(ctx, query, args)
	if err != nil {
		return nil, err
	}

	db.cache.putIfCurrent(key, table, ttl, gen)
	return table.Clone(), nil
}

func (db *DB) read(ctx context.Context, query string, args []any) (*Table, error) {
	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed > slowQueryThreshold {
			db.logger.Warn("slow query",
				slog.Duration("elapsed", elapsed),
				slog.String("query", truncateQuery(query)),
			)
		}
	}()

	var table *Table
	err := db.WithConn(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		table, err = scanTable(rows)
		return err
	})
	if err != nil {
		return nil, newError("query", query, err)
	}
	return table, nil
}
