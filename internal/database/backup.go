package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"
)

const backupPagesPerStep = 1000

// Backup copies the live store into destPath with SQLite's online backup
// API. Busy/locked failures are retried like any other write.
func (db *DB) Backup(ctx context.Context, destPath string) error {
	_, err := db.retrier.Do(ctx, "backup "+destPath, func() (int64, error) {
		return 0, db.backupOnce(ctx, destPath)
	})
	if err != nil {
		return err
	}

	db.logger.Info("store backup written", slog.String("path", destPath))
	return nil
}

func (db *DB) backupOnce(ctx context.Context, destPath string) (err error) {
	dest, err := sql.Open("sqlite3", "file:"+destPath)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, dest.Close())
	}()

	destConn, err := dest.Conn(ctx)
	if err != nil {
		return err
	}
	defer destConn.Close()

	srcConn, err := db.conn.Conn(ctx)
	if err != nil {
		return err
	}
	defer srcConn.Close()

	return destConn.Raw(func(destDriver any) error {
		d, ok := destDriver.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", destDriver)
		}
		return srcConn.Raw(func(srcDriver any) error {
			s, ok := srcDriver.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected driver connection %T", srcDriver)
			}
			return copyPages(ctx, d, s)
		})
	})
}

func copyPages(ctx context.Context, dest, src *sqlite3.SQLiteConn) error {
	backup, err := dest.Backup("main", src, "main")
	if err != nil {
		return err
	}

	for {
		done, err := backup.Step(backupPagesPerStep)
		if err != nil {
			return errors.Join(err, backup.Finish())
		}
		if done {
			return backup.Finish()
		}
		if err := ctx.Err(); err != nil {
			return errors.Join(err, backup.Finish())
		}
	}
}
