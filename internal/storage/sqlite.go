// Package storage persists an audit log of dispatch outcomes in SQLite.
//
// The log is write-only from the server's point of view: dispatch never
// reads it back, so redelivered webhooks still produce duplicate actions
// exactly as the platform contract allows. It exists for operators, via
// the log commands.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path
// and ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS delivery_log (
  id          TEXT PRIMARY KEY,
  delivery_id TEXT NOT NULL,
  comment_id  TEXT NOT NULL,
  post_id     TEXT NOT NULL,
  username    TEXT NOT NULL,
  action      TEXT NOT NULL,
  success     INTEGER NOT NULL,
  detail      TEXT,
  created_at  TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS delivery_log_created_at_idx ON delivery_log(created_at);`,
		`CREATE INDEX IF NOT EXISTS delivery_log_comment_id_idx ON delivery_log(comment_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
