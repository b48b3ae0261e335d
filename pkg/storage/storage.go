// Package storage is the single source of cross-run memory: the stock
// snapshot, the family to message-ID map, and the change history, all in one
// SQLite file. Transactions give the crash-safe commit-or-nothing write
// the snapshot needs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pyrowatch/pyrowatch/pkg/catalog"
	"github.com/pyrowatch/pyrowatch/pkg/reconcile"
)

// ErrCorrupt wraps open failures that indicate an unreadable state file.
var ErrCorrupt = errors.New("state database unreadable")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS stock (
  title         TEXT PRIMARY KEY,
  availability  TEXT NOT NULL,
  link          TEXT,
  family        TEXT NOT NULL,
  brand         TEXT,
  price         TEXT,
  run_id        INTEGER NOT NULL DEFAULT 0,
  first_seen_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS messages (
  family     TEXT NOT NULL,
  part       INTEGER NOT NULL,
  message_id TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (family, part)
);
CREATE TABLE IF NOT EXISTS changes (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL,
  kind        TEXT NOT NULL CHECK (kind IN ('new','restocked','soldout','changed','removed')),
  title       TEXT NOT NULL,
  previous    TEXT,
  current     TEXT,
  link        TEXT
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON changes(occurred_at);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &DB{sql: db}, nil
}

// OpenOrReset opens the state database, and if it is unreadable moves it
// aside and starts from an empty baseline. The second return reports
// whether a reset happened so callers can log the data loss loudly.
func OpenOrReset(path string) (*DB, bool, error) {
	db, err := Open(path)
	if err == nil {
		return db, false, nil
	}
	if !errors.Is(err, ErrCorrupt) {
		return nil, false, err
	}
	if renameErr := os.Rename(path, path+".corrupt"); renameErr != nil && !os.IsNotExist(renameErr) {
		return nil, false, fmt.Errorf("move corrupt state aside: %v (open error: %w)", renameErr, err)
	}
	db, err = Open(path)
	if err != nil {
		return nil, false, err
	}
	return db, true, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// LoadStock returns the previous cycle's availability-text-by-title map.
// An empty database yields an empty map, never an error.
func (d *DB) LoadStock(ctx context.Context) (map[string]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT title, availability FROM stock")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stock := make(map[string]string)
	for rows.Next() {
		var title, avail string
		if err := rows.Scan(&title, &avail); err != nil {
			return nil, err
		}
		stock[title] = avail
	}
	return stock, rows.Err()
}

// ApplyCycle persists one reconciled cycle atomically: current items are
// upserted, titles the scrape no longer returned are pruned, and the
// change records are appended to the history.
func (d *DB) ApplyCycle(ctx context.Context, items map[string]catalog.Item, changes []reconcile.Change) (err error) {
	now := time.Now().UTC()
	runID := now.UnixNano()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, it := range items {
		_, err = tx.ExecContext(ctx, `
INSERT INTO stock(title, availability, link, family, brand, price, run_id, first_seen_at, last_seen_at)
VALUES(?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)
ON CONFLICT(title) DO UPDATE SET
  availability = excluded.availability,
  link         = excluded.link,
  family       = excluded.family,
  brand        = excluded.brand,
  price        = excluded.price,
  run_id       = excluded.run_id,
  last_seen_at = CURRENT_TIMESTAMP`,
			it.Title, it.Stock, it.Link, it.Family, it.Brand, it.Price, runID)
		if err != nil {
			return err
		}
	}

	// Titles not touched this run vanished from the scrape; prune them.
	if _, err = tx.ExecContext(ctx, `DELETE FROM stock WHERE run_id != ?`, runID); err != nil {
		return err
	}

	for _, c := range changes {
		_, err = tx.ExecContext(ctx, `
INSERT INTO changes(occurred_at, kind, title, previous, current, link)
VALUES(?,?,?,?,?,?)`,
			now, string(c.Kind), c.Title, nullIfEmpty(c.Previous), nullIfEmpty(c.Current), nullIfEmpty(c.Link))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
