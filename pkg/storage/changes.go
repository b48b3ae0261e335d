package storage

import (
	"context"
	"database/sql"
	"time"
)

// ChangeRow is one persisted change record from the history table.
type ChangeRow struct {
	ID         int64
	OccurredAt time.Time
	Kind       string
	Title      string
	Previous   string
	Current    string
	Link       string
}

// ListRecentChanges returns the newest change records, newest first.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]ChangeRow, error) {
	if limit <= 0 {
		limit = 50
	}
	return d.queryChanges(ctx, `
SELECT id, occurred_at, kind, title, previous, current, link
FROM changes ORDER BY id DESC LIMIT ?`, limit)
}

// ListChangesSince returns change records at or after the given time,
// oldest first.
func (d *DB) ListChangesSince(ctx context.Context, since time.Time) ([]ChangeRow, error) {
	return d.queryChanges(ctx, `
SELECT id, occurred_at, kind, title, previous, current, link
FROM changes WHERE occurred_at >= ? ORDER BY id`, since.UTC())
}

func (d *DB) queryChanges(ctx context.Context, query string, args ...any) ([]ChangeRow, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangeRow
	for rows.Next() {
		var c ChangeRow
		var prev, cur, link sql.NullString
		if err := rows.Scan(&c.ID, &c.OccurredAt, &c.Kind, &c.Title, &prev, &cur, &link); err != nil {
			return nil, err
		}
		c.Previous, c.Current, c.Link = prev.String, cur.String, link.String
		out = append(out, c)
	}
	return out, rows.Err()
}
