package storage

import (
	"context"
	"database/sql"
	"errors"
)

// MessageID returns the stored external message ID for a (family, part)
// block, or "" when none has been created yet.
func (d *DB) MessageID(ctx context.Context, family string, part int) (string, error) {
	var id string
	err := d.sql.QueryRowContext(ctx,
		"SELECT message_id FROM messages WHERE family = ? AND part = ?", family, part).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetMessageID stores or replaces the external message ID for a block.
func (d *DB) SetMessageID(ctx context.Context, family string, part int, id string) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO messages(family, part, message_id, updated_at)
VALUES(?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(family, part) DO UPDATE SET
  message_id = excluded.message_id,
  updated_at = CURRENT_TIMESTAMP`,
		family, part, id)
	return err
}

// MessageParts returns every stored part to message-ID mapping for a family.
// The sync engine uses it to find parts beyond the current block count.
func (d *DB) MessageParts(ctx context.Context, family string) (map[int]string, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT part, message_id FROM messages WHERE family = ? ORDER BY part", family)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := make(map[int]string)
	for rows.Next() {
		var part int
		var id string
		if err := rows.Scan(&part, &id); err != nil {
			return nil, err
		}
		parts[part] = id
	}
	return parts, rows.Err()
}
