// Package export downloads audit events through the pagination core and
// writes them to newline-delimited JSON files, keeping a resume checkpoint
// in a local sqlite database so repeated runs are incremental.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// createTableSQL holds the checkpoint schema.
//
// Field: stream
//
//	Identifies the export stream ("audit" today; SIEM log types later).
//
// Field: position
//
//	The opaque resume position for the stream. For audit exports this is
//	the RFC 3339 timestamp of the newest exported event.
var createTableSQL = `
CREATE TABLE IF NOT EXISTS export_checkpoints (
stream TEXT NOT NULL PRIMARY KEY,
position TEXT NOT NULL,
updated_at TEXT NOT NULL
);`

// Store persists export checkpoints.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and initializes) the checkpoint database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize checkpoint schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Position returns the stored resume position for a stream, or "" when the
// stream has never been exported.
func (s *Store) Position(ctx context.Context, stream string) (string, error) {
	var position string
	err := s.db.QueryRowContext(ctx,
		`SELECT position FROM export_checkpoints WHERE stream = ?`, stream,
	).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read checkpoint for %s: %w", stream, err)
	}
	return position, nil
}

// SetPosition records the resume position for a stream.
func (s *Store) SetPosition(ctx context.Context, stream, position string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO export_checkpoints (stream, position, updated_at) VALUES (?, ?, ?)
ON CONFLICT(stream) DO UPDATE SET position = excluded.position, updated_at = excluded.updated_at`,
		stream, position, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write checkpoint for %s: %w", stream, err)
	}
	return nil
}

// Close closes the checkpoint database.
func (s *Store) Close() error {
	return s.db.Close()
}
