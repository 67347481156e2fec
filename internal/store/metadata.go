package store

import (
	"context"
	"database/sql"
	"errors"
)

const importedPrefix = "imported:"

// SetMetadata upserts a key-value pair in the exam_metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM exam_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// ImportedHash returns the content hash recorded the last time the markup
// file at path was imported, or "" if it never was.
func (s *Store) ImportedHash(ctx context.Context, path string) (string, error) {
	return s.GetMetadata(ctx, importedPrefix+path)
}

// MarkImported records the content hash of an imported markup file.
func (s *Store) MarkImported(ctx context.Context, path, hash string) error {
	return s.SetMetadata(ctx, importedPrefix+path, hash)
}
