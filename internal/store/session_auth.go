package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/texexam/internal/model"
)

// DefaultAuthSessionTTL is how long a login stays valid unless overridden.
const DefaultAuthSessionTTL = 24 * time.Hour

// SetAuthSessionTTL changes the lifetime of logins created from now on.
// Non-positive values restore the default.
func (s *Store) SetAuthSessionTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultAuthSessionTTL
	}
	s.authTTL = ttl
}

// CreateAuthSession logs a user in. The user's expired logins are removed in
// the same transaction, so a student who logs in every exam day does not
// accumulate dead rows.
func (s *Store) CreateAuthSession(ctx context.Context, username string) (*model.AuthSession, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess := &model.AuthSession{
		ID:        token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.authTTL),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM auth_sessions WHERE username = ? AND expires_at <= ?`, username, now,
	); err != nil {
		return nil, fmt.Errorf("prune logins for %s: %w", username, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO auth_sessions (id, username, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Username, sess.CreatedAt, sess.ExpiresAt,
	); err != nil {
		return nil, fmt.Errorf("insert login for %s: %w", username, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetAuthSession returns the live login for token, or nil if the token is
// unknown or expired.
func (s *Store) GetAuthSession(ctx context.Context, token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, created_at, expires_at FROM auth_sessions WHERE id = ? AND expires_at > ?`,
		token, s.now().UTC(),
	).Scan(&sess.ID, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteAuthSession logs out a single token.
func (s *Store) DeleteAuthSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions removes every expired login and reports how many
// were removed.
func (s *Store) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
