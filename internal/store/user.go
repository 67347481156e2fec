package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pavelanni/texexam/internal/model"
)

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("user already exists")

func (s *Store) users(ctx context.Context) (map[string]model.User, error) {
	users := map[string]model.User{}
	if err := load(ctx, s.db, collUsers, &users); err != nil {
		return nil, err
	}
	for name, u := range users {
		u.Username = name
		users[name] = u
	}
	return users, nil
}

// CreateUser adds a new user. Usernames are unique.
func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	var users map[string]model.User
	err := s.update(ctx, collUsers, &users, func() error {
		if users == nil {
			users = map[string]model.User{}
		}
		if _, ok := users[u.Username]; ok {
			return fmt.Errorf("%s: %w", u.Username, ErrUserExists)
		}
		users[u.Username] = u
		return nil
	})
	if err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return err
	}
	slog.Info("created user", "username", u.Username, "role", u.Role, "class", u.Class)
	return nil
}

// GetUserByUsername returns a user by username, or nil if none exists.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// ListUsers returns all users sorted by username.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// UserCount returns the total number of users.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	users, err := s.users(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
