package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikolag/summit/internal/domain"
)

// CreateUser inserts a user unless the username is taken. Returns true
// when a row was inserted.
func (s *Storage) CreateUser(ctx context.Context, u domain.User) (bool, error) {
	if u.Username == "" || u.PasswordHash == "" {
		return false, fmt.Errorf("user needs username and password hash")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (username, password_hash, email, active)
		VALUES (?, ?, ?, ?)
	`, u.Username, u.PasswordHash, u.Email, u.Active)
	if err != nil {
		return false, err
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetUser retrieves a user by username.
func (s *Storage) GetUser(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, COALESCE(email, ''), active
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Active)

	if errors.Is(err, sql.ErrNoRows) {
		return u, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return u, err
}
