package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Roles.
const (
	RoleAdmin      = "admin"
	RoleProgrammer = "programmer"
	RoleOperator   = "operator"
)

// User is an account allowed to sign in.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleProgrammer, RoleOperator:
		return true
	}
	return false
}

// CreateUser inserts a user with an already hashed password.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" || u.PasswordHash == "" {
		return User{}, invalid("email and password required")
	}
	if !ValidRole(u.Role) {
		return User{}, invalid("unknown role %q", u.Role)
	}
	res, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, name, role, password_hash) VALUES (?, ?, ?, ?)`,
		u.Email, u.Name, u.Role, u.PasswordHash)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	return u, nil
}

// UserByEmail looks a user up case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx, `SELECT id, email, name, role, password_hash FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}
