package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adiallo/debtbook/internal/models"
)

// CreateUser inserts a new user account.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, role, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, string(user.Role),
		user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, password_hash, created_at, updated_at
		 FROM users WHERE `+where, arg).
		Scan(&user.ID, &user.Email, &user.DisplayName, &role,
			&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // user not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = models.Role(role)
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
// Returns (nil, nil) when absent.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}
