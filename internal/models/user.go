package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates access to the audit trail. The core treats actors as
// opaque; only the HTTP boundary checks this.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an account that can sign in and mutate the shared ledger.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the login identifier (unique).
	Email string

	// DisplayName is shown in activity logs and settled records.
	DisplayName string

	// Role is either admin or user.
	Role Role

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a generated ID and the default role.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		Role:         RoleUser,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
