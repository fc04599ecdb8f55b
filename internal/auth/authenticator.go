package auth

import (
	"context"

	"github.com/adiallo/debtbook/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping auth methods (password, OAuth, ...)
// without changing the handler code. The ledger core never sees it: it
// only receives opaque actor id/name strings from the request context.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user if valid.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the
	// implementation's requirements.
	ValidateCredential(credential string) error
}
