package auth

import (
	"context"

	"github.com/tallyhq/tally/internal/models"
)

// Authenticator abstracts the credential scheme so the service layer does
// not care whether accounts use passwords, OAuth tokens or something else.
type Authenticator interface {
	// Register creates a new account. The credential format depends on the
	// implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the matching user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the implementation's
	// requirements before any account is touched.
	ValidateCredential(credential string) error
}
