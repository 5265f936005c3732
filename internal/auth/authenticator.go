package auth

import "context"

// Authenticator defines the interface for the admin gate.
// This abstraction allows swapping the shared-secret check for another method
// (per-user accounts, OAuth) without changing the service layer code.
type Authenticator interface {
	// Authenticate verifies the submitted credential.
	// Returns ErrInvalidCredentials if it does not match.
	Authenticate(ctx context.Context, credential string) error

	// ValidateCredential checks if a credential is acceptable to configure.
	ValidateCredential(credential string) error
}
