package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin password")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrEmptyPassword      = errors.New("admin password must not be empty")
)

// Ensure PasswordGate implements Authenticator
var _ Authenticator = (*PasswordGate)(nil)

// PasswordGate checks the shared admin password against a bcrypt hash.
type PasswordGate struct {
	hash []byte
}

// NewPasswordGate creates a gate from an existing bcrypt hash.
func NewPasswordGate(hash string) (*PasswordGate, error) {
	hash = strings.TrimSpace(hash)
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &PasswordGate{hash: []byte(hash)}, nil
}

// NewPasswordGateFromPlaintext hashes password once at startup.
func NewPasswordGateFromPlaintext(password string) (*PasswordGate, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &PasswordGate{hash: []byte(hash)}, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// ValidateCredential rejects an empty password.
func (g *PasswordGate) ValidateCredential(credential string) error {
	if credential == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Authenticate compares credential with the stored hash.
func (g *PasswordGate) Authenticate(ctx context.Context, credential string) error {
	if err := g.ValidateCredential(credential); err != nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(credential)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
