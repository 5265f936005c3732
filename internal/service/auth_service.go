package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/sodarota/internal/auth"
)

// Session is an issued admin session token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService checks the admin password and issues session tokens.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	cfg           Config
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, cfg Config) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		cfg:           cfg.withDefaults(),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.cfg.Logger, "AuthService", operation, attrs...)
}

// Login verifies the admin password and returns a new session.
func (s *AuthService) Login(ctx context.Context, password string) (Session, error) {
	logger := s.loggerWith(ctx, "Login")
	logger.InfoContext(ctx, "Login request")

	if err := s.authenticator.Authenticate(ctx, password); err != nil {
		s.cfg.Observer.ObserveLogin(false)
		logger.WarnContext(ctx, "Login failed", "error", err, "error_kind", ErrorKind(err))
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return Session{}, auth.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to authenticate: %w", err)
	}

	token, expiresAt, err := s.jwtManager.Generate()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to generate token", "error", err)
		return Session{}, err
	}

	s.cfg.Observer.ObserveLogin(true)
	logger.InfoContext(ctx, "Admin logged in successfully", "expires_at", expiresAt)
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout ends the admin session. Tokens are stateless, so this only logs;
// the caller discards the token and its cookie.
func (s *AuthService) Logout(ctx context.Context) {
	s.loggerWith(ctx, "Logout").InfoContext(ctx, "Logout request")
}
