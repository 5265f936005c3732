package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/sodarota/internal/auth"
	"github.com/mmynk/sodarota/pkg/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// AdminKey is the context key marking a request as carrying a valid admin session.
	AdminKey contextKey = "admin"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

// IsAdmin reports whether RequireAdmin accepted the request.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(AdminKey).(bool)
	return admin
}

// ExtractToken returns the Bearer token of the Authorization header, or the
// session cookie value when there is no such header.
func ExtractToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAdmin returns a middleware that validates the admin session token and
// rejects the request with 401 before the wrapped handler runs.
func RequireAdmin(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if _, err := jwtManager.Validate(token); err != nil {
				logger := logging.FromContext(r.Context())
				if logger == nil {
					logger = slog.Default()
				}
				logger.WarnContext(r.Context(), "admin request rejected", "error", err)
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   auth.ErrNotAuthorized.Error(),
	})
}
