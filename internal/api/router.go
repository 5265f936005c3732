package api

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/sodarota/internal/auth"
	"github.com/mmynk/sodarota/internal/middleware"
)

// RouterConfig wires the handlers into the route table. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	Ledger  *LedgerHandler
	Chat    *ChatHandler
	Auth    *AuthHandler
	Feed    http.Handler
	Metrics http.Handler

	// JWT validates admin sessions on /api/admin routes other than login.
	// Without it those routes are not registered.
	JWT *auth.JWTManager

	// Observer receives one observation per request, labeled by route pattern.
	Observer middleware.RequestObserver

	// StaticPath is the directory of the web client; empty disables it.
	StaticPath string

	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP handler. Unmatched methods on known paths get 405
// from the mux.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.Instrument(cfg.Observer, pattern)(h))
	}
	admin := func(pattern string, h http.HandlerFunc) {
		if cfg.JWT == nil {
			return
		}
		handle(pattern, middleware.RequireAdmin(cfg.JWT)(h))
	}

	if l := cfg.Ledger; l != nil {
		handle("GET /api/data", http.HandlerFunc(l.Data))
		handle("PATCH /api/paid/toggle-today", http.HandlerFunc(l.ToggleToday))
		handle("GET /api/today", http.HandlerFunc(l.Today))
		handle("GET /api/upcoming", http.HandlerFunc(l.Upcoming))
		handle("GET /api/history", http.HandlerFunc(l.History))
		handle("GET /api/ranking", http.HandlerFunc(l.Ranking))

		admin("GET /api/admin/data", l.AdminData)
		admin("GET /api/admin/stats", l.Stats)
		admin("GET /api/admin/balances", l.Balances)
		admin("GET /api/admin/calendar", l.Calendar)
		admin("PATCH /api/admin/reset", l.Reset)
		admin("DELETE /api/admin/reset", l.Reset)
		admin("POST /api/admin/people", l.AddPerson)
		admin("DELETE /api/admin/people", l.RemovePerson)
		admin("PATCH /api/admin/paid", l.SetPayment)
	}

	if c := cfg.Chat; c != nil {
		handle("GET /api/chat", http.HandlerFunc(c.List))
		handle("POST /api/chat/message", http.HandlerFunc(c.Post))
	}

	if a := cfg.Auth; a != nil {
		handle("POST /api/admin/login", http.HandlerFunc(a.Login))
		admin("POST /api/admin/logout", a.Logout)
	}

	if cfg.Feed != nil {
		handle("GET /calendar.ics", cfg.Feed)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	if cfg.StaticPath != "" {
		mux.Handle("GET /", staticHandler(cfg.StaticPath, cfg.Logger))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
