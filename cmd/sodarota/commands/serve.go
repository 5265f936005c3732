package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/sodarota/internal/api"
	"github.com/mmynk/sodarota/internal/auth"
	"github.com/mmynk/sodarota/internal/config"
	"github.com/mmynk/sodarota/internal/i18n"
	"github.com/mmynk/sodarota/internal/metrics"
	"github.com/mmynk/sodarota/internal/middleware"
	"github.com/mmynk/sodarota/internal/service"
	"github.com/mmynk/sodarota/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var (
	secureCookie bool
	noBanner     bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SodaRota HTTP server",
	Long: `Start the SodaRota HTTP server. It serves the JSON API, the admin API,
the ICS calendar feed, Prometheus metrics and the static web client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&secureCookie, "secure-cookie", false, "mark the admin session cookie Secure (HTTPS only)")
	serveCmd.Flags().BoolVar(&noBanner, "no-banner", false, "do not print the startup banner")
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return err
	}
	if err := cfg.RequireAdmin(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return err
	}
	if cfg.SessionSecretGenerated {
		slog.Warn("SESSION_SECRET not set, admin sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		return err
	}
	defer store.Close()

	handler, err := buildHandler(cfg, store)
	if err != nil {
		slog.Error("Failed to build server", "error", err)
		return err
	}

	// h2c serves HTTP/2 without TLS behind a proxy.
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !noBanner {
		figure.NewColorFigure("SodaRota", "puffy", "red", true).Print()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Addr(), "url", fmt.Sprintf("http://localhost%s", cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			slog.Error("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	slog.Info("HTTP server exited gracefully")
	return nil
}

// buildHandler wires the services and handlers around store.
func buildHandler(cfg config.Config, store storage.Store) (http.Handler, error) {
	translator, err := i18n.New(cfg.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	var gate *auth.PasswordGate
	if cfg.AdminPasswordHash != "" {
		gate, err = auth.NewPasswordGate(cfg.AdminPasswordHash)
	} else {
		gate, err = auth.NewPasswordGateFromPlaintext(cfg.AdminPassword)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to configure admin password: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL)
	m := metrics.New()
	logger := slog.Default()
	svcCfg := service.Config{Location: cfg.Location, Logger: logger, Observer: m}

	ledgerSvc := service.NewLedgerService(store, svcCfg)
	chatSvc := service.NewChatService(store, nil, svcCfg)
	authSvc := service.NewAuthService(gate, jwtManager, svcCfg)

	staticPath := ""
	if cfg.StaticPath != "" {
		staticPath, err = filepath.Abs(cfg.StaticPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve static path: %w", err)
		}
		slog.Info("Serving static files", "path", staticPath)
	}

	return api.NewRouter(api.RouterConfig{
		Ledger:     api.NewLedgerHandler(ledgerSvc, translator, logger, api.WithDefaultCount(cfg.UpcomingCount)),
		Chat:       api.NewChatHandler(chatSvc, logger),
		Auth:       api.NewAuthHandler(authSvc, secureCookie, logger),
		Feed:       api.NewFeedHandler(ledgerSvc, translator, cfg.Location, nil),
		Metrics:    m.Handler(),
		JWT:        jwtManager,
		Observer:   m,
		StaticPath: staticPath,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{
			middleware.RequestLogger(logger),
		},
	}), nil
}
