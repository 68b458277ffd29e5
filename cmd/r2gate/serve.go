package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/r2gate"
	"github.com/sagarc03/r2gate/config"
	"github.com/sagarc03/r2gate/filesystem"
	r2gatehttp "github.com/sagarc03/r2gate/http"
	"github.com/sagarc03/r2gate/s3store"
	"github.com/sagarc03/r2gate/sessionbackend"
	"github.com/sagarc03/r2gate/userbackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the r2gate HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen address (default: 0.0.0.0, env: SERVER_IP)")
	serveCmd.Flags().Int("port", 3000, "HTTP server port (env: SERVER_PORT)")
	serveCmd.Flags().Bool("production", false, "secure, domain-scoped session cookies and JSON logs (env: PRODUCTION)")
	serveCmd.Flags().String("static-dir", "", "directory served at / when present (default: static)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sessions, closeSessions, err := sessionbackend.New(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer closeSessions()
	slog.Info("session store ready", "type", cfg.Session.Type)

	users, err := userbackend.NewUserStore(userbackend.UsersConfig{
		Inline: cfg.Auth.Users,
		File:   cfg.Auth.UsersFile,
	})
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	if users.Len() == 0 {
		slog.Warn("no users configured, every login will be rejected", "users_file", cfg.Auth.UsersFile)
	} else {
		slog.Info("loaded users", "count", users.Len())
	}

	auth, err := r2gate.NewAuthenticator(users, sessions, r2gate.AuthConfig{SessionTTL: cfg.Auth.SessionTTL})
	if err != nil {
		return fmt.Errorf("create authenticator: %w", err)
	}

	store, closeStore, err := openObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	service, err := r2gate.NewStorageService(store, r2gate.NewNamespace(cfg.Storage.Prefix))
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handlerConfig := r2gatehttp.HandlerConfig{
		Cookie: r2gatehttp.CookieConfig{
			Production: cfg.IsProduction(),
			Domain:     cfg.Server.CookieDomain,
			MaxAge:     cfg.Auth.CookieMaxAge,
		},
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		StaticDir:     cfg.Server.StaticDir,
	}

	handler := r2gatehttp.NewHandler(&handlerConfig, auth, service)

	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"production", cfg.IsProduction(),
		"storage", cfg.Storage.Type,
		"prefix", service.Namespace().Base(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// openObjectStore builds the configured object store. The returned cleanup
// releases any handle the store holds.
func openObjectStore(ctx context.Context, cfg config.StorageConfig) (r2gate.ObjectStore, func(), error) {
	switch cfg.Type {
	case "filesystem":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}

		slog.Info("using filesystem storage", "path", cfg.Path)
		return filesystem.NewFileStorage(root), func() { _ = root.Close() }, nil
	case "s3":
		store, err := s3store.New(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 store: %w", err)
		}

		slog.Info("using s3 storage", "bucket", cfg.S3.Bucket, "endpoint", cfg.S3.EndpointURL())
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
