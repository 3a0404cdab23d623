package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veriseal/veriseal"
	"github.com/veriseal/veriseal/b2"
	"github.com/veriseal/veriseal/config"
	"github.com/veriseal/veriseal/database"
	"github.com/veriseal/veriseal/filesystem"
	verisealhttp "github.com/veriseal/veriseal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Veriseal HTTP server.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	store, cleanup, err := newRegistryStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create registry store: %w", err)
	}
	defer cleanup()

	registry := veriseal.NewRegistry(store)
	registry.Load(ctx)
	slog.Info("registry loaded", "backend", cfg.Registry.Backend, "records", registry.Len())

	client := b2.NewClient(b2.Config{
		KeyID:          cfg.B2.KeyID,
		ApplicationKey: cfg.B2.ApplicationKey,
		BucketID:       cfg.B2.BucketID,
		BucketName:     cfg.B2.BucketName,
		PublicBaseURL:  cfg.B2.PublicBaseURL,
		Timeout:        time.Duration(cfg.B2.TimeoutSecs) * time.Second,
	})

	info := client.EnsureReady(ctx)
	slog.Info("remote store resolved", "enabled", info.Enabled, "bucket", info.BucketName)

	service := veriseal.NewService(registry, client)

	handlerConfig := verisealhttp.HandlerConfig{
		ReportsKey:    cfg.Reports.Key,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}

	handler := verisealhttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func newRegistryStore(ctx context.Context, cfg *config.Config) (veriseal.RegistryStore, func(), error) {
	switch cfg.Registry.Backend {
	case "file":
		return filesystem.NewStore(cfg.Registry.Path), func() {}, nil
	case "sqlite", "postgres":
		return database.Connect(ctx, database.Config{
			Type:  cfg.Registry.Backend,
			DSN:   cfg.Registry.DSN,
			Table: cfg.Registry.Table,
		})
	default:
		return nil, nil, fmt.Errorf("unsupported registry backend: %s", cfg.Registry.Backend)
	}
}
