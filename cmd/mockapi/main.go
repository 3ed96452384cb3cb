// Command mockapi serves the back-office API from memory for local
// development of the session client.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twy/backoffice/config"
	"github.com/twy/backoffice/internal/observability"
	"github.com/twy/backoffice/mockapi"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/routes"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Observability)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	backend, err := newBackend(ctx, cfg.MockAPI, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.MockAPI.Address(),
		Handler:      routes.SetupRoutes(routes.Deps{Backend: backend, Config: cfg.MockAPI, Logger: logger, Gatherer: newGatherer(cfg.Observability)}),
		ReadTimeout:  cfg.MockAPI.ReadTimeout,
		WriteTimeout: cfg.MockAPI.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock api listening", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.MockAPI.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func initLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logger.Named("mockapi"), nil
}

// newBackend builds the in-memory backend, seeded unless disabled
func newBackend(ctx context.Context, cfg config.MockAPIConfig, logger *zap.Logger) (*mockapi.Backend, error) {
	backend := mockapi.New(cfg, logger)
	if !cfg.Seed {
		return backend, nil
	}
	if err := backend.Seed(ctx, cfg.SeedPassword); err != nil {
		return nil, fmt.Errorf("failed to seed mock api: %w", err)
	}
	emails := make([]string, 0, len(rbac.Roles))
	for _, role := range rbac.Roles {
		emails = append(emails, mockapi.SeedEmail(role))
	}
	logger.Info("seeded users", zap.Strings("emails", emails))
	return backend, nil
}

// newGatherer returns the registry behind /metrics, or nil to leave it
// unmounted
func newGatherer(cfg config.ObservabilityConfig) prometheus.Gatherer {
	if !cfg.MetricsEnabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
