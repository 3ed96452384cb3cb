package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/twy/backoffice/auth"
	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/config"
	"github.com/twy/backoffice/internal/observability"
	"github.com/twy/backoffice/services"
	"github.com/twy/backoffice/store"
	"go.uber.org/zap"
)

// openPostgres is replaced in tests
var openPostgres = store.OpenPostgres

// Dependencies holds the client-side session stack. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry // nil when metrics are disabled
	Metrics  *observability.Metrics

	// Session
	Backend  store.Backend
	Tokens   *store.TokenStore
	Client   *client.Client
	Session  *auth.Session
	Services *services.Services

	db    *sql.DB
	redis *redis.Client
}

// NewDependencies creates and wires up all application dependencies.
// navigator receives the login path when the API rejects the session.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, navigator client.Navigator) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}

	if err := deps.initMetrics(); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	deps.initSession(navigator)

	logger.Info("all dependencies initialized successfully",
		zap.String("store", cfg.Store.Backend),
		zap.String("api", cfg.API.BaseURL))
	return deps, nil
}

// initStore opens the configured token store backend
func (d *Dependencies) initStore(ctx context.Context) error {
	cfg := d.Config.Store

	switch cfg.Backend {
	case config.BackendMemory, "":
		d.Backend = store.NewMemoryBackend(nil)

	case config.BackendFile:
		d.Backend = store.NewFileBackend(cfg.FilePath, nil)
		d.Logger.Debug("using file token store", zap.String("path", cfg.FilePath))

	case config.BackendRedis:
		rdb, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		d.redis = rdb
		d.Backend = store.NewRedisBackend(rdb, cfg.KeyPrefix, nil)
		d.Logger.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))

	case config.BackendPostgres:
		db, err := openPostgres(ctx, cfg.Database, d.Logger)
		if err != nil {
			return err
		}
		d.db = db
		backend := store.NewPostgresBackend(db, cfg.KeyPrefix, nil, d.Logger.Named("store"))
		if err := backend.InitSchema(ctx); err != nil {
			_ = db.Close()
			return err
		}
		if _, err := backend.PruneExpired(ctx); err != nil {
			d.Logger.Warn("failed to prune expired session entries", zap.Error(err))
		}
		d.Backend = backend

	default:
		return fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	d.Tokens = store.New(d.Backend, d.Logger.Named("store"))
	return nil
}

func (d *Dependencies) initMetrics() error {
	if !d.Config.Observability.MetricsEnabled {
		// unregistered counters still count
		m, err := observability.NewMetrics(nil)
		d.Metrics = m
		return err
	}
	d.Registry = prometheus.NewRegistry()
	m, err := observability.NewMetrics(d.Registry)
	if err != nil {
		return err
	}
	d.Metrics = m
	return nil
}

func (d *Dependencies) initSession(navigator client.Navigator) {
	api := d.Config.API
	opts := client.DefaultOptions(api.BaseURL)
	opts.Timeout = api.Timeout
	opts.LoginPath = api.LoginPath
	opts.RefreshLeeway = api.RefreshLeeway
	opts.RefreshSingleFlight = api.RefreshSingleFlight
	opts.Navigator = navigator
	opts.Metrics = d.Metrics
	opts.Logger = d.Logger.Named("client")

	d.Client = client.New(d.Tokens, opts)
	d.Session = auth.NewSession(d.Client, navigator, d.Logger.Named("session"))
	d.Services = services.New(d.Client, d.Logger.Named("services"))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Debug("shutting down dependencies")

	var errs []error

	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
		d.redis = nil
	}

	if d.db != nil {
		if err := d.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		d.db = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
