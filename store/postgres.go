package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/twy/backoffice/config"
	"go.uber.org/zap"
)

// PostgresBackend stores entries in the session_entries table. Expired rows
// are filtered on read and pruned on write.
type PostgresBackend struct {
	db     *sql.DB
	prefix string
	now    Clock
	logger *zap.Logger
}

// NewPostgresBackend creates a backend on db. Every key is namespaced with
// prefix.
func NewPostgresBackend(db *sql.DB, prefix string, clock Clock, logger *zap.Logger) *PostgresBackend {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresBackend{
		db:     db,
		prefix: prefix,
		now:    clock,
		logger: logger,
	}
}

// OpenPostgres opens and verifies a connection pool
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return db, nil
}

// InitSchema creates the session_entries table
func (b *PostgresBackend) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS session_entries (
			entry_key VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_session_entries_expires_at ON session_entries(expires_at);
	`
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize session schema: %w", err)
	}
	b.logger.Info("session schema initialized")
	return nil
}

// Get returns the live entry for key
func (b *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT value
		FROM session_entries
		WHERE entry_key = $1 AND (expires_at IS NULL OR expires_at > $2)
	`

	var value string
	err := b.db.QueryRowContext(ctx, query, b.prefix+key, b.now()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key
func (b *PostgresBackend) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	query := `
		INSERT INTO session_entries (entry_key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entry_key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
	`

	expiry := sql.NullTime{Time: expiresAt, Valid: !expiresAt.IsZero()}
	if _, err := b.db.ExecContext(ctx, query, b.prefix+key, value, expiry, b.now()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (b *PostgresBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = b.prefix + key
	}

	query := `DELETE FROM session_entries WHERE entry_key = ANY($1)`
	if _, err := b.db.ExecContext(ctx, query, pq.Array(prefixed)); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// PruneExpired deletes rows whose expiry has passed
func (b *PostgresBackend) PruneExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM session_entries WHERE expires_at IS NOT NULL AND expires_at <= $1`
	res, err := b.db.ExecContext(ctx, query, b.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune session entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned entries: %w", err)
	}
	if n > 0 {
		b.logger.Debug("pruned expired session entries", zap.Int64("count", n))
	}
	return n, nil
}
