package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DefaultSigningSecret is the development-only mock API secret
const DefaultSigningSecret = "dev-signing-secret"

// Config represents the complete application configuration
type Config struct {
	API           APIConfig
	Store         StoreConfig
	MockAPI       MockAPIConfig
	Observability ObservabilityConfig
	Environment   string
}

// APIConfig holds the back-office API client configuration
type APIConfig struct {
	BaseURL             string
	Timeout             time.Duration
	RefreshLeeway       time.Duration
	RefreshSingleFlight bool
	LoginPath           string
	HomePath            string
}

// StoreConfig selects and configures the token store backend
type StoreConfig struct {
	Backend   string
	FilePath  string
	KeyPrefix string
	Redis     RedisConfig
	Database  DatabaseConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// MockAPIConfig holds the local development API server configuration
type MockAPIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SigningSecret   string
	AccessTokenTTL  time.Duration
	IDTokenTTL      time.Duration
	RefreshTokenTTL time.Duration
	AllowedOrigins  []string
	// Seed creates one user per role sharing SeedPassword at startup
	Seed         bool
	SeedPassword string
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		API: APIConfig{
			BaseURL:             getEnv("API_BASE_URL", "http://localhost:8080/api"),
			Timeout:             getEnvAsDuration("API_TIMEOUT", 30*time.Second),
			RefreshLeeway:       getEnvAsDuration("API_REFRESH_LEEWAY", 30*time.Second),
			RefreshSingleFlight: getEnvAsBool("API_REFRESH_SINGLE_FLIGHT", true),
			LoginPath:           getEnv("LOGIN_PATH", "/login"),
			HomePath:            getEnv("HOME_PATH", "/"),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
			FilePath:  getEnv("STORE_FILE_PATH", defaultSessionPath()),
			KeyPrefix: getEnv("STORE_KEY_PREFIX", "backoffice:session:"),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
			Database: loadDatabaseConfig(),
		},
		MockAPI: MockAPIConfig{
			Host:            getEnv("MOCKAPI_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("MOCKAPI_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("MOCKAPI_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("MOCKAPI_SHUTDOWN_TIMEOUT", 10*time.Second),
			SigningSecret:   getEnv("MOCKAPI_SIGNING_SECRET", DefaultSigningSecret),
			AccessTokenTTL:  getEnvAsDuration("ACCESS_TOKEN_TTL", time.Hour),
			IDTokenTTL:      getEnvAsDuration("ID_TOKEN_TTL", time.Hour),
			RefreshTokenTTL: getEnvAsDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			Seed:            getEnvAsBool("MOCKAPI_SEED", true),
			SeedPassword:    getEnv("MOCKAPI_SEED_PASSWORD", "Backoffice-1!"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base URL must be absolute: %q", c.API.BaseURL)
	}
	if c.API.RefreshLeeway < 0 {
		return fmt.Errorf("refresh leeway must not be negative")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.FilePath == "" {
			return fmt.Errorf("store file path is required for the file backend")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case BackendPostgres:
		db := c.Store.Database
		if db.ConnectionString == "" && db.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if db.ConnectionString == "" {
			if db.User == "" {
				return fmt.Errorf("database user is required")
			}
			if db.Database == "" {
				return fmt.Errorf("database name is required")
			}
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	// the development secret must never sign production tokens
	if c.IsProduction() && c.MockAPI.SigningSecret == DefaultSigningSecret {
		return fmt.Errorf("mock API signing secret must be set in production")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "dev"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "backoffice"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the mock API listen address
func (c *MockAPIConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// defaultSessionPath is the per-user session file, next to the working
// directory when no config directory is known
func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".backoffice-session.json"
	}
	return filepath.Join(dir, "backoffice", "session.json")
}

// getPort returns the mock API port from PORT or MOCKAPI_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("MOCKAPI_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
