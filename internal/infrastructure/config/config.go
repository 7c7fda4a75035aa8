package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Workspace WorkspaceConfig
	Providers ProviderConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// StorageConfig selects the layout record backend.
type StorageConfig struct {
	Driver     string        `envconfig:"STORAGE_DRIVER" default:"memory"`
	SQLitePath string        `envconfig:"SQLITE_PATH" default:"data/cardspace.db"`
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RemoteURL  string        `envconfig:"REMOTE_URL" default:""`
	Timeout    time.Duration `envconfig:"STORAGE_TIMEOUT" default:"10s"`
}

// WorkspaceConfig holds per-workspace behaviour.
type WorkspaceConfig struct {
	SaveDebounce  time.Duration `envconfig:"SAVE_DEBOUNCE" default:"500ms"`
	CatalogFile   string        `envconfig:"CATALOG_FILE" default:""`
	DefaultWidth  int           `envconfig:"DEFAULT_WIDTH" default:"1280"`
	DefaultHeight int           `envconfig:"DEFAULT_HEIGHT" default:"800"`
	ReducedMotion bool          `envconfig:"REDUCED_MOTION" default:"false"`
}

// ProviderConfig holds card content provider settings.
type ProviderConfig struct {
	WebhookURL     string        `envconfig:"PROVIDER_WEBHOOK_URL" default:""`
	WebhookTimeout time.Duration `envconfig:"PROVIDER_WEBHOOK_TIMEOUT" default:"5s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Storage: StorageConfig{
			Driver:     "memory",
			SQLitePath: "data/cardspace.db",
			RedisAddr:  "localhost:6379",
			Timeout:    10 * time.Second,
		},
		Workspace: WorkspaceConfig{
			SaveDebounce:  500 * time.Millisecond,
			DefaultWidth:  1280,
			DefaultHeight: 800,
		},
		Providers: ProviderConfig{
			WebhookTimeout: 5 * time.Second,
		},
	}
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "memory", "sqlite", "redis":
	case "remote":
		if c.Storage.RemoteURL == "" {
			return fmt.Errorf("invalid config: REMOTE_URL is required for the remote driver")
		}
	default:
		return fmt.Errorf("invalid config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Workspace.DefaultWidth <= 0 || c.Workspace.DefaultHeight <= 0 {
		return fmt.Errorf("invalid config: default bounds must be positive")
	}
	if c.Workspace.SaveDebounce < 0 {
		return fmt.Errorf("invalid config: SAVE_DEBOUNCE must not be negative")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:     strings.ToLower(c.Storage.Driver),
		SQLitePath: c.Storage.SQLitePath,
		RedisAddr:  c.Storage.RedisAddr,
		RemoteURL:  c.Storage.RemoteURL,
		Timeout:    c.Storage.Timeout,
	}
}

// DefaultBounds returns the viewport used until a client reports its own.
func (c *Config) DefaultBounds() types.Bounds {
	return types.Bounds{Width: c.Workspace.DefaultWidth, Height: c.Workspace.DefaultHeight}
}
