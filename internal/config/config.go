// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the environment driven configuration for the service.
type Config struct {
	// Service
	AppName         string        `env:"APP_NAME" envDefault:"Spanduck"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile         string        `env:"LOG_FILE"` // optional rotating file sink
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Rate limiting on generation endpoints
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"10"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Metadata cache backend: "memory", "redis" or "postgres"
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"24h"`
	RedisAddr    string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string        `env:"REDIS_PASSWORD"`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`

	// Database
	DatabaseDSN    string        `env:"DATABASE_URL"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate    bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	// Upstreams
	TwitterAPIURL      string        `env:"TWITTER_API_URL" envDefault:"https://api.twitter.com"`
	TwitterBearerToken string        `env:"TWITTER_BEARER_TOKEN"`
	UpstreamTimeout    time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	WebUserAgent       string        `env:"WEB_USER_AGENT"`

	// Rendering
	TemplatesDir      string `env:"TEMPLATES_DIR" envDefault:"templates"`
	BrowserConfigPath string `env:"BROWSER_CONFIG" envDefault:"config/browser.yaml"`

	// Artifact storage backend: "s3" or "local"
	StorageBackend      string `env:"STORAGE_BACKEND" envDefault:"local"`
	LocalStoragePath    string `env:"LOCAL_STORAGE_PATH" envDefault:"./data"`
	LocalStorageBaseURL string `env:"LOCAL_STORAGE_BASE_URL" envDefault:"http://localhost:3000/files"`
	S3Endpoint          string `env:"S3_ENDPOINT"`
	S3PublicEndpoint    string `env:"S3_PUBLIC_ENDPOINT"`
	S3Region            string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket            string `env:"S3_BUCKET" envDefault:"images"`
	S3AccessKeyID       string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey         string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle      bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`
	S3PublicRead        bool   `env:"S3_PUBLIC_READ" envDefault:"true"`
}

// Load reads an optional .env file, then parses the environment into Config.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.S3PublicEndpoint = strings.TrimSpace(cfg.S3PublicEndpoint)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, redis or postgres, got %q", c.CacheBackend)
	}
	switch c.StorageBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be local or s3, got %q", c.StorageBackend)
	}
	if c.StorageBackend == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND is s3")
	}
	if c.CacheBackend == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_URL is required when CACHE_BACKEND is postgres")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// HasDatabase reports whether a record store is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseDSN != ""
}

// IsLocalStorage reports whether artifacts are written to the local filesystem.
func (c *Config) IsLocalStorage() bool {
	return c.StorageBackend == "local"
}

// PublicS3Endpoint returns the endpoint used in artifact URLs.
func (c *Config) PublicS3Endpoint() string {
	if c.S3PublicEndpoint != "" {
		return c.S3PublicEndpoint
	}
	return c.S3Endpoint
}
