package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nicnocquee/spanduck/internal/config"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Arrange
	unsetEnv(t, "PORT", "CACHE_BACKEND", "STORAGE_BACKEND", "REQUEST_TIMEOUT", "CACHE_TTL", "RATE_LIMIT", "TEMPLATES_DIR")

	// Act
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	// Assert
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr: got %q, want %q", cfg.Addr(), ":3000")
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("CacheBackend: got %q, want %q", cfg.CacheBackend, "memory")
	}
	if !cfg.IsLocalStorage() {
		t.Error("IsLocalStorage: got false, want true")
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout: got %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("RateLimit: got %d, want 10", cfg.RateLimit)
	}
	if cfg.TemplatesDir != "templates" {
		t.Errorf("TemplatesDir: got %q, want %q", cfg.TemplatesDir, "templates")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CACHE_BACKEND", " Redis ")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "images")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr() != ":8080" {
		t.Errorf("Addr: got %q, want %q", cfg.Addr(), ":8080")
	}
	if cfg.CacheBackend != "redis" {
		t.Errorf("CacheBackend: got %q, want %q", cfg.CacheBackend, "redis")
	}
	if cfg.IsLocalStorage() {
		t.Error("IsLocalStorage: got true, want false")
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout: got %v, want 45s", cfg.RequestTimeout)
	}
	if cfg.PublicS3Endpoint() != "http://minio:9000" {
		t.Errorf("PublicS3Endpoint: got %q, want fallback to endpoint", cfg.PublicS3Endpoint())
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TEMPLATES_DIR=/srv/templates\nCACHE_TTL=2h\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already set
	unsetEnv(t, "TEMPLATES_DIR", "CACHE_TTL", "CACHE_BACKEND", "STORAGE_BACKEND")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.TemplatesDir != "/srv/templates" {
		t.Errorf("TemplatesDir: got %q, want %q", cfg.TemplatesDir, "/srv/templates")
	}
	if cfg.CacheTTL != 2*time.Hour {
		t.Errorf("CacheTTL: got %v, want 2h", cfg.CacheTTL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown cache", map[string]string{"CACHE_BACKEND": "memcached"}},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "gcs"}},
		{"s3 without bucket", map[string]string{"STORAGE_BACKEND": "s3", "S3_BUCKET": " "}},
		{"bad duration", map[string]string{"REQUEST_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
