package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/internal/metrics"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// LocalConfig configures LocalStorage.
type LocalConfig struct {
	BasePath string
	BaseURL  string // public URL prefix the files are served under
	Bucket   string
}

// LocalStorage stores artifacts as files under {base}/{bucket}/{key}.
type LocalStorage struct {
	basePath string
	baseURL  string
	bucket   string
}

// NewLocalStorage creates a filesystem store. Directories are created on first write.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	basePath := strings.TrimSpace(cfg.BasePath)
	if basePath == "" {
		return nil, fmt.Errorf("local storage path is required")
	}
	if cfg.Bucket == "" || strings.ContainsAny(cfg.Bucket, `/\`) {
		return nil, fmt.Errorf("invalid storage bucket %q", cfg.Bucket)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		bucket:   cfg.Bucket,
	}, nil
}

// Root is the directory holding bucket directories, for serving files.
func (l *LocalStorage) Root() string {
	return l.basePath
}

func (l *LocalStorage) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(l.basePath, l.bucket, key), nil
}

// Exists reports whether the file for key exists.
func (l *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := l.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	metrics.RecordStoreOperation("exists", ignoreNotExist(err))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

// Put writes data for key and returns its public URL.
// Without opts.Overwrite an existing key fails with domain.ErrConflict.
func (l *LocalStorage) Put(ctx context.Context, key string, data []byte, opts domain.PutOptions) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}

	// MkdirAll succeeds when a concurrent writer created the directory first.
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		metrics.RecordStoreOperation("put", err)
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if opts.Overwrite {
		err = writeAtomic(p, data)
	} else {
		err = writeExclusive(p, data)
	}
	metrics.RecordStoreOperation("put", err)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("put %s: %w", key, domain.ErrConflict)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	log.GlobalDebugCtx(ctx, "artifact written", "path", p, "bytes", len(data))
	return l.PublicURL(key), nil
}

// Read returns the bytes stored under key.
func (l *LocalStorage) Read(_ context.Context, key string) ([]byte, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	metrics.RecordStoreOperation("read", ignoreNotExist(err))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// PublicURL returns {base URL}/{bucket}/{key}.
func (l *LocalStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", l.baseURL, l.bucket, key)
}

// writeAtomic replaces p through a temp file so readers never see partial bytes.
func writeAtomic(p string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func writeExclusive(p string, data []byte) error {
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(p)
		return err
	}
	return f.Close()
}

func ignoreNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
