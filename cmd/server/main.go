package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/nicnocquee/spanduck/internal/adapters/cache"
	"github.com/nicnocquee/spanduck/internal/adapters/renderer"
	"github.com/nicnocquee/spanduck/internal/adapters/repository"
	"github.com/nicnocquee/spanduck/internal/adapters/resolver"
	"github.com/nicnocquee/spanduck/internal/adapters/storage"
	"github.com/nicnocquee/spanduck/internal/adapters/web"
	"github.com/nicnocquee/spanduck/internal/config"
	"github.com/nicnocquee/spanduck/internal/usecases"
	"github.com/nicnocquee/spanduck/pkg/log"
)

func main() {
	if err := run(); err != nil {
		log.GlobalFatal("server stopped", "error", err)
		log.Default().Close()
		fmt.Fprintln(os.Stderr, "spanduck:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	log.SetDefault(logger)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	// Database (optional): record store, premium lookup and postgres metadata cache.
	var db *gorm.DB
	if cfg.HasDatabase() {
		db, err = repository.Connect(repository.Config{
			DSN:             cfg.DatabaseDSN,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB)
		}
		if cfg.AutoMigrate {
			if err := repository.AutoMigrate(ctx, db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
	}

	metadataCache, err := newMetadataCache(ctx, cfg, db)
	if err != nil {
		return err
	}
	if c, ok := metadataCache.(io.Closer); ok {
		closers = append(closers, c)
	}

	store, err := newArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}

	browserCfg, err := renderer.LoadBrowserConfig(cfg.BrowserConfigPath, cfg.Environment)
	if err != nil {
		return fmt.Errorf("load browser config: %w", err)
	}
	browserPool, err := renderer.NewBrowserPool(browserCfg)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browserPool.Close()

	imageRenderer := renderer.New(
		renderer.NewCatalog(cfg.TemplatesDir),
		renderer.NewChromeRasterizer(browserPool, browserCfg),
	)

	// Resolvers
	tweets := resolver.NewTweetResolver(resolver.NewTwitterClient(resolver.TwitterConfig{
		BaseURL:     cfg.TwitterAPIURL,
		BearerToken: cfg.TwitterBearerToken,
		Timeout:     cfg.UpstreamTimeout,
	}))
	pages := resolver.NewWebResolver(resolver.WebConfig{
		Timeout:   cfg.UpstreamTimeout,
		UserAgent: cfg.WebUserAgent,
	})

	// Use cases
	resolveUC := usecases.NewResolveMetadataUseCase(metadataCache, tweets, pages).WithTimeout(cfg.RequestTimeout)
	generateUC := usecases.NewGenerateImageUseCase(resolveUC, imageRenderer, store).WithTimeout(cfg.RequestTimeout)

	var (
		imageRepo   usecases.GeneratedImageRepository
		premiumRepo usecases.PremiumRepository
	)
	if db != nil {
		imageRepo = repository.NewGeneratedImageRepository(db)
		premiumRepo = repository.NewPremiumRepository(db)
	}
	imagesUC := usecases.NewGeneratedImagesUseCase(imageRepo, generateUC, usecases.NewPremiumUseCase(premiumRepo))

	// HTTP
	handlers := web.NewHandlers(imagesUC, cfg.RequestTimeout)
	rateLimiter := web.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	defer rateLimiter.Close()

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(web.RequestIDConfig()))
	app.Use(web.RequestIDToContextMiddleware())
	app.Use(web.RequestLoggerMiddleware())
	app.Use(web.MetricsMiddleware())

	routeOpts := web.RouteOptions{Records: db != nil}
	if cfg.IsLocalStorage() {
		routeOpts.FilesDir = cfg.LocalStoragePath
	}
	web.SetupRoutes(app, handlers, rateLimiter, routeOpts)

	errCh := make(chan error, 1)
	go func() {
		log.GlobalInfo("starting server",
			"addr", cfg.Addr(),
			"environment", cfg.Environment,
			"cache", cfg.CacheBackend,
			"storage", cfg.StorageBackend,
			"records", db != nil,
		)
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.GlobalInfo("shutting down", "timeout", cfg.ShutdownTimeout.String())
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	sinks := []zapcore.WriteSyncer{log.Stdout()}
	if cfg.LogFile != "" {
		sinks = append(sinks, log.RotatingFile(cfg.LogFile, log.Rotation{MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 14}))
	}
	logger := log.New(level, sinks...)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	return logger
}

func newMetadataCache(ctx context.Context, cfg *config.Config, db *gorm.DB) (usecases.MetadataCache, error) {
	switch cfg.CacheBackend {
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
	case "postgres":
		if db == nil {
			return nil, errors.New("postgres metadata cache needs DATABASE_URL")
		}
		return repository.NewMetadataStore(db), nil
	default:
		return cache.NewMemoryCache(cfg.CacheTTL), nil
	}
}

func newArtifactStore(ctx context.Context, cfg *config.Config) (usecases.ArtifactStore, error) {
	if cfg.IsLocalStorage() {
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageBaseURL,
			Bucket:   cfg.S3Bucket,
		})
	}
	return storage.NewS3Storage(ctx, storage.S3Config{
		Endpoint:        cfg.S3Endpoint,
		PublicEndpoint:  cfg.PublicS3Endpoint(),
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    cfg.S3UsePathStyle,
		PublicRead:      cfg.S3PublicRead,
	})
}
