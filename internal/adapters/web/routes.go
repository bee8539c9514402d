package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteOptions toggles optional routes.
type RouteOptions struct {
	// Records registers the /generated-images endpoints; they need a database.
	Records bool
	// FilesDir serves locally stored artifacts under /files when set.
	FilesDir string
}

// SetupRoutes configures the application routes.
func SetupRoutes(app *fiber.App, handlers *Handlers, rateLimiter *RateLimiter, opts RouteOptions) {
	app.Get("/health", handlers.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if opts.FilesDir != "" {
		app.Static("/files", opts.FilesDir)
	}

	// Generation endpoints are rate limited per IP.
	app.Get("/images", rateLimiter.Middleware(), handlers.GenerateImage)

	if opts.Records {
		images := app.Group("/generated-images")
		images.Post("/", rateLimiter.Middleware(), handlers.CreateGeneratedImage)
		images.Get("/", handlers.ListGeneratedImages)
		images.Get("/:id", handlers.GetGeneratedImage)
		images.Delete("/:id", handlers.DeleteGeneratedImage)
	}
}
