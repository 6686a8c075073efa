package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/samirrijal/geoscatter/internal/pkg/metrics"
)

// Options tune the router middleware.
type Options struct {
	// RequestTimeout bounds each render. Zero means 45s.
	RequestTimeout time.Duration
	// RateLimit is the number of requests per minute per IP. Zero disables it.
	RateLimit int
}

// SetupRoutes registers the map, job, health and docs routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 45 * time.Second
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting of renders and job submissions, per IP
	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodGet
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	maps := app.Group("/v1/maps")
	maps.Get("/options", OptionsHandler(deps))
	maps.Post("/categories", timeout.NewWithContext(CategoriesMapHandler(deps), opts.RequestTimeout))
	maps.Post("/scale", timeout.NewWithContext(ScaleMapHandler(deps), opts.RequestTimeout))
	maps.Post("/jobs", timeout.NewWithContext(SubmitJobHandler(deps), 15*time.Second))
	maps.Get("/jobs/:id", timeout.NewWithContext(JobResultHandler(deps), 15*time.Second))

	SetupDocs(app)
}
