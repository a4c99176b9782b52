package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/tactilemap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Touch sessions are long-lived; register before compression and rate limiting.
	app.Use("/ws", WebSocketUpgrade())
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/features/at", timeout.NewWithContext(FeaturesAtHandler(deps), requestTimeout))
	v1.Get("/raster", timeout.NewWithContext(RasterInfoHandler(deps), requestTimeout))
	v1.Get("/raster/value", timeout.NewWithContext(RasterValueHandler(deps), requestTimeout))
	v1.Get("/sessions", timeout.NewWithContext(ListSessionsHandler(deps), requestTimeout))
	v1.Get("/viewport/:session", timeout.NewWithContext(ViewportHandler(deps), requestTimeout))
	v1.Get("/settings/audio", GetAudioSettingsHandler(deps))
	v1.Put("/settings/audio", PutAudioSettingsHandler(deps))
	v1.Get("/datasets/status", DatasetStatusHandler(deps))
	v1.Post("/datasets/reload", timeout.NewWithContext(ReloadDatasetsHandler(deps), time.Minute))

	app.Post("/graphql", GraphQLHandler(deps))
}
