package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/localelore/localelore/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 240 requests per minute per IP. Map clients poll the
	// viewport endpoints on every pan, so the ceiling is higher than usual.
	app.Use(limiter.New(limiter.Config{
		Max:        240,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1, 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/facts", timeout.NewWithContext(ViewportFactsHandler(deps), 15*time.Second))
	v1.Get("/facts/clusters", timeout.NewWithContext(ClustersHandler(deps), 15*time.Second))
	v1.Get("/facts/geojson", timeout.NewWithContext(GeoJSONHandler(deps), 15*time.Second))
	v1.Get("/facts/trending", timeout.NewWithContext(TrendingFactsHandler(deps), 15*time.Second))
	v1.Get("/facts/nearby", timeout.NewWithContext(NearbyFactsHandler(deps), 15*time.Second))
	v1.Get("/facts/:id", timeout.NewWithContext(GetFactHandler(deps), 15*time.Second))
	v1.Post("/facts", timeout.NewWithContext(SubmitFactHandler(deps), 15*time.Second))
	v1.Post("/facts/:id/votes", timeout.NewWithContext(VoteFactHandler(deps), 15*time.Second))
	v1.Post("/facts/:id/verify", timeout.NewWithContext(VerifyFactHandler(deps), 15*time.Second))
	v1.Get("/categories", timeout.NewWithContext(ListCategoriesHandler(deps), 15*time.Second))
	v1.Get("/rewards/:code", timeout.NewWithContext(GetRewardHandler(deps), 15*time.Second))
	v1.Get("/feeds/status", timeout.NewWithContext(ContentStatsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
