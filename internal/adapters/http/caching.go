package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}

		// Don't override if the handler already set one
		if existing := c.GetRespHeader("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/categories"):
			ttl = "public, max-age=3600" // Categories rarely change

		case strings.HasPrefix(path, "/v1/facts/clusters") ||
			strings.HasPrefix(path, "/v1/facts/geojson"):
			ttl = "public, max-age=30" // Match the viewport cache window

		case strings.HasPrefix(path, "/v1/facts/trending"):
			ttl = "public, max-age=60" // Trending: 1 min

		case path == "/v1/facts":
			ttl = "public, max-age=30" // Viewport queries: 30s

		case strings.HasPrefix(path, "/v1/facts/"):
			ttl = "public, max-age=600" // Single fact: 10 min

		case path == "/v1/feeds/status":
			ttl = "public, max-age=60" // Content stats: 1 min

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
