package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/offload"
)

// parseViewport extracts and validates viewport query parameters.
// All four edges are required; zoom defaults to 10.
func parseViewport(c *fiber.Ctx) (domain.Bounds, int, error) {
	for _, p := range []string{"north", "south", "east", "west"} {
		if c.Query(p) == "" {
			return domain.Bounds{}, 0, fiber.NewError(400, "north, south, east, and west are required")
		}
	}

	bounds := domain.Bounds{
		North: c.QueryFloat("north", 0),
		South: c.QueryFloat("south", 0),
		East:  c.QueryFloat("east", 0),
		West:  c.QueryFloat("west", 0),
	}
	zoom := c.QueryInt("zoom", 10)
	if zoom < 0 || zoom > 22 {
		return domain.Bounds{}, 0, fiber.NewError(400, "zoom must be between 0 and 22")
	}
	if err := bounds.Validate(); err != nil {
		return domain.Bounds{}, 0, fiber.NewError(400, err.Error())
	}

	return bounds, zoom, nil
}

// ViewportFactsHandler returns fact markers visible in a viewport.
// GET /v1/facts?north=43.28&south=43.24&east=-2.91&west=-2.96&zoom=14
func ViewportFactsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds, zoom, err := parseViewport(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		markers := deps.Viewports.FactsInViewport(c.Context(), bounds, zoom)

		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(fiber.Map{
			"markers": markers,
			"count":   len(markers),
			"zoom":    zoom,
		})
	}
}

// ClustersHandler returns clustered markers for a viewport.
// GET /v1/facts/clusters?...&algo=grid|greedy&radius=60
func ClustersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds, zoom, err := parseViewport(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		algo := c.Query("algo", offload.AlgoGrid)
		if algo != offload.AlgoGrid && algo != offload.AlgoGreedy {
			return errBadRequest(c, "algo must be grid or greedy")
		}
		radius := c.QueryFloat("radius", deps.GreedyRadiusPx)
		if radius <= 0 || radius > 500 {
			return errBadRequest(c, "radius must be between 1 and 500 pixels")
		}

		markers := deps.Viewports.FactsInViewport(c.Context(), bounds, zoom)

		clusters, err := deps.Offload.Cluster(c.Context(), markers, zoom, &bounds, algo, radius)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(fiber.Map{
			"clusters": clusters,
			"count":    len(clusters),
			"zoom":     zoom,
			"algo":     algo,
		})
	}
}

// GeoJSONHandler returns viewport clusters as a GeoJSON FeatureCollection,
// ready for map libraries that consume GeoJSON sources directly.
// GET /v1/facts/geojson?north=...&south=...&east=...&west=...&zoom=12
func GeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds, zoom, err := parseViewport(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		markers := deps.Viewports.FactsInViewport(c.Context(), bounds, zoom)

		clusters, err := deps.Offload.Cluster(c.Context(), markers, zoom, &bounds, offload.AlgoGrid, 0)
		if err != nil {
			return errInternal(c, err.Error())
		}

		fc, err := deps.Offload.ToGeoJSON(c.Context(), clusters)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Content-Type", "application/geo+json")
		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(fc)
	}
}

// NearbyFactsHandler returns facts within a radius of a point, closest first.
// GET /v1/facts/nearby?lat=43.26&lng=-2.93&radius=1500
func NearbyFactsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return errBadRequest(c, "lat and lng are required")
		}
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		radius := c.QueryFloat("radius", 1000)
		limit := c.QueryInt("limit", 20)

		facts, err := deps.Facts.Nearby(c.Context(), lat, lng, radius, limit)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(fiber.Map{
			"facts":    facts,
			"count":    len(facts),
			"radius_m": radius,
		})
	}
}

// TrendingFactsHandler returns the highest-scored facts.
func TrendingFactsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)

		facts, err := deps.Facts.Trending(c.Context(), limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(fiber.Map{
			"facts": facts,
			"count": len(facts),
		})
	}
}

// GetFactHandler returns a single fact by ID.
func GetFactHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "fact id is required")
		}
		fact, err := deps.Facts.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "fact not found")
		}
		return c.JSON(fact)
	}
}

// submitFactRequest is the POST /v1/facts body.
type submitFactRequest struct {
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	CategoryID string         `json:"category_id"`
	AuthorID   string         `json:"author_id"`
	AuthorName string         `json:"author_name"`
	Metadata   map[string]any `json:"metadata"`
}

// SubmitFactHandler stores a new pending fact.
func SubmitFactHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req submitFactRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		fact := &domain.Fact{
			Title:      req.Title,
			Content:    req.Content,
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			CategoryID: req.CategoryID,
			AuthorID:   req.AuthorID,
			AuthorName: req.AuthorName,
			Metadata:   req.Metadata,
		}

		created, err := deps.Facts.Submit(c.Context(), fact)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.Status(201).JSON(created)
	}
}

// VoteFactHandler applies an up/down vote to a fact.
// POST /v1/facts/:id/votes {"direction":"up"}
func VoteFactHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "fact id is required")
		}

		var req struct {
			Direction string `json:"direction"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		fact, err := deps.Facts.Vote(c.Context(), id, req.Direction)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fact)
	}
}

// VerifyFactHandler promotes a fact to verified status.
func VerifyFactHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "fact id is required")
		}

		fact, err := deps.Facts.Verify(c.Context(), id)
		if err != nil {
			return errNotFound(c, "fact not found")
		}
		return c.JSON(fact)
	}
}

// ListCategoriesHandler returns all fact categories.
func ListCategoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := deps.Categories.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		window, pg := paginate(c, cats, 100, 200)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: window, Pagination: pg})
	}
}

// GetRewardHandler looks up a contributor reward by redemption code.
func GetRewardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")
		if code == "" {
			return errBadRequest(c, "reward code is required")
		}
		reward, err := deps.Rewards.GetByCode(c.Context(), code)
		if err != nil {
			return errNotFound(c, "reward not found")
		}
		return c.JSON(reward)
	}
}

// ContentStats holds row counts for the content tables.
type ContentStats struct {
	Facts         int    `json:"facts"`
	VerifiedFacts int    `json:"verified_facts"`
	Categories    int    `json:"categories"`
	Rewards       int    `json:"rewards"`
	CachedTiles   int    `json:"cached_tiles"`
	LastSubmitted string `json:"last_submitted,omitempty"`
}

// ContentStatsHandler returns row counts from the content tables plus the
// in-process viewport cache size.
func ContentStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats ContentStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM facts),
				(SELECT count(*) FROM facts WHERE status = 'verified'),
				(SELECT count(*) FROM categories),
				(SELECT count(*) FROM rewards),
				COALESCE((SELECT max(created_at)::text FROM facts), '')
		`)
		if err := row.Scan(&stats.Facts, &stats.VerifiedFacts, &stats.Categories,
			&stats.Rewards, &stats.LastSubmitted); err != nil {
			return errInternal(c, err.Error())
		}

		if deps.Viewports != nil {
			stats.CachedTiles = deps.Viewports.CachedEntries()
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}
