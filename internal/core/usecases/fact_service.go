package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/core/ports"
	"github.com/localelore/localelore/internal/pkg/geospatial"
)

// FactService handles the fact submission/voting/verification lifecycle.
// Reads go through a Valkey cache-aside layer; writes publish lifecycle
// events and invalidate the in-process viewport cache around the fact.
type FactService struct {
	facts     ports.FactRepository
	cache     ports.CacheService
	events    ports.EventPublisher
	viewports *ViewportService
}

// NewFactService creates a new FactService. cache, events, and viewports may
// be nil; the service degrades to direct repository access.
func NewFactService(facts ports.FactRepository, cache ports.CacheService, events ports.EventPublisher, viewports *ViewportService) *FactService {
	return &FactService{facts: facts, cache: cache, events: events, viewports: viewports}
}

// Submit stores a new pending fact and announces it.
func (s *FactService) Submit(ctx context.Context, fact *domain.Fact) (*domain.Fact, error) {
	if fact.Title == "" {
		return nil, fmt.Errorf("fact title must not be empty")
	}
	if err := (domain.Bounds{North: fact.Latitude, South: fact.Latitude, East: fact.Longitude, West: fact.Longitude}).Validate(); err != nil {
		return nil, fmt.Errorf("fact coordinates: %w", err)
	}

	fact.Status = domain.FactStatusPending
	if err := s.facts.Insert(ctx, fact); err != nil {
		return nil, fmt.Errorf("insert fact: %w", err)
	}

	s.publish(ctx, "submitted", fact, "")
	s.invalidateAround(fact)
	return fact, nil
}

// GetByID returns a single fact, cache-aside for 10 minutes.
func (s *FactService) GetByID(ctx context.Context, id string) (*domain.Fact, error) {
	cacheKey := "facts:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var fact domain.Fact
			if err := json.Unmarshal(data, &fact); err == nil {
				return &fact, nil
			}
		}
	}

	fact, err := s.facts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(fact); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}
	return fact, nil
}

// Vote applies an up/down vote and returns the updated fact.
func (s *FactService) Vote(ctx context.Context, id, direction string) (*domain.Fact, error) {
	if direction != domain.VoteUp && direction != domain.VoteDown {
		return nil, fmt.Errorf("vote direction must be %q or %q", domain.VoteUp, domain.VoteDown)
	}

	fact, err := s.facts.Vote(ctx, id, direction)
	if err != nil {
		return nil, fmt.Errorf("vote: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "facts:id:"+id)
	}
	s.publish(ctx, "voted", fact, direction)
	s.invalidateAround(fact)
	return fact, nil
}

// Verify promotes a fact to verified status and announces it, which triggers
// the contributor reward workflow downstream.
func (s *FactService) Verify(ctx context.Context, id string) (*domain.Fact, error) {
	fact, err := s.facts.SetStatus(ctx, id, domain.FactStatusVerified)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "facts:id:"+id)
	}
	s.publish(ctx, "verified", fact, "")
	s.invalidateAround(fact)
	return fact, nil
}

// Trending returns the highest-scored facts, cache-aside for one minute.
func (s *FactService) Trending(ctx context.Context, limit int) ([]domain.Fact, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("facts:trending:%d", limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var facts []domain.Fact
			if err := json.Unmarshal(data, &facts); err == nil {
				return facts, nil
			}
		}
	}

	facts, err := s.facts.Trending(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(facts); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}
	return facts, nil
}

// nearbyFetchZoom selects the repository's densest row limit tier for the
// coarse bounding-box pass.
const nearbyFetchZoom = 13

// NearbyFact is a fact annotated with its distance from a query point.
type NearbyFact struct {
	domain.Fact
	DistanceM float64 `json:"distance_m"`
}

// Nearby returns facts within radiusMeters of a point, closest first. The
// repository does a coarse bounding-box pass and the exact great-circle
// distance trims the corners.
func (s *FactService) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]NearbyFact, error) {
	if radiusMeters <= 0 || radiusMeters > 50_000 {
		return nil, fmt.Errorf("radius must be between 1 and 50000 meters")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(lat, lng, radiusMeters)
	bounds := domain.Bounds{North: maxLat, South: minLat, East: maxLng, West: minLng}
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("nearby bounds: %w", err)
	}

	facts, err := s.facts.FindInViewport(ctx, bounds, nearbyFetchZoom)
	if err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}

	nearby := make([]NearbyFact, 0, len(facts))
	for _, f := range facts {
		d := geospatial.Haversine(lat, lng, f.Latitude, f.Longitude)
		if d > radiusMeters {
			continue
		}
		nearby = append(nearby, NearbyFact{Fact: f, DistanceM: d})
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceM < nearby[j].DistanceM })
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// publish sends a lifecycle event, best-effort.
func (s *FactService) publish(ctx context.Context, eventType string, fact *domain.Fact, direction string) {
	if s.events == nil {
		return
	}
	event := &domain.FactEvent{
		Type:      eventType,
		FactID:    fact.ID,
		Category:  fact.CategoryID,
		AuthorID:  fact.AuthorID,
		Direction: direction,
		VoteScore: fact.VoteCountUp - fact.VoteCountDown,
		Latitude:  fact.Latitude,
		Longitude: fact.Longitude,
		At:        time.Now(),
	}

	var err error
	switch eventType {
	case "submitted":
		err = s.events.PublishFactSubmitted(ctx, event)
	case "voted":
		err = s.events.PublishFactVoted(ctx, event)
	case "verified":
		err = s.events.PublishFactVerified(ctx, event)
	}
	if err != nil {
		slog.Warn("publish fact event failed", "type", eventType, "fact_id", fact.ID, "error", err)
	}
}

func (s *FactService) invalidateAround(fact *domain.Fact) {
	if s.viewports != nil {
		s.viewports.Invalidate(fact.Latitude, fact.Longitude)
	}
}
