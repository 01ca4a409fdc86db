package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/core/ports"
	"github.com/localelore/localelore/internal/pkg/metrics"
)

// ViewportConfig tunes the viewport cache, coalescer, and prefetcher.
type ViewportConfig struct {
	TTL             time.Duration // entry freshness window
	MaxEntries      int           // cache capacity, oldest-entry eviction
	PrefetchDelay   time.Duration // pause before a neighbor warm fires
	PrefetchMinZoom int           // no prefetching below this zoom
	Now             func() time.Time
}

func (c ViewportConfig) withDefaults() ViewportConfig {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 64
	}
	if c.PrefetchDelay <= 0 {
		c.PrefetchDelay = 150 * time.Millisecond
	}
	if c.PrefetchMinZoom <= 0 {
		c.PrefetchMinZoom = 6
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type cacheEntry struct {
	markers  []domain.FactMarker
	bounds   domain.Bounds
	storedAt time.Time
}

type inflightFetch struct {
	done    chan struct{}
	markers []domain.FactMarker
}

// ViewportService answers "which facts are visible in this viewport" with a
// quantized-key TTL cache, single-flight request coalescing, and best-effort
// warming of the four adjacent tiles after each answer.
//
// The cache map, in-flight map, and prefetch dedup set are all guarded by one
// mutex; fetches themselves run outside the lock.
type ViewportService struct {
	facts ports.FactRepository
	cfg   ViewportConfig

	mu          sync.Mutex
	entries     map[string]*cacheEntry
	inflight    map[string]*inflightFetch
	prefetching map[string]struct{}

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewViewportService creates a ViewportService around the remote fact source.
func NewViewportService(facts ports.FactRepository, cfg ViewportConfig) *ViewportService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ViewportService{
		facts:       facts,
		cfg:         cfg.withDefaults(),
		entries:     make(map[string]*cacheEntry),
		inflight:    make(map[string]*inflightFetch),
		prefetching: make(map[string]struct{}),
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// keyPrecision returns the number of decimal places kept in the cache key.
// Lower zoom means a bigger viewport, so fewer decimals are needed for two
// visually-indistinguishable viewports to collide on the same key.
func keyPrecision(zoom int) int {
	switch {
	case zoom >= 12:
		return 3
	case zoom >= 8:
		return 2
	case zoom >= 4:
		return 1
	default:
		return 0
	}
}

// CacheKey quantizes the bounds to a zoom-dependent precision. Two boxes that
// round identically are deliberately treated as cache-equivalent, which keeps
// the hit rate up during small pans.
func CacheKey(bounds domain.Bounds, zoom int) string {
	p := keyPrecision(zoom)
	return fmt.Sprintf("%.*f:%.*f:%.*f:%.*f:%d",
		p, bounds.North, p, bounds.South, p, bounds.East, p, bounds.West, zoom)
}

// FactsInViewport returns the markers visible in the given viewport. The get
// path never fails: source errors and invalid bounds degrade to an empty set
// (logged), so callers always receive something renderable.
func (s *ViewportService) FactsInViewport(ctx context.Context, bounds domain.Bounds, zoom int) []domain.FactMarker {
	if err := bounds.Validate(); err != nil {
		slog.Warn("viewport rejected", "error", err)
		return []domain.FactMarker{}
	}
	return s.get(ctx, bounds, zoom, true)
}

// get implements the cache/coalesce/fetch pipeline. Prefetch warms reuse it
// with prefetch=false so a warm cannot fan out into further warms.
func (s *ViewportService) get(ctx context.Context, bounds domain.Bounds, zoom int, prefetch bool) []domain.FactMarker {
	key := CacheKey(bounds, zoom)

	s.mu.Lock()
	if e, ok := s.entries[key]; ok && s.cfg.Now().Sub(e.storedAt) < s.cfg.TTL {
		markers := e.markers
		s.mu.Unlock()
		metrics.ViewportCacheHits.Inc()
		if prefetch {
			s.schedulePrefetch(bounds, zoom)
		}
		return markers
	}

	if f, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		metrics.ViewportCoalesced.Inc()
		select {
		case <-f.done:
			return f.markers
		case <-ctx.Done():
			return []domain.FactMarker{}
		}
	}

	f := &inflightFetch{done: make(chan struct{})}
	s.inflight[key] = f
	s.mu.Unlock()
	metrics.ViewportCacheMisses.Inc()

	facts, err := s.facts.FindInViewport(ctx, bounds, zoom)

	markers := make([]domain.FactMarker, 0, len(facts))
	if err != nil {
		// Degrade to an empty result; clearing the in-flight marker below
		// lets the next call retry.
		slog.Warn("viewport fetch failed", "key", key, "error", err)
	} else {
		for _, fact := range facts {
			markers = append(markers, fact.Marker())
		}
	}

	s.mu.Lock()
	if err == nil {
		s.storeLocked(key, markers, bounds)
	}
	delete(s.inflight, key)
	s.mu.Unlock()

	f.markers = markers
	close(f.done)

	if err == nil && prefetch {
		s.schedulePrefetch(bounds, zoom)
	}
	return markers
}

// storeLocked inserts an entry, evicting the oldest one when at capacity.
// Caller holds s.mu.
func (s *ViewportService) storeLocked(key string, markers []domain.FactMarker, bounds domain.Bounds) {
	if len(s.entries) >= s.cfg.MaxEntries {
		oldestKey := ""
		oldest := time.Time{}
		for k, e := range s.entries {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey = k
				oldest = e.storedAt
			}
		}
		if oldestKey != "" {
			delete(s.entries, oldestKey)
		}
	}
	s.entries[key] = &cacheEntry{markers: markers, bounds: bounds, storedAt: s.cfg.Now()}
}

// schedulePrefetch queues best-effort warms for the four neighboring tiles.
// Each warm is tracked, delayed, deduplicated, and cancelled by Close; warms
// never block the foreground caller.
func (s *ViewportService) schedulePrefetch(bounds domain.Bounds, zoom int) {
	if zoom < s.cfg.PrefetchMinZoom {
		return
	}
	for _, nb := range bounds.Neighbors() {
		if nb.Validate() != nil {
			continue
		}
		key := CacheKey(nb, zoom)

		s.mu.Lock()
		_, queued := s.prefetching[key]
		_, pending := s.inflight[key]
		e, cached := s.entries[key]
		fresh := cached && s.cfg.Now().Sub(e.storedAt) < s.cfg.TTL
		if queued || pending || fresh {
			s.mu.Unlock()
			continue
		}
		s.prefetching[key] = struct{}{}
		s.mu.Unlock()

		metrics.ViewportPrefetchScheduled.Inc()
		s.wg.Add(1)
		go func(nb domain.Bounds, key string) {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.prefetching, key)
				s.mu.Unlock()
			}()

			select {
			case <-time.After(s.cfg.PrefetchDelay):
			case <-s.baseCtx.Done():
				return
			}
			s.get(s.baseCtx, nb, zoom, false)
			metrics.ViewportPrefetchCompleted.Inc()
		}(nb, key)
	}
}

// CachedEntries returns the current number of cache entries (for readiness
// and debug surfaces).
func (s *ViewportService) CachedEntries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Invalidate drops every cache entry whose viewport contains the given
// coordinate. Called when a fact inside that area changes.
func (s *ViewportService) Invalidate(lat, lng float64) int {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.bounds.Contains(lat, lng) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Close cancels scheduled prefetches and waits for in-flight warms to drain.
func (s *ViewportService) Close() {
	s.cancel()
	s.wg.Wait()
}
