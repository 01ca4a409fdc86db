package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "localelore",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "localelore",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Viewport pipeline metrics
	ViewportCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "viewport",
		Name:      "cache_hits_total",
		Help:      "Viewport cache hits",
	})

	ViewportCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "viewport",
		Name:      "cache_misses_total",
		Help:      "Viewport cache misses that issued a fetch",
	})

	ViewportCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "viewport",
		Name:      "coalesced_requests_total",
		Help:      "Viewport requests that joined an in-flight fetch",
	})

	ViewportPrefetchScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "viewport",
		Name:      "prefetch_scheduled_total",
		Help:      "Adjacent-tile prefetch warms scheduled",
	})

	ViewportPrefetchCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "viewport",
		Name:      "prefetch_completed_total",
		Help:      "Adjacent-tile prefetch warms completed",
	})

	// Offload channel metrics
	OffloadTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "offload",
		Name:      "tasks_total",
		Help:      "Offloadable transforms executed, by task type and execution path",
	}, []string{"type", "path"})

	// Valkey cache metrics
	CacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Valkey operations, by operation and outcome",
	}, []string{"op", "outcome"})

	// Content metrics
	FactsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "facts",
		Name:      "ingested_total",
		Help:      "Total facts loaded by the seeder",
	}, []string{"source"})

	FactEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localelore",
		Subsystem: "facts",
		Name:      "events_published_total",
		Help:      "Total fact lifecycle events published",
	}, []string{"type"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "localelore",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "localelore",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "localelore",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "localelore",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from pgx pool stats.
// Accepts the stat through a narrow interface so this package stays free of
// a pgxpool import.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
