package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/localelore/localelore/internal/adapters/http"
	natsadapter "github.com/localelore/localelore/internal/adapters/nats"
	"github.com/localelore/localelore/internal/adapters/postgres"
	"github.com/localelore/localelore/internal/adapters/valkey"
	"github.com/localelore/localelore/internal/core/ports"
	"github.com/localelore/localelore/internal/core/usecases"
	"github.com/localelore/localelore/internal/offload"
	"github.com/localelore/localelore/internal/pkg/config"
	"github.com/localelore/localelore/internal/pkg/logging"
	"github.com/localelore/localelore/internal/pkg/metrics"
	"github.com/localelore/localelore/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("localelore-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		pub = nil
	} else {
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	factRepo := postgres.NewFactRepo(db)
	categoryRepo := postgres.NewCategoryRepo(db)
	rewardRepo := postgres.NewRewardRepo(db)

	// Viewport pipeline
	viewportSvc := usecases.NewViewportService(factRepo, usecases.ViewportConfig{
		TTL:             time.Duration(cfg.Geo.CacheTTLSeconds) * time.Second,
		MaxEntries:      cfg.Geo.CacheMaxEntries,
		PrefetchDelay:   time.Duration(cfg.Geo.PrefetchDelayMs) * time.Millisecond,
		PrefetchMinZoom: cfg.Geo.PrefetchMinZoom,
	})
	defer viewportSvc.Close()

	// Clustering offload worker
	offloader := offload.New(cfg.Geo.OffloadEnabled, cfg.Geo.OffloadQueueSize)
	defer offloader.Close()

	// Use cases. Guard against typed-nil interface values for optional deps.
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	var events ports.EventPublisher
	if pub != nil {
		events = pub
	}
	factSvc := usecases.NewFactService(factRepo, cacheSvc, events, viewportSvc)
	categorySvc := usecases.NewCategoryService(categoryRepo, cacheSvc)
	rewardSvc := usecases.NewRewardService(rewardRepo, factRepo)

	deps := &http.Dependencies{
		Viewports:      viewportSvc,
		Facts:          factSvc,
		Categories:     categorySvc,
		Rewards:        rewardSvc,
		Offload:        offloader,
		GreedyRadiusPx: float64(cfg.Geo.GreedyRadiusPx),
		NATS:           natsConn,
		DB:             db,
		Cache:          cache,
	}

	// Periodic DB pool gauge refresh
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "LocaleLore API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.localelore.app",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
