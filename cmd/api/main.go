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
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geoscatter/internal/adapters/http"
	natsadapter "github.com/samirrijal/geoscatter/internal/adapters/nats"
	"github.com/samirrijal/geoscatter/internal/adapters/valkey"
	"github.com/samirrijal/geoscatter/internal/app"
	"github.com/samirrijal/geoscatter/internal/core/ports"
	"github.com/samirrijal/geoscatter/internal/core/usecases"
	"github.com/samirrijal/geoscatter/internal/pkg/config"
	"github.com/samirrijal/geoscatter/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("geoscatter-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry := app.InitTelemetry(ctx, cfg.Telemetry)
	defer shutdownTelemetry()

	maps, err := app.NewMapService(cfg)
	if err != nil {
		log.Fatalf("tile renderer: %v", err)
	}

	deps := &http.Dependencies{TileProvider: app.ProviderName(cfg.Tiles)}

	// Cache: figure cache and job results
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, rendering without cache", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS: job queue
	var publisher ports.JobPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, async jobs disabled", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
		deps.NATS = nc
	}

	deps.Jobs = usecases.NewJobService(maps, cache, publisher, cfg.Valkey.TTL)

	srv := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "GeoScatter API",
	})
	srv.Use(recover.New())
	srv.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders:    "Location, ETag, Retry-After, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(srv, deps, http.Options{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:      cfg.Server.RateLimit,
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "tiles", deps.TileProvider)
		if err := srv.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight renders up to the request timeout to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
