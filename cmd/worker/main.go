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

	natsadapter "github.com/samirrijal/geoscatter/internal/adapters/nats"
	"github.com/samirrijal/geoscatter/internal/adapters/valkey"
	"github.com/samirrijal/geoscatter/internal/app"
	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/usecases"
	"github.com/samirrijal/geoscatter/internal/pkg/config"
	"github.com/samirrijal/geoscatter/internal/pkg/logging"
	"github.com/samirrijal/geoscatter/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load("geoscatter-worker")
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

	// The worker stores results, so the cache is required here.
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	jobs := usecases.NewJobService(maps, cache, pub, cfg.Valkey.TTL)

	err = sub.SubscribeJobs(ctx, func(ctx context.Context, job *domain.RenderJob) error {
		return jobs.Process(ctx, job)
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	slog.Info("worker consuming render jobs", "subject", natsadapter.JobsSubject+".>", "durable", natsadapter.DurableName)

	// Metrics and liveness
	mon := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "GeoScatter worker"})
	mon.Get("/metrics", metrics.Handler())
	mon.Get("/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("worker monitoring listening", "addr", addr)
		if err := mon.Listen(addr); err != nil {
			slog.Error("monitoring listener stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining subscription...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := mon.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("worker stopped")
}
