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
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/samirrijal/tactilemap/internal/adapters/desktop"
	"github.com/samirrijal/tactilemap/internal/adapters/http"
	natsadapter "github.com/samirrijal/tactilemap/internal/adapters/nats"
	"github.com/samirrijal/tactilemap/internal/adapters/postgres"
	"github.com/samirrijal/tactilemap/internal/adapters/valkey"
	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
	"github.com/samirrijal/tactilemap/internal/pkg/config"
	"github.com/samirrijal/tactilemap/internal/pkg/logging"
	"github.com/samirrijal/tactilemap/internal/pkg/telemetry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("tactilemap-touchd")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

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

	instanceID := uuid.NewString()
	desktopClient := desktop.NewClient(cfg.Desktop.BaseURL, time.Duration(cfg.Desktop.Timeout)*time.Second)
	var featureProvider ports.FeatureProvider = desktopClient

	deps := &http.Dependencies{
		Sessions: usecases.NewSessionRegistry(),
		Index:    features.NewIndex(),
		Sampler:  raster.NewSampler(),
		Defaults: http.SessionDefaults{
			Bounds: domain.Bounds{
				MinLat: cfg.Feedback.BottomLat,
				MinLon: cfg.Feedback.LeftLon,
				MaxLat: cfg.Feedback.TopLat,
				MaxLon: cfg.Feedback.RightLon,
			},
			ScreenWidth:  cfg.Feedback.ScreenWidth,
			ScreenHeight: cfg.Feedback.ScreenHeight,
		},
	}

	// Database
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)
		deps.DB = db
		if cfg.Datasets.FeaturesSource == config.SourcePostgres {
			featureProvider = postgres.NewFeatureRepo(db, cfg.Database.FeaturesTable)
		}
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// NATS
	var subscriber *natsadapter.Subscriber
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, instanceID)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			deps.Events = pub
			deps.NATS = pub.Conn()
		}
		subscriber, err = natsadapter.NewSubscriber(cfg.NATS.URL, instanceID)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
			subscriber = nil
		} else {
			defer subscriber.Close()
		}
	}

	// Use cases
	settings, err := usecases.NewSettingsService(domain.AudioSettings{
		MinFreq: cfg.Feedback.MinFreq,
		MaxFreq: cfg.Feedback.MaxFreq,
		Volume:  cfg.Feedback.Volume,
	}, cfg.Feedback.Radius)
	if err != nil {
		log.Fatalf("feedback settings: %v", err)
	}
	deps.Settings = settings
	deps.Datasets = usecases.NewDatasetService(featureProvider, desktopClient, cache, cfg.Datasets.CacheTTL, deps.Index, deps.Sampler)

	if cfg.Datasets.LoadOnStart {
		loadCtx, loadCancel := context.WithTimeout(ctx, 2*time.Minute)
		if status, err := deps.Datasets.Reload(loadCtx); err != nil {
			slog.Warn("initial dataset load incomplete", "error", err, "features", status.Features, "raster", status.RasterLoaded)
		}
		loadCancel()
	}

	if subscriber != nil {
		if err := settings.Listen(ctx, subscriber); err != nil {
			slog.Warn("audio settings subscription failed", "error", err)
		}
		if err := deps.Datasets.Watch(ctx, subscriber); err != nil {
			slog.Warn("dataset change subscription failed", "error", err)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Tactile Map",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("touch server starting", "addr", addr, "instance", instanceID)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
