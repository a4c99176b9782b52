package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/tactilemap/internal/adapters/desktop"
	natsadapter "github.com/samirrijal/tactilemap/internal/adapters/nats"
	"github.com/samirrijal/tactilemap/internal/adapters/postgres"
	"github.com/samirrijal/tactilemap/internal/adapters/valkey"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
	"github.com/samirrijal/tactilemap/internal/pkg/config"
	"github.com/samirrijal/tactilemap/internal/pkg/logging"
	"github.com/samirrijal/tactilemap/internal/workflows"
)

const preloadWorkflowID = "tactilemap-dataset-preload"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("tactilemap-preloader")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	if !cfg.Valkey.Enabled {
		log.Fatal("preloader requires valkey.enabled")
	}
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	desktopClient := desktop.NewClient(cfg.Desktop.BaseURL, time.Duration(cfg.Desktop.Timeout)*time.Second)
	var featureProvider ports.FeatureProvider = desktopClient
	if cfg.Datasets.FeaturesSource == config.SourcePostgres {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		featureProvider = postgres.NewFeatureRepo(db, cfg.Database.FeaturesTable)
	}

	// Prefetch never installs, so the index and sampler stay empty.
	datasets := usecases.NewDatasetService(featureProvider, desktopClient, cache, cfg.Datasets.CacheTTL,
		features.NewIndex(), raster.NewSampler())

	acts := &workflows.PreloadActivities{Datasets: datasets}
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, "preloader-"+uuid.NewString())
		if err != nil {
			slog.Warn("nats unavailable, change notices disabled", "error", err)
		} else {
			defer pub.Close()
			acts.Events = pub
		}
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.DatasetPreloadWorkflow)
	w.RegisterActivity(acts)

	// Returns the existing run if the workflow is already going.
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        preloadWorkflowID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.DatasetPreloadWorkflow, workflows.PreloadInput{
		Interval: time.Duration(cfg.Temporal.PreloadInterval) * time.Second,
	})
	if err != nil {
		log.Fatalf("start preload workflow: %v", err)
	}
	slog.Info("preload workflow running", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	slog.Info("preloader worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
