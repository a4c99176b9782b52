package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
)

// Prefetcher caches provider payloads without installing them.
type Prefetcher interface {
	Prefetch(ctx context.Context) (usecases.PrefetchResult, error)
}

// PreloadActivities holds the activity implementations for the preload workflow.
type PreloadActivities struct {
	Datasets Prefetcher
	Events   ports.EventPublisher // optional
}

// PrefetchDatasets pulls both datasets into the cache.
func (a *PreloadActivities) PrefetchDatasets(ctx context.Context) (usecases.PrefetchResult, error) {
	res, err := a.Datasets.Prefetch(ctx)
	if err != nil {
		return res, fmt.Errorf("prefetch datasets: %w", err)
	}
	slog.Info("datasets prefetched", "bytes", res.Bytes, "digest", res.Digest)
	return res, nil
}

// NotifyDatasetChanged tells touch servers to reload.
func (a *PreloadActivities) NotifyDatasetChanged(ctx context.Context, digest string) error {
	if a.Events == nil {
		slog.Info("dataset changed (no publisher)", "digest", digest)
		return nil
	}
	return a.Events.PublishDatasetChanged(ctx, "preloader")
}
