package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/pkg/metrics"
	"github.com/samirrijal/tactilemap/internal/pkg/telemetry"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load of the same kind started after it.
var ErrSuperseded = errors.New("dataset load superseded")

// Cache keys for raw provider payloads.
const (
	CacheKeyFeatures   = "dataset:features"
	CacheKeyRasterMeta = "dataset:raster:meta"
	CacheKeyRasterData = "dataset:raster:data"
)

// DatasetStatus summarises what is currently loaded.
type DatasetStatus struct {
	Features          int       `json:"features"`
	FeatureGeneration uint64    `json:"feature_generation"`
	RasterLoaded      bool      `json:"raster_loaded"`
	RasterWidth       int       `json:"raster_width,omitempty"`
	RasterHeight      int       `json:"raster_height,omitempty"`
	RasterMin         float64   `json:"raster_min,omitempty"`
	RasterMax         float64   `json:"raster_max,omitempty"`
	LoadedAt          time.Time `json:"loaded_at,omitempty"`
}

// DatasetService fetches vector and raster datasets and swaps them into
// the shared index and sampler. The latest started load of each kind wins;
// a failed load leaves the previous dataset in place. Raw payloads are
// written through to the cache and read back when a provider fails.
type DatasetService struct {
	features ports.FeatureProvider
	rasters  ports.RasterProvider
	cache    ports.CacheService
	cacheTTL int
	index    *features.Index
	sampler  *raster.Sampler

	featureSeq atomic.Uint64
	rasterSeq  atomic.Uint64
	featureMu  sync.Mutex
	rasterMu   sync.Mutex
	loadedAt   atomic.Pointer[time.Time]
}

// NewDatasetService creates a DatasetService. cache may be nil.
func NewDatasetService(
	fp ports.FeatureProvider,
	rp ports.RasterProvider,
	cache ports.CacheService,
	cacheTTLSeconds int,
	index *features.Index,
	sampler *raster.Sampler,
) *DatasetService {
	return &DatasetService{
		features: fp,
		rasters:  rp,
		cache:    cache,
		cacheTTL: cacheTTLSeconds,
		index:    index,
		sampler:  sampler,
	}
}

// Reload loads both datasets. Both are attempted even if one fails.
func (s *DatasetService) Reload(ctx context.Context) (DatasetStatus, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDatasetLoad)
	defer span.End()

	err := errors.Join(s.LoadFeatures(ctx), s.LoadRaster(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return s.Status(), err
}

// LoadFeatures fetches, validates and installs the vector dataset.
func (s *DatasetService) LoadFeatures(ctx context.Context) (err error) {
	if s.features == nil {
		return nil
	}
	token := s.featureSeq.Add(1)
	started := time.Now()
	defer func() { metrics.ObserveDatasetLoad("features", started, err) }()

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanFeatureFetch)
	defer span.End()

	data, fresh, err := s.fetchFeatures(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("fetch features: %w", err)
	}
	fs, err := features.ParseFeatureCollection(data)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load features: %w", err)
	}
	if fresh && s.cache != nil {
		if cerr := s.cache.Set(ctx, CacheKeyFeatures, data, s.cacheTTL); cerr != nil {
			slog.Warn("cache features failed", "error", cerr)
		}
	}

	s.featureMu.Lock()
	defer s.featureMu.Unlock()
	if s.featureSeq.Load() != token {
		return ErrSuperseded
	}
	s.index.Load(fs)
	s.touch()
	span.SetAttributes(attribute.Int("features", len(fs)))
	slog.Info("feature dataset loaded", "features", len(fs), "generation", s.index.Generation())
	return nil
}

// LoadRaster fetches, decodes and installs the raster dataset.
func (s *DatasetService) LoadRaster(ctx context.Context) (err error) {
	if s.rasters == nil {
		return nil
	}
	token := s.rasterSeq.Add(1)
	started := time.Now()
	defer func() { metrics.ObserveDatasetLoad("raster", started, err) }()

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRasterFetch)
	defer span.End()

	meta, data, fresh, err := s.fetchRaster(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("fetch raster: %w", err)
	}
	grid, err := buildGrid(meta, data)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("load raster: %w", err)
	}
	if fresh && s.cache != nil {
		if _, cerr := s.cacheRaster(ctx, meta, data); cerr != nil {
			slog.Warn("cache raster failed", "error", cerr)
		}
	}

	s.rasterMu.Lock()
	defer s.rasterMu.Unlock()
	if s.rasterSeq.Load() != token {
		return ErrSuperseded
	}
	s.sampler.Load(grid)
	s.touch()
	span.SetAttributes(attribute.Int("width", grid.Width), attribute.Int("height", grid.Height))
	slog.Info("raster dataset loaded", "width", grid.Width, "height", grid.Height, "min", grid.Min, "max", grid.Max)
	return nil
}

// PrefetchResult describes the payloads a prefetch cached. Digest changes
// whenever either payload changes.
type PrefetchResult struct {
	Bytes  int    `json:"bytes"`
	Digest string `json:"digest"`
}

// Prefetch pulls both payloads from the providers into the cache without
// installing them.
func (s *DatasetService) Prefetch(ctx context.Context) (PrefetchResult, error) {
	var res PrefetchResult
	if s.cache == nil {
		return res, errors.New("prefetch requires a cache")
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDatasetPrefetch)
	defer span.End()

	h := xxhash.New()
	if s.features != nil {
		data, err := s.features.FetchFeatures(ctx)
		if err != nil {
			return res, fmt.Errorf("prefetch features: %w", err)
		}
		if _, err := features.ParseFeatureCollection(data); err != nil {
			return res, fmt.Errorf("prefetch features: %w", err)
		}
		if err := s.cache.Set(ctx, CacheKeyFeatures, data, s.cacheTTL); err != nil {
			return res, fmt.Errorf("cache features: %w", err)
		}
		_, _ = h.Write(data)
		res.Bytes += len(data)
	}
	if s.rasters != nil {
		meta, data, err := s.fetchRasterFromProvider(ctx)
		if err != nil {
			return res, fmt.Errorf("prefetch raster: %w", err)
		}
		if _, err := buildGrid(meta, data); err != nil {
			return res, fmt.Errorf("prefetch raster: %w", err)
		}
		n, err := s.cacheRaster(ctx, meta, data)
		if err != nil {
			return res, fmt.Errorf("cache raster: %w", err)
		}
		metaJSON, _ := json.Marshal(meta)
		_, _ = h.Write(metaJSON)
		_, _ = h.Write(data)
		res.Bytes += n
	}
	res.Digest = strconv.FormatUint(h.Sum64(), 16)
	span.SetAttributes(attribute.Int("bytes", res.Bytes))
	return res, nil
}

// Status reports the loaded datasets.
func (s *DatasetService) Status() DatasetStatus {
	st := DatasetStatus{
		Features:          s.index.Len(),
		FeatureGeneration: s.index.Generation(),
	}
	if g := s.sampler.Grid(); g != nil {
		st.RasterLoaded = true
		st.RasterWidth, st.RasterHeight = g.Width, g.Height
		st.RasterMin, st.RasterMax = g.Min, g.Max
	}
	if t := s.loadedAt.Load(); t != nil {
		st.LoadedAt = *t
	}
	return st
}

// Watch reloads datasets whenever a change notice arrives on sub.
func (s *DatasetService) Watch(ctx context.Context, sub ports.EventSubscriber) error {
	return sub.SubscribeDatasetChanged(ctx, func(ctx context.Context, source string) error {
		slog.Info("dataset change notice", "source", source)
		_, err := s.Reload(ctx)
		if errors.Is(err, ErrSuperseded) {
			return nil
		}
		return err
	})
}

func (s *DatasetService) touch() {
	now := time.Now()
	s.loadedAt.Store(&now)
}

// fetchFeatures returns the provider payload, or the cached one when the
// provider fails. fresh reports whether data came from the provider.
func (s *DatasetService) fetchFeatures(ctx context.Context) (data []byte, fresh bool, err error) {
	data, err = s.features.FetchFeatures(ctx)
	if err == nil {
		return data, true, nil
	}
	if s.cache == nil {
		return nil, false, err
	}
	cached, cerr := s.cache.Get(ctx, CacheKeyFeatures)
	if cerr != nil {
		metrics.CacheMisses.WithLabelValues("features").Inc()
		return nil, false, err
	}
	metrics.CacheHits.WithLabelValues("features").Inc()
	slog.Warn("feature provider unavailable, using cached payload", "error", err)
	return cached, false, nil
}

func (s *DatasetService) fetchRaster(ctx context.Context) (domain.RasterMeta, []byte, bool, error) {
	meta, data, err := s.fetchRasterFromProvider(ctx)
	if err == nil {
		return meta, data, true, nil
	}
	if s.cache == nil {
		return domain.RasterMeta{}, nil, false, err
	}

	metaJSON, merr := s.cache.Get(ctx, CacheKeyRasterMeta)
	cached, derr := s.cache.Get(ctx, CacheKeyRasterData)
	if merr != nil || derr != nil {
		metrics.CacheMisses.WithLabelValues("raster").Inc()
		return domain.RasterMeta{}, nil, false, err
	}
	var cachedMeta domain.RasterMeta
	if jerr := json.Unmarshal(metaJSON, &cachedMeta); jerr != nil {
		metrics.CacheMisses.WithLabelValues("raster").Inc()
		return domain.RasterMeta{}, nil, false, err
	}
	metrics.CacheHits.WithLabelValues("raster").Inc()
	slog.Warn("raster provider unavailable, using cached payload", "error", err)
	return cachedMeta, cached, false, nil
}

func (s *DatasetService) fetchRasterFromProvider(ctx context.Context) (domain.RasterMeta, []byte, error) {
	meta, err := s.rasters.FetchRasterMeta(ctx)
	if err != nil {
		return domain.RasterMeta{}, nil, err
	}
	data, err := s.rasters.FetchRasterData(ctx)
	if err != nil {
		return domain.RasterMeta{}, nil, err
	}
	return meta, data, nil
}

func buildGrid(meta domain.RasterMeta, data []byte) (*domain.RasterGrid, error) {
	values, err := raster.DecodeValues(data)
	if err != nil {
		return nil, err
	}
	return raster.NewGrid(meta, values)
}

func (s *DatasetService) cacheRaster(ctx context.Context, meta domain.RasterMeta, data []byte) (int, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, CacheKeyRasterMeta, metaJSON, s.cacheTTL); err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, CacheKeyRasterData, data, s.cacheTTL); err != nil {
		return 0, err
	}
	return len(metaJSON) + len(data), nil
}
