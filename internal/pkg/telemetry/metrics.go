package telemetry

// Span and SLI names used for instrumentation.
const (
	TracerName = "github.com/samirrijal/tactilemap"

	SpanDatasetLoad     = "dataset.load"
	SpanFeatureFetch    = "dataset.features.fetch"
	SpanRasterFetch     = "dataset.raster.fetch"
	SpanDatasetPrefetch = "dataset.prefetch"

	// Latency
	MetricTouchLatencyP95 = "touch.sample_latency.p95"

	// Data freshness
	MetricDatasetAge = "dataset.age_seconds"
)
