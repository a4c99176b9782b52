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
		Namespace: "tactilemap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tactilemap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Touch pipeline
	TouchSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tactilemap",
		Subsystem: "touch",
		Name:      "samples_total",
		Help:      "Touch start/move events sampled for spatial feedback",
	})

	Gestures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tactilemap",
		Subsystem: "touch",
		Name:      "gestures_total",
		Help:      "Recognised gestures by kind",
	}, []string{"kind"})

	Announcements = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tactilemap",
		Subsystem: "touch",
		Name:      "announcements_total",
		Help:      "Non-empty utterances sent to speech sinks",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tactilemap",
		Subsystem: "ws",
		Name:      "active_sessions",
		Help:      "Current number of connected touch sessions",
	})

	// Datasets
	DatasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tactilemap",
		Subsystem: "dataset",
		Name:      "loads_total",
		Help:      "Dataset load attempts by kind and result",
	}, []string{"kind", "result"})

	DatasetLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tactilemap",
		Subsystem: "dataset",
		Name:      "load_duration_seconds",
		Help:      "Duration of a dataset fetch and parse",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tactilemap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tactilemap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tactilemap",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tactilemap",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tactilemap",
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

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().StatusCode())).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// ObserveDatasetLoad records one dataset load attempt.
func ObserveDatasetLoad(kind string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	DatasetLoads.WithLabelValues(kind, result).Inc()
	DatasetLoadDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// UpdateDBPoolMetrics updates pool gauges from a pgxpool.Stat without
// importing pgxpool here.
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
