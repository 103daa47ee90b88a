// Package monitoring provides the Prometheus metrics, OpenTelemetry tracing
// and log correlation of the planner.
package monitoring

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/application/planning"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/shared"
)

const namespace = "dietcompass"

// MetricsCollector handles Prometheus metrics collection. Every collector is
// registered on its own registry so several collectors can coexist in one
// process.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	reconcileTotal    *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	warningsTotal     *prometheus.CounterVec
	resolutionsTotal  *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		reconcileTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_total",
				Help:      "Reconciliation passes by merge mode and result",
			},
			[]string{"mode", "result"},
		),
		reconcileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_duration_seconds",
				Help:      "Reconciliation pass duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"mode"},
		),
		warningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_warnings_total",
				Help:      "Warnings recorded by reconciliation passes",
			},
			[]string{"code"},
		),
		resolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recipe_resolutions_total",
				Help:      "Recipe references resolved by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveReconcile records one reconciliation pass
func (m *MetricsCollector) ObserveReconcile(mode mealplan.MergeMode, result string, duration time.Duration) {
	m.reconcileTotal.WithLabelValues(string(mode), result).Inc()
	m.reconcileDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
}

// ObserveWarnings counts warnings by code
func (m *MetricsCollector) ObserveWarnings(warnings shared.Warnings) {
	for _, w := range warnings {
		m.warningsTotal.WithLabelValues(string(w.Code)).Inc()
	}
}

// ObserveResolution records how recipe references were resolved
func (m *MetricsCollector) ObserveResolution(hits, misses, minted int) {
	m.resolutionsTotal.WithLabelValues("catalog_hit").Add(float64(hits))
	m.resolutionsTotal.WithLabelValues("catalog_miss").Add(float64(misses))
	m.resolutionsTotal.WithLabelValues("minted").Add(float64(minted))
}

// RegisterDB exposes the connection pool statistics of a SQL backend
func (m *MetricsCollector) RegisterDB(db *sql.DB, name string) {
	if err := m.registry.Register(collectors.NewDBStatsCollector(db, name)); err != nil {
		m.logger.Warn("Failed to register database stats", zap.String("db", name), zap.Error(err))
	}
}

// HTTPMiddleware records request counts and durations by route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ planning.Metrics = (*MetricsCollector)(nil)
