package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the search service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Search metrics
	SearchesTotal       *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
	SearchResultCount   prometheus.Histogram
	ScopeCountDuration  prometheus.Histogram
	SuggestionsTotal    *prometheus.CounterVec

	// Suggestion cache metrics
	SuggestCacheHitsTotal   *prometheus.CounterVec
	SuggestCacheMissesTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Saved search metrics
	SavedSearchOpsTotal      *prometheus.CounterVec
	SavedSearchExecutesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marksearch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marksearch_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marksearch_searches_total",
				Help: "Total number of component searches",
			},
			[]string{"query_type", "status"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marksearch_search_duration_seconds",
				Help:    "End-to-end search duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"query_type"},
		),
		SearchResultCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marksearch_search_result_count",
				Help:    "Total matches per search before pagination",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		ScopeCountDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marksearch_scope_count_duration_seconds",
				Help:    "Per-field scope counting duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25},
			},
		),
		SuggestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marksearch_suggestions_total",
				Help: "Total number of suggestion lookups",
			},
			[]string{"status"},
		),
		SuggestCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marksearch_suggest_cache_hits_total",
				Help: "Total number of suggestion cache hits",
			},
			[]string{"tier"},
		),
		SuggestCacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marksearch_suggest_cache_misses_total",
				Help: "Total number of suggestion cache misses",
			},
			[]string{"tier"},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marksearch_store_operations_total",
				Help: "Total number of component store operations",
			},
			[]string{"operation", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marksearch_store_operation_duration_seconds",
				Help:    "Component store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SavedSearchOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marksearch_saved_search_operations_total",
				Help: "Total number of saved search mutations",
			},
			[]string{"operation", "status"},
		),
		SavedSearchExecutesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "marksearch_saved_search_executes_total",
				Help: "Total number of saved search executions",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marksearch_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marksearch_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SearchesTotal,
		m.SearchDuration,
		m.SearchResultCount,
		m.ScopeCountDuration,
		m.SuggestionsTotal,
		m.SuggestCacheHitsTotal,
		m.SuggestCacheMissesTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.SavedSearchOpsTotal,
		m.SavedSearchExecutesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an http.Handler serving the registry in Prometheus format
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records metrics for a single HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, httpStatusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
