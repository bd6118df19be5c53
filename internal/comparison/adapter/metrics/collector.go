package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the service. Each collector owns
// its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	CacheLookups   *prometheus.CounterVec
	Fetches        *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	Comparisons    *prometheus.CounterVec
	CompareLatency *prometheus.HistogramVec
	Sessions       prometheus.Gauge
}

var _ repository.MetricsRecorder = (*Collector)(nil)

// NewCollector creates and registers all metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_lookups_total",
			Help:      "Snapshot cache lookups by entity and result",
		}, []string{"entity", "result"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "Metadata fetches issued to portals by outcome",
		}, []string{"operation", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Duration of metadata fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Comparisons served by kind and outcome",
		}, []string{"kind", "outcome"}),
		CompareLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_duration_seconds",
			Help:      "End to end comparison duration in seconds, fetches included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live comparison sessions",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheLookups,
		c.Fetches,
		c.FetchDuration,
		c.Comparisons,
		c.CompareLatency,
		c.Sessions,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// CacheLookup counts a cache hit or miss.
func (c *Collector) CacheLookup(entity string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(entity, result).Inc()
}

// FetchCompleted records one upstream fetch.
func (c *Collector) FetchCompleted(operation string, d time.Duration, err error) {
	c.Fetches.WithLabelValues(operation, outcome(err)).Inc()
	c.FetchDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ComparisonCompleted records one engine operation.
func (c *Collector) ComparisonCompleted(kind string, d time.Duration, err error) {
	c.Comparisons.WithLabelValues(kind, outcome(err)).Inc()
	c.CompareLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// SessionsActive sets the live session gauge.
func (c *Collector) SessionsActive(n int) {
	c.Sessions.Set(float64(n))
}

// HTTPRequest records one served request.
func (c *Collector) HTTPRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrUpstreamAuth):
		return "auth_error"
	case errors.Is(err, model.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, model.ErrUpstreamNotFound), errors.Is(err, model.ErrInvalidReference):
		return "not_found"
	case errors.Is(err, model.ErrTransport):
		return "transport_error"
	case errors.Is(err, model.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, model.ErrUnmappedCustomObject):
		return "unmapped"
	default:
		return "error"
	}
}
