// Package metrics holds the prometheus collectors of the image pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spanduck",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spanduck",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// Cache lookups, result is hit or miss
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spanduck",
			Subsystem: "pipeline",
			Name:      "cache_lookups_total",
			Help:      "Metadata and artifact cache lookups",
		},
		[]string{"cache", "result"},
	)

	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spanduck",
			Subsystem: "pipeline",
			Name:      "resolutions_total",
			Help:      "Upstream metadata resolutions",
		},
		[]string{"source", "status"},
	)

	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spanduck",
			Subsystem: "pipeline",
			Name:      "renders_total",
			Help:      "Template renders",
		},
		[]string{"status"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "spanduck",
			Subsystem: "pipeline",
			Name:      "render_duration_seconds",
			Help:      "Time spent compiling and rasterizing templates",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spanduck",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Artifact store operations",
		},
		[]string{"operation", "status"},
	)
)

// RecordRequest records an HTTP request.
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// RecordResolution records an upstream resolution for a source kind.
func RecordResolution(source string, err error) {
	ResolutionsTotal.WithLabelValues(source, status(err)).Inc()
}

// RecordRender records one render and its duration.
func RecordRender(err error, durationSec float64) {
	RendersTotal.WithLabelValues(status(err)).Inc()
	RenderDuration.Observe(durationSec)
}

// RecordStoreOperation records an artifact store call.
func RecordStoreOperation(operation string, err error) {
	StoreOperationsTotal.WithLabelValues(operation, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
