// Package metrics exposes Prometheus metrics for the gateway.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stashgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stashgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	streamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stashgate_stream_bytes_total",
			Help: "Total bytes streamed to clients",
		},
	)

	streamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stashgate_streams_total",
			Help: "Total number of streams by outcome",
		},
		[]string{"outcome"},
	)
)

// Stream outcomes.
const (
	StreamCompleted = "completed"
	StreamAborted   = "aborted"
	StreamTruncated = "truncated"
)

// RecordRequest counts one finished HTTP request.
func RecordRequest(method, path string, status int, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordStream counts one finished content stream.
func RecordStream(bytes int64, outcome string) {
	streamBytesTotal.Add(float64(bytes))
	streamsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
