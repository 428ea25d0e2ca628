// Package metrics exposes Prometheus instruments for the map server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safelanes",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "safelanes",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	// RouteRequests counts route submissions by outcome:
	// success, stale, validation, network, malformed.
	RouteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safelanes",
		Subsystem: "route",
		Name:      "requests_total",
		Help:      "Total route submissions by outcome",
	}, []string{"outcome"})

	// RouteRequestDuration observes the routing service round trip.
	RouteRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "safelanes",
		Subsystem: "route",
		Name:      "service_duration_seconds",
		Help:      "Duration of routing service calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// TilesFetched counts basemap tile fetches for snapshots by result.
	TilesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safelanes",
		Subsystem: "snapshot",
		Name:      "tiles_total",
		Help:      "Basemap tiles fetched for snapshots by result",
	}, []string{"result"})
)

// ObserveHTTP records one served request. path should be the matched route pattern.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
