package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests counts requests by route template and status code.
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagesel",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"route", "status"})

	// httpLatency measures request handling time by route template.
	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagesel",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route"})

	// recordsServed counts records returned by the page endpoint.
	recordsServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagesel",
		Subsystem: "records",
		Name:      "served_total",
		Help:      "Records returned by GET /v1/records",
	})

	// resolutions counts descriptor resolutions by mode and whether the
	// fingerprint was new to the log.
	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagesel",
		Subsystem: "selections",
		Name:      "resolved_total",
		Help:      "Descriptor resolutions by mode and first sighting",
	}, []string{"mode", "first"})

	// resolvedCount tracks how many records resolved selections cover.
	resolvedCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pagesel",
		Subsystem: "selections",
		Name:      "resolved_records",
		Help:      "Records matched per resolved descriptor",
		Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
	})
)

// metricsMiddleware records request counts and latency per route template.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
