// Package metrics provides Prometheus instrumentation for the crogentx API.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crogentx"

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// UpstreamRequestsTotal counts facilitator calls by endpoint and result.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Facilitator requests by endpoint and result (ok, error).",
		},
		[]string{"endpoint", "result"},
	)

	// UpstreamRequestDuration observes facilitator latency by endpoint.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Facilitator request duration in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// UpstreamFallbacksTotal counts requests served from mock data instead
	// of the facilitator.
	UpstreamFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fallbacks_total",
			Help:      "Requests served from mock data by endpoint and reason (error, circuit_open).",
		},
		[]string{"endpoint", "reason"},
	)

	// GraphBuildDuration observes graph build plus filter time.
	GraphBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "build_duration_seconds",
		Help:      "Time to build and filter a transaction graph in seconds.",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5},
	})

	// GraphNodes tracks the node count of the most recently served graph.
	GraphNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "last_nodes",
		Help:      "Node count of the most recently served graph.",
	})

	// MockGenerationsTotal counts mock dataset generations.
	MockGenerationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mock",
		Name:      "generations_total",
		Help:      "Total mock dataset generations.",
	})

	// SimulationsTotal counts simulations by instruction and verdict.
	SimulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Total transaction simulations by instruction and safe verdict.",
		},
		[]string{"instruction", "safe"},
	)

	// DebugRequestsTotal counts debug requests by outcome.
	DebugRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debug_requests_total",
			Help:      "Total transaction debug requests by result (found, not_found).",
		},
		[]string{"result"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// WebSocketEventsTotal counts broadcast events by type.
	WebSocketEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_events_total",
			Help:      "Total events broadcast to WebSocket clients by type.",
		},
		[]string{"type"},
	)

	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		UpstreamFallbacksTotal,
		GraphBuildDuration,
		GraphNodes,
		MockGenerationsTotal,
		SimulationsTotal,
		DebugRequestsTotal,
		ActiveWebSocketClients,
		WebSocketEventsTotal,
		GoroutineCount,
	)
}

// StartRuntimeCollector periodically samples the goroutine count.
// Call in a goroutine; exits when ctx is done.
func StartRuntimeCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		GoroutineCount.Set(float64(runtime.NumGoroutine()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath() // route pattern keeps label cardinality bounded
		if path == "" {
			path = "unmatched"
		}
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(c.Request.Method, path))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
