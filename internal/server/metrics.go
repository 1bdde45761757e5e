package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/fibbench/internal/memtrack"
)

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fibbench_active_requests",
		Help: "Current number of active requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fibbench_requests_total",
		Help: "Total number of requests received",
	}, []string{"path", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fibbench_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)

// Metrics serves the Prometheus endpoint. The process-wide default registry
// (engine and request metrics) is merged with a per-server registry holding
// the allocation tracker collector.
type Metrics struct {
	handler http.Handler
}

// NewMetrics creates the metrics endpoint for the global tracker.
func NewMetrics() *Metrics {
	return NewMetricsFor(memtrack.Global())
}

// NewMetricsFor exports t instead of the global tracker.
func NewMetricsFor(t *memtrack.Tracker) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(memtrack.NewCollector(t))
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, reg}
	return &Metrics{handler: promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})}
}

// WritePrometheus writes metrics in Prometheus text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks active requests, totals by status and latency.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		requestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		totalRequests.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
	}
}
