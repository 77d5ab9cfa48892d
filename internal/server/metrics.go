// Package server exposes the renderer over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the request metrics and, through the default registry,
// the render metrics of the fractal package.
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lanefrac_active_requests",
		Help: "Current number of active requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lanefrac_requests_total",
		Help: "Total number of requests by path and status code",
	}, []string{"path", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lanefrac_request_duration_seconds",
		Help:    "Request latency by path",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)

func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

// IncrementActiveRequests marks a request as in flight.
func (m *Metrics) IncrementActiveRequests() {
	activeRequests.Inc()
}

// DecrementActiveRequests marks a request as done.
func (m *Metrics) DecrementActiveRequests() {
	activeRequests.Dec()
}

// ObserveRequest counts a finished request.
func (m *Metrics) ObserveRequest(path string, code int, d time.Duration) {
	totalRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(path).Observe(d.Seconds())
}

// WritePrometheus writes every registered metric in the text format.
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

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		rec := newStatusRecorder(w)
		start := time.Now()
		next(rec, r)
		s.metrics.ObserveRequest(r.URL.Path, rec.status, time.Since(start))
	}
}
