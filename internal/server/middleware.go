package server

import (
	"net/http"
	"time"

	"github.com/agbru/lanefrac/internal/logging"
)

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		if rl != nil {
			s.rateLimiter = rl
		}
	}
}

// WithRateLimit builds the rate limiter from config.
func WithRateLimit(config RateLimiterConfig) Option {
	return func(s *Server) {
		s.rateLimiter = NewRateLimiter(config)
	}
}

// WithSecurityConfig replaces the security configuration.
func WithSecurityConfig(config SecurityConfig) Option {
	return func(s *Server) {
		s.securityConfig = config
	}
}

// WithMaxPixels sets the per-request pixel budget.
func WithMaxPixels(maxPixels int) Option {
	return func(s *Server) {
		s.securityConfig.MaxPixels = maxPixels
	}
}

// WithMaxDegree sets the per-request polynomial degree budget.
func WithMaxDegree(maxDegree int) Option {
	return func(s *Server) {
		s.securityConfig.MaxDegree = maxDegree
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// loggingMiddleware emits one record per request with its status and
// latency.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next(rec, r)
		s.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("query", r.URL.RawQuery),
			logging.String("remote", r.RemoteAddr),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(start)))
	}
}
