package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/lanefrac/internal/config"
	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/logging"
	"github.com/agbru/lanefrac/internal/service"
)

// Server is the HTTP front end of the renderer. It wraps http.Server with
// the render service, the middleware chain and graceful shutdown.
type Server struct {
	factory        fractal.KernelFactory
	service        service.Service
	cfg            config.AppConfig
	defaults       fractal.Options
	httpServer     *http.Server
	handler        http.Handler
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer builds a server rendering with the kernels of factory. cfg
// supplies the listen port and the defaults of every query parameter. It
// returns an error when cfg does not convert to render options.
func NewServer(factory fractal.KernelFactory, cfg config.AppConfig, opts ...Option) (*Server, error) {
	defaults, err := cfg.ToRenderOptions()
	if err != nil {
		return nil, err
	}
	s := &Server{
		factory:        factory,
		cfg:            cfg,
		defaults:       defaults,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		s.service = service.NewRenderService(s.factory, s.defaults, service.Limits{
			MaxPixels: s.securityConfig.MaxPixels,
			MaxIters:  s.securityConfig.MaxIters,
			MaxDegree: s.securityConfig.MaxDegree,
		})
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/render", s.wrapWithMiddleware(s.handleRender))
	mux.HandleFunc("/kernels", s.wrapWithMiddleware(s.handleKernels))
	mux.HandleFunc("/health", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))
	s.handler = mux

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s, nil
}

// Handler returns the routed handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Security -> RateLimit -> Logging -> Metrics -> handler.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start serves until ctx is done or SIGINT/SIGTERM arrives, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", s.httpServer.Addr),
			logging.Int("max_pixels", s.securityConfig.MaxPixels),
			logging.Int("max_degree", s.securityConfig.MaxDegree),
			logging.Int("burst", s.cfg.Burst),
			logging.Int("macro_iters", s.cfg.MacroIters))
		s.logger.Println("Available endpoints:")
		s.logger.Println("  GET /render?kernel=&w=&h=&re=&im=&span=&iters=&poly=&jre=&jim=&format=png|bmp|tiff|json")
		s.logger.Println("  GET /kernels")
		s.logger.Println("  GET /health")
		s.logger.Println("  GET /metrics")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Info("shutdown signal received")
	case <-ctx.Done():
		s.logger.Info("context done, shutting down")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
