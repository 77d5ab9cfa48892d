package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/lanefrac/internal/cli"
	"github.com/agbru/lanefrac/internal/config"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/logging"
	"github.com/agbru/lanefrac/internal/service"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Kernel:     "all",
		Width:      32,
		Height:     24,
		CenterRe:   -0.5,
		Span:       3.5,
		MaxIters:   64,
		Burst:      config.DefaultBurst,
		MacroIters: config.DefaultMacroIters,
		Tolerance:  config.DefaultTolerance,
		Polynomial: config.DefaultPolynomial,
		JuliaRe:    config.DefaultJuliaRe,
		JuliaIm:    config.DefaultJuliaIm,
		Port:       "0",
	}
}

func quietLogger() logging.Logger {
	return logging.NewLogger(io.Discard, "server")
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithRateLimit(RateLimiterConfig{RequestsPerMinute: 6000, Burst: 1000}),
	}, opts...)
	s, err := NewServer(fractal.NewDefaultFactory(), testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandleRenderPNG(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rr := get(t, s, "/render?kernel=mandelbrot&w=20&h=10")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Render-Duration"))

	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestHandleRenderFormats(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	tests := map[string]string{
		"bmp":  "image/bmp",
		"TIFF": "image/tiff",
		"tif":  "image/tiff",
		"json": "application/json",
	}
	for format, contentType := range tests {
		rr := get(t, s, "/render?kernel=newton&w=9&h=5&format="+format)
		require.Equal(t, http.StatusOK, rr.Code, format)
		assert.Equal(t, contentType, rr.Header().Get("Content-Type"), format)
	}
}

func TestHandleRenderJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rr := get(t, s, "/render?kernel=julia&w=16&h=8&re=0&im=0&span=3&iters=50&jre=-0.4&jim=0.6&format=json")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var summary cli.FrameSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, "julia", summary.Kernel)
	assert.Equal(t, "escape", summary.Kind)
	assert.Equal(t, 50, summary.MaxIters)
	assert.Equal(t, fractal.View{Span: 3, Width: 16, Height: 8}, summary.View)
	assert.Equal(t, 16*8, summary.Stats.Pixels)
}

func TestHandleRenderDefaults(t *testing.T) {
	t.Parallel()

	rec := &recordingService{}
	s := newTestServer(t, WithService(rec))
	rr := get(t, s, "/render")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	cfg := testConfig()
	assert.Equal(t, "mandelbrot", rec.req.Kernel)
	assert.Equal(t, cfg.View(), rec.req.View)
	assert.Equal(t, cfg.MaxIters, rec.req.Options.MaxIters)
	assert.Equal(t, complex(cfg.JuliaRe, cfg.JuliaIm), rec.req.Options.JuliaC)
	assert.Equal(t, "z^3 - 1", rec.req.Options.Polynomial.String())

	rr = get(t, s, "/render?kernel=NEWTON&poly=0,1,0,1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "newton", rec.req.Kernel)
	assert.Equal(t, 3, rec.req.Options.Polynomial.Degree())
}

func TestHandleRenderBadRequests(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, WithMaxPixels(1000), WithMaxDegree(8))
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unknown kernel", "kernel=sierpinski", "unknown kernel"},
		{"bad width", "w=abc", "'w'"},
		{"bad center", "re=x", "'re'"},
		{"zero height", "h=0", "at least 1"},
		{"bad iters", "iters=0", "'iters'"},
		{"bad poly", "poly=1,,x", "'poly'"},
		{"bad format", "format=gif", "'format'"},
		{"pixel budget", "w=100&h=100", "1000 pixels"},
		{"iteration budget", "iters=1000000", "iters exceeds"},
		{"degree budget", "kernel=newton&poly=" + strings.Repeat("1,", 9) + "1", "poly degree exceeds the maximum of 8"},
		{"width wraps to zero", "w=4611686018427387904&h=4", "1000 pixels"},
		{"width overflows", "w=4294967295&h=4294967295", "1000 pixels"},
		{"bad span", "span=-1", "span"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, s, "/render?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decodeError(t, rr).Message, tt.want)
		})
	}
}

type recordingService struct {
	req service.Request
	err error
}

func (r *recordingService) Render(_ context.Context, req service.Request) (*fractal.Frame, error) {
	r.req = req
	if r.err != nil {
		return nil, r.err
	}
	return fractal.NewFrame(req.Kernel, fractal.KindEscape, req.View, req.Options.MaxIters), nil
}

func TestHandleRenderServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, WithService(&recordingService{err: tt.err}))
			rr := get(t, s, "/render?w=8&h=8")
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestHandleKernels(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rr := get(t, s, "/kernels")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Kernels []KernelInfo `json:"kernels"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []KernelInfo{
		{Name: "julia", Kind: "escape"},
		{Name: "mandelbrot", Kind: "escape"},
		{Name: "newton", Kind: "root"},
	}, resp.Kernels)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rr := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp, "lane_width")
	assert.Contains(t, resp, "target")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	require.Equal(t, http.StatusOK, get(t, s, "/render?w=4&h=4&format=json").Code)

	rr := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "lanefrac_requests_total")
	assert.Contains(t, body, "lanefrac_active_requests")
	assert.Contains(t, body, "lanefrac_renders_total")
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	for _, path := range []string{"/render", "/kernels", "/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, path)
	}
}

func TestSecurityHeadersAndPreflight(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rr := get(t, s, "/health")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/render", http.NoBody)
	req.Header.Set("Origin", "https://example.org")
	pre := httptest.NewRecorder()
	s.Handler().ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "GET, OPTIONS", pre.Header().Get("Access-Control-Allow-Methods"))
}

func TestSecurityOriginAllowList(t *testing.T) {
	t.Parallel()

	cfg := DefaultSecurityConfig()
	cfg.AllowedOrigins = []string{"https://ok.example"}
	s := newTestServer(t, WithSecurityConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://ok.example")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "https://ok.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := newTestServer(t, WithStdLogger(log.New(&buf, "", 0)))
	get(t, s, "/render?kernel=nope")
	out := buf.String()
	assert.Contains(t, out, "[INFO] request")
	assert.Contains(t, out, "path=/render")
	assert.Contains(t, out, "status=400")
}

func TestWithTimeouts(t *testing.T) {
	t.Parallel()

	timeouts := Timeouts{RequestTimeout: time.Second, ShutdownTimeout: time.Second, ReadTimeout: 2 * time.Second, WriteTimeout: 3 * time.Second, IdleTimeout: 4 * time.Second}
	s := newTestServer(t, WithTimeouts(timeouts))
	assert.Equal(t, timeouts, s.timeouts)
	assert.Equal(t, 2*time.Second, s.httpServer.ReadTimeout)
	assert.Equal(t, 3*time.Second, s.httpServer.WriteTimeout)
}

func TestNewServerRejectsBadPolynomial(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Polynomial = "not,a,poly"
	_, err := NewServer(fractal.NewDefaultFactory(), cfg)
	assert.Error(t, err)
}

func TestStartStopsOnContext(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, WithTimeouts(Timeouts{ShutdownTimeout: time.Second}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
