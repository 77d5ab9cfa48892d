package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/lanefrac/internal/cli"
	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/logging"
	"github.com/agbru/lanefrac/internal/poly"
	"github.com/agbru/lanefrac/internal/render"
	"github.com/agbru/lanefrac/internal/service"
)

// FormatJSON selects the JSON statistics reply of /render.
const FormatJSON = "json"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().Unix(),
		"lane_width": lanes.Width,
		"target":     lanes.HostTarget().String(),
	})
}

func (s *Server) handleKernels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	names := s.factory.List()
	kernels := make([]KernelInfo, 0, len(names))
	for _, name := range names {
		k, err := s.factory.Get(name)
		if err != nil {
			continue
		}
		kernels = append(kernels, KernelInfo{Name: name, Kind: k.Kind().String()})
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{"kernels": kernels})
}

// handleRender renders one frame and replies with the encoded image, or with
// the frame statistics when format=json.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	params, err := s.parseRenderParams(r.URL.Query())
	if err != nil {
		var reqErr RequestError
		if errors.As(err, &reqErr) {
			s.writeErrorResponse(w, reqErr.StatusCode, reqErr.Message)
		} else {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	start := time.Now()
	frame, err := s.service.Render(ctx, service.Request{Kernel: params.kernel, View: params.view, Options: params.opts})
	duration := time.Since(start)
	if err != nil {
		s.writeRenderError(w, params.kernel, err)
		return
	}
	w.Header().Set("X-Render-Duration", duration.String())

	if params.format == FormatJSON {
		s.writeJSONResponse(w, http.StatusOK, cli.NewFrameSummary(params.kernel, frame, duration, nil))
		return
	}

	format := render.Format(params.format)
	var buf bytes.Buffer
	if err := render.Encode(&buf, render.Colorize(frame), format); err != nil {
		s.logger.Error("encoding frame", err, logging.String("kernel", params.kernel))
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to encode image")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("writing image", err, logging.String("kernel", params.kernel))
	}
}

func (s *Server) writeRenderError(w http.ResponseWriter, kernel string, err error) {
	var validation apperrors.ValidationError
	switch {
	case errors.Is(err, service.ErrPixelBudgetExceeded):
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("w*h exceeds the maximum of %d pixels", s.securityConfig.MaxPixels))
	case errors.Is(err, service.ErrIterBudgetExceeded):
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("iters exceeds the maximum of %d", s.securityConfig.MaxIters))
	case errors.Is(err, service.ErrDegreeBudgetExceeded):
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("poly degree exceeds the maximum of %d", s.securityConfig.MaxDegree))
	case errors.As(err, &validation):
		s.writeErrorResponse(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.writeErrorResponse(w, http.StatusGatewayTimeout, "render timed out")
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the reply.
		s.logger.Debug("render canceled", logging.String("kernel", kernel))
	default:
		s.logger.Error("render failed", err, logging.String("kernel", kernel))
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

// parseRenderParams decodes the /render query. Missing parameters take the
// server configuration's value.
func (s *Server) parseRenderParams(q url.Values) (renderParams, error) {
	p := renderParams{
		kernel: s.defaultKernel(),
		view:   s.cfg.View(),
		opts:   s.defaults,
		format: string(render.FormatPNG),
	}

	if name := strings.ToLower(q.Get("kernel")); name != "" {
		p.kernel = name
	}
	if !slices.Contains(s.factory.List(), p.kernel) {
		return p, RequestError{
			Message:    fmt.Sprintf("unknown kernel %q (available: %s)", p.kernel, strings.Join(s.factory.List(), ", ")),
			StatusCode: http.StatusBadRequest,
		}
	}

	var err error
	intParam := func(key string, dst *int) {
		if err != nil || !q.Has(key) {
			return
		}
		v, perr := strconv.Atoi(q.Get(key))
		if perr != nil {
			err = badParam(key, "must be an integer")
			return
		}
		*dst = v
	}
	floatParam := func(key string, dst *float64) {
		if err != nil || !q.Has(key) {
			return
		}
		v, perr := strconv.ParseFloat(q.Get(key), 64)
		if perr != nil {
			err = badParam(key, "must be a number")
			return
		}
		*dst = v
	}

	re, im := real(p.view.Center), imag(p.view.Center)
	jre, jim := real(p.opts.JuliaC), imag(p.opts.JuliaC)
	intParam("w", &p.view.Width)
	intParam("h", &p.view.Height)
	floatParam("re", &re)
	floatParam("im", &im)
	floatParam("span", &p.view.Span)
	intParam("iters", &p.opts.MaxIters)
	floatParam("jre", &jre)
	floatParam("jim", &jim)
	if err != nil {
		return p, err
	}
	p.view.Center = complex(re, im)
	p.opts.JuliaC = complex(jre, jim)

	if q.Has("poly") {
		pl, perr := poly.Parse(q.Get("poly"))
		if perr != nil {
			return p, badParam("poly", perr.Error())
		}
		p.opts.Polynomial = pl
	}

	if f := strings.ToLower(q.Get("format")); f != "" {
		if f == FormatJSON {
			p.format = FormatJSON
		} else {
			format, ferr := render.ParseFormat(f)
			if ferr != nil {
				return p, badParam("format", "must be png, bmp, tiff or json")
			}
			p.format = string(format)
		}
	}

	if p.view.Width < 1 || p.view.Height < 1 {
		return p, badParam("w/h", "must be at least 1")
	}
	if p.opts.MaxIters < 1 {
		return p, badParam("iters", "must be at least 1")
	}
	return p, nil
}

func (s *Server) defaultKernel() string {
	if s.cfg.Kernel != "" && s.cfg.Kernel != "all" {
		return s.cfg.Kernel
	}
	return "mandelbrot"
}

func badParam(key, msg string) RequestError {
	return RequestError{
		Message:    fmt.Sprintf("Invalid '%s' parameter: %s", key, msg),
		StatusCode: http.StatusBadRequest,
	}
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
