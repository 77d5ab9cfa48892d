// Package service sits between the HTTP layer and the kernels: it enforces
// the request budgets and runs one render synchronously.
package service

import (
	"context"
	"errors"

	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/newton"
)

var (
	// ErrPixelBudgetExceeded is returned when Width*Height exceeds the limit.
	ErrPixelBudgetExceeded = errors.New("pixel budget exceeded")
	// ErrIterBudgetExceeded is returned when MaxIters exceeds the limit.
	ErrIterBudgetExceeded = errors.New("iteration budget exceeded")
	// ErrDegreeBudgetExceeded is returned when the Newton polynomial has a
	// higher degree than the limit.
	ErrDegreeBudgetExceeded = errors.New("polynomial degree budget exceeded")
)

// Request describes one render.
type Request struct {
	Kernel  string
	View    fractal.View
	Options fractal.Options
}

// Service renders frames on behalf of a transport.
type Service interface {
	Render(ctx context.Context, req Request) (*fractal.Frame, error)
}

// Limits bounds a single request. Zero means unlimited.
type Limits struct {
	MaxPixels int
	MaxIters  int
	// MaxDegree bounds the Newton polynomial. Every Newton step costs two
	// Horner passes over its coefficients.
	MaxDegree int
}

// RenderService is the Service backed by a kernel factory.
type RenderService struct {
	factory  fractal.KernelFactory
	defaults fractal.Options
	limits   Limits
}

var _ Service = (*RenderService)(nil)

// NewRenderService returns a service using defaults for the options a
// request leaves at zero. JuliaC is always taken from the request.
func NewRenderService(factory fractal.KernelFactory, defaults fractal.Options, limits Limits) *RenderService {
	return &RenderService{factory: factory, defaults: defaults, limits: limits}
}

// Render checks req against the limits, fills unset options from the
// service defaults and renders without progress reporting.
func (s *RenderService) Render(ctx context.Context, req Request) (*fractal.Frame, error) {
	if s.limits.MaxPixels > 0 && req.View.ExceedsPixels(s.limits.MaxPixels) {
		return nil, ErrPixelBudgetExceeded
	}
	opts := s.merge(req.Options)
	if s.limits.MaxIters > 0 && opts.MaxIters > s.limits.MaxIters {
		return nil, ErrIterBudgetExceeded
	}
	if s.limits.MaxDegree > 0 && opts.Polynomial.Degree() > s.limits.MaxDegree {
		return nil, ErrDegreeBudgetExceeded
	}

	kernel, err := s.factory.Get(req.Kernel)
	if err != nil {
		return nil, err
	}
	return kernel.Render(ctx, nil, 0, req.View, opts)
}

func (s *RenderService) merge(o fractal.Options) fractal.Options {
	merged := o
	if merged.MaxIters == 0 {
		merged.MaxIters = s.defaults.MaxIters
	}
	if merged.Newton == (newton.Options{}) {
		merged.Newton = s.defaults.Newton
	}
	if merged.Polynomial.IsZero() {
		merged.Polynomial = s.defaults.Polynomial
	}
	if merged.Workers == 0 {
		merged.Workers = s.defaults.Workers
	}
	return merged
}
