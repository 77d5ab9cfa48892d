package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/newton"
	"github.com/agbru/lanefrac/internal/poly"
	"github.com/agbru/lanefrac/internal/testutil"
)

func newService(k *testutil.MockKernel, defaults fractal.Options, limits Limits) *RenderService {
	return NewRenderService(testutil.NewTestFactory(k), defaults, limits)
}

var smallView = fractal.View{Span: 3, Width: 8, Height: 4}

func TestRender(t *testing.T) {
	t.Parallel()

	renderErr := errors.New("render failed")
	tests := []struct {
		name    string
		kernel  string
		view    fractal.View
		opts    fractal.Options
		limits  Limits
		kernErr error
		wantErr error
	}{
		{name: "success", kernel: "k", view: smallView},
		{name: "pixel budget", kernel: "k", view: fractal.View{Span: 1, Width: 100, Height: 100}, limits: Limits{MaxPixels: 1000}, wantErr: ErrPixelBudgetExceeded},
		{name: "iteration budget", kernel: "k", view: smallView, opts: fractal.Options{MaxIters: 5000}, limits: Limits{MaxIters: 1000}, wantErr: ErrIterBudgetExceeded},
		{name: "one pixel over budget", kernel: "k", view: fractal.View{Span: 1, Width: 1001, Height: 1}, limits: Limits{MaxPixels: 1000}, wantErr: ErrPixelBudgetExceeded},
		{name: "pixel product wraps to zero", kernel: "k", view: fractal.View{Span: 1, Width: 1 << 62, Height: 4}, limits: Limits{MaxPixels: 4 << 20}, wantErr: ErrPixelBudgetExceeded},
		{name: "pixel product overflows", kernel: "k", view: fractal.View{Span: 1, Width: 1 << 32, Height: 1 << 32}, limits: Limits{MaxPixels: 4 << 20}, wantErr: ErrPixelBudgetExceeded},
		{name: "degree budget", kernel: "k", view: smallView, opts: fractal.Options{Polynomial: poly.MustNew(make([]complex128, 9)...)}, limits: Limits{MaxDegree: 4}, wantErr: ErrDegreeBudgetExceeded},
		{name: "default polynomial within degree budget", kernel: "k", view: smallView, limits: Limits{MaxDegree: 4}},
		{name: "zero limits are unlimited", kernel: "k", view: fractal.View{Span: 1, Width: 100, Height: 100}, opts: fractal.Options{MaxIters: 5000}},
		{name: "unknown kernel", kernel: "nope", view: smallView},
		{name: "kernel error", kernel: "k", view: smallView, kernErr: renderErr, wantErr: renderErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			k := &testutil.MockKernel{KernelName: "k", Err: tt.kernErr}
			svc := newService(k, fractal.DefaultOptions(), tt.limits)

			frame, err := svc.Render(context.Background(), Request{Kernel: tt.kernel, View: tt.view, Options: tt.opts})
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.kernel == "nope":
				assert.ErrorContains(t, err, "unknown kernel")
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.view, frame.View)
			}
		})
	}
}

func TestRenderRejectsOversizedViewWithoutLimits(t *testing.T) {
	t.Parallel()

	svc := NewRenderService(fractal.NewDefaultFactory(), fractal.DefaultOptions(), Limits{})
	for _, view := range []fractal.View{
		{Span: 1, Width: 1 << 62, Height: 4},
		{Span: 1, Width: 0xFFFFFFFF, Height: 0xFFFFFFFF},
	} {
		frame, err := svc.Render(context.Background(), Request{Kernel: "mandelbrot", View: view})
		var verr apperrors.ValidationError
		require.True(t, errors.As(err, &verr), "%dx%d: got %v", view.Width, view.Height, err)
		assert.Nil(t, frame)
	}
}

func TestRenderFillsDefaults(t *testing.T) {
	t.Parallel()

	k := &testutil.MockKernel{KernelName: "k"}
	defaults := fractal.DefaultOptions()
	defaults.Workers = 3
	svc := newService(k, defaults, Limits{})

	_, err := svc.Render(context.Background(), Request{Kernel: "k", View: smallView, Options: fractal.Options{JuliaC: 0.25}})
	require.NoError(t, err)
	_, opts := k.Last()
	assert.Equal(t, defaults.MaxIters, opts.MaxIters)
	assert.Equal(t, defaults.Newton, opts.Newton)
	assert.Equal(t, defaults.Polynomial.String(), opts.Polynomial.String())
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, complex(0.25, 0), opts.JuliaC)

	custom := newton.Options{MacroIters: 2, Burst: 3, Tolerance: 1e-6}
	_, err = svc.Render(context.Background(), Request{Kernel: "k", View: smallView, Options: fractal.Options{MaxIters: 7, Newton: custom}})
	require.NoError(t, err)
	_, opts = k.Last()
	assert.Equal(t, 7, opts.MaxIters)
	assert.Equal(t, custom, opts.Newton)
}

func TestRenderWithRealKernel(t *testing.T) {
	t.Parallel()

	svc := NewRenderService(fractal.NewDefaultFactory(), fractal.DefaultOptions(), Limits{MaxPixels: 1 << 10})
	frame, err := svc.Render(context.Background(), Request{Kernel: "mandelbrot", View: fractal.View{Center: -0.5, Span: 3, Width: 16, Height: 8}})
	require.NoError(t, err)
	assert.Equal(t, "mandelbrot", frame.Kernel)
	assert.Equal(t, fractal.DefaultMaxIters, frame.MaxIters)
}
