package fractal

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/mandelbrot"
	"github.com/agbru/lanefrac/internal/poly"
)

func scalarEscape(z0, c complex128, iters int) int64 {
	_, n := mandelbrot.Iterate(lanes.SplatComplex(z0), lanes.SplatComplex(c), iters)
	return n[0]
}

func TestMandelbrotRenderMatchesPerPixelIteration(t *testing.T) {
	t.Parallel()

	// 13 columns leave a padded tail batch in every row.
	view := View{Center: complex(-0.5, 0), Span: 3, Width: 13, Height: 7}
	opts := Options{MaxIters: 64, Workers: 3}

	frame, err := NewKernel(MandelbrotKernel{}).Render(context.Background(), nil, 0, view, opts)
	require.NoError(t, err)
	require.Len(t, frame.Counts, view.Pixels())

	assert.Equal(t, "mandelbrot", frame.Kernel)
	assert.Equal(t, KindEscape, frame.Kind)
	assert.Equal(t, 64, frame.MaxIters)
	assert.Equal(t, int64(2*view.Height), frame.Batches)

	for py := range view.Height {
		for px := range view.Width {
			i := py*view.Width + px
			want := scalarEscape(0, view.Point(px, py), 64)
			if frame.Counts[i] != want {
				t.Errorf("pixel (%d,%d): expected %d, got %d", px, py, want, frame.Counts[i])
			}
		}
	}
}

func TestJuliaRenderUsesFixedParameter(t *testing.T) {
	t.Parallel()

	view := View{Span: 3, Width: 9, Height: 4}
	c := complex(-0.8, 0.156)
	opts := Options{MaxIters: 50, JuliaC: c}

	frame, err := NewKernel(JuliaKernel{}).Render(context.Background(), nil, 0, view, opts)
	require.NoError(t, err)

	for py := range view.Height {
		for px := range view.Width {
			want := scalarEscape(view.Point(px, py), c, 50)
			assert.Equal(t, want, frame.Counts[py*view.Width+px], "pixel (%d,%d)", px, py)
		}
	}
}

func TestNewtonRenderFindsCubeRoots(t *testing.T) {
	t.Parallel()

	view := View{Span: 3, Width: 16, Height: 12}
	frame, err := NewKernel(NewtonKernel{}).Render(context.Background(), nil, 0, view, Options{})
	require.NoError(t, err)
	assert.Equal(t, KindRoot, frame.Kind)

	roots := [3]complex128{1, cmplx.Rect(1, 2*math.Pi/3), cmplx.Rect(1, -2*math.Pi/3)}
	near := 0
	for _, z := range frame.Values {
		for _, r := range roots {
			if cmplx.Abs(z-r) < 1e-8 {
				near++
				break
			}
		}
	}
	assert.GreaterOrEqual(t, float64(near)/float64(view.Pixels()), 0.95)

	s := frame.Stats()
	assert.GreaterOrEqual(t, s.MeanBursts, 1.0)
	assert.LessOrEqual(t, s.MeanBursts, 20.0)
	assert.Greater(t, s.ConvergedRatio, 0.0)
}

func TestNewtonRenderCustomPolynomial(t *testing.T) {
	t.Parallel()

	p := poly.MustNew(-1, 0, 1) // z² - 1
	view := View{Center: complex(0, 0.05), Span: 4, Width: 8, Height: 2}
	frame, err := NewKernel(NewtonKernel{}).Render(context.Background(), nil, 0, view, Options{Polynomial: p})
	require.NoError(t, err)

	for i, z := range frame.Values {
		px := i % view.Width
		want := complex128(1)
		if px < view.Width/2 {
			want = -1
		}
		assert.InDelta(t, 0, cmplx.Abs(z-want), 1e-9, "pixel %d", i)
	}
}

func TestRenderIsIndependentOfWorkerCount(t *testing.T) {
	t.Parallel()

	view := View{Center: complex(-0.75, 0.1), Span: 0.5, Width: 21, Height: 11}
	k := NewKernel(MandelbrotKernel{})

	one, err := k.Render(context.Background(), nil, 0, view, Options{MaxIters: 200, Workers: 1})
	require.NoError(t, err)
	many, err := k.Render(context.Background(), nil, 0, view, Options{MaxIters: 200, Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, one.Counts, many.Counts)
}

func TestRenderReportsProgress(t *testing.T) {
	t.Parallel()

	view := View{Span: 3, Width: 8, Height: 5}
	ch := make(chan ProgressUpdate, view.Height+1)

	_, err := NewKernel(MandelbrotKernel{}).Render(context.Background(), ch, 3, view, Options{MaxIters: 10})
	require.NoError(t, err)
	close(ch)

	var updates []ProgressUpdate
	for u := range ch {
		updates = append(updates, u)
	}
	require.Len(t, updates, view.Height+1)
	for _, u := range updates {
		assert.Equal(t, 3, u.KernelIndex)
	}
	assert.Equal(t, 1.0, updates[len(updates)-1].Value)
}

func TestRenderCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame, err := NewKernel(MandelbrotKernel{}).Render(ctx, nil, 0, DefaultView(), Options{})
	assert.Nil(t, frame)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, apperrors.IsContextError(err))
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	k := NewKernel(MandelbrotKernel{})
	var verr apperrors.ValidationError

	_, err := k.Render(context.Background(), nil, 0, View{Span: 1}, Options{})
	assert.True(t, errors.As(err, &verr))

	_, err = k.Render(context.Background(), nil, 0, DefaultView(), Options{MaxIters: -1})
	assert.True(t, errors.As(err, &verr))

	_, err = k.Render(context.Background(), nil, 0, DefaultView(), Options{Polynomial: poly.MustNew(3)})
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "polynomial", verr.Field)
}

func TestNewKernelPanicsOnNilCore(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewKernel(nil) })
}
