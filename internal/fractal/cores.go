package fractal

import (
	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/mandelbrot"
	"github.com/agbru/lanefrac/internal/newton"
)

// batchResult is what a core produces for one batch of lanes.Width points.
type batchResult struct {
	counts    lanes.I64
	values    lanes.C64
	bursts    int
	converged bool
}

// batchFunc renders one batch. It is built once per render by a core's
// prepare method and must be safe to call from several goroutines.
type batchFunc func(points lanes.C64) batchResult

// coreKernel is a pure fractal algorithm with no cross-cutting concerns.
type coreKernel interface {
	Name() string
	Kind() Kind
	// prepare captures everything that is constant over a render. opts has
	// already been normalized and validated.
	prepare(opts Options) batchFunc
}

// MandelbrotKernel iterates z = z² + c from z = 0 with c the pixel.
type MandelbrotKernel struct{}

func (MandelbrotKernel) Name() string { return "mandelbrot" }
func (MandelbrotKernel) Kind() Kind   { return KindEscape }

func (MandelbrotKernel) prepare(opts Options) batchFunc {
	iters := opts.MaxIters
	return func(points lanes.C64) batchResult {
		z, n := mandelbrot.Iterate(lanes.C64{}, points, iters)
		return batchResult{counts: n, values: z}
	}
}

// JuliaKernel iterates z = z² + c from z = pixel with a fixed c.
type JuliaKernel struct{}

func (JuliaKernel) Name() string { return "julia" }
func (JuliaKernel) Kind() Kind   { return KindEscape }

func (JuliaKernel) prepare(opts Options) batchFunc {
	iters := opts.MaxIters
	c := lanes.SplatComplex(opts.JuliaC)
	return func(points lanes.C64) batchResult {
		z, n := mandelbrot.Iterate(points, c, iters)
		return batchResult{counts: n, values: z}
	}
}

// NewtonKernel runs a checked Newton solve from every pixel. The derivative
// is computed once per render.
type NewtonKernel struct{}

func (NewtonKernel) Name() string { return "newton" }
func (NewtonKernel) Kind() Kind   { return KindRoot }

func (NewtonKernel) prepare(opts Options) batchFunc {
	p := opts.Polynomial
	dp := p.Derive()
	nopts := opts.Newton
	return func(points lanes.C64) batchResult {
		res := newton.Solve(points, p, dp, nopts)
		steps := lanes.SplatI64(int64(res.Bursts * nopts.Burst))
		return batchResult{counts: steps, values: res.X, bursts: res.Bursts, converged: res.Converged}
	}
}

// batchTally accumulates per-batch bookkeeping over a row or a frame.
type batchTally struct {
	batches   int64
	bursts    int64
	converged int64
}

// renderPoints runs fn over points in batches of lanes.Width and writes one
// count and one value per point. The last batch is padded by repeating the
// final point; padded lanes are discarded.
func renderPoints(fn batchFunc, points []complex128, counts []int64, values []complex128) batchTally {
	var t batchTally
	for start := 0; start < len(points); start += lanes.Width {
		end := min(start+lanes.Width, len(points))
		b := fn(lanes.LoadSlice(points[start:end]))
		for i := range end - start {
			counts[start+i] = b.counts[i]
			values[start+i] = b.values.Lane(i)
		}
		t.batches++
		t.bursts += int64(b.bursts)
		if b.converged {
			t.converged++
		}
	}
	return t
}
