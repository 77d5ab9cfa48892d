package fractal

import (
	"math"
	"math/cmplx"
	"runtime"

	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/newton"
	"github.com/agbru/lanefrac/internal/poly"
)

// DefaultMaxIters is the escape-time budget used when Options.MaxIters is 0.
const DefaultMaxIters = 256

// Options configures a render.
type Options struct {
	// MaxIters is the escape-time iteration budget of the mandelbrot and
	// julia kernels.
	MaxIters int
	// Newton bounds the root solve of the newton kernel.
	Newton newton.Options
	// Polynomial is the function whose roots the newton kernel finds. The
	// zero value selects z^3 - 1.
	Polynomial poly.Polynomial
	// JuliaC is the fixed parameter of the julia kernel.
	JuliaC complex128
	// Workers caps the number of rows rendered concurrently. 0 means
	// GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the options used by the CLI when no flag is given.
func DefaultOptions() Options {
	return Options{
		MaxIters:   DefaultMaxIters,
		Newton:     newton.DefaultOptions(),
		Polynomial: defaultPolynomial(),
		JuliaC:     complex(-0.8, 0.156),
	}
}

func defaultPolynomial() poly.Polynomial {
	p, _ := poly.UnityRoots(3)
	return p
}

// normalizeOptions fills zero fields with defaults.
func normalizeOptions(opts Options) Options {
	normalized := opts
	if normalized.MaxIters == 0 {
		normalized.MaxIters = DefaultMaxIters
	}
	if normalized.Newton == (newton.Options{}) {
		normalized.Newton = newton.DefaultOptions()
	}
	if normalized.Polynomial.IsZero() {
		normalized.Polynomial = defaultPolynomial()
	}
	if normalized.Workers <= 0 {
		normalized.Workers = runtime.GOMAXPROCS(0)
	}
	return normalized
}

// Validate checks the options after defaults have been applied.
func (o Options) Validate() error {
	n := normalizeOptions(o)
	if n.MaxIters < 0 {
		return apperrors.NewValidationError("max_iters", "must not be negative", o.MaxIters)
	}
	if err := n.Newton.Validate(); err != nil {
		return err
	}
	if n.Polynomial.Degree() < 1 {
		return apperrors.NewValidationError("polynomial", "degree must be at least 1", n.Polynomial.String())
	}
	if cmplx.IsNaN(o.JuliaC) || math.IsInf(real(o.JuliaC), 0) || math.IsInf(imag(o.JuliaC), 0) {
		return apperrors.NewValidationError("julia_c", "must be finite", o.JuliaC)
	}
	return nil
}

// ProgressUpdate carries the progress of one kernel to the UI.
type ProgressUpdate struct {
	// KernelIndex identifies the kernel among those running concurrently.
	KernelIndex int
	// Value is the fraction of rows completed, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback form of progress reporting used inside a
// render.
type ProgressReporter func(progress float64)
