// Package newton finds polynomial roots for Width starting points at once
// with Newton-Raphson iteration.
//
// Steps run in unconditional bursts. Convergence is only checked between
// bursts, and only collectively: the solve stops early when every lane has
// either converged or produced NaN. Individual lanes are never retired, so a
// single slow lane keeps the whole batch iterating up to the budget.
package newton

import (
	"math"

	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/poly"
)

// Options bounds a checked solve.
type Options struct {
	// MacroIters is the maximum number of bursts.
	MacroIters int `json:"macro_iters"`
	// Burst is the number of unconditional steps between convergence checks.
	Burst int `json:"burst"`
	// Tolerance is the per-component bound on the change across one burst.
	Tolerance float64 `json:"tolerance"`
}

// DefaultOptions returns 20 bursts of 10 steps with tolerance 1e-10.
func DefaultOptions() Options {
	return Options{MacroIters: 20, Burst: 10, Tolerance: 1e-10}
}

// Validate checks that the budgets are positive and the tolerance is a
// non-negative number.
func (o Options) Validate() error {
	if o.MacroIters < 1 {
		return apperrors.NewValidationError("macro_iters", "must be at least 1", o.MacroIters)
	}
	if o.Burst < 1 {
		return apperrors.NewValidationError("burst", "must be at least 1", o.Burst)
	}
	if math.IsNaN(o.Tolerance) || o.Tolerance < 0 {
		return apperrors.NewValidationError("tolerance", "must be a non-negative number", o.Tolerance)
	}
	return nil
}

// Result is the outcome of Solve.
type Result struct {
	// X holds the last iterate of every lane.
	X lanes.C64
	// Bursts is the number of bursts executed.
	Bursts int
	// Settled marks lanes whose last burst moved them by at most the
	// tolerance, or whose change was NaN.
	Settled lanes.Mask
	// Converged reports whether every lane settled before the budget ran
	// out.
	Converged bool
}

// StepBurst applies exactly n Newton steps x = x - p(x)/dp(x) to every lane.
// There is no convergence check. A lane whose derivative vanishes becomes
// NaN or Inf and stays that way.
func StepBurst(x lanes.C64, p, dp poly.Polynomial, n int) lanes.C64 {
	for range n {
		x = x.Sub(p.Evaluate(x).Div(dp.Evaluate(x)))
	}
	return x
}

// SettledMask reports lanes where both components of delta are within tol,
// or either component is NaN.
func SettledMask(delta lanes.C64, tol float64) lanes.Mask {
	t := lanes.SplatF64(tol)
	within := delta.Re.Abs().Le(t).And(delta.Im.Abs().Le(t))
	return within.Or(delta.Re.IsNaN()).Or(delta.Im.IsNaN())
}

// Solve runs up to opts.MacroIters bursts of opts.Burst steps starting at
// x0. After each burst it compares the new iterate with the previous one and
// stops once SettledMask holds for every lane.
//
// NaN lanes count as settled so that one divergent lane cannot hold the
// batch hostage; callers tell converged lanes from diverged ones by
// inspecting X for NaN. Options are used as given; call Validate first when
// they come from user input.
func Solve(x0 lanes.C64, p, dp poly.Polynomial, opts Options) Result {
	res := Result{X: x0}
	for i := 0; i < opts.MacroIters; i++ {
		next := StepBurst(res.X, p, dp, opts.Burst)
		settled := SettledMask(next.Sub(res.X), opts.Tolerance)
		res.X = next
		res.Bursts = i + 1
		res.Settled = settled
		if settled.All() {
			res.Converged = true
			break
		}
	}
	return res
}

// Checked is Solve reduced to the final iterate.
func Checked(x0 lanes.C64, p, dp poly.Polynomial, macroIters, burst int, tol float64) lanes.C64 {
	return Solve(x0, p, dp, Options{MacroIters: macroIters, Burst: burst, Tolerance: tol}).X
}
