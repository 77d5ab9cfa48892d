package calibration

import (
	"runtime"
	"slices"

	"github.com/agbru/lanefrac/internal/newton"
)

// TotalSteps is the Newton step budget shared by every burst candidate, so
// candidates differ only in how often the convergence gate is checked.
var TotalSteps = newton.DefaultOptions().MacroIters * newton.DefaultOptions().Burst

// MacroItersFor returns the number of bursts that spends TotalSteps steps in
// bursts of length burst, rounded up.
func MacroItersFor(burst int) int {
	if burst < 1 {
		return TotalSteps
	}
	return (TotalSteps + burst - 1) / burst
}

// NewtonOptionsFor returns the Newton options of a burst candidate.
func NewtonOptionsFor(burst int) newton.Options {
	return newton.Options{
		MacroIters: MacroItersFor(burst),
		Burst:      burst,
		Tolerance:  newton.DefaultOptions().Tolerance,
	}
}

// GenerateBurstCandidates lists the burst lengths tried by a full
// calibration. Short bursts stop sooner once a batch settles; long bursts
// spend less time in the gate.
func GenerateBurstCandidates() []int {
	return []int{1, 2, 4, 5, 8, 10, 16, 20, 25, 40}
}

// GenerateQuickBurstCandidates is the reduced set used at startup.
func GenerateQuickBurstCandidates() []int {
	return []int{4, 10, 25}
}

// GenerateWorkerCandidates lists row-worker counts to try: powers of two up
// to the CPU count, plus the CPU count itself.
func GenerateWorkerCandidates() []int {
	numCPU := runtime.NumCPU()
	candidates := []int{1}
	for w := 2; w < numCPU; w *= 2 {
		candidates = append(candidates, w)
	}
	if numCPU > 1 {
		candidates = append(candidates, numCPU)
	}
	return slices.Compact(candidates)
}

// EstimateOptimalWorkers is the worker count used before any measurement:
// one row per schedulable CPU.
func EstimateOptimalWorkers() int {
	return max(1, runtime.GOMAXPROCS(0))
}
