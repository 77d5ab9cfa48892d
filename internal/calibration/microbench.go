package calibration

import (
	"context"
	"sort"
	"time"

	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/newton"
	"github.com/agbru/lanefrac/internal/poly"
)

const (
	// MicroBenchIterations is the number of timed repetitions per candidate.
	MicroBenchIterations = 3
	// MicroBenchTimeout bounds the whole micro-benchmark.
	MicroBenchTimeout = 150 * time.Millisecond
	// MicroBenchBatches is the number of lane batches solved per repetition.
	MicroBenchBatches = 512
)

// MicroBenchmark times newton.Solve directly on a fixed set of batches,
// without the frame renderer, to pick a burst length quickly.
type MicroBenchmark struct {
	Candidates []int
	Iterations int
	Timeout    time.Duration
	batches    []lanes.C64
}

// BurstResults is the outcome of a micro-benchmark.
type BurstResults struct {
	Burst      int
	MacroIters int
	// Confidence is in [0, 1]. Results under 0.5 should not be trusted.
	Confidence float64
	Duration   time.Duration
}

type candidateTiming struct {
	burst int
	// best is the fastest repetition.
	best time.Duration
	runs int
}

// NewMicroBenchmark returns a benchmark over GenerateQuickBurstCandidates.
func NewMicroBenchmark() *MicroBenchmark {
	return &MicroBenchmark{
		Candidates: GenerateQuickBurstCandidates(),
		Iterations: MicroBenchIterations,
		Timeout:    MicroBenchTimeout,
		batches:    benchBatches(MicroBenchBatches),
	}
}

// benchBatches samples rows spread across the calibration view so the mix of
// fast and slow batches matches a real render.
func benchBatches(n int) []lanes.C64 {
	view := CalibrationView()
	out := make([]lanes.C64, 0, n)
	var row []complex128
	for py := 0; len(out) < n; py = (py + 7) % view.Height {
		row = view.Row(py, row)
		for px := 0; px+lanes.Width <= view.Width && len(out) < n; px += lanes.Width {
			out = append(out, lanes.LoadSlice(row[px:px+lanes.Width]))
		}
	}
	return out
}

// RunQuick times every candidate and returns the fastest. The context
// deadline, or mb.Timeout, cuts the run short; candidates that never ran
// lower the confidence.
func (mb *MicroBenchmark) RunQuick(ctx context.Context) (BurstResults, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, mb.Timeout)
	defer cancel()

	p := poly.MustNew(-1, 0, 0, 1)
	dp := p.Derive()

	timings := make([]candidateTiming, 0, len(mb.Candidates))
	for _, burst := range mb.Candidates {
		t := candidateTiming{burst: burst}
		opts := NewtonOptionsFor(burst)
		for range mb.Iterations {
			if ctx.Err() != nil {
				break
			}
			began := time.Now()
			for _, x0 := range mb.batches {
				newton.Solve(x0, p, dp, opts)
			}
			d := time.Since(began)
			if t.runs == 0 || d < t.best {
				t.best = d
			}
			t.runs++
		}
		timings = append(timings, t)
	}

	res := analyzeTimings(timings, mb.Iterations)
	res.Duration = time.Since(start)
	return res, nil
}

// analyzeTimings picks the fastest candidate. Confidence starts at 0.5, is
// raised when every repetition ran and when the winner leads the runner-up
// by at least 5%, and drops to 0 when nothing ran.
func analyzeTimings(timings []candidateTiming, iterations int) BurstResults {
	res := BurstResults{
		Burst:      newton.DefaultOptions().Burst,
		MacroIters: newton.DefaultOptions().MacroIters,
	}
	measured := make([]candidateTiming, 0, len(timings))
	complete := true
	for _, t := range timings {
		if t.runs > 0 {
			measured = append(measured, t)
		}
		if t.runs < iterations {
			complete = false
		}
	}
	if len(measured) == 0 {
		return res
	}
	sort.SliceStable(measured, func(i, j int) bool { return measured[i].best < measured[j].best })

	res.Burst = measured[0].burst
	res.MacroIters = MacroItersFor(res.Burst)
	res.Confidence = 0.5
	if complete {
		res.Confidence += 0.25
	}
	if len(measured) == 1 || measured[0].best*105 <= measured[1].best*100 {
		res.Confidence += 0.25
	}
	return res
}

// QuickCalibrate runs the default micro-benchmark.
func QuickCalibrate(ctx context.Context) (BurstResults, error) {
	return NewMicroBenchmark().RunQuick(ctx)
}
