package calibration

import (
	"context"
	"math"
	"time"

	"github.com/agbru/lanefrac/internal/fractal"
)

// CalibrationView is the frame rendered by each trial: the three basins of
// z^3 - 1, which mixes batches that settle in one burst with batches near
// the basin boundaries that never settle.
func CalibrationView() fractal.View {
	return fractal.View{Center: 0, Span: 3, Width: 256, Height: 192}
}

const noDuration = time.Duration(math.MaxInt64)

type calibrationRunner struct {
	ctx      context.Context
	perTrial time.Duration
}

// newCalibrationRunner splits timeout across trials, with a floor of two
// seconds per trial.
func newCalibrationRunner(ctx context.Context, timeout time.Duration) *calibrationRunner {
	perTrial := max(timeout/6, 2*time.Second)
	return &calibrationRunner{ctx: ctx, perTrial: perTrial}
}

func (r *calibrationRunner) runTrial(kernel fractal.Kernel, opts fractal.Options) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()
	start := time.Now()
	_, err := kernel.Render(ctx, nil, 0, CalibrationView(), opts)
	return time.Since(start), err
}

// findBestBurst returns the fastest burst candidate at the given worker
// count, or fallback and noDuration when every trial failed.
func (r *calibrationRunner) findBestBurst(kernel fractal.Kernel, workers, fallback int) (int, time.Duration) {
	best, bestDur := fallback, noDuration
	for _, burst := range GenerateQuickBurstCandidates() {
		opts := fractal.DefaultOptions()
		opts.Newton = NewtonOptionsFor(burst)
		opts.Workers = workers
		dur, err := r.runTrial(kernel, opts)
		if err != nil {
			continue
		}
		if dur < bestDur {
			best, bestDur = burst, dur
		}
	}
	return best, bestDur
}

// findBestWorkers returns the fastest worker count at the given burst.
func (r *calibrationRunner) findBestWorkers(kernel fractal.Kernel, burst, fallback int) (int, time.Duration) {
	best, bestDur := fallback, noDuration
	for _, workers := range GenerateWorkerCandidates() {
		opts := fractal.DefaultOptions()
		opts.Newton = NewtonOptionsFor(burst)
		opts.Workers = workers
		dur, err := r.runTrial(kernel, opts)
		if err != nil {
			continue
		}
		if dur < bestDur {
			best, bestDur = workers, dur
		}
	}
	return best, bestDur
}
