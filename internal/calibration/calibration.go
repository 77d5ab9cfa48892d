package calibration

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/agbru/lanefrac/internal/cli"
	"github.com/agbru/lanefrac/internal/config"
	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/ui"
)

// CalibrationKernel is the kernel every trial renders. Only the newton
// kernel has a burst length to tune.
const CalibrationKernel = "newton"

// Options configures RunCalibrationWithOptions.
type Options struct {
	// ProfilePath overrides GetDefaultProfilePath.
	ProfilePath string
	// SaveProfile stores the result.
	SaveProfile bool
	// LoadProfile reuses a valid stored profile instead of measuring.
	LoadProfile bool
}

type calibrationResult struct {
	Label    string
	Value    int
	Duration time.Duration
	Err      error
}

// RunCalibration measures every burst candidate, then every worker count at
// the winning burst, prints the table and saves the profile.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - out: The io.Writer receiving progress and results.
//   - kernels: The available kernels, which must include "newton".
//
// Returns:
//   - int: The exit code (0 for success, non-zero for errors).
func RunCalibration(ctx context.Context, out io.Writer, kernels map[string]fractal.Kernel) int {
	return RunCalibrationWithOptions(ctx, out, kernels, Options{SaveProfile: true})
}

// RunCalibrationWithOptions is RunCalibration with explicit profile handling.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, kernels map[string]fractal.Kernel, opts Options) int {
	fmt.Fprintf(out, "--- Calibration Mode: Newton burst length and row workers ---\n")

	if opts.LoadProfile {
		if profile, loaded := LoadOrCreateProfile(opts.ProfilePath); loaded {
			fmt.Fprintf(out, "%sLoaded existing calibration profile from %s%s\n",
				ui.ColorGreen(), resolvePath(opts.ProfilePath), ui.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile)
			printRecommendation(out, profile.OptimalBurst, profile.OptimalMacroIters, profile.OptimalWorkers)
			return apperrors.ExitSuccess
		}
	}

	kernel := kernels[CalibrationKernel]
	if kernel == nil {
		fmt.Fprintf(out, "%sCritical error: the '%s' kernel is required for calibration but was not found.%s\n",
			ui.ColorRed(), CalibrationKernel, ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	bursts := GenerateBurstCandidates()
	workers := GenerateWorkerCandidates()
	fmt.Fprintf(out, "%sTrying %d burst lengths and %d worker counts on %d cores (%s, %d lanes)%s\n",
		ui.ColorCyan(), len(bursts), len(workers), runtime.NumCPU(), lanes.HostTarget(), lanes.Width, ui.ColorReset())

	start := time.Now()
	var wg sync.WaitGroup
	progressChan := make(chan fractal.ProgressUpdate, 5)
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, 1, out)
	stopProgress := func() {
		close(progressChan)
		wg.Wait()
	}

	results := make([]calibrationResult, 0, len(bursts)+len(workers))
	measure := func(label string, value int, opts fractal.Options) (time.Duration, error) {
		began := time.Now()
		_, err := kernel.Render(ctx, progressChan, 0, CalibrationView(), opts)
		d := time.Since(began)
		results = append(results, calibrationResult{Label: label, Value: value, Duration: d, Err: err})
		return d, err
	}

	bestBurst, bestBurstDur := newtonDefaultBurst(), noDuration
	for _, burst := range bursts {
		o := fractal.DefaultOptions()
		o.Newton = NewtonOptionsFor(burst)
		d, err := measure("burst", burst, o)
		if err != nil {
			if apperrors.IsContextError(err) {
				stopProgress()
				fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
				return apperrors.HandleRenderError(err, time.Since(start), out, ui.ErrorColors{})
			}
			continue
		}
		if d < bestBurstDur {
			bestBurst, bestBurstDur = burst, d
		}
	}

	bestWorkers, bestWorkersDur := 0, noDuration
	for _, w := range workers {
		o := fractal.DefaultOptions()
		o.Newton = NewtonOptionsFor(bestBurst)
		o.Workers = w
		d, err := measure("workers", w, o)
		if err != nil {
			if apperrors.IsContextError(err) {
				stopProgress()
				fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
				return apperrors.HandleRenderError(err, time.Since(start), out, ui.ErrorColors{})
			}
			continue
		}
		if d < bestWorkersDur {
			bestWorkers, bestWorkersDur = w, d
		}
	}
	stopProgress()

	if bestBurstDur == noDuration {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", ui.ColorRed(), ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, bestBurst, bestWorkers)
	macroIters := MacroItersFor(bestBurst)
	printRecommendation(out, bestBurst, macroIters, bestWorkers)

	if opts.SaveProfile {
		profile := NewProfile()
		profile.OptimalBurst = bestBurst
		profile.OptimalMacroIters = macroIters
		profile.OptimalWorkers = bestWorkers
		profile.CalibrationTime = time.Since(start).String()
		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n", ui.ColorGreen(), resolvePath(opts.ProfilePath), ui.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

func newtonDefaultBurst() int {
	return fractal.DefaultOptions().Newton.Burst
}

// AutoCalibrate tunes cfg.Burst, cfg.MacroIters and cfg.Workers at startup.
// It tries a valid cached profile first, then the quick micro-benchmark when
// its confidence is at least 0.5, then a reduced full calibration.
//
// Parameters:
//   - ctx: The context bounding the calibration.
//   - cfg: The starting configuration. cfg.CalibrationProfile selects the
//     profile file.
//   - out: The io.Writer for the calibration summary.
//   - kernels: The available kernels.
//
// Returns:
//   - config.AppConfig: The configuration with the tuned values.
//   - bool: False when nothing could be measured; cfg is then returned
//     unchanged.
func AutoCalibrate(ctx context.Context, cfg config.AppConfig, out io.Writer, kernels map[string]fractal.Kernel) (config.AppConfig, bool) {
	kernel := kernels[CalibrationKernel]
	if kernel == nil {
		return cfg, false
	}

	if updated, ok := LoadCachedCalibration(cfg, cfg.CalibrationProfile); ok {
		fmt.Fprintf(out, "%sUsing cached calibration%s: ", ui.ColorGreen(), ui.ColorReset())
		printCalibrationOutput(updated, out)
		return updated, true
	}

	micro, err := QuickCalibrate(ctx)
	if err == nil && micro.Confidence >= 0.5 {
		updated := cfg
		updated.Burst = micro.Burst
		updated.MacroIters = micro.MacroIters
		updated.Workers = EstimateOptimalWorkers()
		fmt.Fprintf(out, "%sQuick calibration%s (%v, confidence %.0f%%): ",
			ui.ColorGreen(), ui.ColorReset(), micro.Duration.Round(time.Millisecond), micro.Confidence*100)
		printCalibrationOutput(updated, out)
		saveCalibrationProfile(updated, cfg.CalibrationProfile, out)
		return updated, true
	}

	runner := newCalibrationRunner(ctx, cfg.Timeout)
	burst, burstDur := runner.findBestBurst(kernel, cfg.Workers, cfg.Burst)
	workers, workersDur := runner.findBestWorkers(kernel, burst, cfg.Workers)
	updated, ok := applyCalibrationResults(cfg, burst, burstDur, workers, workersDur)
	if !ok {
		return cfg, false
	}
	saveCalibrationProfile(updated, cfg.CalibrationProfile, out)
	fmt.Fprintf(out, "%sAuto-calibration%s: ", ui.ColorGreen(), ui.ColorReset())
	printCalibrationOutput(updated, out)
	return updated, true
}

// LoadCachedCalibration applies a valid stored profile to cfg.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (config.AppConfig, bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return cfg, false
	}
	updated := cfg
	updated.Burst = profile.OptimalBurst
	updated.MacroIters = profile.OptimalMacroIters
	updated.Workers = profile.OptimalWorkers
	return updated, true
}

func applyCalibrationResults(cfg config.AppConfig, burst int, burstDur time.Duration, workers int, workersDur time.Duration) (config.AppConfig, bool) {
	if burstDur == noDuration && workersDur == noDuration {
		return cfg, false
	}
	updated := cfg
	if burstDur != noDuration {
		updated.Burst = burst
		updated.MacroIters = MacroItersFor(burst)
	}
	if workersDur != noDuration {
		updated.Workers = workers
	}
	return updated, true
}

func saveCalibrationProfile(cfg config.AppConfig, profilePath string, out io.Writer) {
	profile := NewProfile()
	profile.OptimalBurst = cfg.Burst
	profile.OptimalMacroIters = cfg.MacroIters
	profile.OptimalWorkers = cfg.Workers
	if err := profile.SaveProfile(profilePath); err != nil {
		fmt.Fprintf(out, "%sWarning: could not save calibration profile: %v%s\n",
			ui.ColorYellow(), err, ui.ColorReset())
	}
}
