// Package orchestration runs the selected kernels concurrently and turns
// their frames into the CLI report and output files.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/lanefrac/internal/cli"
	"github.com/agbru/lanefrac/internal/config"
	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/framefile"
	"github.com/agbru/lanefrac/internal/ui"
)

// RenderResult is the outcome of one kernel render.
type RenderResult struct {
	Name     string
	Frame    *fractal.Frame
	Duration time.Duration
	// Err is an apperrors.RenderError when the render failed.
	Err error
}

// ProgressBufferMultiplier sizes the shared progress channel per kernel.
const ProgressBufferMultiplier = 5

// ExecuteRenders renders cfg's view with every kernel concurrently. Progress
// is drawn on out unless cfg asks for quiet or JSON output. The returned
// slice is in the order of kernels.
func ExecuteRenders(ctx context.Context, kernels []fractal.Kernel, cfg config.AppConfig, out io.Writer) []RenderResult {
	results := make([]RenderResult, len(kernels))
	opts, err := cfg.ToRenderOptions()
	if err != nil {
		for i, k := range kernels {
			results[i] = RenderResult{Name: k.Name(), Err: apperrors.NewRenderError(k.Name(), err)}
		}
		return results
	}
	view := cfg.View()

	progressOut := out
	if cfg.Quiet || cfg.JSONOutput {
		progressOut = io.Discard
	}

	g, ctx := errgroup.WithContext(ctx)
	progressChan := make(chan fractal.ProgressUpdate, len(kernels)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(kernels), progressOut)

	for i, k := range kernels {
		g.Go(func() error {
			start := time.Now()
			frame, err := k.Render(ctx, progressChan, i, view, opts)
			results[i] = RenderResult{
				Name:     k.Name(),
				Frame:    frame,
				Duration: time.Since(start),
				Err:      apperrors.NewRenderError(k.Name(), err),
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// AnalyzeResults reports results in the format cfg selects and returns the
// exit code. Any failure makes the run fail; the earliest failure in report
// order picks the code.
func AnalyzeResults(results []RenderResult, cfg config.AppConfig, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstError error
	for _, res := range results {
		if res.Err != nil {
			firstError = res.Err
			break
		}
	}

	switch {
	case cfg.JSONOutput:
		summaries := make([]cli.FrameSummary, len(results))
		for i, res := range results {
			summaries[i] = cli.NewFrameSummary(res.Name, res.Frame, res.Duration, res.Err)
		}
		if err := cli.WriteJSON(out, summaries); err != nil {
			return apperrors.HandleRenderError(err, 0, io.Discard, nil)
		}
		return exitCode(firstError)
	case cfg.Quiet:
		for _, res := range results {
			if res.Err == nil {
				cli.DisplayQuietResult(res.Frame, res.Duration, out)
			}
		}
		return exitCode(firstError)
	}

	printSummary(results, out)
	for _, res := range results {
		if res.Err == nil {
			fmt.Fprintln(out)
			cli.DisplayResult(res.Frame, res.Duration, cfg.Details, out)
		}
	}

	if firstError != nil {
		fmt.Fprintf(out, "\nGlobal Status: Failure.\n")
		return apperrors.HandleRenderError(firstError, 0, out, ui.ErrorColors{})
	}
	fmt.Fprintf(out, "\nGlobal Status: Success. All kernels completed.\n")
	return apperrors.ExitSuccess
}

func exitCode(err error) int {
	return apperrors.HandleRenderError(err, 0, io.Discard, nil)
}

func printSummary(results []RenderResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Render Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sKernel%s\t%sDuration%s\t%sPixels%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())

	for _, res := range results {
		status := fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
		pixels := "-"
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		} else if res.Frame != nil {
			pixels = cli.FormatCount(res.Frame.View.Pixels())
		}
		duration := cli.FormatExecutionDuration(res.Duration)
		if res.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(),
			pixels, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}

// WriteOutputs saves every successful frame to cfg.Output. Nothing is
// written when cfg.Output is empty. With several results each file gets the
// kernel name as a suffix.
func WriteOutputs(results []RenderResult, cfg config.AppConfig, out io.Writer) error {
	if cfg.Output == "" {
		return nil
	}
	codec, err := framefile.ParseCodec(cfg.Codec)
	if err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	multi := len(results) > 1
	for _, res := range results {
		if res.Err != nil || res.Frame == nil {
			continue
		}
		path := cli.OutputPath(cfg.Output, res.Name, multi)
		if err := cli.WriteFrame(path, res.Frame, codec); err != nil {
			return apperrors.WrapError(err, "writing %s", path)
		}
		if !cfg.Quiet && !cfg.JSONOutput {
			fmt.Fprintf(out, "%s✓ Frame saved to: %s%s%s\n", ui.ColorGreen(), ui.ColorCyan(), path, ui.ColorReset())
		}
	}
	return nil
}
