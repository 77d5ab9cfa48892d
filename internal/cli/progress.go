// Package cli renders the terminal side of lanefrac: the progress spinner,
// the run configuration banner, frame summaries and output files.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/lanefrac/internal/fractal"
)

const (
	// ProgressRefreshRate is the spinner redraw interval.
	ProgressRefreshRate = 200 * time.Millisecond
	ProgressBarWidth    = 40
	maxETA              = 24 * time.Hour
)

// Spinner abstracts the terminal spinner so DisplayProgress can be tested.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	return &realSpinner{spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)}
}

// ProgressState tracks the progress of concurrently running kernels and
// estimates the remaining time from a smoothed progress rate.
type ProgressState struct {
	progresses []float64

	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	// rate is in progress units per second, exponentially smoothed.
	rate float64
	now  func() time.Time
}

// NewProgressState tracks numKernels kernels, all starting at 0.
func NewProgressState(numKernels int) *ProgressState {
	if numKernels < 0 {
		numKernels = 0
	}
	ps := &ProgressState{progresses: make([]float64, numKernels), now: time.Now}
	ps.startTime = ps.now()
	ps.lastUpdate = ps.startTime
	return ps
}

// Update records value for kernel index and returns the new average and
// ETA. Out-of-range indices are ignored.
func (ps *ProgressState) Update(index int, value float64) (progress float64, eta time.Duration) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
	progress = ps.Average()

	now := ps.now()
	if now.Sub(ps.startTime) < 100*time.Millisecond || progress <= 0.001 {
		ps.lastUpdate = now
		ps.lastProgress = progress
		return progress, 0
	}

	if dt := now.Sub(ps.lastUpdate).Seconds(); dt > 0.05 {
		if delta := progress - ps.lastProgress; delta > 0 {
			if ps.rate > 0 {
				ps.rate = 0.7*ps.rate + 0.3*(delta/dt)
			} else {
				ps.rate = progress / now.Sub(ps.startTime).Seconds()
			}
		}
		ps.lastUpdate = now
		ps.lastProgress = progress
	}
	return progress, ps.ETA()
}

// Average returns the mean progress over all kernels.
func (ps *ProgressState) Average() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(len(ps.progresses))
}

// ETA returns the estimated remaining time, or 0 while no rate is known.
func (ps *ProgressState) ETA() time.Duration {
	progress := ps.Average()
	if ps.rate <= 0 || progress >= 1 {
		return 0
	}
	eta := time.Duration((1 - progress) / ps.rate * float64(time.Second))
	return min(eta, maxETA)
}

// FormatETA renders eta as "< 1s", "42s", "2m30s" or "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h, m := int(eta.Hours()), int(eta.Minutes())%60
	if m > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

func progressBar(progress float64, length int) string {
	progress = max(0, min(progress, 1))
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := range length {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

func progressLine(numKernels int, progress float64, eta string) string {
	label := "Progress"
	if numKernels > 1 {
		label = "Avg progress"
	}
	return fmt.Sprintf("%s: %6.2f%% [%s] ETA: %s", label, progress*100, progressBar(progress, ProgressBarWidth), eta)
}

// DisplayProgress consumes progressChan until it is closed, animating a
// spinner with the average progress of numKernels kernels, then prints a
// final 100% line. It calls wg.Done on return.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan fractal.ProgressUpdate, numKernels int, out io.Writer) {
	defer wg.Done()
	if numKernels <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressState(numKernels)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				stopped = true
				fmt.Fprintln(out, progressLine(numKernels, 1, "< 1s"))
				return
			}
			state.Update(update.KernelIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(" " + progressLine(numKernels, state.Average(), FormatETA(state.ETA())))
		}
	}
}
