package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/ui"
)

var printer = message.NewPrinter(language.English)

// FormatExecutionDuration shows microseconds below a millisecond,
// milliseconds below a second and the default form otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatCount inserts thousands separators, e.g. 1234567 -> "1,234,567".
func FormatCount[T int | int64](n T) string {
	return printer.Sprintf("%d", n)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// DisplayResult prints the summary of one rendered frame. details adds the
// per-kind statistics.
func DisplayResult(frame *fractal.Frame, duration time.Duration, details bool, out io.Writer) {
	st := frame.Stats()
	fmt.Fprintf(out, "%s%s%s: %s pixels (%dx%d, %s) in %s%s%s.\n",
		ui.ColorBold(), frame.Kernel, ui.ColorReset(),
		FormatCount(st.Pixels), frame.View.Width, frame.View.Height, frame.Kind,
		ui.ColorGreen(), FormatExecutionDuration(duration), ui.ColorReset())
	if !details {
		return
	}

	fmt.Fprintf(out, "\n%s--- Frame statistics ---%s\n", ui.ColorBold(), ui.ColorReset())
	switch frame.Kind {
	case fractal.KindEscape:
		fmt.Fprintf(out, "Interior pixels    : %s%s%s (%.2f%%)\n", ui.ColorCyan(), FormatCount(st.Interior), ui.ColorReset(), percent(st.Interior, st.Pixels))
		fmt.Fprintf(out, "Escaped pixels     : %s%s%s\n", ui.ColorCyan(), FormatCount(st.Escaped), ui.ColorReset())
		fmt.Fprintf(out, "Mean escape count  : %s%.2f%s of %d\n", ui.ColorCyan(), st.MeanEscape, ui.ColorReset(), frame.MaxIters)
		fmt.Fprintf(out, "Interior area      : %s%.6f%s\n", ui.ColorCyan(), st.InteriorArea, ui.ColorReset())
	case fractal.KindRoot:
		fmt.Fprintf(out, "Batches            : %s%s%s\n", ui.ColorCyan(), FormatCount(frame.Batches), ui.ColorReset())
		fmt.Fprintf(out, "Mean bursts        : %s%.2f%s\n", ui.ColorCyan(), st.MeanBursts, ui.ColorReset())
		fmt.Fprintf(out, "Converged batches  : %s%.2f%%%s\n", ui.ColorCyan(), 100*st.ConvergedRatio, ui.ColorReset())
		fmt.Fprintf(out, "Diverged pixels    : %s%s%s\n", ui.ColorCyan(), FormatCount(st.Diverged), ui.ColorReset())
	}
}

// DisplayQuietResult prints one tab-separated line per frame for scripts.
func DisplayQuietResult(frame *fractal.Frame, duration time.Duration, out io.Writer) {
	st := frame.Stats()
	fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%s\n", frame.Kernel, st.Pixels, st.Interior, st.Diverged, duration)
}

// FrameSummary is the JSON form of a render result.
type FrameSummary struct {
	Kernel     string             `json:"kernel"`
	Kind       string             `json:"kind"`
	View       fractal.View       `json:"view"`
	MaxIters   int                `json:"max_iters"`
	DurationMS float64            `json:"duration_ms"`
	Stats      fractal.FrameStats `json:"stats"`
	Error      string             `json:"error,omitempty"`
}

// NewFrameSummary builds the summary of frame. A nil frame yields an entry
// that carries only the kernel name and err.
func NewFrameSummary(kernel string, frame *fractal.Frame, duration time.Duration, err error) FrameSummary {
	s := FrameSummary{Kernel: kernel, DurationMS: float64(duration) / float64(time.Millisecond)}
	if err != nil {
		s.Error = err.Error()
	}
	if frame != nil {
		s.Kind = frame.Kind.String()
		s.View = frame.View
		s.MaxIters = frame.MaxIters
		s.Stats = frame.Stats()
	}
	return s
}

// WriteJSON encodes summaries as an indented JSON array.
func WriteJSON(out io.Writer, summaries []FrameSummary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
