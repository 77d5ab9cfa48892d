package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/lanefrac/internal/cli"
	"github.com/agbru/lanefrac/internal/config"
	"github.com/agbru/lanefrac/internal/ui"
)

func printCalibrationResults(out io.Writer, results []calibrationResult, bestBurst, bestWorkers int) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sParameter%s    │ %sExecution Time%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 25))
	for _, res := range results {
		label := fmt.Sprintf("%s %d", res.Label, res.Value)
		if res.Label == "workers" && res.Value == 0 {
			label = "workers auto"
		}
		durationStr := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			durationStr = cli.FormatExecutionDuration(res.Duration)
		}
		highlight := ""
		best := (res.Label == "burst" && res.Value == bestBurst) || (res.Label == "workers" && res.Value == bestWorkers)
		if best && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12s%s │ %s%s%s%s\n", ui.ColorCyan(), label, ui.ColorReset(), ui.ColorYellow(), durationStr, ui.ColorReset(), highlight)
	}
	tw.Flush()
}

func printRecommendation(out io.Writer, burst, macroIters, workers int) {
	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s--burst %d --macro-iters %d --workers %d%s\n",
		ui.ColorGreen(), ui.ColorYellow(), burst, macroIters, workers, ui.ColorReset())
}

func printCalibrationOutput(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "burst=%s%d%s, macro-iters=%s%d%s, workers=%s%d%s\n",
		ui.ColorYellow(), cfg.Burst, ui.ColorReset(),
		ui.ColorYellow(), cfg.MacroIters, ui.ColorReset(),
		ui.ColorYellow(), cfg.Workers, ui.ColorReset())
}
