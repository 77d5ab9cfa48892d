package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/lanefrac/internal/config"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/ui"
)

// GetKernelsToRun resolves cfg.Kernel against factory. "all" selects every
// registered kernel in sorted order; an unknown name yields nil.
func GetKernelsToRun(cfg config.AppConfig, factory fractal.KernelFactory) []fractal.Kernel {
	if cfg.Kernel == config.DefaultKernel {
		names := factory.List()
		kernels := make([]fractal.Kernel, 0, len(names))
		for _, name := range names {
			if k, err := factory.Get(name); err == nil {
				kernels = append(kernels, k)
			}
		}
		return kernels
	}
	if k, err := factory.Get(cfg.Kernel); err == nil {
		return []fractal.Kernel{k}
	}
	return nil
}

// PrintExecutionConfig prints the view, the iteration budgets and the host
// the run executes on.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	v := cfg.View()
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Rendering %s%dx%d%s pixels centred on %s%v%s, span %s%g%s, timeout %s%s%s.\n",
		ui.ColorMagenta(), v.Width, v.Height, ui.ColorReset(),
		ui.ColorMagenta(), v.Center, ui.ColorReset(),
		ui.ColorMagenta(), v.Span, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Budgets: escape=%s%d%s iterations, newton=%s%d%sx%s%d%s steps (tol %g), poly=%s.\n",
		ui.ColorCyan(), cfg.MaxIters, ui.ColorReset(),
		ui.ColorCyan(), cfg.MacroIters, ui.ColorReset(),
		ui.ColorCyan(), cfg.Burst, ui.ColorReset(),
		cfg.Tolerance, cfg.Polynomial)
	target := lanes.HostTarget()
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s, %s%d%s lanes on %s%s%s (%d registers per vector).\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), runtime.Version(),
		ui.ColorCyan(), lanes.Width, ui.ColorReset(),
		ui.ColorCyan(), target, ui.ColorReset(), lanes.RegistersPerVector(target))
}

// PrintExecutionMode announces whether one kernel or several run.
func PrintExecutionMode(kernels []fractal.Kernel, out io.Writer) {
	switch len(kernels) {
	case 0:
		fmt.Fprintf(out, "Execution mode: no kernel selected.\n")
		return
	case 1:
		fmt.Fprintf(out, "Execution mode: single render with the %s%s%s kernel.\n", ui.ColorGreen(), kernels[0].Name(), ui.ColorReset())
	default:
		fmt.Fprintf(out, "Execution mode: %d kernels rendered concurrently.\n", len(kernels))
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
