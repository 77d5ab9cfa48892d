package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/agbru/lanefrac/internal/calibration"
	"github.com/agbru/lanefrac/internal/cli"
	"github.com/agbru/lanefrac/internal/config"
	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/logging"
	"github.com/agbru/lanefrac/internal/orchestration"
	"github.com/agbru/lanefrac/internal/server"
	"github.com/agbru/lanefrac/internal/ui"
)

// Application is one lanefrac invocation: the parsed configuration and the
// kernels it may run.
type Application struct {
	Config config.AppConfig
	// Factory is an interface so tests can substitute kernels.
	Factory   fractal.KernelFactory
	ErrWriter io.Writer
}

// New parses args (args[0] is the program name) and applies a cached
// calibration profile to any tuning flag left at its default.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := fractal.GlobalFactory()

	programName := "lanefrac"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}
	if cached, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
		cfg = applyCachedTuning(cfg, cached)
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
	}, nil
}

// applyCachedTuning copies the calibrated values of cached into cfg, but
// only where cfg still holds the built-in default, so explicit flags win.
func applyCachedTuning(cfg, cached config.AppConfig) config.AppConfig {
	if cfg.Burst == config.DefaultBurst && cfg.MacroIters == config.DefaultMacroIters {
		cfg.Burst = cached.Burst
		cfg.MacroIters = cached.MacroIters
	}
	if cfg.Workers == 0 {
		cfg.Workers = cached.Workers
	}
	return cfg
}

// Run dispatches to completion, server, calibration or render mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	// Validate already rejected unknown level names.
	if lvl, err := logging.ParseLevel(a.Config.LogLevel); err == nil {
		logging.SetGlobalLevel(lvl)
	}
	ui.InitTheme(a.Config.NoColor, a.Config.Theme)

	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}
	if a.Config.ServerMode {
		return a.runServer(ctx)
	}
	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}

	a.Config = a.runAutoCalibrationIfEnabled(ctx, out)
	return a.runRender(ctx, out)
}

func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) runServer(ctx context.Context) int {
	srv, err := server.NewServer(a.Factory, a.Config)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	return calibration.RunCalibrationWithOptions(ctx, out, a.Factory.GetAll(), calibration.Options{
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
	})
}

func (a *Application) runAutoCalibrationIfEnabled(ctx context.Context, out io.Writer) config.AppConfig {
	if !a.Config.AutoCalibrate {
		return a.Config
	}
	calOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		calOut = io.Discard
	}
	if updated, ok := calibration.AutoCalibrate(ctx, a.Config, calOut, a.Factory.GetAll()); ok {
		return updated
	}
	return a.Config
}

// runRender renders with every selected kernel, saves the frames and prints
// the report.
func (a *Application) runRender(ctx context.Context, out io.Writer) int {
	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	kernels := cli.GetKernelsToRun(a.Config, a.Factory)
	if len(kernels) == 0 {
		fmt.Fprintf(a.ErrWriter, "No kernel matches %q\n", a.Config.Kernel)
		return apperrors.ExitErrorConfig
	}

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(kernels, out)
	}

	results := orchestration.ExecuteRenders(ctx, kernels, a.Config, out)
	if err := orchestration.WriteOutputs(results, a.Config, out); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving frames: %v\n", err)
		var cfgErr apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			return apperrors.ExitErrorConfig
		}
		return apperrors.ExitErrorGeneric
	}
	return orchestration.AnalyzeResults(results, a.Config, out)
}

// IsHelpError reports whether err comes from -h or --help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
