// Package config parses the lanefrac command line. Every flag can also be
// set through a LANEFRAC_-prefixed environment variable; an explicit flag
// wins over the environment, which wins over the default.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	apperrors "github.com/agbru/lanefrac/internal/errors"
	"github.com/agbru/lanefrac/internal/fractal"
	"github.com/agbru/lanefrac/internal/framefile"
	"github.com/agbru/lanefrac/internal/logging"
	"github.com/agbru/lanefrac/internal/newton"
	"github.com/agbru/lanefrac/internal/poly"
	"github.com/agbru/lanefrac/internal/render"
	"github.com/agbru/lanefrac/internal/ui"
)

// EnvPrefix prefixes every environment variable read by ParseConfig.
const EnvPrefix = "LANEFRAC_"

// Default configuration values.
const (
	DefaultKernel     = "all"
	DefaultWidth      = 800
	DefaultHeight     = 600
	DefaultCenterRe   = -0.5
	DefaultCenterIm   = 0.0
	DefaultSpan       = 3.5
	DefaultMaxIters   = fractal.DefaultMaxIters
	DefaultBurst      = 10
	DefaultMacroIters = 20
	DefaultTolerance  = 1e-10
	DefaultPolynomial = "-1,0,0,1"
	DefaultJuliaRe    = -0.8
	DefaultJuliaIm    = 0.156
	DefaultTimeout    = 2 * time.Minute
	DefaultPort       = "8080"
	DefaultLogLevel   = "info"
	DefaultTheme      = "dark"
	DefaultCodec      = "zstd"
)

// AppConfig holds the parsed command line.
type AppConfig struct {
	// Kernel is "all" or the name of a registered kernel.
	Kernel string

	Width    int
	Height   int
	CenterRe float64
	CenterIm float64
	// Span is the width of the view along the real axis.
	Span float64

	MaxIters   int
	Burst      int
	MacroIters int
	Tolerance  float64
	// Polynomial lists ascending-degree coefficients, see poly.Parse.
	Polynomial string
	JuliaRe    float64
	JuliaIm    float64
	// Workers caps concurrent rows per kernel. 0 means GOMAXPROCS.
	Workers int
	Timeout time.Duration

	// Output is the destination file. Its extension selects png, bmp or
	// tiff; framefile.Extension selects the raw frame dump. Empty means no
	// file is written.
	Output string
	// Codec compresses raw frame dumps: "zstd" or "lz4".
	Codec string

	JSONOutput bool
	Quiet      bool
	Details    bool
	NoColor    bool
	Theme      string

	ServerMode bool
	Port       string

	Calibrate          bool
	AutoCalibrate      bool
	CalibrationProfile string

	// Completion names a shell; when set, lanefrac prints its completion
	// script and exits.
	Completion string

	LogLevel string
}

// View returns the render window described by the configuration.
func (c AppConfig) View() fractal.View {
	return fractal.View{
		Center: complex(c.CenterRe, c.CenterIm),
		Span:   c.Span,
		Width:  c.Width,
		Height: c.Height,
	}
}

// ToRenderOptions converts the configuration into renderer options.
func (c AppConfig) ToRenderOptions() (fractal.Options, error) {
	p, err := poly.Parse(c.Polynomial)
	if err != nil {
		return fractal.Options{}, apperrors.NewConfigError("invalid polynomial %q: %v", c.Polynomial, err)
	}
	return fractal.Options{
		MaxIters: c.MaxIters,
		Newton: newton.Options{
			MacroIters: c.MacroIters,
			Burst:      c.Burst,
			Tolerance:  c.Tolerance,
		},
		Polynomial: p,
		JuliaC:     complex(c.JuliaRe, c.JuliaIm),
		Workers:    c.Workers,
	}, nil
}

// Validate checks the configuration against the kernels that can be
// selected: ranges, the view, the polynomial, the output format, the codec,
// the log level and the theme.
//
// Parameters:
//   - kernels: The registered kernel names (e.g. ["julia", "mandelbrot"]).
//     "all" is always accepted.
//
// Returns:
//   - error: An apperrors.ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(kernels []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Kernel != DefaultKernel && !slices.Contains(kernels, c.Kernel) {
		return apperrors.NewConfigError("unrecognized kernel: '%s'. Valid kernels are: 'all' or [%s]", c.Kernel, strings.Join(kernels, ", "))
	}
	if c.MaxIters < 1 {
		return apperrors.NewConfigError("max-iters must be at least 1: %d", c.MaxIters)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("workers cannot be negative: %d", c.Workers)
	}
	if math.IsNaN(c.JuliaRe) || math.IsNaN(c.JuliaIm) || math.IsInf(c.JuliaRe, 0) || math.IsInf(c.JuliaIm, 0) {
		return apperrors.NewConfigError("julia parameter must be finite")
	}
	if err := c.View().Validate(); err != nil {
		return apperrors.NewConfigError("invalid view: %v", err)
	}
	opts, err := c.ToRenderOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return apperrors.NewConfigError("invalid render options: %v", err)
	}
	if c.Output != "" && !strings.EqualFold(filepath.Ext(c.Output), framefile.Extension) {
		if _, err := render.FormatFromPath(c.Output); err != nil {
			return apperrors.NewConfigError("invalid output: %v", err)
		}
	}
	if _, err := framefile.ParseCodec(c.Codec); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if !slices.Contains(ui.ThemeNames(), c.Theme) {
		return apperrors.NewConfigError("unknown theme %q. Valid themes are: [%s]", c.Theme, strings.Join(ui.ThemeNames(), ", "))
	}
	return nil
}

// ParseConfig parses args (without the program name), applies environment
// overrides and validates the result against kernels. Parse and validation
// errors are reported on errorWriter together with the usage text.
//
// Parameters:
//   - programName: The name shown in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parse errors and usage information are printed.
//   - kernels: The registered kernel names accepted by -kernel.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: flag.ErrHelp for -h, or an error if parsing or validation
//     fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, kernels []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	kernelHelp := fmt.Sprintf("Kernel to render: 'all' or one of [%s].", strings.Join(kernels, ", "))

	config := AppConfig{}
	fs.StringVar(&config.Kernel, "kernel", DefaultKernel, kernelHelp)
	fs.IntVar(&config.Width, "width", DefaultWidth, "Image width in pixels.")
	fs.IntVar(&config.Height, "height", DefaultHeight, "Image height in pixels.")
	fs.Float64Var(&config.CenterRe, "re", DefaultCenterRe, "Real part of the view center.")
	fs.Float64Var(&config.CenterIm, "im", DefaultCenterIm, "Imaginary part of the view center.")
	fs.Float64Var(&config.Span, "span", DefaultSpan, "Width of the view along the real axis.")
	fs.IntVar(&config.MaxIters, "max-iters", DefaultMaxIters, "Escape-time iteration budget (mandelbrot, julia).")
	fs.IntVar(&config.Burst, "burst", DefaultBurst, "Newton steps between convergence checks.")
	fs.IntVar(&config.MacroIters, "macro-iters", DefaultMacroIters, "Maximum number of Newton bursts.")
	fs.Float64Var(&config.Tolerance, "tol", DefaultTolerance, "Newton convergence tolerance.")
	fs.StringVar(&config.Polynomial, "poly", DefaultPolynomial, "Newton polynomial as ascending coefficients, e.g. '-1,0,0,1' for z^3-1.")
	fs.Float64Var(&config.JuliaRe, "julia-re", DefaultJuliaRe, "Real part of the julia parameter.")
	fs.Float64Var(&config.JuliaIm, "julia-im", DefaultJuliaIm, "Imaginary part of the julia parameter.")
	fs.IntVar(&config.Workers, "workers", 0, "Rows rendered concurrently per kernel (0 = GOMAXPROCS).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")
	fs.StringVar(&config.Output, "output", "", "Output file (.png, .bmp, .tiff or "+framefile.Extension+").")
	fs.StringVar(&config.Output, "o", "", "Output file (shorthand).")
	fs.StringVar(&config.Codec, "codec", DefaultCodec, "Compression of "+framefile.Extension+" dumps: zstd or lz4.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Print frame statistics as JSON.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Details, "d", false, "Display detailed frame statistics.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.Theme, "theme", DefaultTheme, "Color theme: "+strings.Join(ui.ThemeNames(), ", ")+".")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Benchmark Newton burst lengths and worker counts, then exit.")
	fs.BoolVar(&config.AutoCalibrate, "auto-calibrate", false, "Run a quick calibration at startup and apply it.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to the calibration profile (default: ~/.lanefrac_calibration.json).")
	fs.StringVar(&config.Completion, "completion", "", "Print a shell completion script (bash, zsh, fish, powershell) and exit.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error or off.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)

	config.Kernel = strings.ToLower(config.Kernel)
	config.Codec = strings.ToLower(config.Codec)
	config.Theme = strings.ToLower(config.Theme)
	if err := config.Validate(kernels); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.Join(errors.New("invalid configuration"), err)
	}
	return config, nil
}
