package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies terminal color codes. It keeps this package free of
// a dependency on the ui package.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes.
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleRenderError prints a status line for a failed render and returns the
// matching exit code. Timeouts and cancellations get their own codes; every
// other error maps to ExitErrorGeneric. A nil error returns ExitSuccess and
// prints nothing.
//
// Parameters:
//   - err: The render error, possibly wrapped in a RenderError.
//   - duration: How long the render ran. Zero omits the "after" suffix.
//   - out: The io.Writer receiving the status line.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The exit code for the error type.
func HandleRenderError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	}
	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(out, "Status: Configuration error: %v\n", err)
		return ExitErrorConfig
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}
