// Command lanefrac renders Newton, Mandelbrot and Julia fractals with
// lane-vectorized complex arithmetic, from the command line or over HTTP.
package main

import (
	"context"
	"os"

	"github.com/agbru/lanefrac/internal/app"
	apperrors "github.com/agbru/lanefrac/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitErrorConfig)
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}
