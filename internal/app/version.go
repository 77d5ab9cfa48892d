// Package app wires configuration, kernels and output together for the
// lanefrac command.
package app

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/lanefrac/internal/lanes"
)

// Set with -ldflags, e.g.
//
//	go build -ldflags="-X github.com/agbru/lanefrac/internal/app.Version=v0.3.0 -X github.com/agbru/lanefrac/internal/app.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args contain --version, -version or -V in
// any position.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-V" {
			return true
		}
	}
	return false
}

// PrintVersion writes the build and host description.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "lanefrac %s\n", Version)
	fmt.Fprintf(out, "  Commit:     %s\n", Commit)
	fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "  Lanes:      %d x float64 (%s)\n", lanes.Width, lanes.HostTarget())
}

// VersionData is the JSON form of PrintVersion.
type VersionData struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	LaneWidth  int    `json:"lane_width"`
	LaneTarget string `json:"lane_target"`
}

func GetVersionInfo() VersionData {
	return VersionData{
		Version:    Version,
		Commit:     Commit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		LaneWidth:  lanes.Width,
		LaneTarget: lanes.HostTarget().String(),
	}
}
