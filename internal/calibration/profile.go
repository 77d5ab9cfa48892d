// Package calibration measures which Newton burst length and how many row
// workers render fastest on the current machine, and caches the answer in a
// profile file.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agbru/lanefrac/internal/lanes"
)

// Profile stores the result of a calibration run together with the
// hardware it was measured on, so a cached profile can be rejected after a
// hardware change.
type Profile struct {
	CPUModel   string `json:"cpu_model"`
	NumCPU     int    `json:"num_cpu"`
	GOARCH     string `json:"goarch"`
	GOOS       string `json:"goos"`
	GoVersion  string `json:"go_version"`
	LaneTarget string `json:"lane_target"`
	LaneWidth  int    `json:"lane_width"`

	OptimalBurst      int `json:"optimal_burst"`
	OptimalMacroIters int `json:"optimal_macro_iters"`
	OptimalWorkers    int `json:"optimal_workers"`

	CalibratedAt    time.Time `json:"calibrated_at"`
	CalibrationTime string    `json:"calibration_time"`

	ProfileVersion int `json:"profile_version"`
}

const (
	// CurrentProfileVersion is bumped on incompatible layout changes.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the profile file name in the home directory.
	DefaultProfileFileName = ".lanefrac_calibration.json"
)

// GetDefaultProfilePath returns the profile path in the user's home
// directory, or in the working directory when there is no home.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

func resolvePath(path string) string {
	if path == "" {
		return GetDefaultProfilePath()
	}
	return path
}

// NewProfile returns an empty profile stamped with the current hardware.
func NewProfile() *Profile {
	return &Profile{
		CPUModel:       getCPUModel(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		LaneTarget:     lanes.HostTarget().String(),
		LaneWidth:      lanes.Width,
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

func getCPUModel() string {
	return fmt.Sprintf("%s-%s-%d-cores", runtime.GOARCH, lanes.HostTarget(), runtime.NumCPU())
}

// LoadProfile reads a profile. An empty path selects GetDefaultProfilePath.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(resolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile writes the profile as indented JSON.
func (p *Profile) SaveProfile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(resolvePath(path), data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile was measured on hardware like this
// one and holds usable values.
func (p *Profile) IsValid() bool {
	if p == nil {
		return false
	}
	switch {
	case p.ProfileVersion != CurrentProfileVersion,
		p.NumCPU != runtime.NumCPU(),
		p.GOARCH != runtime.GOARCH,
		p.LaneTarget != lanes.HostTarget().String(),
		p.LaneWidth != lanes.Width:
		return false
	}
	return p.OptimalBurst > 0 && p.OptimalMacroIters > 0 && p.OptimalWorkers >= 0
}

// IsStale reports whether the profile is older than maxAge.
func (p *Profile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *Profile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf("Profile{CPU: %s, Burst: %d, MacroIters: %d, Workers: %d, Calibrated: %s}",
		p.CPUModel, p.OptimalBurst, p.OptimalMacroIters, p.OptimalWorkers,
		p.CalibratedAt.Format(time.RFC3339))
}

// LoadOrCreateProfile loads the stored profile for this machine.
//
// Parameters:
//   - path: The profile file. Empty selects GetDefaultProfilePath.
//
// Returns:
//   - *Profile: The stored profile, or a fresh one for this machine.
//   - bool: True if the stored profile exists and IsValid.
func LoadOrCreateProfile(path string) (*Profile, bool) {
	profile, err := LoadProfile(path)
	if err != nil || !profile.IsValid() {
		return NewProfile(), false
	}
	return profile, true
}

// ProfileExists reports whether a profile file exists at path.
func ProfileExists(path string) bool {
	_, err := os.Stat(resolvePath(path))
	return err == nil
}
