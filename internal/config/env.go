package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

func lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + key)
	return val, ok && val != ""
}

func getEnvString(key, defaultVal string) string {
	if val, ok := lookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt and the other typed getters fall back to defaultVal when the
// variable is unset or does not parse.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool accepts true/1/yes and false/0/no, case-insensitively.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := lookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether any of names was given on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				found = true
			}
		}
	})
	return found
}

// envName derives the variable name from a flag name: "max-iters" becomes
// MAX_ITERS, read as LANEFRAC_MAX_ITERS.
func envName(flagName string) string {
	return strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// applyEnvOverrides copies environment values into config for every flag
// that was not set explicitly. Aliases share the variable of their long
// form (LANEFRAC_OUTPUT, LANEFRAC_QUIET, LANEFRAC_DETAILS).
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	strs := []struct {
		dst   *string
		names []string
	}{
		{&config.Kernel, []string{"kernel"}},
		{&config.Polynomial, []string{"poly"}},
		{&config.Output, []string{"output", "o"}},
		{&config.Codec, []string{"codec"}},
		{&config.Theme, []string{"theme"}},
		{&config.Port, []string{"port"}},
		{&config.CalibrationProfile, []string{"calibration-profile"}},
		{&config.LogLevel, []string{"log-level"}},
	}
	for _, s := range strs {
		if !isFlagSet(fs, s.names...) {
			*s.dst = getEnvString(envName(s.names[0]), *s.dst)
		}
	}

	ints := []struct {
		dst  *int
		name string
	}{
		{&config.Width, "width"},
		{&config.Height, "height"},
		{&config.MaxIters, "max-iters"},
		{&config.Burst, "burst"},
		{&config.MacroIters, "macro-iters"},
		{&config.Workers, "workers"},
	}
	for _, i := range ints {
		if !isFlagSet(fs, i.name) {
			*i.dst = getEnvInt(envName(i.name), *i.dst)
		}
	}

	floats := []struct {
		dst  *float64
		name string
	}{
		{&config.CenterRe, "re"},
		{&config.CenterIm, "im"},
		{&config.Span, "span"},
		{&config.Tolerance, "tol"},
		{&config.JuliaRe, "julia-re"},
		{&config.JuliaIm, "julia-im"},
	}
	for _, f := range floats {
		if !isFlagSet(fs, f.name) {
			*f.dst = getEnvFloat(envName(f.name), *f.dst)
		}
	}

	bools := []struct {
		dst   *bool
		names []string
	}{
		{&config.JSONOutput, []string{"json"}},
		{&config.Quiet, []string{"quiet", "q"}},
		{&config.Details, []string{"details", "d"}},
		{&config.NoColor, []string{"no-color"}},
		{&config.ServerMode, []string{"server"}},
		{&config.Calibrate, []string{"calibrate"}},
		{&config.AutoCalibrate, []string{"auto-calibrate"}},
	}
	for _, b := range bools {
		if !isFlagSet(fs, b.names...) {
			*b.dst = getEnvBool(envName(b.names[0]), *b.dst)
		}
	}

	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}
