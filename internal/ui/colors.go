package ui

// Role accessors read the active theme on every call, so a theme change
// takes effect immediately.

func ColorReset() string     { return GetCurrentTheme().Reset }
func ColorRed() string       { return GetCurrentTheme().Error }
func ColorGreen() string     { return GetCurrentTheme().Success }
func ColorYellow() string    { return GetCurrentTheme().Warning }
func ColorBlue() string      { return GetCurrentTheme().Primary }
func ColorMagenta() string   { return GetCurrentTheme().Info }
func ColorCyan() string      { return GetCurrentTheme().Secondary }
func ColorBold() string      { return GetCurrentTheme().Bold }
func ColorUnderline() string { return GetCurrentTheme().Underline }

// Paint wraps s in the given escape code and a reset. With an empty code, as
// under NoColorTheme, s is returned unchanged.
func Paint(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + GetCurrentTheme().Reset
}

// ErrorColors adapts the active theme to the color interface expected by
// apperrors.HandleRenderError.
type ErrorColors struct{}

func (ErrorColors) Yellow() string { return ColorYellow() }
func (ErrorColors) Reset() string  { return ColorReset() }
