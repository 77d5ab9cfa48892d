// Package testutil holds test doubles and helpers shared by the lanefrac
// packages.
package testutil

import "regexp"

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI CSI sequences so colored CLI output can be
// matched as plain text.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
