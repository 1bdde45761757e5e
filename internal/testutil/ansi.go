// Package testutil holds helpers shared by the package tests.
package testutil

import "regexp"

// ansiRegex matches CSI escape sequences (ESC [ params letter), which is all
// the ui themes emit.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes color codes so command output can be compared to
// plain text.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
