// Package ui holds the terminal color themes used by the CLI and by the
// config usage text.
package ui

import (
	"os"
	"strings"
	"sync"
)

// Theme maps output roles to ANSI escape codes. An empty code disables
// styling for that role.
type Theme struct {
	Name string
	// Accent marks algorithm names and flag signatures.
	Accent string
	// Value marks computed Fibonacci numbers.
	Value string
	// Muted is used for defaults, durations and other secondary text.
	Muted   string
	Success string
	Warning string
	Error   string
	Bold    string
	Reset   string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Accent:  "\033[38;5;39m",
		Value:   "\033[38;5;141m",
		Muted:   "\033[38;5;245m",
		Success: "\033[38;5;82m",
		Warning: "\033[38;5;220m",
		Error:   "\033[38;5;196m",
		Bold:    "\033[1m",
		Reset:   "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:    "light",
		Accent:  "\033[38;5;27m",
		Value:   "\033[38;5;54m",
		Muted:   "\033[38;5;240m",
		Success: "\033[38;5;28m",
		Warning: "\033[38;5;130m",
		Error:   "\033[38;5;124m",
		Bold:    "\033[1m",
		Reset:   "\033[0m",
	}

	// NoColorTheme disables every escape code.
	NoColorTheme = Theme{Name: "none"}
)

var (
	themeMu sync.RWMutex
	current = DarkTheme
)

// Current returns the active theme.
func Current() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return current
}

// Set replaces the active theme. Tests use it to restore state.
func Set(t Theme) {
	themeMu.Lock()
	defer themeMu.Unlock()
	current = t
}

// ByName returns the theme called name ("dark", "light" or "none").
// Unknown names yield DarkTheme and false.
func ByName(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		return DarkTheme, true
	case "light":
		return LightTheme, true
	case "none":
		return NoColorTheme, true
	}
	return DarkTheme, false
}

// Init selects the theme for this process. Colors are disabled when noColor
// is set or NO_COLOR is present in the environment (https://no-color.org/);
// otherwise FIBBENCH_THEME picks a theme by name, defaulting to dark.
func Init(noColor bool) {
	t, _ := ByName(os.Getenv("FIBBENCH_THEME"))
	if noColor || colorDisabledByEnv() {
		t = NoColorTheme
	}
	Set(t)
}

func colorDisabledByEnv() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// UsageTheme is the theme for help text printed before Init has run.
func UsageTheme() Theme {
	if colorDisabledByEnv() {
		return NoColorTheme
	}
	return Current()
}

// Paint wraps s in code and a reset. With an empty code s is returned as is,
// so NoColorTheme output never contains escape sequences.
func (t Theme) Paint(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + t.Reset
}
