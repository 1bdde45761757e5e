// Package cli implements the fibbench commands: it calls the service layer
// and renders the results as colored text or JSON.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/fibbench/internal/ui"
)

// SpinnerRefreshRate is the spinner frame interval.
const SpinnerRefreshRate = 100 * time.Millisecond

// FormatExecutionDuration shows microseconds below a millisecond,
// milliseconds below a second, and the default representation otherwise.
// Zero renders as "< 1µs".
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// formatNumberString inserts thousand separators into a decimal string.
func formatNumberString(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(n + (n-1)/3)
	first := n % 3
	if first == 0 {
		first = 3
	}
	b.WriteString(s[:first])
	for i := first; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Spinner abstracts the terminal spinner so tests can observe it.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

// newSpinner builds the spinner used while slow calculations run. It only
// animates when out is a terminal, so redirected output stays clean.
var newSpinner = func(out io.Writer) Spinner {
	f, ok := out.(*os.File)
	if !ok {
		s := spinner.New(spinner.CharSets[11], SpinnerRefreshRate, spinner.WithWriter(out))
		s.Disable()
		return &realSpinner{s}
	}
	return &realSpinner{spinner.New(spinner.CharSets[11], SpinnerRefreshRate, spinner.WithWriterFile(f))}
}

// withSpinner runs fn while a spinner labelled label is shown on out.
func withSpinner[T any](out io.Writer, enabled bool, label string, fn func() (T, error)) (T, error) {
	if !enabled {
		return fn()
	}
	s := newSpinner(out)
	s.UpdateSuffix(" " + label)
	s.Start()
	defer s.Stop()
	return fn()
}

// CLIColorProvider supplies theme colors to apperrors.HandleCalculationError.
type CLIColorProvider struct{}

func (CLIColorProvider) Yellow() string { return ui.Current().Warning }
func (CLIColorProvider) Red() string    { return ui.Current().Error }
func (CLIColorProvider) Reset() string  { return ui.Current().Reset }
