package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/agbru/fibbench/internal/config"
	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/fibonacci"
	"github.com/agbru/fibbench/internal/logging"
	"github.com/agbru/fibbench/internal/service"
	"github.com/agbru/fibbench/internal/testutil"
	"github.com/agbru/fibbench/internal/ui"
	"github.com/agbru/fibbench/pkg/models"
)

// run parses args like the binary would and executes the command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg, err := config.ParseConfig("fibbench", args, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig(%v): %v", args, err)
	}
	var buf bytes.Buffer
	r := NewRunner(service.NewCalculatorService(service.CLILimits()), &buf, logging.NewLogger(io.Discard, "cli"))
	err = r.Run(context.Background(), cfg)
	return testutil.StripAnsiCodes(buf.String()), err
}

func TestMain(m *testing.M) {
	ui.Set(ui.NoColorTheme)
	m.Run()
}

func TestCalcGolden(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"Small", []string{"calc", "-n", "10"}, "F(10) = 55\n"},
		{"Separators", []string{"calc", "-n", "93", "-method", "matrix"}, "F(93) = 12,200,160,415,121,876,738\n"},
		{"Quiet", []string{"calc", "-n", "186", "-q"}, "332825110087067562321196029789634457848\n"},
		{"Wrapped", []string{"calc", "-n", "187", "-method", "branchless", "-q"}, fibonacci.Iterative(187).String() + "\n"},
		{"MemoNoWarning", []string{"calc", "-n", "36", "-method", "memo"}, "F(36) = 14,930,352\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Golden mismatch.\nWant:\n%q\nGot:\n%q", tt.expected, got)
			}
		})
	}
}

func TestCalcWarningsAndWrapNote(t *testing.T) {
	got, err := run(t, "calc", "-n", "90", "-method", "binet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, fmt.Sprintf("Warning: Binet's formula loses precision beyond n=%d", fibonacci.BinetExactUpTo())) {
		t.Errorf("missing binet warning:\n%s", got)
	}

	got, err = run(t, "calc", "-n", "200", "-time")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "F(200) mod 2^128 = ") || !strings.Contains(got, "Computed with Iterative in ") {
		t.Errorf("unexpected wrapped output:\n%s", got)
	}

	limit := fibonacci.BinetExactUpTo()
	if w := warnings(fibonacci.VariantBinet, limit); len(w) != 0 {
		t.Errorf("no binet warning expected at n=%d, got %v", limit, w)
	}
	if w := warnings(fibonacci.VariantBinet, limit+1); len(w) != 1 {
		t.Errorf("expected a binet warning at n=%d, got %v", limit+1, w)
	}

	if w := warnings(fibonacci.VariantRecursive, 36); len(w) != 1 {
		t.Errorf("expected one recursion warning, got %v", w)
	}
	if w := warnings(fibonacci.VariantRecursive, 35); len(w) != 0 {
		t.Errorf("no warning expected at 35, got %v", w)
	}
}

func TestCalcJSON(t *testing.T) {
	got, err := run(t, "calc", "-n", "100", "-method", "fast", "-json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec models.CalculationRecord
	if err := json.Unmarshal([]byte(got), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", got, err)
	}
	if rec.Algorithm != "matrix" || rec.N != 100 || rec.Value != "354224848179261915075" || !rec.Exact || rec.Wrapped {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestCompareOutput(t *testing.T) {
	got, err := run(t, "compare", "-n", "25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"--- Comparison of F(25) ---", "matrix_power", "recursive", "binet", "Global Status: Success", "F(25) = 75,025"} {
		if !strings.Contains(got, want) {
			t.Errorf("compare output missing %q:\n%s", want, got)
		}
	}

	got, err = run(t, "compare", "-n", "120", "-json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec models.ComparisonRecord
	if err := json.Unmarshal([]byte(got), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !rec.Consistent || rec.N != 120 {
		t.Errorf("unexpected comparison: %+v", rec)
	}
	for _, r := range rec.Results {
		if r.Algorithm == "recursive" {
			t.Error("naive recursion must be skipped above -max-recursive")
		}
		if r.Algorithm == "binet" && r.Exact {
			t.Error("binet is not exact at n=120")
		}
		if r.Memory == nil {
			t.Errorf("%s: memory record missing", r.Algorithm)
		}
	}
}

func TestInfo(t *testing.T) {
	got, err := run(t, "info", "-method", "all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range fibonacci.Variants() {
		if !strings.Contains(got, v.Name()) {
			t.Errorf("info missing %s:\n%s", v.Name(), got)
		}
	}
	if !strings.Contains(got, "Environment: ") || !strings.Contains(got, "CPU features: ") {
		t.Errorf("info missing environment line:\n%s", got)
	}

	got, err = run(t, "info", "-method", "binet", "-time", "-n", "64", "-json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec models.InfoRecord
	if err := json.Unmarshal([]byte(got), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rec.Algorithms) != 1 || rec.Algorithms[0].Name != "binet" {
		t.Errorf("expected only binet, got %+v", rec.Algorithms)
	}
	if len(rec.Scaling) != 4 {
		t.Errorf("expected samples at 8, 16, 32, 64, got %+v", rec.Scaling)
	}
	if rec.Environment["go"] == "" {
		t.Error("environment missing go version")
	}
}

func TestSequence(t *testing.T) {
	got, err := run(t, "sequence", "-start", "5", "-count", "3", "-q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5\n8\n13\n" {
		t.Errorf("quiet sequence = %q", got)
	}

	got, err = run(t, "sequence", "-count", "3", "-json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var points []models.GoldenRatioPoint
	if err := json.Unmarshal([]byte(got), &points); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(points) != 3 || points[0].Ratio != nil || points[2].Ratio == nil || *points[2].Ratio != 1 {
		t.Errorf("unexpected points: %+v", points)
	}
}

func TestBinet(t *testing.T) {
	got, err := run(t, "binet", "-max-n", "100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "The closed form is exact for every n up to ") || !strings.Contains(got, "First error at n=") {
		t.Errorf("binet summary missing:\n%s", got)
	}

	got, err = run(t, "binet", "-max-n", "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "No error observed up to n=30.") {
		t.Errorf("expected no error up to 30:\n%s", got)
	}
}

func TestModular(t *testing.T) {
	got, err := run(t, "modular", "-n", "10", "-modulus", "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "F(10) mod 7 = 6\n" {
		t.Errorf("modular output = %q", got)
	}
}

func TestMemory(t *testing.T) {
	got, err := run(t, "memory", "-n", "500", "-method", "memo", "-json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec models.CalculationRecord
	if err := json.Unmarshal([]byte(got), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec.Memory == nil || rec.Memory.TrackedAllocations == 0 {
		t.Errorf("memoized recursion should record tracked allocations: %+v", rec.Memory)
	}
	if rec.Memory.TrackedBytes != 0 {
		t.Errorf("memo table must be released, %d bytes still live", rec.Memory.TrackedBytes)
	}

	got, err = run(t, "memory", "-n", "500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Tracked allocation events") {
		t.Errorf("memory table missing:\n%s", got)
	}
}

func TestBatch(t *testing.T) {
	got, err := run(t, "batch", "-indices", "10,1,93", "-method", "iterative")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "F(10) = 55\nF(1) = 1\nF(93) = 12,200,160,415,121,876,738\n"
	if got != want {
		t.Errorf("batch output = %q, want %q", got, want)
	}

	got, err = run(t, "batch", "-indices", "3,200", "-json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec models.BatchRecord
	if err := json.Unmarshal([]byte(got), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rec.Results) != 2 || rec.Results[0].Value != "2" || !rec.Results[1].Wrapped {
		t.Errorf("unexpected batch record: %+v", rec)
	}
}

func TestRunErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg, err := config.ParseConfig("fibbench", []string{"calc", "-n", "10"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(service.NewCalculatorService(service.CLILimits()), io.Discard, logging.NewLogger(io.Discard, "cli"))
	err = r.Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	cfg.Command = config.CommandServe
	if err := r.Run(context.Background(), cfg); err == nil {
		t.Error("serve is not a runner command")
	}
}

func TestFormatExecutionDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "< 1µs"},
		{500 * time.Microsecond, "500µs"},
		{20 * time.Millisecond, "20ms"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.want {
			t.Errorf("FormatExecutionDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatNumberString(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"7":       "7",
		"123":     "123",
		"1234":    "1,234",
		"1234567": "1,234,567",
		"123456":  "123,456",
	}
	for in, want := range tests {
		if got := formatNumberString(in); got != want {
			t.Errorf("formatNumberString(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeSpinner struct {
	started, stopped bool
	suffix           string
}

func (f *fakeSpinner) Start()                { f.started = true }
func (f *fakeSpinner) Stop()                 { f.stopped = true }
func (f *fakeSpinner) UpdateSuffix(s string) { f.suffix = s }

func TestWithSpinner(t *testing.T) {
	fake := &fakeSpinner{}
	saved := newSpinner
	newSpinner = func(io.Writer) Spinner { return fake }
	defer func() { newSpinner = saved }()

	v, err := withSpinner(io.Discard, true, "working", func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("withSpinner = %d, %v", v, err)
	}
	if !fake.started || !fake.stopped || fake.suffix != " working" {
		t.Errorf("spinner not driven: %+v", fake)
	}

	fake = &fakeSpinner{}
	_, _ = withSpinner(io.Discard, false, "quiet", func() (int, error) { return 0, nil })
	if fake.started {
		t.Error("disabled spinner must not start")
	}
}

func TestCLIColorProvider(t *testing.T) {
	saved := ui.Current()
	defer ui.Set(saved)

	ui.Set(ui.DarkTheme)
	p := CLIColorProvider{}
	if p.Yellow() == "" || p.Red() == "" || p.Reset() == "" {
		t.Error("colors expected with the dark theme")
	}
	ui.Set(ui.NoColorTheme)
	if p.Yellow() != "" || p.Reset() != "" {
		t.Error("no colors expected with NoColorTheme")
	}

	var buf bytes.Buffer
	code := apperrors.HandleCalculationError(apperrors.MismatchError{N: 5}, 0, &buf, p)
	if code != apperrors.ExitErrorMismatch || !strings.Contains(buf.String(), "Inconsistent results for F(5)") {
		t.Errorf("HandleCalculationError = %d, %q", code, buf.String())
	}
}

func TestCalcJSONMarksBinetExactOnlyWithinMeasuredLimit(t *testing.T) {
	limit := fibonacci.BinetExactUpTo()
	for _, tc := range []struct {
		n     uint64
		exact bool
	}{
		{limit, true},
		{limit + 1, false},
		{fibonacci.MaxAccurateIndex, fibonacci.MaxAccurateIndex <= limit},
	} {
		got, err := run(t, "calc", "-n", fmt.Sprint(tc.n), "-method", "binet", "-json")
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", tc.n, err)
		}
		var rec models.CalculationRecord
		if err := json.Unmarshal([]byte(got), &rec); err != nil {
			t.Fatalf("invalid JSON %q: %v", got, err)
		}
		if rec.Exact != tc.exact {
			t.Errorf("n=%d: exact = %v, want %v", tc.n, rec.Exact, tc.exact)
		}
		if rec.Exact && rec.Value != fibonacci.Iterative(tc.n).String() {
			t.Errorf("n=%d: record claims exact but value %s is wrong", tc.n, rec.Value)
		}
	}
	if isExactAt(fibonacci.VariantBinet, fibonacci.AccuracyLimit()+1) {
		t.Error("binet must not be exact just past the accuracy limit")
	}
}
