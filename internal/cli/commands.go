package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sys/cpu"

	"github.com/agbru/fibbench/internal/config"
	"github.com/agbru/fibbench/internal/fibonacci"
	"github.com/agbru/fibbench/internal/logging"
	"github.com/agbru/fibbench/internal/memtrack"
	"github.com/agbru/fibbench/internal/orchestration"
	"github.com/agbru/fibbench/internal/service"
	"github.com/agbru/fibbench/internal/ui"
	"github.com/agbru/fibbench/pkg/models"
)

// BinetStep is the sampling interval of the binet table.
const BinetStep = 10

// Runner executes the non-server commands.
type Runner struct {
	Service *service.CalculatorService
	Out     io.Writer
	Logger  logging.Logger
}

// NewRunner returns a Runner writing to out.
func NewRunner(svc *service.CalculatorService, out io.Writer, logger logging.Logger) *Runner {
	return &Runner{Service: svc, Out: out, Logger: logger}
}

// Run dispatches cfg.Command. Errors are returned unprinted so the caller
// can map them to an exit code.
func (r *Runner) Run(ctx context.Context, cfg config.AppConfig) error {
	r.Logger.Debug("running command", logging.String("command", string(cfg.Command)), logging.Uint64("n", cfg.N))
	switch cfg.Command {
	case config.CommandCalc:
		return r.runCalc(ctx, cfg)
	case config.CommandCompare:
		return r.runCompare(ctx, cfg)
	case config.CommandInfo:
		return r.runInfo(ctx, cfg)
	case config.CommandSequence:
		return r.runSequence(ctx, cfg)
	case config.CommandBinet:
		return r.runBinet(cfg)
	case config.CommandModular:
		return r.runModular(ctx, cfg)
	case config.CommandMemory:
		return r.runMemory(ctx, cfg)
	case config.CommandBatch:
		return r.runBatch(ctx, cfg)
	}
	return fmt.Errorf("command %q is not handled by the CLI runner", cfg.Command)
}

func (r *Runner) textMode(cfg config.AppConfig) bool {
	return !cfg.JSONOutput && !cfg.Quiet
}

// warnings lists the caveats for computing F(n) with v.
func warnings(v fibonacci.Variant, n uint64) []string {
	var w []string
	if v == fibonacci.VariantRecursive && n > fibonacci.RecursiveWarnIndex {
		w = append(w, fmt.Sprintf("naive recursion is exponential; F(%d) may take a very long time", n))
	}
	if !fibonacci.IsExactAt(v, n) {
		w = append(w, fmt.Sprintf("Binet's formula loses precision beyond n=%d; the result is approximate", fibonacci.BinetExactUpTo()))
	}
	return w
}

func (r *Runner) printWarnings(v fibonacci.Variant, n uint64) {
	t := ui.Current()
	for _, w := range warnings(v, n) {
		fmt.Fprintf(r.Out, "%s\n", t.Paint(t.Warning, "Warning: "+w))
	}
}

// formatResult renders F(n) = v, noting wraparound past the exact range.
func formatResult(n uint64, v fibonacci.Value) string {
	t := ui.Current()
	lhs := fmt.Sprintf("F(%d)", n)
	if n > fibonacci.MaxExactIndex {
		lhs += " mod 2^128"
	}
	return fmt.Sprintf("%s = %s", lhs, t.Paint(t.Value, formatNumberString(v.String())))
}

func (r *Runner) runCalc(ctx context.Context, cfg config.AppConfig) error {
	if r.textMode(cfg) {
		r.printWarnings(cfg.Method, cfg.N)
	}
	m, err := withSpinner(r.Out, r.textMode(cfg), "Calculating F("+fmt.Sprint(cfg.N)+")...", func() (fibonacci.Measurement, error) {
		return r.Service.Calculate(ctx, cfg.Method.Name(), cfg.N)
	})
	if err != nil {
		return err
	}

	switch {
	case cfg.JSONOutput:
		return WriteJSON(r.Out, NewCalculationRecord(m, isExactAt(cfg.Method, cfg.N)))
	case cfg.Quiet:
		fmt.Fprintln(r.Out, m.Value.String())
		return nil
	}
	fmt.Fprintln(r.Out, formatResult(cfg.N, m.Value))
	if cfg.ShowTime {
		t := ui.Current()
		fmt.Fprintf(r.Out, "Computed with %s in %s.\n",
			t.Paint(t.Accent, cfg.Method.DisplayName()), t.Paint(t.Muted, FormatExecutionDuration(m.Duration)))
	}
	return nil
}

func (r *Runner) runCompare(ctx context.Context, cfg config.AppConfig) error {
	c, err := withSpinner(r.Out, r.textMode(cfg), "Comparing algorithms...", func() (orchestration.Comparison, error) {
		return r.Service.Compare(ctx, cfg.N, service.CompareOptions{
			MaxRecursive: cfg.MaxRecursive,
			Concurrency:  cfg.Concurrency,
		})
	})
	if cfg.JSONOutput {
		if jerr := WriteJSON(r.Out, NewComparisonRecord(c)); jerr != nil && err == nil {
			err = jerr
		}
		return err
	}
	if cfg.Quiet {
		if err == nil {
			fmt.Fprintln(r.Out, c.Reference.String())
		}
		return err
	}

	t := ui.Current()
	fmt.Fprintf(r.Out, "%s\n", t.Paint(t.Bold, fmt.Sprintf("--- Comparison of F(%d) ---", cfg.N)))
	tw := tabwriter.NewWriter(r.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "Algorithm\tDuration\tTracked\tStatus")
	for _, res := range c.Results {
		var status string
		switch {
		case res.Err != nil:
			status = t.Paint(t.Error, fmt.Sprintf("Failure (%v)", res.Err))
		case res.Matches:
			status = t.Paint(t.Success, "OK")
		case !res.Exact:
			status = t.Paint(t.Warning, "Approximate")
		default:
			status = t.Paint(t.Error, "MISMATCH")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			res.Name, FormatExecutionDuration(res.Duration), res.Tracked, status)
	}
	if ferr := tw.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "\nGlobal Status: %s\n", t.Paint(t.Success, "Success. All exact results agree."))
	fmt.Fprintln(r.Out, formatResult(cfg.N, c.Reference))
	return nil
}

func (r *Runner) runInfo(ctx context.Context, cfg config.AppConfig) error {
	algos := r.Service.Algorithms()
	if !cfg.AllMethods {
		filtered := algos[:0]
		for _, a := range algos {
			if a.Name == cfg.Method.Name() {
				filtered = append(filtered, a)
			}
		}
		algos = filtered
	}
	rec := models.InfoRecord{Algorithms: algos, Environment: environment()}
	if cfg.ShowTime {
		points, err := r.scaling(ctx, algos, cfg)
		if err != nil {
			return err
		}
		rec.Scaling = points
	}
	if cfg.JSONOutput {
		return WriteJSON(r.Out, rec)
	}

	t := ui.Current()
	tw := tabwriter.NewWriter(r.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "Algorithm\tName\tTime\tSpace\tExact")
	for _, a := range algos {
		exact := "yes"
		if !a.Exact {
			exact = fmt.Sprintf("up to n=%d", fibonacci.BinetExactUpTo())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.DisplayName, t.Paint(t.Accent, a.Name), a.TimeComplexity, a.SpaceComplexity, exact)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(rec.Scaling) > 0 {
		fmt.Fprintf(r.Out, "\n%s\n", t.Paint(t.Bold, "--- Scaling ---"))
		tw = tabwriter.NewWriter(r.Out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "Algorithm\tn\tDuration")
		for _, p := range rec.Scaling {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Algorithm, p.N, FormatExecutionDuration(time.Duration(p.DurationNS)))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	env := rec.Environment
	fmt.Fprintf(r.Out, "\nEnvironment: %s logical CPUs, %s, %s/%s, CPU features: %s.\n",
		env["cpus"], env["go"], env["os"], env["arch"], env["cpu_features"])
	return nil
}

// scaling times each algorithm at doubling indices up to cfg.N. Naive
// recursion stops at cfg.MaxRecursive.
func (r *Runner) scaling(ctx context.Context, algos []models.AlgorithmInfo, cfg config.AppConfig) ([]models.ComplexityPoint, error) {
	var points []models.ComplexityPoint
	for _, a := range algos {
		limit := cfg.N
		if a.Name == fibonacci.VariantRecursive.Name() && limit > cfg.MaxRecursive {
			limit = cfg.MaxRecursive
		}
		for n := uint64(8); n <= limit; n *= 2 {
			m, err := r.Service.Calculate(ctx, a.Name, n)
			if err != nil {
				return nil, err
			}
			points = append(points, models.ComplexityPoint{Algorithm: a.Name, N: n, DurationNS: m.Duration.Nanoseconds()})
		}
	}
	return points, nil
}

func environment() map[string]string {
	return map[string]string{
		"cpus":         fmt.Sprint(runtime.NumCPU()),
		"go":           runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"cpu_features": strings.Join(cpuFeatures(), " "),
	}
}

// cpuFeatures lists the instruction set extensions relevant to 64-bit
// multiply and carry chains.
func cpuFeatures() []string {
	var f []string
	add := func(name string, ok bool) {
		if ok {
			f = append(f, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add("BMI2", cpu.X86.HasBMI2)
		add("ADX", cpu.X86.HasADX)
		add("AVX2", cpu.X86.HasAVX2)
		add("POPCNT", cpu.X86.HasPOPCNT)
	case "arm64":
		add("ASIMD", cpu.ARM64.HasASIMD)
		add("ATOMICS", cpu.ARM64.HasATOMICS)
	}
	if len(f) == 0 {
		return []string{"none detected"}
	}
	return f
}

func (r *Runner) runSequence(ctx context.Context, cfg config.AppConfig) error {
	terms, err := r.Service.Sequence(ctx, cfg.Start, cfg.Count)
	if err != nil {
		return err
	}
	if cfg.JSONOutput {
		points := make([]models.GoldenRatioPoint, len(terms))
		for i, term := range terms {
			points[i] = NewGoldenRatioPoint(term)
		}
		return WriteJSON(r.Out, points)
	}
	if cfg.Quiet {
		for _, term := range terms {
			fmt.Fprintln(r.Out, term.Value.String())
		}
		return nil
	}

	t := ui.Current()
	tw := tabwriter.NewWriter(r.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "n\tF(n)\tF(n)/F(n-1)\t|ratio - φ|")
	for _, term := range terms {
		p := NewGoldenRatioPoint(term)
		ratio, diff := "-", "-"
		if p.Ratio != nil {
			ratio = fmt.Sprintf("%.15f", *p.Ratio)
			diff = fmt.Sprintf("%.3e", *p.Error)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", term.Index, t.Paint(t.Value, term.Value.String()), ratio, diff)
	}
	return tw.Flush()
}

func (r *Runner) runBinet(cfg config.AppConfig) error {
	report := r.Service.Accuracy(cfg.MaxN, BinetStep)
	if cfg.JSONOutput {
		return WriteJSON(r.Out, report)
	}
	if cfg.Quiet {
		fmt.Fprintln(r.Out, report.AccuracyLimit)
		return nil
	}

	t := ui.Current()
	tw := tabwriter.NewWriter(r.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "n\tExact\tBinet\tAbs error\tRel error\tOK")
	for _, p := range report.Points {
		ok := t.Paint(t.Success, "yes")
		if !p.Accurate {
			ok = t.Paint(t.Error, "no")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3g\t%.3g\t%s\n", p.N, p.Exact, p.Rounded, p.AbsoluteError, p.RelativeError, ok)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "\nThe closed form is exact for every n up to %s.\n",
		t.Paint(t.Bold, fmt.Sprint(report.AccuracyLimit)))
	if fe := report.FirstError; fe != nil {
		fmt.Fprintf(r.Out, "First error at n=%d: exact %s, Binet %s (relative error %.3g).\n",
			fe.N, fe.Exact, fe.Rounded, fe.RelativeError)
	} else {
		fmt.Fprintf(r.Out, "No error observed up to n=%d.\n", report.MaxN)
	}
	return nil
}

func (r *Runner) runModular(ctx context.Context, cfg config.AppConfig) error {
	start := time.Now()
	v, err := r.Service.Modular(ctx, cfg.N, cfg.ModulusValue)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	switch {
	case cfg.JSONOutput:
		return WriteJSON(r.Out, models.CalculationRecord{
			Algorithm:  "modular_fast_doubling",
			N:          cfg.N,
			Value:      v.String(),
			Modulus:    cfg.ModulusValue.String(),
			Exact:      true,
			DurationNS: elapsed.Nanoseconds(),
			Duration:   FormatExecutionDuration(elapsed),
		})
	case cfg.Quiet:
		fmt.Fprintln(r.Out, v.String())
		return nil
	}
	t := ui.Current()
	fmt.Fprintf(r.Out, "F(%d) mod %s = %s\n", cfg.N, cfg.ModulusValue, t.Paint(t.Value, v.String()))
	if cfg.ShowTime {
		fmt.Fprintf(r.Out, "Computed in %s.\n", t.Paint(t.Muted, FormatExecutionDuration(elapsed)))
	}
	return nil
}

func (r *Runner) runMemory(ctx context.Context, cfg config.AppConfig) error {
	m, err := r.Service.Calculate(ctx, cfg.Method.Name(), cfg.N)
	if err != nil {
		return err
	}
	if cfg.JSONOutput {
		rec := NewCalculationRecord(m, isExactAt(cfg.Method, cfg.N))
		rec.Memory = NewMemoryRecord(m.Tracked, m.Runtime)
		return WriteJSON(r.Out, rec)
	}
	if cfg.Quiet {
		fmt.Fprintln(r.Out, m.Tracked.Allocations)
		return nil
	}

	t := ui.Current()
	fmt.Fprintf(r.Out, "%s\n", t.Paint(t.Bold, fmt.Sprintf("--- Memory for %s F(%d) ---", cfg.Method.Name(), cfg.N)))
	fmt.Fprintln(r.Out, formatResult(cfg.N, m.Value))
	tw := tabwriter.NewWriter(r.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Tracked allocation events\t%d\n", m.Tracked.Allocations)
	fmt.Fprintf(tw, "Tracked bytes still live\t%s\n", memtrack.FormatBytes(m.Tracked.LiveBytes))
	fmt.Fprintf(tw, "Heap bytes allocated (runtime)\t%s\n", memtrack.FormatBytes(m.Runtime.TotalBytes))
	fmt.Fprintf(tw, "Heap objects allocated (runtime)\t%d\n", m.Runtime.Mallocs)
	fmt.Fprintf(tw, "Duration\t%s\n", FormatExecutionDuration(m.Duration))
	return tw.Flush()
}

func (r *Runner) runBatch(ctx context.Context, cfg config.AppConfig) error {
	start := time.Now()
	res, err := r.Service.Batch(ctx, cfg.Method.Name(), cfg.Indices, cfg.Concurrency)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if cfg.JSONOutput {
		rec := models.BatchRecord{
			Algorithm:  cfg.Method.Name(),
			DurationNS: elapsed.Nanoseconds(),
			Memory:     &models.MemoryRecord{TrackedBytes: res.Tracked.LiveBytes, TrackedAllocations: res.Tracked.Allocations},
		}
		for i, n := range cfg.Indices {
			rec.Results = append(rec.Results, models.CalculationRecord{
				Algorithm: cfg.Method.Name(),
				N:         n,
				Value:     res.Values[i].String(),
				Wrapped:   n > fibonacci.MaxExactIndex,
				Exact:     isExactAt(cfg.Method, n),
			})
		}
		return WriteJSON(r.Out, rec)
	}
	for i, n := range cfg.Indices {
		if cfg.Quiet {
			fmt.Fprintln(r.Out, res.Values[i].String())
			continue
		}
		fmt.Fprintln(r.Out, formatResult(n, res.Values[i]))
	}
	if !cfg.Quiet && cfg.ShowTime {
		fmt.Fprintf(r.Out, "%d values in %s (%s).\n", len(cfg.Indices), FormatExecutionDuration(elapsed), res.Tracked)
	}
	return nil
}
