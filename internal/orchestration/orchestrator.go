// Package orchestration runs several Fibonacci calculators for the same index
// and checks that the exact ones agree.
package orchestration

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/fibonacci"
)

// DefaultConcurrency runs calculators one at a time so that the tracked
// memory delta of each measurement belongs to that calculator alone.
const DefaultConcurrency = 1

// CalculationResult is the outcome of one calculator in a comparison.
type CalculationResult struct {
	Name string
	fibonacci.Measurement
	// Exact reports whether the calculator's result must be bit-identical
	// to the others. Binet only qualifies up to fibonacci.BinetExactUpTo().
	Exact bool
	// Matches is set by AnalyzeComparisonResults when the value equals the
	// reference value.
	Matches bool
	Err     error
}

// Comparison summarises one comparison run.
type Comparison struct {
	N uint64
	// Results are sorted: successes first, then by duration.
	Results []CalculationResult
	// Reference is the value of the fastest successful exact calculator.
	Reference fibonacci.Value
	// Consistent is true when every successful exact calculator produced
	// Reference.
	Consistent bool
	Successes  int
}

// ExecuteCalculations runs every calculator for n with at most concurrency
// calculations in flight (DefaultConcurrency when concurrency <= 0). A failing
// calculator does not stop the others; its error is stored in its result.
// Results come back in the order of calculators.
func ExecuteCalculations(ctx context.Context, calculators []fibonacci.Calculator, n uint64, concurrency int) []CalculationResult {
	ctx, span := otel.Tracer("orchestration").Start(ctx, "ExecuteCalculations")
	defer span.End()
	span.SetAttributes(attribute.Int64("n", int64(n)), attribute.Int("calculators", len(calculators)))

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(concurrency)
	results := make([]CalculationResult, len(calculators))

	for i, calc := range calculators {
		g.Go(func() error {
			m, err := fibonacci.Measure(ctx, calc, n)
			if err != nil {
				err = apperrors.CalculationError{Algorithm: calc.Name(), N: n, Cause: err}
			}
			results[i] = CalculationResult{
				Name:        calc.Name(),
				Measurement: m,
				Exact:       isExact(calc.Name(), n),
				Err:         err,
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// AnalyzeComparisonResults sorts results and checks consistency. It returns
// apperrors.MismatchError when exact calculators disagree, and the first
// calculation error when nothing succeeded.
func AnalyzeComparisonResults(n uint64, results []CalculationResult) (Comparison, error) {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	c := Comparison{N: n, Results: results, Consistent: true}
	var firstErr error
	haveRef := false
	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		c.Successes++
		if r.Exact && !haveRef {
			c.Reference, haveRef = r.Value, true
		}
	}
	if c.Successes == 0 {
		c.Consistent = false
		return c, firstErr
	}
	if !haveRef {
		// only inexact calculators succeeded; nothing to check against
		return c, nil
	}

	var disagree []string
	for i := range c.Results {
		r := &c.Results[i]
		if r.Err != nil {
			continue
		}
		r.Matches = r.Value.Equal(c.Reference)
		if r.Exact && !r.Matches {
			disagree = append(disagree, r.Name)
		}
	}
	if len(disagree) > 0 {
		c.Consistent = false
		return c, apperrors.MismatchError{N: n, Algorithms: disagree}
	}
	return c, nil
}

// Compare runs ExecuteCalculations then AnalyzeComparisonResults.
func Compare(ctx context.Context, calculators []fibonacci.Calculator, n uint64, concurrency int) (Comparison, error) {
	start := time.Now()
	results := ExecuteCalculations(ctx, calculators, n, concurrency)
	c, err := AnalyzeComparisonResults(n, results)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil && apperrors.IsContextError(err) {
		return c, apperrors.WrapError(err, "comparison of F(%d) interrupted after %s", n, time.Since(start).Round(time.Millisecond))
	}
	return c, err
}

func isExact(name string, n uint64) bool {
	v, err := fibonacci.ParseVariant(name)
	if err != nil {
		// explicit matrix power and other non-variant calculators are exact
		return true
	}
	return fibonacci.IsExactAt(v, n)
}
