// Package service is the boundary between the user-facing layers (CLI and
// HTTP API) and the Fibonacci engine. It validates indices against per
// algorithm limits, then runs the instrumented calculators.
package service

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/fibonacci"
	"github.com/agbru/fibbench/internal/memtrack"
	"github.com/agbru/fibbench/internal/orchestration"
	"github.com/agbru/fibbench/pkg/models"
)

// Limits bounds the indices accepted by the service. A zero field means no
// limit.
type Limits struct {
	// MaxN applies to every algorithm.
	MaxN uint64
	// MaxRecursive applies to naive recursion, which is exponential in n.
	MaxRecursive uint64
	// MaxMemo applies to memoized recursion, whose stack depth and table
	// grow linearly with n.
	MaxMemo uint64
	// MaxBatch bounds the number of indices in one batch.
	MaxBatch int
	// MaxSequence bounds the number of terms in one sequence.
	MaxSequence uint64
}

// CLILimits keeps only the guards that protect the process itself.
func CLILimits() Limits {
	return Limits{MaxMemo: 50_000_000}
}

// ServerLimits are the limits applied to HTTP requests.
func ServerLimits() Limits {
	return Limits{
		MaxN:         100_000_000,
		MaxRecursive: fibonacci.RecursiveWarnIndex,
		MaxMemo:      1_000_000,
		MaxBatch:     1_000,
		MaxSequence:  1_000,
	}
}

// Service is the operation set shared by the CLI and the HTTP server.
type Service interface {
	Calculate(ctx context.Context, algo string, n uint64) (fibonacci.Measurement, error)
	Compare(ctx context.Context, n uint64, opts CompareOptions) (orchestration.Comparison, error)
	Modular(ctx context.Context, n uint64, modulus fibonacci.Value) (fibonacci.Value, error)
	Batch(ctx context.Context, algo string, indices []uint64, concurrency int) (BatchResult, error)
	Sequence(ctx context.Context, start, count uint64) ([]fibonacci.Term, error)
	Accuracy(maxN, step uint64) models.AccuracyReport
	Algorithms() []models.AlgorithmInfo
}

// CalculatorService implements Service on top of the fibonacci package.
type CalculatorService struct {
	limits Limits
}

var _ Service = (*CalculatorService)(nil)

// NewCalculatorService creates a service enforcing limits.
func NewCalculatorService(limits Limits) *CalculatorService {
	return &CalculatorService{limits: limits}
}

// Limits returns the limits the service enforces.
func (s *CalculatorService) Limits() Limits {
	return s.limits
}

// Calculate resolves algo, checks n against the limits and measures one
// calculation.
func (s *CalculatorService) Calculate(ctx context.Context, algo string, n uint64) (fibonacci.Measurement, error) {
	v, err := fibonacci.ParseVariant(algo)
	if err != nil {
		return fibonacci.Measurement{}, err
	}
	if err := s.checkIndex(v, n); err != nil {
		return fibonacci.Measurement{}, err
	}
	return fibonacci.Measure(ctx, fibonacci.NewCalculator(v), n)
}

// CompareOptions tunes Compare.
type CompareOptions struct {
	// MaxRecursive excludes naive recursion above this n. Zero uses the
	// service limit, or includes it unconditionally when that is zero too.
	MaxRecursive uint64
	// Concurrency is passed to orchestration.ExecuteCalculations.
	Concurrency int
}

// Compare runs the explicit matrix power and every variant accepted for n,
// and checks that the exact ones agree. Variants skipped because of the
// limits are simply left out of the comparison.
func (s *CalculatorService) Compare(ctx context.Context, n uint64, opts CompareOptions) (orchestration.Comparison, error) {
	if s.limits.MaxN > 0 && n > s.limits.MaxN {
		return orchestration.Comparison{}, maxExceeded("n", n, s.limits.MaxN, "every algorithm")
	}
	maxRec := opts.MaxRecursive
	if maxRec == 0 || (s.limits.MaxRecursive > 0 && maxRec > s.limits.MaxRecursive) {
		maxRec = s.limits.MaxRecursive
	}

	calcs := []fibonacci.Calculator{fibonacci.NewMatrixPowerCalculator()}
	for _, v := range fibonacci.Variants() {
		if v == fibonacci.VariantRecursive && maxRec > 0 && n > maxRec {
			continue
		}
		if s.checkIndex(v, n) != nil {
			continue
		}
		calcs = append(calcs, fibonacci.NewCalculator(v))
	}
	return orchestration.Compare(ctx, calcs, n, opts.Concurrency)
}

// Modular computes F(n) mod modulus.
func (s *CalculatorService) Modular(ctx context.Context, n uint64, modulus fibonacci.Value) (fibonacci.Value, error) {
	if err := ctx.Err(); err != nil {
		return fibonacci.Value{}, err
	}
	return fibonacci.Modular(n, modulus)
}

// BatchResult carries a batch's values and the tracked cost of producing
// them.
type BatchResult struct {
	Values  []fibonacci.Value
	Tracked memtrack.Stats
}

// Batch computes F for every index, preserving order. The engine's tracked
// buffer is released before returning; Values is an untracked copy.
func (s *CalculatorService) Batch(ctx context.Context, algo string, indices []uint64, concurrency int) (BatchResult, error) {
	v, err := fibonacci.ParseVariant(algo)
	if err != nil {
		return BatchResult{}, err
	}
	if s.limits.MaxBatch > 0 && len(indices) > s.limits.MaxBatch {
		return BatchResult{}, apperrors.NewValidationError("indices",
			fmt.Sprintf("at most %d indices per batch", s.limits.MaxBatch), len(indices))
	}
	for _, n := range indices {
		if err := s.checkIndex(v, n); err != nil {
			return BatchResult{}, err
		}
	}

	before := memtrack.Global().Snapshot()
	values, err := fibonacci.BatchVariant(ctx, v, indices, concurrency)
	if err != nil {
		return BatchResult{}, err
	}
	res := BatchResult{
		Values:  append([]fibonacci.Value(nil), values...),
		Tracked: memtrack.Global().Snapshot().Sub(before),
	}
	fibonacci.ReleaseBatch(values)
	return res, nil
}

// Sequence returns count consecutive terms from F(start).
func (s *CalculatorService) Sequence(ctx context.Context, start, count uint64) ([]fibonacci.Term, error) {
	if s.limits.MaxSequence > 0 && count > s.limits.MaxSequence {
		return nil, maxExceeded("count", count, s.limits.MaxSequence, "sequence")
	}
	if s.limits.MaxN > 0 && (start > s.limits.MaxN || count > s.limits.MaxN-start) {
		return nil, maxExceeded("start", start, s.limits.MaxN, "sequence")
	}
	return fibonacci.Sequence(ctx, start, count)
}

// Accuracy compares the closed form with the exact values for n in
// [0, maxN]. Points are sampled every step indices (and at maxN); FirstError
// is the first n where the rounded estimate is wrong, found by checking every
// index.
func (s *CalculatorService) Accuracy(maxN, step uint64) models.AccuracyReport {
	if maxN > fibonacci.MaxExactIndex {
		maxN = fibonacci.MaxExactIndex
	}
	if step == 0 {
		step = 1
	}
	report := models.AccuracyReport{
		MaxN:          maxN,
		AccuracyLimit: fibonacci.AccuracyLimitUpTo(maxN),
	}
	for n := uint64(0); n <= maxN; n++ {
		sampled := n%step == 0 || n == maxN
		if !sampled && report.FirstError != nil {
			continue
		}
		p := AccuracyPoint(n)
		if !p.Accurate && report.FirstError == nil {
			first := p
			report.FirstError = &first
		}
		if sampled {
			report.Points = append(report.Points, p)
		}
	}
	return report
}

// AccuracyPoint evaluates the closed form at n.
func AccuracyPoint(n uint64) models.AccuracyPoint {
	exact := fibonacci.Iterative(n)
	rounded := fibonacci.Rounded(n)
	abs, rel := fibonacci.ErrorAnalysis(n)
	return models.AccuracyPoint{
		N:             n,
		Exact:         exact.String(),
		Approximate:   fibonacci.Approximate(n),
		Rounded:       rounded.String(),
		AbsoluteError: abs,
		RelativeError: rel,
		Accurate:      rounded.Equal(exact),
	}
}

// Algorithms describes every variant.
func (s *CalculatorService) Algorithms() []models.AlgorithmInfo {
	variants := fibonacci.Variants()
	out := make([]models.AlgorithmInfo, len(variants))
	for i, v := range variants {
		out[i] = models.AlgorithmInfo{
			Name:            v.Name(),
			DisplayName:     v.DisplayName(),
			TimeComplexity:  v.TimeComplexity(),
			SpaceComplexity: v.SpaceComplexity(),
			Exact:           v.Exact(),
		}
	}
	return out
}

// MaxIndex returns the largest n the service accepts for v, or
// math.MaxUint64 when unbounded.
func (s *CalculatorService) MaxIndex(v fibonacci.Variant) uint64 {
	limit := uint64(math.MaxUint64)
	lower := func(l uint64) {
		if l > 0 && l < limit {
			limit = l
		}
	}
	lower(s.limits.MaxN)
	switch v {
	case fibonacci.VariantRecursive:
		lower(s.limits.MaxRecursive)
	case fibonacci.VariantRecursiveMemo:
		lower(s.limits.MaxMemo)
	}
	return limit
}

func (s *CalculatorService) checkIndex(v fibonacci.Variant, n uint64) error {
	if limit := s.MaxIndex(v); n > limit {
		return maxExceeded("n", n, limit, v.Name())
	}
	return nil
}

func maxExceeded(field string, value, limit uint64, scope string) error {
	return apperrors.NewValidationError(field,
		fmt.Sprintf("%d exceeds the maximum of %d for %s", value, limit, scope), value)
}
