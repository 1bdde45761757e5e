package orchestration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	num "github.com/shabbyrobe/go-num"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/fibonacci"
)

// stubCalculator returns a fixed value or error and records concurrency.
type stubCalculator struct {
	name     string
	value    uint64
	err      error
	delay    time.Duration
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (s *stubCalculator) Name() string { return s.name }

func (s *stubCalculator) Calculate(ctx context.Context, _ uint64) (fibonacci.Value, error) {
	if s.inFlight != nil {
		cur := s.inFlight.Add(1)
		defer s.inFlight.Add(-1)
		for {
			old := s.peak.Load()
			if cur <= old || s.peak.CompareAndSwap(old, cur) {
				break
			}
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return fibonacci.Value{}, s.err
	}
	return num.U128From64(s.value), nil
}

func allCalculators() []fibonacci.Calculator {
	calcs := []fibonacci.Calculator{fibonacci.NewMatrixPowerCalculator()}
	for _, v := range fibonacci.Variants() {
		calcs = append(calcs, fibonacci.NewCalculator(v))
	}
	return calcs
}

func TestCompareAllVariantsAgree(t *testing.T) {
	c, err := Compare(context.Background(), allCalculators(), 30, 0)
	require.NoError(t, err)

	assert.True(t, c.Consistent)
	assert.Equal(t, len(fibonacci.Variants())+1, c.Successes)
	assert.Equal(t, "832040", c.Reference.String())
	for _, r := range c.Results {
		assert.True(t, r.Exact, "%s should be exact at n=30", r.Name)
		assert.True(t, r.Matches, "%s should match", r.Name)
	}
}

func TestCompareBinetPastAccurateRangeIsNotAMismatch(t *testing.T) {
	calcs := []fibonacci.Calculator{
		fibonacci.NewCalculator(fibonacci.VariantIterative),
		fibonacci.NewCalculator(fibonacci.VariantMatrix),
		fibonacci.NewCalculator(fibonacci.VariantBinet),
	}
	c, err := Compare(context.Background(), calcs, 150, 2)
	require.NoError(t, err)
	assert.True(t, c.Consistent)

	for _, r := range c.Results {
		if r.Name == fibonacci.VariantBinet.Name() {
			assert.False(t, r.Exact)
			assert.False(t, r.Matches, "binet should drift at n=150")
		}
	}
}

func TestCompareDetectsMismatch(t *testing.T) {
	calcs := []fibonacci.Calculator{
		&stubCalculator{name: "good", value: 55},
		&stubCalculator{name: "bad", value: 56, delay: time.Millisecond},
	}
	c, err := Compare(context.Background(), calcs, 10, 1)
	require.Error(t, err)

	var me apperrors.MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, uint64(10), me.N)
	assert.Equal(t, []string{"bad"}, me.Algorithms)
	assert.False(t, c.Consistent)
	assert.Equal(t, apperrors.ExitErrorMismatch, apperrors.ExitCode(err))
}

func TestCompareAllFailed(t *testing.T) {
	boom := errors.New("boom")
	calcs := []fibonacci.Calculator{
		&stubCalculator{name: "a", err: boom},
		&stubCalculator{name: "b", err: boom},
	}
	c, err := Compare(context.Background(), calcs, 5, 2)
	require.ErrorIs(t, err, boom)

	var ce apperrors.CalculationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint64(5), ce.N)
	assert.Zero(t, c.Successes)
	assert.False(t, c.Consistent)
}

func TestAnalyzeSortsSuccessesFirstThenByDuration(t *testing.T) {
	results := []CalculationResult{
		{Name: "failed", Err: errors.New("x")},
		{Name: "slow", Exact: true, Measurement: fibonacci.Measurement{Duration: 3 * time.Millisecond}},
		{Name: "fast", Exact: true, Measurement: fibonacci.Measurement{Duration: time.Millisecond}},
	}
	c, err := AnalyzeComparisonResults(0, results)
	require.NoError(t, err)

	names := make([]string, len(c.Results))
	for i, r := range c.Results {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"fast", "slow", "failed"}, names)
	assert.Equal(t, 2, c.Successes)
}

func TestExecuteCalculationsRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	calcs := make([]fibonacci.Calculator, 6)
	for i := range calcs {
		calcs[i] = &stubCalculator{name: "stub", value: 1, delay: 5 * time.Millisecond, inFlight: &inFlight, peak: &peak}
	}

	results := ExecuteCalculations(context.Background(), calcs, 1, 2)
	require.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))

	peak.Store(0)
	ExecuteCalculations(context.Background(), calcs, 1, 0)
	assert.Equal(t, int32(DefaultConcurrency), peak.Load())
}

func TestCompareCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compare(ctx, allCalculators(), 20, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperrors.ExitErrorCanceled, apperrors.ExitCode(err))
}

func TestIsExactFollowsMeasuredBinetLimit(t *testing.T) {
	limit := fibonacci.AccuracyLimit()
	assert.True(t, isExact(fibonacci.VariantBinet.Name(), limit))
	assert.False(t, isExact(fibonacci.VariantBinet.Name(), limit+1))
	assert.True(t, isExact(fibonacci.VariantIterative.Name(), 1000))
	assert.True(t, isExact(fibonacci.MatrixPowerName, 1000))
}
