package fibonacci

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agbru/fibbench/internal/memtrack"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fibbench_calculations_total",
			Help: "The total number of Fibonacci calculations processed",
		},
		[]string{"algorithm", "status"},
	)
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fibbench_calculation_duration_seconds",
			Help:    "The duration of Fibonacci calculations in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-7, 10, 10),
		},
		[]string{"algorithm"},
	)
	trackedBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fibbench_calculation_tracked_bytes",
			Help:    "Net bytes allocated through the engine tracker per calculation",
			Buckets: prometheus.ExponentialBuckets(64, 4, 12),
		},
		[]string{"algorithm"},
	)
)

// Calculator is the uniform contract the orchestration and service layers
// use to run one strategy.
type Calculator interface {
	// Calculate computes F(n). The computation itself is synchronous; ctx is
	// checked before it starts and carries the tracing span.
	Calculate(ctx context.Context, n uint64) (Value, error)
	// Name returns the canonical strategy name.
	Name() string
}

// coreFunc is a pure strategy: a name and the function computing F(n).
type coreFunc struct {
	name string
	fn   func(uint64) Value
}

// FibCalculator decorates a strategy with metrics, tracing and debug logging.
type FibCalculator struct {
	core coreFunc
}

// NewCalculator returns the instrumented calculator for v.
func NewCalculator(v Variant) Calculator {
	return &FibCalculator{core: coreFunc{name: v.Name(), fn: v.Calculate}}
}

// MatrixPowerName is the name of the explicit matrix-power calculator.
const MatrixPowerName = "matrix_power"

// NewMatrixPowerCalculator returns an instrumented calculator for
// MatrixPower. It is not a Variant; comparisons run it next to the fast
// doubling path it mirrors.
func NewMatrixPowerCalculator() Calculator {
	return &FibCalculator{core: coreFunc{name: MatrixPowerName, fn: MatrixPower}}
}

// Name returns the wrapped strategy's name.
func (c *FibCalculator) Name() string {
	return c.core.name
}

// Calculate runs the strategy inside a span and records the outcome.
func (c *FibCalculator) Calculate(ctx context.Context, n uint64) (Value, error) {
	m, err := c.measure(ctx, n, false)
	return m.Value, err
}

// Measurement is the outcome of one instrumented calculation.
type Measurement struct {
	Algorithm string
	N         uint64
	Value     Value
	Duration  time.Duration
	// Tracked is the delta of memtrack.Global across the call.
	Tracked memtrack.Stats
	// Runtime is the delta of the Go heap statistics across the call. It
	// includes unrelated activity and is only indicative.
	Runtime memtrack.RuntimeStats
}

// Measure runs c for n and reports its duration along with tracked and
// runtime memory deltas. Calculators not built by this package are timed
// and sampled the same way but get no extra instrumentation.
func Measure(ctx context.Context, c Calculator, n uint64) (Measurement, error) {
	if fc, ok := c.(*FibCalculator); ok {
		return fc.measure(ctx, n, true)
	}
	if err := ctx.Err(); err != nil {
		return Measurement{Algorithm: c.Name(), N: n}, err
	}
	tracker := memtrack.Global()
	rtBefore := memtrack.RuntimeSample()
	before := tracker.Snapshot()
	start := time.Now()
	v, err := c.Calculate(ctx, n)
	duration := time.Since(start)
	after := tracker.Snapshot()
	rtAfter := memtrack.RuntimeSample()
	return Measurement{
		Algorithm: c.Name(),
		N:         n,
		Value:     v,
		Duration:  duration,
		Tracked:   after.Sub(before),
		Runtime:   rtAfter.Sub(rtBefore),
	}, err
}

func (c *FibCalculator) measure(ctx context.Context, n uint64, sampleRuntime bool) (m Measurement, err error) {
	tracer := otel.Tracer("fibonacci")
	ctx, span := tracer.Start(ctx, "Calculate")
	defer span.End()

	m = Measurement{Algorithm: c.core.name, N: n}
	span.SetAttributes(attribute.String("algorithm", m.Algorithm), attribute.Int64("n", int64(n)))

	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		calculationsTotal.WithLabelValues(m.Algorithm, status).Inc()
		calculationDuration.WithLabelValues(m.Algorithm).Observe(m.Duration.Seconds())
		trackedBytes.WithLabelValues(m.Algorithm).Observe(float64(m.Tracked.LiveBytes))

		log.Debug().
			Str("algo", m.Algorithm).
			Uint64("n", n).
			Dur("duration", m.Duration).
			Uint64("tracked_allocs", m.Tracked.Allocations).
			Str("status", status).
			Msg("calculation completed")
	}()

	if err = ctx.Err(); err != nil {
		return m, err
	}

	tracker := memtrack.Global()
	var rtBefore memtrack.RuntimeStats
	if sampleRuntime {
		rtBefore = memtrack.RuntimeSample()
	}
	before := tracker.Snapshot()
	start := time.Now()

	m.Value = c.core.fn(n)

	m.Duration = time.Since(start)
	after := tracker.Snapshot()
	if sampleRuntime {
		m.Runtime = memtrack.RuntimeSample().Sub(rtBefore)
	}
	// buffers freed before returning still count as events
	m.Tracked = after.Sub(before)
	return m, nil
}
