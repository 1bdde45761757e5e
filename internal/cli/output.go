package cli

import (
	"encoding/json"
	"io"
	"math"

	"github.com/agbru/fibbench/internal/fibonacci"
	"github.com/agbru/fibbench/internal/memtrack"
	"github.com/agbru/fibbench/internal/orchestration"
	"github.com/agbru/fibbench/pkg/models"
)

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewCalculationRecord converts a measurement into its JSON record. exact
// tells whether the algorithm is exact at this index.
func NewCalculationRecord(m fibonacci.Measurement, exact bool) models.CalculationRecord {
	return models.CalculationRecord{
		Algorithm:  m.Algorithm,
		N:          m.N,
		Value:      m.Value.String(),
		Wrapped:    m.N > fibonacci.MaxExactIndex,
		Exact:      exact,
		DurationNS: m.Duration.Nanoseconds(),
		Duration:   FormatExecutionDuration(m.Duration),
	}
}

// NewMemoryRecord combines the tracked and runtime deltas of a measurement.
func NewMemoryRecord(tracked memtrack.Stats, rt memtrack.RuntimeStats) *models.MemoryRecord {
	return &models.MemoryRecord{
		TrackedBytes:       tracked.LiveBytes,
		TrackedAllocations: tracked.Allocations,
		HeapBytes:          rt.HeapBytes,
		TotalBytes:         rt.TotalBytes,
		Mallocs:            rt.Mallocs,
		Frees:              rt.Frees,
	}
}

// NewComparisonRecord converts a comparison for JSON output.
func NewComparisonRecord(c orchestration.Comparison) models.ComparisonRecord {
	rec := models.ComparisonRecord{N: c.N, Consistent: c.Consistent}
	for _, r := range c.Results {
		cr := NewCalculationRecord(r.Measurement, r.Exact)
		cr.Algorithm = r.Name
		if r.Err != nil {
			cr.Value = ""
			cr.Error = r.Err.Error()
		}
		cr.Memory = NewMemoryRecord(r.Tracked, r.Runtime)
		rec.Results = append(rec.Results, cr)
	}
	return rec
}

// NewGoldenRatioPoint converts a sequence term.
func NewGoldenRatioPoint(t fibonacci.Term) models.GoldenRatioPoint {
	p := models.GoldenRatioPoint{N: t.Index, Value: t.Value.String()}
	if t.HasRatio {
		r := t.Ratio
		e := math.Abs(r - fibonacci.Phi)
		p.Ratio, p.Error = &r, &e
	}
	return p
}

// isExactAt reports whether v produces the exact F(n) mod 2^128.
func isExactAt(v fibonacci.Variant, n uint64) bool {
	return fibonacci.IsExactAt(v, n)
}
