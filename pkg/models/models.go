// Package models defines the JSON records produced by the fibbench CLI
// (-json) and HTTP API. Fibonacci values are encoded as decimal strings
// because 128-bit integers do not survive a round trip through JSON numbers.
package models

// CalculationRecord is the outcome of one calculation.
type CalculationRecord struct {
	Algorithm string `json:"algorithm"`
	N         uint64 `json:"n"`
	Value     string `json:"value,omitempty"`
	Modulus   string `json:"modulus,omitempty"`
	// Wrapped is true when n exceeds the last index whose value fits in
	// 128 bits, so Value is F(n) mod 2^128.
	Wrapped    bool   `json:"wrapped"`
	Exact      bool   `json:"exact"`
	DurationNS int64  `json:"duration_ns"`
	Duration   string `json:"duration"`
	Error      string `json:"error,omitempty"`
	// Memory is set by commands that sample allocations.
	Memory *MemoryRecord `json:"memory,omitempty"`
}

// ComparisonRecord groups the results of every algorithm for one n.
type ComparisonRecord struct {
	N          uint64              `json:"n"`
	Consistent bool                `json:"consistent"`
	Results    []CalculationRecord `json:"results"`
}

// BatchRecord is the batch command's output; Results follow the input
// order.
type BatchRecord struct {
	Algorithm  string              `json:"algorithm"`
	Results    []CalculationRecord `json:"results"`
	DurationNS int64               `json:"duration_ns"`
	Memory     *MemoryRecord       `json:"memory,omitempty"`
}

// MemoryRecord reports the allocation cost of one calculation.
type MemoryRecord struct {
	// TrackedBytes and TrackedAllocations come from the engine tracker and
	// are exact.
	TrackedBytes       uint64 `json:"tracked_bytes"`
	TrackedAllocations uint64 `json:"tracked_allocations"`
	// The runtime fields are deltas of runtime.MemStats and include noise
	// from the rest of the process.
	HeapBytes  uint64 `json:"heap_bytes"`
	TotalBytes uint64 `json:"total_bytes"`
	Mallocs    uint64 `json:"mallocs"`
	Frees      uint64 `json:"frees"`
}

// AccuracyPoint compares the closed-form estimate with the exact value.
type AccuracyPoint struct {
	N             uint64  `json:"n"`
	Exact         string  `json:"exact"`
	Approximate   float64 `json:"approximate"`
	Rounded       string  `json:"rounded"`
	AbsoluteError float64 `json:"absolute_error"`
	RelativeError float64 `json:"relative_error"`
	Accurate      bool    `json:"accurate"`
}

// AccuracyReport is the binet command's output.
type AccuracyReport struct {
	MaxN          uint64          `json:"max_n"`
	AccuracyLimit uint64          `json:"accuracy_limit"`
	FirstError    *AccuracyPoint  `json:"first_error,omitempty"`
	Points        []AccuracyPoint `json:"points"`
}

// GoldenRatioPoint is one term of the sequence with its convergence to φ.
type GoldenRatioPoint struct {
	N     uint64 `json:"n"`
	Value string `json:"value"`
	// Ratio is F(n)/F(n-1); omitted when undefined or past the exact range.
	Ratio *float64 `json:"ratio,omitempty"`
	// Error is |Ratio - φ|.
	Error *float64 `json:"error,omitempty"`
}

// ComplexityPoint is one timing sample used to show how an algorithm scales.
type ComplexityPoint struct {
	Algorithm  string `json:"algorithm"`
	N          uint64 `json:"n"`
	DurationNS int64  `json:"duration_ns"`
}

// AlgorithmInfo describes one algorithm.
type AlgorithmInfo struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	TimeComplexity  string `json:"time_complexity"`
	SpaceComplexity string `json:"space_complexity"`
	Exact           bool   `json:"exact"`
}

// InfoRecord is the info command's output.
type InfoRecord struct {
	Algorithms  []AlgorithmInfo   `json:"algorithms"`
	Environment map[string]string `json:"environment"`
	Scaling     []ComplexityPoint `json:"scaling,omitempty"`
}

// ErrorResponse is the HTTP API's error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
