package memtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsSub(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		after, prev Stats
		want        Stats
	}{
		{"growth is reported as the difference", Stats{100, 5}, Stats{40, 2}, Stats{60, 3}},
		{"identical snapshots give zero", Stats{7, 7}, Stats{7, 7}, Stats{}},
		{"shrinking live bytes saturate at zero", Stats{10, 9}, Stats{50, 3}, Stats{0, 6}},
		{"a reset in between saturates both fields", Stats{}, Stats{1 << 20, 400}, Stats{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.after.Sub(tt.prev))
		})
	}
}

func TestRuntimeStatsSubSaturates(t *testing.T) {
	t.Parallel()
	after := RuntimeStats{HeapBytes: 10, TotalBytes: 500, Mallocs: 20, Frees: 3}
	before := RuntimeStats{HeapBytes: 90, TotalBytes: 100, Mallocs: 5, Frees: 1}
	assert.Equal(t, RuntimeStats{HeapBytes: 0, TotalBytes: 400, Mallocs: 15, Frees: 2}, after.Sub(before))
	assert.Equal(t, uint64(17), after.Live())
}

func TestRuntimeSampleIsMonotonic(t *testing.T) {
	before := RuntimeSample()
	sink := make([][]byte, 0, 64)
	for range 64 {
		sink = append(sink, make([]byte, 1024))
	}
	after := RuntimeSample()
	assert.NotEmpty(t, sink)
	assert.GreaterOrEqual(t, after.TotalBytes, before.TotalBytes)
	assert.GreaterOrEqual(t, after.Mallocs, before.Mallocs)
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()
	tests := map[uint64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		1 << 20: "1.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatBytes(in), "FormatBytes(%d)", in)
	}
}

func TestStatsString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2.0 KiB live, 3 allocs", Stats{LiveBytes: 2048, Allocations: 3}.String())
}
