package memtrack

import "runtime"

// RuntimeStats is a view of the whole Go heap taken from runtime.MemStats.
// Unlike Stats it covers every allocation in the process, including those
// made by the runtime and by unrelated goroutines, so deltas are approximate.
type RuntimeStats struct {
	// HeapBytes is the number of bytes of live heap objects (MemStats.HeapAlloc).
	HeapBytes uint64 `json:"heap_bytes"`
	// TotalBytes is the cumulative number of bytes allocated (MemStats.TotalAlloc).
	TotalBytes uint64 `json:"total_bytes"`
	// Mallocs is the cumulative count of heap objects allocated.
	Mallocs uint64 `json:"mallocs"`
	// Frees is the cumulative count of heap objects freed.
	Frees uint64 `json:"frees"`
}

// RuntimeSample reads the runtime memory statistics. It stops the world
// briefly, so keep it outside timed regions.
func RuntimeSample() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		HeapBytes:  m.HeapAlloc,
		TotalBytes: m.TotalAlloc,
		Mallocs:    m.Mallocs,
		Frees:      m.Frees,
	}
}

// Sub returns the per-field difference r - prev, saturating at zero.
func (r RuntimeStats) Sub(prev RuntimeStats) RuntimeStats {
	return RuntimeStats{
		HeapBytes:  saturatingSub(r.HeapBytes, prev.HeapBytes),
		TotalBytes: saturatingSub(r.TotalBytes, prev.TotalBytes),
		Mallocs:    saturatingSub(r.Mallocs, prev.Mallocs),
		Frees:      saturatingSub(r.Frees, prev.Frees),
	}
}

// Live returns the number of heap objects currently alive.
func (r RuntimeStats) Live() uint64 {
	return saturatingSub(r.Mallocs, r.Frees)
}
