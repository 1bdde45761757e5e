// Package memtrack accounts for the memory allocated by the Fibonacci engine.
// Every buffer the engine owns (memo tables, batch results) is obtained through
// Alloc/Grow and handed back through Free, which report to a Tracker. The
// tracker keeps two lock-free counters: live bytes and allocation events.
//
// Go does not allow replacing the runtime allocator, so the interception point
// is this package rather than malloc itself. RuntimeSample complements it with
// a best-effort view of the whole Go heap.
package memtrack

import "sync/atomic"

// Recorder receives allocation and deallocation events.
// Tracker is the production implementation; Nop discards everything.
type Recorder interface {
	// RecordAlloc accounts for a successful allocation of size bytes.
	RecordAlloc(size uint64)
	// RecordFree accounts for the release of size bytes previously recorded.
	RecordFree(size uint64)
}

// Tracker maintains the live-byte and allocation-event counters.
// All operations are atomic; a Tracker is safe for concurrent use and is never
// locked.
//
// The zero value is ready to use.
type Tracker struct {
	liveBytes   atomic.Uint64
	allocations atomic.Uint64
}

// NewTracker returns an empty, independent tracker. Most code should use
// Global; separate trackers are useful for isolated tests.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordAlloc adds size to the live-byte count and increments the allocation
// count.
func (t *Tracker) RecordAlloc(size uint64) {
	t.liveBytes.Add(size)
	t.allocations.Add(1)
}

// RecordFree subtracts size from the live-byte count.
//
// No saturation is applied: sizes passed here must match earlier RecordAlloc
// calls, which Free guarantees by deriving the size from the slice capacity.
func (t *Tracker) RecordFree(size uint64) {
	t.liveBytes.Add(^(size - 1))
}

// Reset zeroes both counters. Allocations in flight on other goroutines while
// Reset runs make the following deltas unreliable; call it between isolated
// measurement windows only.
func (t *Tracker) Reset() {
	t.liveBytes.Store(0)
	t.allocations.Store(0)
}

// Snapshot reads both counters. The two loads are individually atomic but not
// a single transaction, so under concurrent allocation the pair is a
// best-effort instant.
func (t *Tracker) Snapshot() Stats {
	return Stats{
		LiveBytes:   t.liveBytes.Load(),
		Allocations: t.allocations.Load(),
	}
}

// global is the process-wide tracker. It is created once at package
// initialisation and never replaced.
var global = NewTracker()

// Global returns the process-wide tracker used by the engine's default
// allocation path.
func Global() *Tracker {
	return global
}

// Nop is a Recorder that ignores every event.
type Nop struct{}

// RecordAlloc does nothing.
func (Nop) RecordAlloc(uint64) {}

// RecordFree does nothing.
func (Nop) RecordFree(uint64) {}

var (
	_ Recorder = (*Tracker)(nil)
	_ Recorder = Nop{}
)
