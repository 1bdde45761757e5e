package memtrack

import "unsafe"

// Alloc returns a zeroed slice of n elements and records its size against r.
// The event is recorded only once make has returned: a failed allocation
// aborts in the runtime and leaves the counters untouched.
//
// The returned slice must eventually be passed to Free with the same Recorder.
//
//	buf := memtrack.Alloc[uint64](memtrack.Global(), 128)
//	defer memtrack.Free(memtrack.Global(), buf)
func Alloc[T any](r Recorder, n int) []T {
	if n <= 0 {
		return nil
	}
	s := make([]T, n)
	r.RecordAlloc(sizeOf[T](cap(s)))
	return s
}

// Grow returns a slice holding the elements of s with capacity for at least
// n elements. When s already has room it is returned as is; otherwise a new
// buffer (at least double the old capacity) is allocated, the contents are
// copied and the old buffer is freed. Both events are recorded against r.
func Grow[T any](r Recorder, s []T, n int) []T {
	if n <= cap(s) {
		return s
	}
	newCap := 2 * cap(s)
	if newCap < n {
		newCap = n
	}
	grown := Alloc[T](r, newCap)[:len(s)]
	copy(grown, s)
	Free(r, s)
	return grown
}

// Free records the release of a slice obtained from Alloc or Grow.
// The size is derived from the capacity so it always matches the recorded
// allocation. Freeing a nil slice is a no-op.
func Free[T any](r Recorder, s []T) {
	if cap(s) == 0 {
		return
	}
	r.RecordFree(sizeOf[T](cap(s)))
}

func sizeOf[T any](n int) uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero)) * uint64(n)
}
