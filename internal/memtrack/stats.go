package memtrack

import "fmt"

// Stats is an immutable snapshot of a Tracker's counters.
type Stats struct {
	// LiveBytes is the number of bytes allocated and not yet freed.
	LiveBytes uint64 `json:"live_bytes"`
	// Allocations is the number of allocation events recorded.
	Allocations uint64 `json:"allocations"`
}

// Sub returns the per-field difference s - prev, saturating at zero.
// Used as after.Sub(before) it yields the net cost of the activity in between.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		LiveBytes:   saturatingSub(s.LiveBytes, prev.LiveBytes),
		Allocations: saturatingSub(s.Allocations, prev.Allocations),
	}
}

// IsZero reports whether both counters are zero.
func (s Stats) IsZero() bool {
	return s.LiveBytes == 0 && s.Allocations == 0
}

// String formats the snapshot for logs and CLI output.
func (s Stats) String() string {
	return fmt.Sprintf("%s live, %d allocs", FormatBytes(s.LiveBytes), s.Allocations)
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
