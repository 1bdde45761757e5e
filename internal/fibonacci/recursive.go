package fibonacci

import (
	"github.com/agbru/fibbench/internal/memtrack"
	num "github.com/shabbyrobe/go-num"
)

// Recursive computes F(n) straight from the recurrence. Its running time is
// exponential; callers are expected to refuse or warn for n above
// RecursiveWarnIndex. Results wrap like every other strategy.
func Recursive(n uint64) Value {
	if n < 2 {
		return num.U128From64(n)
	}
	return Recursive(n - 1).Add(Recursive(n - 2))
}

// RecursiveMemo computes F(n) by top-down recursion over a fresh MemoTable
// whose storage is tracked by memtrack.Global. The table is released before
// returning.
func RecursiveMemo(n uint64) Value {
	t := NewMemoTable(memtrack.Global())
	defer t.Release()
	return t.recurse(n)
}

// recurse fills the table top-down. Slots are appended in index order, so the
// prefix-filled invariant holds throughout.
func (t *MemoTable) recurse(n uint64) Value {
	if n < uint64(len(t.values)) {
		t.hits++
		return t.values[n]
	}
	t.misses++
	v := t.recurse(n - 1).Add(t.recurse(n - 2))
	t.push(v)
	return v
}
