package fibonacci

import "github.com/agbru/fibbench/internal/memtrack"

// MemoTable is a growable, prefix-filled table of Fibonacci values indexed by
// n. Slots 0 and 1 are seeded on creation; every other slot is filled exactly
// once, in index order, and is never overwritten. The table never shrinks
// while it is owned.
//
// Storage comes from memtrack so its growth shows up in allocation
// snapshots. A MemoTable is not safe for concurrent use.
type MemoTable struct {
	rec    memtrack.Recorder
	values []Value
	hits   uint64
	misses uint64
}

// MemoStats describes a table's size and lookup history.
type MemoStats struct {
	Len    int    `json:"len"`
	Cap    int    `json:"cap"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

const memoInitialCap = 16

// NewMemoTable returns a table seeded with F(0) and F(1) whose allocations
// are reported to rec.
func NewMemoTable(rec memtrack.Recorder) *MemoTable {
	if rec == nil {
		rec = memtrack.Nop{}
	}
	values := memtrack.Alloc[Value](rec, memoInitialCap)[:0]
	values = append(values, zero, one)
	return &MemoTable{rec: rec, values: values}
}

// Lookup returns F(n), filling the table bottom-up from its last known slot
// when n has not been computed yet.
func (t *MemoTable) Lookup(n uint64) Value {
	if n < uint64(len(t.values)) {
		t.hits++
		return t.values[n]
	}
	t.misses++
	t.reserve(n + 1)
	for i := uint64(len(t.values)); i <= n; i++ {
		t.values = append(t.values, t.values[i-1].Add(t.values[i-2]))
	}
	return t.values[n]
}

// Len reports how many leading indices are filled.
func (t *MemoTable) Len() int { return len(t.values) }

// Stats returns the table's size and hit/miss counters.
func (t *MemoTable) Stats() MemoStats {
	return MemoStats{Len: len(t.values), Cap: cap(t.values), Hits: t.hits, Misses: t.misses}
}

// Release returns the storage to memtrack. The table must not be used
// afterwards.
func (t *MemoTable) Release() {
	memtrack.Free(t.rec, t.values)
	t.values = nil
}

// push appends the value for index len(t.values).
func (t *MemoTable) push(v Value) {
	t.reserve(uint64(len(t.values)) + 1)
	t.values = append(t.values, v)
}

// reserve makes room for n slots without reallocating on append.
func (t *MemoTable) reserve(n uint64) {
	if n > uint64(cap(t.values)) {
		t.values = memtrack.Grow(t.rec, t.values, int(n))
	}
}

// Cache is a long-lived lookup cache over a MemoTable. Indices up to Limit are
// stored; larger ones are computed from the last stored pair without growing
// the table.
//
// Cache does no locking. Share one between goroutines only behind a mutex.
type Cache struct {
	table *MemoTable
	limit uint64
}

// DefaultCacheLimit bounds the table size of caches created with a zero
// limit. Every index up to it is exactly representable.
const DefaultCacheLimit = MaxExactIndex

// NewCache returns a cache that stores indices up to limit and tracks its
// storage against memtrack.Global.
func NewCache(limit uint64) *Cache {
	if limit == 0 {
		limit = DefaultCacheLimit
	}
	return &Cache{table: NewMemoTable(memtrack.Global()), limit: limit}
}

// Get returns F(n).
func (c *Cache) Get(n uint64) Value {
	if n <= c.limit {
		return c.table.Lookup(n)
	}
	c.table.Lookup(c.limit)
	a, _ := iterateFrom(c.table.values[c.limit-1], c.table.values[c.limit], n-c.limit+1)
	return a
}

// Limit reports the largest index stored in the table.
func (c *Cache) Limit() uint64 { return c.limit }

// Stats returns the underlying table's counters.
func (c *Cache) Stats() MemoStats { return c.table.Stats() }

// Close releases the cache's storage.
func (c *Cache) Close() { c.table.Release() }
