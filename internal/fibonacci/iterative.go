package fibonacci

import num "github.com/shabbyrobe/go-num"

// Iterative computes F(n) with a two-value sliding window in O(n) time and
// O(1) space. It is the baseline every other exact strategy is checked
// against.
func Iterative(n uint64) Value {
	a, b := zero, one
	for i := uint64(0); i < n; i++ {
		a, b = b, a.Add(b)
	}
	return a
}

// IterativeBranchless computes the same value as Iterative. Each loop turn
// advances the pair (F(2k), F(2k+1)) by two indices, and the final choice
// between the two is made with a bit mask instead of a comparison.
func IterativeBranchless(n uint64) Value {
	a, b := zero, one
	for i := n >> 1; i > 0; i-- {
		a = a.Add(b)
		b = b.Add(a)
	}
	// all ones when n is odd, zero otherwise
	mask := -(n & 1)
	ahi, alo := a.Raw()
	bhi, blo := b.Raw()
	return num.U128FromRaw(ahi&^mask|bhi&mask, alo&^mask|blo&mask)
}

// iterateFrom advances the window (a, b) = (F(k), F(k+1)) by steps indices.
func iterateFrom(a, b Value, steps uint64) (Value, Value) {
	for ; steps > 0; steps-- {
		a, b = b, a.Add(b)
	}
	return a, b
}
