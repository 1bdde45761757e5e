package fibonacci

import "math/bits"

// FastDoubling computes F(n) in O(log n) steps using the doubling identities
//
//	F(2k)   = F(k) * (2*F(k+1) - F(k))
//	F(2k+1) = F(k)² + F(k+1)²
//
// which are the matrix form [[1,1],[1,0]]^n without the matrix. All arithmetic
// wraps modulo 2^128, and since that is a ring the result is bit-identical to
// Iterative for every n, inside or beyond the exact range.
func FastDoubling(n uint64) Value {
	fk, _ := fastDoublingPair(n)
	return fk
}

// fastDoublingPair returns (F(n), F(n+1)), scanning the bits of n from the
// most significant one down.
func fastDoublingPair(n uint64) (Value, Value) {
	fk, fk1 := zero, one
	for i := bits.Len64(n) - 1; i >= 0; i-- {
		// F(2k) and F(2k+1)
		t := fk1.Add(fk1).Sub(fk)
		f2k := fk.Mul(t)
		f2k1 := fk.Mul(fk).Add(fk1.Mul(fk1))

		if (n>>uint(i))&1 == 1 {
			fk, fk1 = f2k1, f2k.Add(f2k1)
		} else {
			fk, fk1 = f2k, f2k1
		}
	}
	return fk, fk1
}
