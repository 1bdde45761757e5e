// Package fibonacci computes Fibonacci numbers with several competing
// strategies over a fixed-width 128-bit unsigned domain.
//
// Exact results are num.U128 values. Addition, subtraction and multiplication
// wrap modulo 2^128 rather than failing, and every exact strategy wraps the
// same way, so results stay bit-identical across strategies for any index.
// F(186) is the largest value that fits; beyond it results are F(n) mod 2^128.
// Callers needing larger indices use Modular or the closed-form estimate.
package fibonacci

import (
	"fmt"
	"math"
	"math/big"

	num "github.com/shabbyrobe/go-num"
)

// Value is the exact result type: an unsigned 128-bit integer with wrapping
// arithmetic.
type Value = num.U128

const (
	// MaxExactIndex is the largest n for which F(n) fits in 128 bits.
	MaxExactIndex = 186
	// MaxUint64Index is the largest n for which F(n) fits in a uint64.
	MaxUint64Index = 93
	// RecursiveWarnIndex is the index above which naive recursion becomes
	// impractical. Callers warn before invoking Recursive past it.
	RecursiveWarnIndex = 35
)

var (
	zero = num.U128From64(0)
	one  = num.U128From64(1)

	// twoTo128 is the size of the Value domain, used to reduce big integers.
	twoTo128 = new(big.Int).Lsh(big.NewInt(1), 128)
)

// MaxValue returns 2^128 - 1.
func MaxValue() Value {
	return num.U128FromRaw(math.MaxUint64, math.MaxUint64)
}

// ValueFromBig reduces b modulo 2^128, mirroring the wraparound of the
// fixed-width domain. Negative inputs are reduced to their non-negative
// residue.
func ValueFromBig(b *big.Int) Value {
	r := new(big.Int).Mod(b, twoTo128)
	v, _ := num.U128FromBigInt(r)
	return v
}

// ParseValue parses a base-10 unsigned integer that must fit in 128 bits.
func ParseValue(s string) (Value, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return zero, fmt.Errorf("invalid integer %q", s)
	}
	if b.Sign() < 0 || b.Cmp(twoTo128) >= 0 {
		return zero, fmt.Errorf("integer %q out of 128-bit unsigned range", s)
	}
	v, _ := num.U128FromBigInt(b)
	return v, nil
}
