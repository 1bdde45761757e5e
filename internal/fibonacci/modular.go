package fibonacci

import (
	"math/bits"

	num "github.com/shabbyrobe/go-num"
)

// Modular computes F(n) mod m with fast doubling, reducing after every
// addition, subtraction and multiplication so no intermediate exceeds m. The
// result is exact for any n, far past the range where F(n) itself fits.
//
// A modulus below 2 yields a *ModulusError.
func Modular(n uint64, m Value) (Value, error) {
	if m.Cmp(num.U128From64(2)) < 0 {
		return zero, &ModulusError{Modulus: m}
	}
	hi, lo := m.Raw()
	if hi == 0 {
		return num.U128From64(doublingMod[uint64](n, mod64(lo), 0, 1)), nil
	}
	return doublingMod[Value](n, mod128{m: m}, zero, one), nil
}

// ModularUint64 is Modular for a 64-bit modulus.
func ModularUint64(n, m uint64) (uint64, error) {
	if m < 2 {
		return 0, &ModulusError{Modulus: num.U128From64(m)}
	}
	return doublingMod[uint64](n, mod64(m), 0, 1), nil
}

// modArith is arithmetic in Z/mZ over operands already reduced below m.
type modArith[T any] interface {
	add(a, b T) T
	sub(a, b T) T
	mul(a, b T) T
}

func doublingMod[T any, A modArith[T]](n uint64, ar A, zero, one T) T {
	fk, fk1 := zero, one
	for i := bits.Len64(n) - 1; i >= 0; i-- {
		t := ar.sub(ar.add(fk1, fk1), fk)
		f2k := ar.mul(fk, t)
		f2k1 := ar.add(ar.mul(fk, fk), ar.mul(fk1, fk1))

		if (n>>uint(i))&1 == 1 {
			fk, fk1 = f2k1, ar.add(f2k, f2k1)
		} else {
			fk, fk1 = f2k, f2k1
		}
	}
	return fk
}

// mod64 reduces with a full 128-bit product via math/bits.
type mod64 uint64

func (m mod64) add(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 || sum >= uint64(m) {
		sum -= uint64(m)
	}
	return sum
}

func (m mod64) sub(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a - b + uint64(m)
}

func (m mod64) mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, uint64(m))
}

// mod128 handles moduli of 2^64 and above. There is no 256-bit product to
// reduce, so multiplication is double-and-add over the bits of one operand.
type mod128 struct {
	m Value
}

func (r mod128) add(a, b Value) Value {
	sum := a.Add(b)
	// wrapped past 2^128, or landed at or above m
	if sum.Cmp(a) < 0 || sum.Cmp(r.m) >= 0 {
		sum = sum.Sub(r.m)
	}
	return sum
}

func (r mod128) sub(a, b Value) Value {
	if a.Cmp(b) >= 0 {
		return a.Sub(b)
	}
	return a.Sub(b).Add(r.m)
}

func (r mod128) mul(a, b Value) Value {
	acc := zero
	hi, lo := b.Raw()
	for _, word := range [2]uint64{hi, lo} {
		for i := 63; i >= 0; i-- {
			acc = r.add(acc, acc)
			if (word>>uint(i))&1 == 1 {
				acc = r.add(acc, a)
			}
		}
	}
	return acc
}
