package fibonacci

import (
	"math"
	"math/big"
	"sync"

	num "github.com/shabbyrobe/go-num"
)

var (
	// Sqrt5 is √5 in float64.
	Sqrt5 = math.Sqrt(5)
	// Phi is the golden ratio (1+√5)/2.
	Phi = (1 + Sqrt5) / 2
	// Psi is the conjugate (1-√5)/2.
	Psi = (1 - Sqrt5) / 2
)

// MaxAccurateIndex is the commonly quoted float64 boundary of the closed
// form. The real boundary depends on how math.Pow rounds; use BinetExactUpTo
// for decisions.
const MaxAccurateIndex = 78

var binetExactUpTo = sync.OnceValue(AccuracyLimit)

// BinetExactUpTo returns AccuracyLimit, measured once per process.
func BinetExactUpTo() uint64 {
	return binetExactUpTo()
}

// IsExactAt reports whether v returns the exact F(n) mod 2^128. Only Binet
// depends on n.
func IsExactAt(v Variant, n uint64) bool {
	return v.Exact() || n <= BinetExactUpTo()
}

// twoTo128Float is the first float64 outside the Value range.
const twoTo128Float = 0x1p128

// Approximate evaluates Binet's formula (φⁿ − ψⁿ)/√5 in float64. The result
// carries roughly 16 significant digits and overflows to +Inf past n ≈ 1474.
func Approximate(n uint64) float64 {
	fn := float64(n)
	return (math.Pow(Phi, fn) - math.Pow(Psi, fn)) / Sqrt5
}

// Rounded rounds Approximate(n) to the nearest integer in the Value domain.
// Results too large for 128 bits saturate to MaxValue; negative or NaN results
// give 0. It is meant for comparison with the exact strategies only.
func Rounded(n uint64) Value {
	return roundToValue(Approximate(n))
}

func roundToValue(f float64) Value {
	r := math.Round(f)
	switch {
	case math.IsNaN(r) || r <= 0:
		return zero
	case r >= twoTo128Float:
		return MaxValue()
	}
	b, _ := new(big.Float).SetFloat64(r).Int(nil)
	v, _ := num.U128FromBigInt(b)
	return v
}

// ErrorAnalysis compares Approximate(n) with the exact value and returns the
// absolute error |exact − approx| and the relative error abs/exact. The
// relative error is 0 when the exact value is 0.
//
// Past MaxExactIndex the exact side is F(n) mod 2^128, so the figures only
// describe how far the float is from the wrapped value.
func ErrorAnalysis(n uint64) (abs, rel float64) {
	exact := new(big.Float).SetPrec(256).SetInt(Iterative(n).AsBigInt())
	approx := new(big.Float).SetPrec(256).SetFloat64(Approximate(n))
	diff := new(big.Float).SetPrec(256).Sub(exact, approx)
	abs, _ = diff.Abs(diff).Float64()
	if exact.Sign() == 0 {
		return abs, 0
	}
	ef, _ := exact.Float64()
	return abs, abs / ef
}

// AccuracyLimit returns the largest n such that Rounded(k) equals the exact
// value for every k in [0, n]. It is AccuracyLimitUpTo(MaxExactIndex).
func AccuracyLimit() uint64 {
	return AccuracyLimitUpTo(MaxExactIndex)
}

// AccuracyLimitUpTo scans forward from 0 and returns the first index where
// Rounded disagrees with the exact value, minus one. Float error is not
// monotonic in n, so the scan stops at the first failure rather than
// reporting the last success. If no mismatch is found up to upTo, upTo is
// returned. F(0) is always exact, so the result never underflows.
func AccuracyLimitUpTo(upTo uint64) uint64 {
	a, b := zero, one
	for n := uint64(0); n <= upTo; n++ {
		if !Rounded(n).Equal(a) {
			return n - 1
		}
		a, b = b, a.Add(b)
	}
	return upTo
}

// Ratio returns F(n)/F(n-1), which converges to Phi. It reports false for
// n < 2, where the ratio is undefined or trivial, and past MaxExactIndex,
// where the exact values wrap.
func Ratio(n uint64) (float64, bool) {
	if n < 2 || n > MaxExactIndex {
		return 0, false
	}
	prev, cur := iterateFrom(zero, one, n-1)
	return toFloat(cur) / toFloat(prev), true
}

// GoldenRatioError returns |Ratio(n) − Phi|, with the same validity as Ratio.
func GoldenRatioError(n uint64) (float64, bool) {
	r, ok := Ratio(n)
	if !ok {
		return 0, false
	}
	return math.Abs(r - Phi), true
}

func toFloat(v Value) float64 {
	f, _ := new(big.Float).SetInt(v.AsBigInt()).Float64()
	return f
}
