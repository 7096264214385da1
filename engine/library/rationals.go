package library

import (
	"github.com/holiman/uint256"
)

// LessThan reports whether n1/d1 < n2/d2 without multiplying, so it can never overflow.
// It walks the continued fraction expansion of both sides until they differ.
// Both denominators must be positive.
func LessThan(n1, d1, n2, d2 uint64) bool {
	if d1 == 0 || d2 == 0 {
		panic("rational comparison with a zero denominator")
	}
	for {
		q1 := n1 / d1
		q2 := n2 / d2
		if q1 < q2 {
			return true
		}
		if q2 < q1 {
			return false
		}
		r1 := n1 % d1
		r2 := n2 % d2
		if r2 == 0 {
			// n2/d2 is exhausted, nothing left for the left side to be below
			return false
		}
		if r1 == 0 {
			return true
		}
		// r1/d1 < r2/d2 if and only if d2/r2 < d1/r1
		n1, d1, n2, d2 = d2, r2, d1, r1
	}
}

// Equal reports whether n1/d1 == n2/d2.
func Equal(n1, d1, n2, d2 uint64) bool {
	return !LessThan(n1, d1, n2, d2) && !LessThan(n2, d2, n1, d1)
}

// IntegerSqrt is floor(sqrt(n)).
func IntegerSqrt(n uint64) uint64 {
	return new(uint256.Int).Sqrt(uint256.NewInt(n)).Uint64()
}

// MulDiv returns floor(a*b/c) computed with 256 bit intermediates, and false if c is zero
// or the result does not fit in 64 bits.
func MulDiv(a, b, c uint64) (uint64, bool) {
	if c == 0 {
		return 0, false
	}
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	x.Div(x, uint256.NewInt(c))
	if !x.IsUint64() {
		return 0, false
	}
	return x.Uint64(), true
}

// SaturatingMul is a*b, or the largest uint64 if that overflows.
func SaturatingMul(a, b uint64) uint64 {
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	if !x.IsUint64() {
		return ^uint64(0)
	}
	return x.Uint64()
}

// SaturatingAdd is a+b, or the largest uint64 if that overflows.
func SaturatingAdd(a, b uint64) uint64 {
	if a+b < a {
		return ^uint64(0)
	}
	return a + b
}
