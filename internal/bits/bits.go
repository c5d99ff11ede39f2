// Package bits provides checked uint64 arithmetic.
package bits

import "math/bits"

// Add returns a+b and whether the sum fits in 64 bits.
func Add(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// Mul returns a*b and whether the product fits in 64 bits.
// Uses the high word of the 128-bit product; a non-zero high word is overflow.
func Mul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// ByteWidth returns the number of bytes needed to hold v (at least 1).
func ByteWidth(v uint64) int {
	if v == 0 {
		return 1
	}
	return (bits.Len64(v) + 7) / 8
}
