// Package wheel generates integers coprime to 2, 3, 5 and 7.
//
// A Wheel walks the 48 residues modulo 210 that are not divisible by any of
// the first four primes. Stepping from New() yields 11, 13, 17, 19, 23, ...
// A wheel can be rescaled so each step yields position*multiplier instead,
// which is how the sieve enumerates the multiples of a prime that still
// need to be crossed off.
//
// Wheel is a small value type. Step returns the advanced wheel and leaves
// the receiver untouched, so a copy can be retargeted with Scale without
// aliasing the original.
package wheel

import (
	sieveerrors "github.com/tamirms/wheelsieve/errors"
	intbits "github.com/tamirms/wheelsieve/internal/bits"
)

const (
	// Circumference is 2*3*5*7.
	Circumference = 210

	// Spokes is the number of residues mod 210 coprime to 210.
	Spokes = 48
)

// increments are the gaps between consecutive integers coprime to 210,
// starting from 1. They sum to Circumference.
var increments = [Spokes]uint8{
	10, 2, 4, 2, 4, 6, 2, 6, 4, 2, 4, 6, 6, 2, 6, 4,
	2, 6, 4, 6, 8, 4, 2, 4, 2, 4, 8, 6, 4, 6, 2, 4,
	6, 2, 6, 6, 4, 2, 4, 6, 2, 6, 4, 2, 4, 2, 10, 2,
}

// Wheel is the stepping state: current position, output multiplier and the
// offset of the next increment in the 48-entry cycle.
type Wheel struct {
	position   uint64
	multiplier uint64
	spoke      uint8
}

// New returns a wheel positioned at 1 with multiplier 1.
func New() Wheel {
	return Wheel{position: 1, multiplier: 1}
}

// Step advances to the next position and returns position*multiplier
// together with the advanced wheel. Returns ErrOverflow if either the
// position or the product leaves the uint64 range.
func (w Wheel) Step() (uint64, Wheel, error) {
	pos, ok := intbits.Add(w.position, uint64(increments[w.spoke]))
	if !ok {
		return 0, w, sieveerrors.ErrOverflow
	}
	v, ok := intbits.Mul(pos, w.multiplier)
	if !ok {
		return 0, w, sieveerrors.ErrOverflow
	}

	spoke := w.spoke + 1
	if spoke == Spokes {
		spoke = 0
	}
	return v, Wheel{position: pos, multiplier: w.multiplier, spoke: spoke}, nil
}

// Scale returns a copy of w emitting multiples of m. Position and cycle
// offset are kept.
func (w Wheel) Scale(m uint64) Wheel {
	w.multiplier = m
	return w
}

// Position returns the current (unscaled) position.
func (w Wheel) Position() uint64 {
	return w.position
}

// Multiplier returns the output multiplier.
func (w Wheel) Multiplier() uint64 {
	return w.multiplier
}

// Value returns position*multiplier without stepping.
func (w Wheel) Value() (uint64, error) {
	v, ok := intbits.Mul(w.position, w.multiplier)
	if !ok {
		return 0, sieveerrors.ErrOverflow
	}
	return v, nil
}
