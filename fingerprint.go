package wheelsieve

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Fingerprint is a streaming xxHash3-64 digest of a prime sequence.
//
// Each value is hashed as 8 little-endian bytes in the order added, so two
// sequences have equal fingerprints only if they hold the same primes in the
// same order (up to hash collisions). Used to cross-check the sieve against
// a table file or a reference implementation without keeping both lists.
type Fingerprint struct {
	h     *xxh3.Hasher
	count uint64
	buf   [8]byte
}

// NewFingerprint returns an empty digest.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{h: xxh3.New()}
}

// Add appends p to the digest.
func (f *Fingerprint) Add(p uint64) {
	binary.LittleEndian.PutUint64(f.buf[:], p)
	if _, err := f.h.Write(f.buf[:]); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}
	f.count++
}

// Sum64 returns the digest of everything added so far.
func (f *Fingerprint) Sum64() uint64 {
	return f.h.Sum64()
}

// Count returns the number of values added.
func (f *Fingerprint) Count() uint64 {
	return f.count
}

// FingerprintOf returns the digest of primes.
func FingerprintOf(primes []uint64) uint64 {
	f := NewFingerprint()
	for _, p := range primes {
		f.Add(p)
	}
	return f.Sum64()
}
