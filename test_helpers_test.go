package wheelsieve

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	randv2 "math/rand/v2"
	"path/filepath"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *randv2.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return randv2.New(randv2.NewPCG(testSeed1^s1, testSeed2^s2))
}

// trialDivision returns every prime <= n by testing each odd candidate
// against the primes found so far. Independent reference for the sieve.
func trialDivision(n uint64) []uint64 {
	var primes []uint64
	if n >= 2 {
		primes = append(primes, 2)
	}
	for c := uint64(3); c <= n; c += 2 {
		isPrime := true
		for _, p := range primes {
			if p > c/p {
				break
			}
			if c%p == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			primes = append(primes, c)
		}
		if c > n-2 {
			break // c+2 would wrap
		}
	}
	return primes
}

// isPrime is a direct primality check for spot tests.
func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for d := uint64(2); d <= n/d; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// writeTestTable writes a table for ceiling into a temp dir and returns its path.
func writeTestTable(t testing.TB, ceiling uint64, opts ...TableOption) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "primes.tbl")
	if _, err := WriteTable(context.Background(), path, ceiling, opts...); err != nil {
		t.Fatalf("WriteTable(%d): %v", ceiling, err)
	}
	return path
}
