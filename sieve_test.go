package wheelsieve

import (
	"errors"
	"math"
	"slices"
	"testing"

	sieveerrors "github.com/tamirms/wheelsieve/errors"
	"github.com/tamirms/wheelsieve/internal/pqueue"
	"github.com/tamirms/wheelsieve/internal/wheel"
)

func TestPrimesUpToKnownValues(t *testing.T) {
	tests := []struct {
		ceiling uint64
		want    []uint64
	}{
		{0, []uint64{}},
		{1, []uint64{}},
		{2, []uint64{2}},
		{3, []uint64{2, 3}},
		{6, []uint64{2, 3, 5}},
		{7, []uint64{2, 3, 5, 7}},
		{10, []uint64{2, 3, 5, 7}},
		{11, []uint64{2, 3, 5, 7, 11}},
		{12, []uint64{2, 3, 5, 7, 11}},
		{30, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}},
		{121, trialDivision(121)},
		{143, trialDivision(143)},
	}

	for _, tc := range tests {
		got, err := PrimesUpTo(tc.ceiling)
		if err != nil {
			t.Fatalf("PrimesUpTo(%d): %v", tc.ceiling, err)
		}
		if !slices.Equal(got, tc.want) {
			t.Errorf("PrimesUpTo(%d) = %v, want %v", tc.ceiling, got, tc.want)
		}
	}
}

// TestPrimesUpToNeverExceedsCeiling covers the small ceilings where the
// seed primes and the first wheel prime are produced before any check.
func TestPrimesUpToNeverExceedsCeiling(t *testing.T) {
	for ceiling := uint64(0); ceiling <= 12; ceiling++ {
		got, err := PrimesUpTo(ceiling)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range got {
			if p > ceiling {
				t.Fatalf("PrimesUpTo(%d) contains %d", ceiling, p)
			}
		}
	}
}

func TestPrimesFirstPulls(t *testing.T) {
	var got []uint64
	for p, err := range Primes() {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, p)
		if len(got) == 10 {
			break
		}
	}
	if want := []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}; !slices.Equal(got, want) {
		t.Fatalf("first 10 pulls = %v, want %v", got, want)
	}
	if !slices.Equal(got[:5], []uint64{2, 3, 5, 7, 11}) {
		t.Fatalf("first 5 pulls = %v", got[:5])
	}
}

// TestCrossCheckTrialDivision compares PrimesUpTo(n) with the trial-division
// reference for every n in range.
func TestCrossCheckTrialDivision(t *testing.T) {
	limit := uint64(10000)
	step := uint64(1)
	if testing.Short() {
		step = 97
	}

	ref := trialDivision(limit)
	for n := uint64(0); n <= limit; n += step {
		got, err := PrimesUpTo(n)
		if err != nil {
			t.Fatalf("PrimesUpTo(%d): %v", n, err)
		}
		k, _ := slices.BinarySearch(ref, n+1)
		if !slices.Equal(got, ref[:k]) {
			t.Fatalf("PrimesUpTo(%d) differs from trial division (got %d primes, want %d)", n, len(got), k)
		}
	}
}

func TestCrossCheckLargerRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	const limit = 2_000_000
	got, err := PrimesUpTo(limit)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 148933 { // π(2·10^6)
		t.Fatalf("π(%d) = %d, want 148933", limit, len(got))
	}
	if FingerprintOf(got) != FingerprintOf(trialDivision(limit)) {
		t.Fatal("fingerprint differs from trial division")
	}
}

// TestRandomSpotChecks samples primes and composites across a wider range
// and checks membership against direct division.
func TestRandomSpotChecks(t *testing.T) {
	rng := newTestRNG(t)
	const limit = 300_000

	primes, err := PrimesUpTo(limit)
	if err != nil {
		t.Fatal(err)
	}
	for range 2000 {
		n := rng.Uint64N(limit + 1)
		_, found := slices.BinarySearch(primes, n)
		if found != isPrime(n) {
			t.Fatalf("%d: in sieve output = %v, isPrime = %v", n, found, isPrime(n))
		}
	}
}

func TestFirstN(t *testing.T) {
	tests := []struct {
		n    int
		want []uint64
	}{
		{-1, nil},
		{0, nil},
		{1, []uint64{2}},
		{5, []uint64{2, 3, 5, 7, 11}},
		{10, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}},
	}
	for _, tc := range tests {
		got, err := FirstN(tc.n)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, tc.want) {
			t.Errorf("FirstN(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}

	got, err := FirstN(10000)
	if err != nil {
		t.Fatal(err)
	}
	if got[len(got)-1] != 104729 { // 10000th prime
		t.Fatalf("10000th prime = %d, want 104729", got[len(got)-1])
	}
}

// TestMarkersGrowWithPrimeCount checks the resource contract: one marker per
// emitted prime >= 11, independent of how large the primes are.
func TestMarkersGrowWithPrimeCount(t *testing.T) {
	s := New()
	if s.Markers() != 1 {
		t.Fatalf("fresh sieve holds %d markers, want 1", s.Markers())
	}

	for k := 1; k <= 20000; k++ {
		p, err := s.Next()
		if err != nil {
			t.Fatal(err)
		}
		want := max(k-len(seedPrimes), 1)
		if s.Markers() != want {
			t.Fatalf("after %d primes (last %d): %d markers, want %d", k, p, s.Markers(), want)
		}
	}
	if s.Emitted() != 20000 {
		t.Fatalf("Emitted() = %d, want 20000", s.Emitted())
	}
}

// TestMarkerInvariant checks that after each emitted prime the marker queue
// holds, for every prime p >= 11, the smallest multiple of p coprime to 210
// that is not below the current candidate, and that the minimum key is above it.
func TestMarkerInvariant(t *testing.T) {
	s := New()
	var found []uint64
	for range 400 {
		p, err := s.Next()
		if err != nil {
			t.Fatal(err)
		}
		if p < 11 {
			continue
		}
		found = append(found, p)
		x := s.master.Position()

		snapshot := pqueueSnapshot(s)
		if len(snapshot) != len(found) {
			t.Fatalf("after %d: %d markers, want %d", p, len(snapshot), len(found))
		}
		for _, q := range found {
			key, ok := snapshot[q]
			if !ok {
				t.Fatalf("after %d: no marker for %d", p, q)
			}
			if key%q != 0 || !coprime210(key/q) {
				t.Fatalf("after %d: marker %d for %d is not a wheel multiple", p, key, q)
			}
			if key < q*q {
				t.Fatalf("after %d: marker %d for %d below its square", p, key, q)
			}
			// key is due no earlier than x; the previous wheel multiple is not.
			if q*q < key && key-q*wheelGapBefore(key/q) >= x {
				t.Fatalf("after %d: marker %d for %d was advanced too far", p, key, q)
			}
		}
	}
}

// pqueueSnapshot maps each marker's prime to its key without disturbing s.
func pqueueSnapshot(s *Sieve) map[uint64]uint64 {
	entries := s.markers.Drain()
	out := make(map[uint64]uint64, len(entries))
	for _, e := range entries {
		out[e.Value.Multiplier()] = e.Key
		s.markers.Insert(e.Key, e.Value)
	}
	return out
}

func coprime210(n uint64) bool {
	return n%2 != 0 && n%3 != 0 && n%5 != 0 && n%7 != 0
}

// wheelGapBefore returns n minus the previous integer coprime to 210.
func wheelGapBefore(n uint64) uint64 {
	for d := uint64(1); ; d++ {
		if coprime210(n - d) {
			return d
		}
	}
}

func TestSieveErrorIsTerminal(t *testing.T) {
	s := New()
	for range 5 {
		if _, err := s.Next(); err != nil {
			t.Fatal(err)
		}
	}
	s.err = sieveerrors.ErrOverflow

	for range 3 {
		if _, err := s.Next(); !errors.Is(err, sieveerrors.ErrOverflow) {
			t.Fatalf("Next() err = %v, want ErrOverflow", err)
		}
	}

	var yielded int
	for p, err := range s.All() {
		yielded++
		if !errors.Is(err, sieveerrors.ErrOverflow) || p != 0 {
			t.Fatalf("All() yielded (%d, %v), want (0, ErrOverflow)", p, err)
		}
	}
	if yielded != 1 {
		t.Fatalf("All() yielded %d times after error, want 1", yielded)
	}
}

// TestAllResumes checks that the sequence is a single cursor: a second range
// continues after the first.
func TestAllResumes(t *testing.T) {
	seq := Primes()
	take := func(n int) []uint64 {
		var out []uint64
		for p, err := range seq {
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, p)
			if len(out) == n {
				break
			}
		}
		return out
	}

	first := take(4)
	second := take(4)
	if !slices.Equal(first, []uint64{2, 3, 5, 7}) {
		t.Fatalf("first range = %v", first)
	}
	if !slices.Equal(second, []uint64{11, 13, 17, 19}) {
		t.Fatalf("second range = %v", second)
	}
}

func TestIndependentSievesDoNotShareState(t *testing.T) {
	a, b := New(), New()
	for range 100 {
		if _, err := a.Next(); err != nil {
			t.Fatal(err)
		}
	}
	p, err := b.Next()
	if err != nil || p != 2 {
		t.Fatalf("second sieve Next() = %d, %v; want 2", p, err)
	}
}

func TestPrimeCountUpperBound(t *testing.T) {
	ref := trialDivision(200_000)
	for _, n := range []uint64{0, 1, 2, 10, 16, 17, 100, 1000, 7919, 65536, 200_000} {
		k, _ := slices.BinarySearch(ref, n+1)
		if bound := primeCountUpperBound(n); bound < uint64(k) {
			t.Errorf("primeCountUpperBound(%d) = %d < π(n) = %d", n, bound, k)
		}
	}
}

func TestFingerprint(t *testing.T) {
	primes, err := PrimesUpTo(1000)
	if err != nil {
		t.Fatal(err)
	}

	f := NewFingerprint()
	for p, err := range Primes() {
		if err != nil {
			t.Fatal(err)
		}
		if p > 1000 {
			break
		}
		f.Add(p)
	}
	if f.Count() != uint64(len(primes)) {
		t.Fatalf("Count() = %d, want %d", f.Count(), len(primes))
	}
	if f.Sum64() != FingerprintOf(primes) {
		t.Fatal("streaming fingerprint differs from FingerprintOf")
	}
	if FingerprintOf(primes) != FingerprintOf(trialDivision(1000)) {
		t.Fatal("fingerprint differs from trial division")
	}

	swapped := slices.Clone(primes)
	swapped[3], swapped[4] = swapped[4], swapped[3]
	if FingerprintOf(swapped) == FingerprintOf(primes) {
		t.Fatal("fingerprint ignores order")
	}
	if FingerprintOf(primes[:len(primes)-1]) == FingerprintOf(primes) {
		t.Fatal("fingerprint ignores a dropped prime")
	}
}

// seededSieve returns a sieve that has emitted 2..11 and whose master wheel
// is replaced by w with no markers, so the next candidate is w's first step.
func seededSieve(t *testing.T, w wheel.Wheel) *Sieve {
	t.Helper()
	s := New()
	for range 5 {
		if _, err := s.Next(); err != nil {
			t.Fatal(err)
		}
	}
	s.markers = pqueue.New[uint64, wheel.Wheel]()
	s.master = w
	return s
}

func TestMasterWheelOverflow(t *testing.T) {
	// Steps yield 11*m, then 13*m which does not fit in a uint64.
	m := uint64(math.MaxUint64 / 12)
	s := seededSieve(t, wheel.New().Scale(m))

	p, err := s.Next()
	if err != nil {
		t.Fatalf("Next() err = %v, want %d", err, 11*m)
	}
	if p != 11*m {
		t.Fatalf("Next() = %d, want %d", p, 11*m)
	}
	emitted := s.Emitted()

	for range 3 {
		if _, err := s.Next(); !errors.Is(err, sieveerrors.ErrOverflow) {
			t.Fatalf("Next() err = %v, want ErrOverflow", err)
		}
	}
	if s.Emitted() != emitted {
		t.Fatalf("Emitted() = %d after overflow, want %d", s.Emitted(), emitted)
	}
}

func TestOverflowingMarkerIsRetired(t *testing.T) {
	s := New()
	for range 5 {
		if _, err := s.Next(); err != nil {
			t.Fatal(err)
		}
	}
	// Due at 12 (passed by the next candidate, 13); its first step would be
	// 11*(MaxUint64/10), which overflows.
	s.markers.Insert(12, wheel.New().Scale(math.MaxUint64/10))
	if s.Markers() != 2 {
		t.Fatalf("Markers() = %d, want 2", s.Markers())
	}

	p, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if p != 13 {
		t.Fatalf("Next() = %d, want 13", p)
	}

	// The overflowing marker is gone; 11 and the new 13 remain.
	got := pqueueSnapshot(s)
	want := map[uint64]uint64{11: 121, 13: 169}
	if len(got) != len(want) {
		t.Fatalf("markers = %v, want %v", got, want)
	}
	for prime, key := range want {
		if got[prime] != key {
			t.Fatalf("markers = %v, want %v", got, want)
		}
	}

	// The sieve keeps producing correct primes afterwards.
	for _, exp := range []uint64{17, 19, 23, 29, 31} {
		p, err := s.Next()
		if err != nil || p != exp {
			t.Fatalf("Next() = %d, %v; want %d", p, err, exp)
		}
	}
}

func TestNoMarkerAboveMaxRoot(t *testing.T) {
	tests := []struct {
		name        string
		multiplier  uint64
		wantMarkers int
	}{
		// 11<<28 is below 2^32: its square fits, so it gets a marker.
		{"below_root", 1 << 28, 1},
		// 11<<32 is above 2^32: its square would overflow.
		{"above_root", 1 << 32, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seededSieve(t, wheel.New().Scale(tt.multiplier))
			p, err := s.Next()
			if err != nil {
				t.Fatal(err)
			}
			if p != 11*tt.multiplier {
				t.Fatalf("Next() = %d, want %d", p, 11*tt.multiplier)
			}
			if s.Markers() != tt.wantMarkers {
				t.Fatalf("Markers() = %d, want %d", s.Markers(), tt.wantMarkers)
			}
			if tt.wantMarkers == 1 {
				key, _, _ := s.markers.PeekMin()
				if key != p*p {
					t.Fatalf("marker key = %d, want %d", key, p*p)
				}
			}
		})
	}
}

func TestReferenceHelpers(t *testing.T) {
	var filtered []uint64
	for n := uint64(0); n <= 2000; n++ {
		if isPrime(n) {
			filtered = append(filtered, n)
		}
		if got := trialDivision(n); !slices.Equal(got, filtered) {
			t.Fatalf("trialDivision(%d) disagrees with isPrime: %d vs %d primes", n, len(got), len(filtered))
		}
	}

	tests := []struct {
		n    uint64
		want bool
	}{
		{1<<32 + 15, true},      // smallest prime above 2^32
		{641 * 6700417, false},  // 2^32+1, Euler's factorization
		{4294967291 * 3, false}, // largest 32-bit prime times 3
		{math.MaxUint64, false}, // divisible by 3
		{math.MaxUint64 - 1, false},
	}
	for _, tt := range tests {
		if got := isPrime(tt.n); got != tt.want {
			t.Errorf("isPrime(%d) = %t, want %t", tt.n, got, tt.want)
		}
	}
}
