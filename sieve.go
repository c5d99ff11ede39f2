package wheelsieve

import (
	"iter"
	"math"

	"github.com/tamirms/wheelsieve/internal/pqueue"
	"github.com/tamirms/wheelsieve/internal/wheel"
)

// seedPrimes are the primes the wheel skips by construction.
var seedPrimes = [...]uint64{2, 3, 5, 7}

// maxMarkerRoot is the largest prime whose square fits in a uint64. Larger
// primes never need a marker: every composite in range has a smaller factor.
const maxMarkerRoot = math.MaxUint32

// Sieve is an incremental sieve of Eratosthenes.
//
// Candidates come from a 2·3·5·7 wheel. For every prime p found so far the
// sieve keeps one marker in a pairing-heap priority queue: the key is the
// next multiple of p (coprime to 210) not yet passed by the candidate
// wheel, the value is a copy of the wheel scaled by p that produces the
// following multiples. Markers are advanced lazily, only as far as the
// current candidate requires, so memory grows with the number of primes
// emitted rather than with their magnitude.
//
// A Sieve is a single cursor: it is not safe for concurrent use. Use FanOut
// to share one sieve's output across goroutines.
type Sieve struct {
	markers *pqueue.Queue[uint64, wheel.Wheel]
	master  wheel.Wheel

	first   uint64 // prime found while seeding the marker queue (11)
	emitted uint64
	err     error // terminal; returned by every later Next
}

// New returns a sieve whose first Next returns 2.
func New() *Sieve {
	s := &Sieve{markers: pqueue.New[uint64, wheel.Wheel]()}

	// With no markers the first wheel candidate is prime. 11 cannot overflow.
	x, master, _ := wheel.New().Step()
	s.master = master
	s.markers.Insert(x*x, master.Scale(x))
	s.first = x
	return s
}

// Next returns the next prime in increasing order.
//
// Returns errors.ErrOverflow once the candidate wheel would pass the largest
// uint64; the sieve is then exhausted and keeps returning that error.
func (s *Sieve) Next() (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}

	var p uint64
	switch n := s.emitted; {
	case n < uint64(len(seedPrimes)):
		p = seedPrimes[n]
	case n == uint64(len(seedPrimes)):
		p = s.first
	default:
		var err error
		if p, err = s.advance(); err != nil {
			s.err = err
			return 0, err
		}
	}
	s.emitted++
	return p, nil
}

// advance steps the candidate wheel until it lands on a prime.
func (s *Sieve) advance() (uint64, error) {
	for {
		x, master, err := s.master.Step()
		if err != nil {
			return 0, err
		}
		s.master = master

		if s.catchUp(x) {
			continue
		}
		if x <= maxMarkerRoot {
			s.markers.Insert(x*x, master.Scale(x))
		}
		return x, nil
	}
}

// catchUp advances every marker below x and reports whether a marker sits
// exactly on x, i.e. whether x is composite.
func (s *Sieve) catchUp(x uint64) bool {
	for !s.markers.Empty() {
		key, _, _ := s.markers.PeekMin() // non-empty checked above
		if key > x {
			return false
		}
		if key == x {
			return true
		}

		_, mw, _ := s.markers.Pop()
		next, mw, err := mw.Step()
		if err != nil {
			// The next multiple is beyond uint64; no candidate can reach it.
			continue
		}
		s.markers.Insert(next, mw)
	}
	return false
}

// Markers returns the number of live markers, one per emitted prime >= 11
// whose square is representable.
func (s *Sieve) Markers() int {
	return s.markers.Len()
}

// Emitted returns how many primes Next has returned.
func (s *Sieve) Emitted() uint64 {
	return s.emitted
}

// All returns an unbounded sequence over the sieve's remaining primes.
// Ranging again resumes where the previous loop stopped. On error the
// sequence yields (0, err) once and ends.
func (s *Sieve) All() iter.Seq2[uint64, error] {
	return func(yield func(uint64, error) bool) {
		for {
			p, err := s.Next()
			if err != nil {
				yield(0, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Primes returns the infinite sequence 2, 3, 5, 7, 11, ... computed on
// demand from a fresh sieve. The sequence is not restartable.
func Primes() iter.Seq2[uint64, error] {
	return New().All()
}

// PrimesUpTo returns every prime <= ceiling in increasing order.
// The result never contains a value above ceiling, including for
// ceilings below 11.
func PrimesUpTo(ceiling uint64) ([]uint64, error) {
	out := make([]uint64, 0, min(primeCountUpperBound(ceiling), maxPrealloc))
	for p, err := range Primes() {
		if err != nil {
			return out, err
		}
		if p > ceiling {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

// FirstN returns the first n primes.
func FirstN(n int) ([]uint64, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]uint64, 0, min(n, maxPrealloc))
	s := New()
	for len(out) < n {
		p, err := s.Next()
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

// maxPrealloc caps up-front slice capacity for large requests.
const maxPrealloc = 1 << 20

// primeCountUpperBound returns an upper bound on π(n), the number of primes
// <= n, using Dusart's bound π(x) <= x/ln x · (1 + 1.2762/ln x) for x > 1.
func primeCountUpperBound(n uint64) uint64 {
	if n < 17 {
		return 6 // π(16)
	}
	x := float64(n)
	lx := math.Log(x)
	return uint64(math.Ceil(x/lx*(1+1.2762/lx))) + 1
}
