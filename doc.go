// Package wheelsieve generates prime numbers with an incremental sieve of
// Eratosthenes.
//
// Instead of a flag array sized to the largest number examined, the sieve
// keeps one marker per prime found so far in a pairing-heap priority queue
// and advances each marker lazily, only as far as the next candidate
// requires. Candidates come from a 2·3·5·7 wheel, so only 48 of every 210
// integers are ever examined. Memory grows with the number of primes
// emitted, not with their magnitude.
//
// # Basic Usage
//
// Unbounded, pulled on demand:
//
//	for p, err := range wheelsieve.Primes() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if p > 100 {
//	        break
//	    }
//	    fmt.Println(p)
//	}
//
// Bounded:
//
//	primes, err := wheelsieve.PrimesUpTo(1_000_000)
//
// Explicit cursor:
//
//	s := wheelsieve.New()
//	p, err := s.Next() // 2
//
// Values are uint64. Arithmetic is checked: once the wheel would step past
// the largest uint64, Next returns errors.ErrOverflow instead of wrapping.
//
// # Concurrency
//
// A Sieve is a single cursor and must not be pulled from more than one
// goroutine. FanOut runs one producer goroutine and hands primes to N
// workers over a channel.
//
// # Prime Tables
//
// WriteTable persists every prime up to a ceiling in a memory-mapped file
// with xxHash64 checksums; Open maps it back for random access (At),
// membership (Contains) and prime counting (CountUpTo).
//
// # Package Structure
//
//   - Public API: sieve.go (New, Next, Primes, PrimesUpTo, FirstN), fanout.go (FanOut)
//   - Configuration: options.go (TableOption, FanOutOption, With* functions)
//   - Sequence digests: fingerprint.go (Fingerprint, FingerprintOf)
//   - Table files: header.go, table_writer.go (WriteTable), table.go (Open, At, CountUpTo)
//   - Building blocks: internal/wheel, internal/pairing, internal/pqueue
//   - Platform: fallocate_*.go, prefault_*.go, fadvise_*.go (OS-specific optimizations)
package wheelsieve
