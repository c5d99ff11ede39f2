// Bench is a benchmarking tool for measuring wheelsieve throughput, marker
// memory, fan-out scaling and prime table performance.
//
// Usage:
//
//	go run ./cmd/bench -ceiling 100000000 -workers 4 -table
//
// Flags:
//
//	-ceiling     Sieve every prime <= ceiling (default: 10,000,000)
//	-count       Stop after this many primes instead (0 = use ceiling)
//	-workers     Fan-out workers hashing each prime, 0 to skip (default: 4)
//	-verify      Cross-check the sieve against trial division (default: false)
//	-table       Write and query a prime table file (default: false)
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/tamirms/wheelsieve"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// heapSampler tracks peak live heap every 10ms via runtime/metrics, which
// avoids the stop-the-world pauses of ReadMemStats.
type heapSampler struct {
	peak atomic.Uint64
	done chan struct{}
}

func startHeapSampler() *heapSampler {
	hs := &heapSampler{done: make(chan struct{})}
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-hs.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				hs.observe(samples[0].Value.Uint64())
			}
		}
	}()
	return hs
}

func (hs *heapSampler) observe(v uint64) {
	for {
		old := hs.peak.Load()
		if v <= old || hs.peak.CompareAndSwap(old, v) {
			return
		}
	}
}

func (hs *heapSampler) stop() uint64 {
	close(hs.done)
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	hs.observe(final.HeapAlloc)
	return hs.peak.Load()
}

// maxVerifyCeiling bounds -verify; trial division is far slower than the sieve.
const maxVerifyCeiling = 1 << 32

// trialDivisionFingerprint digests every prime <= n found by trial division.
// n must not exceed maxVerifyCeiling.
func trialDivisionFingerprint(n uint64) (uint64, uint64) {
	f := wheelsieve.NewFingerprint()
	var primes []uint64
	for c := uint64(2); c <= n; c++ {
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
			if c <= n/c {
				primes = append(primes, c)
			}
			f.Add(c)
		}
	}
	return f.Sum64(), f.Count()
}

func main() {
	ceilingFlag := flag.Uint64("ceiling", 10_000_000, "sieve every prime <= ceiling")
	countFlag := flag.Uint64("count", 0, "stop after this many primes (0 = use ceiling)")
	workersFlag := flag.Int("workers", 4, "fan-out workers (0 to skip the fan-out phase)")
	verifyFlag := flag.Bool("verify", false, "cross-check against trial division")
	tableFlag := flag.Bool("table", false, "write and query a prime table file")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (sieve phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (sieve phase only)")
	flag.Parse()

	ceiling := *ceilingFlag

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("Sieving...")
	sampler := startHeapSampler()
	sieveStart := time.Now()

	s := wheelsieve.New()
	fp := wheelsieve.NewFingerprint()
	var last uint64
	for {
		p, err := s.Next()
		if err != nil {
			fmt.Printf("Sieve failed after %d primes: %v\n", s.Emitted(), err)
			os.Exit(1)
		}
		if *countFlag == 0 && p > ceiling {
			break
		}
		fp.Add(p)
		last = p
		if *countFlag > 0 && fp.Count() == *countFlag {
			ceiling = last
			break
		}
	}

	sieveDuration := time.Since(sieveStart)
	peak := sampler.stop()
	peakHeap := peak - min(baseline.HeapAlloc, peak)
	peakRSS := getMaxRSS() - baselineRSS

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	numPrimes := fp.Count()
	markers := s.Markers()

	var fanOutDuration time.Duration
	if *workersFlag > 0 {
		fmt.Printf("Fanning out to %d workers...\n", *workersFlag)
		var acc atomic.Uint64
		fanOutStart := time.Now()
		err := wheelsieve.FanOut(context.Background(), ceiling, *workersFlag, func(_ context.Context, p uint64) error {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], p)
			h := murmur3.Sum64(buf[:])
			for {
				old := acc.Load()
				if acc.CompareAndSwap(old, old^h) {
					return nil
				}
			}
		})
		fanOutDuration = time.Since(fanOutStart)
		if err != nil {
			fmt.Printf("FanOut failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Fan-out digest: %016x\n", acc.Load())
	}

	if *verifyFlag && ceiling > maxVerifyCeiling {
		fmt.Printf("Skipping verify: ceiling %d above %d\n", ceiling, uint64(maxVerifyCeiling))
	} else if *verifyFlag {
		fmt.Println("Verifying against trial division...")
		want, wantCount := trialDivisionFingerprint(ceiling)
		if want != fp.Sum64() || wantCount != numPrimes {
			fmt.Printf("MISMATCH: sieve %d primes (%016x), trial division %d primes (%016x)\n",
				numPrimes, fp.Sum64(), wantCount, want)
			os.Exit(1)
		}
		fmt.Println("Verified.")
	}

	var tableStats *wheelsieve.TableStats
	var tableDuration time.Duration
	var queryLatency float64
	if *tableFlag {
		tmpDir, err := os.MkdirTemp("", "bench-")
		if err != nil {
			fmt.Printf("Failed to create temp dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()
		tablePath := filepath.Join(tmpDir, "primes.tbl")

		fmt.Println("Writing table...")
		tableStart := time.Now()
		tableStats, err = wheelsieve.WriteTable(context.Background(), tablePath, ceiling)
		tableDuration = time.Since(tableStart)
		if err != nil {
			fmt.Printf("WriteTable failed: %v\n", err)
			os.Exit(1)
		}

		tbl, err := wheelsieve.Open(tablePath)
		if err != nil {
			fmt.Printf("Open failed: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = tbl.Close() }()

		fmt.Println("Benchmarking CountUpTo...")
		const numQueries = 100_000
		queryStart := time.Now()
		for i := uint64(0); i < numQueries; i++ {
			_, _ = tbl.CountUpTo((i * 2654435761) % (ceiling + 1)) // Benchmark: measuring throughput, not correctness
		}
		queryLatency = float64(time.Since(queryStart).Nanoseconds()) / numQueries / 1000
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════════╗\n")
	fmt.Printf("║ Metric              ║ Value                ║\n")
	fmt.Printf("╠═════════════════════╬══════════════════════╣\n")
	fmt.Printf("║ Ceiling             ║ %20d ║\n", ceiling)
	fmt.Printf("║ Primes              ║ %20d ║\n", numPrimes)
	fmt.Printf("║ Largest prime       ║ %20d ║\n", last)
	fmt.Printf("║ Live markers        ║ %20d ║\n", markers)
	fmt.Printf("║ Fingerprint         ║     %016x ║\n", fp.Sum64())
	fmt.Printf("║ Sieve time          ║ %16.2f sec ║\n", sieveDuration.Seconds())
	fmt.Printf("║ Sieve throughput    ║ %14.2f M/sec ║\n", float64(numPrimes)/sieveDuration.Seconds()/1_000_000)
	if *workersFlag > 0 {
		fmt.Printf("║ Fan-out time        ║ %16.2f sec ║\n", fanOutDuration.Seconds())
	}
	if tableStats != nil {
		fmt.Printf("║ Table write time    ║ %16.2f sec ║\n", tableDuration.Seconds())
		fmt.Printf("║ Table size          ║ %17.1f MB ║\n", float64(tableStats.FileSize)/1_000_000)
		fmt.Printf("║ Bytes per prime     ║ %20.3f ║\n", tableStats.BytesPerPrime)
		fmt.Printf("║ CountUpTo latency   ║ %17.2f μs ║\n", queryLatency)
	}
	fmt.Printf("║ Peak heap memory    ║ %17.1f MB ║\n", float64(peakHeap)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %17.1f MB ║\n", float64(peakRSS)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════════╝\n")
}
