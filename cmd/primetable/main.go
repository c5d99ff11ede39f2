// Primetable writes, verifies and queries prime table files.
//
// Usage:
//
//	primetable write  -ceiling 1000000000 -meta "run 42" primes.tbl
//	primetable verify primes.tbl
//	primetable stat   primes.tbl
//	primetable lookup -n 104729 primes.tbl
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/tamirms/wheelsieve"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: primetable <write|verify|stat|lookup> [flags] <file>\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "write":
		err = runWrite(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "stat":
		err = runStat(os.Args[2:])
	case "lookup":
		err = runLookup(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "primetable %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func parsePath(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", errors.New("expected exactly one table path")
	}
	return fs.Arg(0), nil
}

func runWrite(args []string) error {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	ceiling := fs.Uint64("ceiling", 1_000_000, "store every prime <= ceiling")
	meta := fs.String("meta", "", "user metadata stored in the table")
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var opts []wheelsieve.TableOption
	if *meta != "" {
		opts = append(opts, wheelsieve.WithUserMetadata([]byte(*meta)))
	}

	start := time.Now()
	stats, err := wheelsieve.WriteTable(ctx, path, *ceiling, opts...)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d primes <= %d to %s in %.2fs (%d bytes, %d bytes/entry)\n",
		stats.Count, stats.Ceiling, path, time.Since(start).Seconds(), stats.FileSize, stats.EntrySize)
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}

	t, err := wheelsieve.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	if err := t.Verify(); err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d primes)\n", path, t.Len())
	return nil
}

func runStat(args []string) error {
	fs := flag.NewFlagSet("stat", flag.ExitOnError)
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}

	stats, err := wheelsieve.GetStats(path)
	if err != nil {
		return err
	}
	fmt.Printf("count:           %d\n", stats.Count)
	fmt.Printf("ceiling:         %d\n", stats.Ceiling)
	fmt.Printf("max prime:       %d\n", stats.MaxPrime)
	fmt.Printf("entry size:      %d bytes\n", stats.EntrySize)
	fmt.Printf("bytes per prime: %.3f\n", stats.BytesPerPrime)
	fmt.Printf("file size:       %d bytes\n", stats.FileSize)
	return nil
}

func runLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	n := fs.Uint64("n", 0, "report primality of n and the number of primes <= n")
	index := fs.Int64("index", -1, "print the prime at this zero-based index")
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}

	t, err := wheelsieve.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	if *index >= 0 {
		p, err := t.At(uint64(*index))
		if err != nil {
			return err
		}
		fmt.Printf("prime #%d: %d\n", *index, p)
		return nil
	}

	prime, err := t.Contains(*n)
	if err != nil {
		return err
	}
	count, err := t.CountUpTo(*n)
	if err != nil {
		return err
	}
	fmt.Printf("%d: prime=%t, primes <= n: %d\n", *n, prime, count)
	return nil
}
