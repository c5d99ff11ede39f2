package wheelsieve

import (
	"context"

	sieveerrors "github.com/tamirms/wheelsieve/errors"
	"golang.org/x/sync/errgroup"
)

// FanOut runs one producer goroutine that owns a Sieve and sends every
// prime <= ceiling over a channel to workers goroutines, each calling fn.
//
// Primes reach fn in increasing order from the producer's point of view;
// with more than one worker the order in which fn calls run is not defined.
// The first error returned by fn (or ctx cancellation) stops the producer
// and is returned once all goroutines exit.
func FanOut(ctx context.Context, ceiling uint64, workers int, fn func(context.Context, uint64) error, opts ...FanOutOption) error {
	if workers < 1 {
		return sieveerrors.ErrInvalidWorkers
	}
	cfg := defaultFanOutConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	g, gctx := errgroup.WithContext(ctx)
	primes := make(chan uint64, cfg.buffer)

	g.Go(func() error {
		defer close(primes)
		s := New()
		for {
			p, err := s.Next()
			if err != nil {
				return err
			}
			if p > ceiling {
				return nil
			}
			select {
			case primes <- p:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for range workers {
		g.Go(func() error {
			for p := range primes {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, p); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
