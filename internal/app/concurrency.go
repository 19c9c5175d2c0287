package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Parallel2 runs two loaders concurrently. The first failure cancels the
// context passed to the other loader and is returned unwrapped.
func Parallel2[A, B any](
	ctx context.Context,
	loadA func(context.Context) (A, error),
	loadB func(context.Context) (B, error),
) (A, B, error) {
	var (
		a A
		b B
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = loadA(gctx)
		return err
	})
	g.Go(func() (err error) {
		b, err = loadB(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var (
			zeroA A
			zeroB B
		)

		return zeroA, zeroB, err
	}

	return a, b, nil
}

// Parallel3 is Parallel2 for three loaders.
func Parallel3[A, B, C any](
	ctx context.Context,
	loadA func(context.Context) (A, error),
	loadB func(context.Context) (B, error),
	loadC func(context.Context) (C, error),
) (A, B, C, error) {
	var (
		a A
		b B
		c C
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = loadA(gctx)
		return err
	})
	g.Go(func() (err error) {
		b, err = loadB(gctx)
		return err
	})
	g.Go(func() (err error) {
		c, err = loadC(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var (
			zeroA A
			zeroB B
			zeroC C
		)

		return zeroA, zeroB, zeroC, err
	}

	return a, b, c, nil
}
