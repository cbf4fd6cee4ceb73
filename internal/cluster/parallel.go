package cluster

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for every centroid with at most workers goroutines.
// Each call may only mutate the centroid it is given.
func forEach(ctx context.Context, workers int, cs []*Centroid, fn func(*Centroid) error) error {
	if workers <= 1 {
		for _, c := range cs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(c); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range cs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(c)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// A cancellation that raced the last item still counts.
	return ctx.Err()
}
