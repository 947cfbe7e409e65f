package dynamo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn for every index in [0, n) with at most limit goroutines.
// A limit <= 0 means one goroutine per index, n == 1 runs inline.
// The first error cancels the context handed to the remaining calls.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if n == 1 || limit == 1 {
		for i := 0; i < n; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		idx := i
		g.Go(func() error {
			return fn(gctx, idx)
		})
	}
	return g.Wait()
}
