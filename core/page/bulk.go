package page

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BulkResult is the outcome of a fan-out.
type BulkResult struct {
	Total  int
	Failed int
	Err    error // first failure
}

func (r BulkResult) OK() bool { return r.Failed == 0 && r.Err == nil }

// FanOut runs fn for every item concurrently and waits for all of them to settle.
// It is best-effort: failures neither stop the other calls nor undo the succeeded ones.
func FanOut[T any](ctx context.Context, items []T, fn func(ctx context.Context, item T) error) BulkResult {
	var (
		g      errgroup.Group
		failed atomic.Int64
	)
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := fn(ctx, item); err != nil {
				failed.Add(1)
				return err
			}
			return nil
		})
	}
	err := g.Wait()
	return BulkResult{Total: len(items), Failed: int(failed.Load()), Err: err}
}
