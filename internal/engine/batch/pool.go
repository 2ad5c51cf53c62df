// internal/engine/batch/pool.go
package batch

import (
	"context"
	"sync"
)

// Map runs fn over items with at most concurrency goroutines and collects
// the kept results in completion order. fn reports false to drop an item.
// Items not yet started when ctx is done are skipped.
func Map[T, R any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, item T) (R, bool)) []R {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make(chan R, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

launch:
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break launch
		case sem <- struct{}{}: // Acquire semaphore
		}

		wg.Add(1)
		go func(it T) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore

			if r, ok := fn(ctx, it); ok {
				results <- r
			}
		}(item)
	}

	wg.Wait()
	close(results)

	out := make([]R, 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	return out
}
