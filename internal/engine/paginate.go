package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Page is one decoded page of a paginated search
type Page[T any] struct {
	Total int
	Items []T
}

// PageFunc fetches the page starting at offset
type PageFunc[T any] func(ctx context.Context, offset int) (Page[T], error)

// Paginate fetches the first page to learn the total, then fetches the
// remaining offsets (pageSize, 2*pageSize, ... below min(total, limit))
// on at most workers goroutines. Pages are merged in arrival order and
// the result is truncated to limit. A total of zero ends the search with
// no results; any page error aborts it.
func Paginate[T any](ctx context.Context, pageSize, limit, workers int, fetch PageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = 1
	}
	if workers <= 0 {
		workers = 1
	}

	first, err := fetch(ctx, 0)
	if err != nil {
		return nil, err
	}
	if first.Total <= 0 {
		return nil, nil
	}

	ceiling := first.Total
	if limit > 0 && limit < ceiling {
		ceiling = limit
	}

	var offsets []int
	for offset := pageSize; offset < ceiling; offset += pageSize {
		offsets = append(offsets, offset)
	}

	log.Debug().
		Int("total", first.Total).
		Int("limit", limit).
		Ints("offsets", offsets).
		Msg("Paginating")

	var (
		mu  sync.Mutex
		out = append([]T(nil), first.Items...)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, offset := range offsets {
		g.Go(func() error {
			page, err := fetch(gctx, offset)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, page.Items...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
