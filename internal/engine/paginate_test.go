package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

// syntheticPages serves total records in pages of pageSize and records
// every offset requested.
type syntheticPages struct {
	total    int
	pageSize int
	failAt   int

	mu      sync.Mutex
	offsets []int
}

func (s *syntheticPages) fetch(ctx context.Context, offset int) (Page[int], error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	s.mu.Unlock()

	if s.failAt > 0 && offset == s.failAt {
		return Page[int]{}, errors.New("page failed")
	}

	var items []int
	for i := offset; i < offset+s.pageSize && i < s.total; i++ {
		items = append(items, i)
	}
	return Page[int]{Total: s.total, Items: items}, nil
}

func TestPaginate_Completeness(t *testing.T) {
	cases := []struct {
		limit       int
		wantOffsets []int
		wantLen     int
	}{
		{limit: 10000, wantOffsets: []int{0, 200, 400}, wantLen: 450},
		{limit: 450, wantOffsets: []int{0, 200, 400}, wantLen: 450},
		{limit: 250, wantOffsets: []int{0, 200}, wantLen: 250},
		{limit: 200, wantOffsets: []int{0}, wantLen: 200},
	}

	for _, tc := range cases {
		src := &syntheticPages{total: 450, pageSize: 200}
		out, err := Paginate(context.Background(), 200, tc.limit, 4, src.fetch)
		if err != nil {
			t.Fatalf("limit %d: unexpected error: %v", tc.limit, err)
		}
		if len(out) != tc.wantLen {
			t.Errorf("limit %d: expected %d records, got %d", tc.limit, tc.wantLen, len(out))
		}

		sort.Ints(src.offsets)
		if len(src.offsets) != len(tc.wantOffsets) {
			t.Fatalf("limit %d: expected offsets %v, got %v", tc.limit, tc.wantOffsets, src.offsets)
		}
		for i := range tc.wantOffsets {
			if src.offsets[i] != tc.wantOffsets[i] {
				t.Errorf("limit %d: expected offsets %v, got %v", tc.limit, tc.wantOffsets, src.offsets)
			}
		}
	}
}

func TestPaginate_ZeroTotalIsEmpty(t *testing.T) {
	src := &syntheticPages{total: 0, pageSize: 200}
	out, err := Paginate(context.Background(), 200, 100, 4, src.fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no records, got %d", len(out))
	}
	if len(src.offsets) != 1 {
		t.Errorf("expected only the first page fetch, got %v", src.offsets)
	}
}

func TestPaginate_PageErrorAborts(t *testing.T) {
	src := &syntheticPages{total: 450, pageSize: 200, failAt: 200}
	_, err := Paginate(context.Background(), 200, 10000, 2, src.fetch)
	if err == nil || err.Error() != "page failed" {
		t.Fatalf("expected page error, got %v", err)
	}
}

func TestPaginate_FirstPageError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Paginate(context.Background(), 200, 10, 1, func(ctx context.Context, offset int) (Page[int], error) {
		return Page[int]{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected first page error, got %v", err)
	}
}
