package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestRunBoundedVisitsEveryItem(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var count int64
	runBounded(context.Background(), items, 4, func(ctx context.Context, item int) {
		atomic.AddInt64(&count, 1)
	})

	if count != int64(len(items)) {
		t.Errorf("expected %d items visited, got %d", len(items), count)
	}
}

func TestRunBoundedRespectsConcurrencyCeiling(t *testing.T) {
	items := make([]int, 20)
	var inFlight, maxInFlight int64

	runBounded(context.Background(), items, 3, func(ctx context.Context, item int) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			cur := atomic.LoadInt64(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt64(&maxInFlight, cur, n) {
				break
			}
		}
		atomic.AddInt64(&inFlight, -1)
	})

	if maxInFlight > 3 {
		t.Errorf("expected at most 3 concurrent, observed %d", maxInFlight)
	}
}
