package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// runBounded runs fn over every item with at most concurrency in flight at
// once, waiting for all to finish before returning. It generalizes the
// teacher's streamLLMWithTTS producer/consumer sync.WaitGroup pattern into
// a reusable fixed-width pool, since the grading and rendering stages both
// need "N workers over a slice" rather than a single producer/consumer
// channel pair.
//
// fn is called for every item regardless of earlier failures — a single
// item's error never stops the others from running — so the caller
// collects per-item outcomes itself (see the render loop in orchestrator.go).
// If ctx is already cancelled, fn still runs for every item so it can
// record a cancellation outcome for each; fn is expected to check ctx.Err()
// itself when that matters.
func runBounded[T any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, item T)) {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup
	for _, item := range items {
		item := item
		_ = sem.Acquire(context.Background(), 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			fn(ctx, item)
		}()
	}
	wg.Wait()
}
