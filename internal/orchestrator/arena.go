package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clipforge/clipforge/internal/ingest"
	"github.com/clipforge/clipforge/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// Arena owns one job's scratch directory and applies backpressure on new
// render tasks once their estimated output would push total scratch usage
// over quotaBytes (SPEC_FULL.md §5). It generalizes the teacher's
// goroutine-scoped WaitGroup fan-out into a byte-weighted semaphore rather
// than a count-weighted one, since the render stage's bottleneck resource
// is disk, not CPU slots.
type Arena struct {
	Dir   string
	quota *semaphore.Weighted
}

// NewArena creates the job scratch directory under root and a byte-weighted
// quota semaphore. A non-positive quotaBytes disables backpressure (every
// Reserve call succeeds immediately) — useful for tests and for operators
// who trust their own disk headroom.
func NewArena(root string, quotaBytes int64) (*Arena, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", root, err)
	}
	if quotaBytes <= 0 {
		quotaBytes = 1<<63 - 1
	}
	return &Arena{Dir: root, quota: semaphore.NewWeighted(quotaBytes)}, nil
}

// Reserve blocks until estimatedBytes of the scratch quota are available,
// then returns a release func the caller must call once that space is
// freed (the render finished or was abandoned).
func (a *Arena) Reserve(ctx context.Context, estimatedBytes int64) (func(), error) {
	if estimatedBytes <= 0 {
		estimatedBytes = 1
	}
	if err := a.quota.Acquire(ctx, estimatedBytes); err != nil {
		return nil, fmt.Errorf("acquire scratch quota: %w", err)
	}
	metrics.ScratchBytesInUse.Add(float64(estimatedBytes))
	return func() {
		metrics.ScratchBytesInUse.Sub(float64(estimatedBytes))
		a.quota.Release(estimatedBytes)
	}, nil
}

// Cleanup sweeps the job's scratch directory. Safe to call even if no
// files were ever written.
func (a *Arena) Cleanup() {
	_ = ingest.Sweep(a.Dir)
}

// scratchPath builds a path under the arena's scratch dir.
func (a *Arena) scratchPath(name string) string {
	return filepath.Join(a.Dir, name)
}
