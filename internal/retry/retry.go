// Package retry implements the bounded-backoff retry policy used by the
// ingest, ASR, and grader clients (SPEC_FULL.md §4.A/4.B/4.F). It
// generalizes the restart-loop pattern from the example corpus's ffmpeg
// process supervisor (attempt counter, classify-then-retry, context
// cancellation always wins) into a single reusable helper instead of
// duplicating the loop in each client.
package retry

import (
	"context"
	"time"
)

// Classify tells the retrier whether an error is worth retrying.
type Classify func(err error) bool

// Do runs fn up to len(delays)+1 times, sleeping delays[i] between attempt
// i and i+1. It stops immediately, without further attempts, if ctx is
// cancelled, fn succeeds, or classify returns false for a non-nil error.
func Do(ctx context.Context, delays []time.Duration, classify Classify, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if classify != nil && !classify(lastErr) {
			return lastErr
		}
		if attempt >= len(delays) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}
}

// IngestBackoff is the spec-mandated 1s/4s/16s schedule (3 retries, 4
// attempts in all).
func IngestBackoff() []time.Duration {
	return []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}
}

// AsrBackoff mirrors IngestBackoff's cadence: 3 retries. Which errors are
// retried is decided by the caller's classifier, not by HTTP status here.
func AsrBackoff() []time.Duration {
	return []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}
}

// GraderBackoff is the spec-mandated 2s/8s schedule (2 retries).
func GraderBackoff() []time.Duration {
	return []time.Duration{2 * time.Second, 8 * time.Second}
}
