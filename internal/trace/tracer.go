package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// maxTraceFieldLen caps the length of span detail/error strings stored
	// in SQLite to avoid bloating the trace database with full window text.
	maxTraceFieldLen = 500

	// traceChannelBuffer is how many trace messages can queue before the
	// background drain goroutine writes them to the store.
	traceChannelBuffer = 64
)

type traceMsg struct {
	kind string // "job_create", "job_end", "span"
	// job fields
	jobID      string
	sourceURL  string
	durationMs float64
	status     string
	// span fields
	span Span
}

// Tracer writes trace data asynchronously via a buffered channel so a
// slow or momentarily-busy SQLite writer never stalls a pipeline stage.
// All methods are nil-safe (no-op on nil receiver), so tracing can be
// disabled by simply not constructing one.
type Tracer struct {
	store *Store
	jobID string
	ch    chan traceMsg
	done  chan struct{}
}

// NewTracer creates a tracer bound to one job. Launches a background
// drain goroutine that writes trace messages to the store sequentially.
// Callers MUST call Close() when done to flush pending writes and stop
// the goroutine — otherwise writes are lost and the goroutine leaks.
func NewTracer(store *Store, jobID, sourceURL string) *Tracer {
	t := &Tracer{
		store: store,
		jobID: jobID,
		ch:    make(chan traceMsg, traceChannelBuffer),
		done:  make(chan struct{}),
	}
	go t.drain()
	t.ch <- traceMsg{kind: "job_create", jobID: jobID, sourceURL: sourceURL}
	return t
}

func (t *Tracer) drain() {
	defer close(t.done)
	for msg := range t.ch {
		t.handle(msg)
	}
}

func (t *Tracer) handle(m traceMsg) {
	if err := t.dispatch(m); err != nil {
		slog.Warn("trace write failed", "kind", m.kind, "error", err)
	}
}

func (t *Tracer) dispatch(m traceMsg) error {
	switch m.kind {
	case "job_create":
		return t.store.CreateJob(m.jobID, m.sourceURL)
	case "job_end":
		return t.store.EndJob(m.jobID, m.durationMs, m.status)
	case "span":
		return t.store.CreateSpan(m.span)
	}
	return nil
}

// EndJob finalizes the job's terminal status and duration.
func (t *Tracer) EndJob(durationMs float64, status string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{kind: "job_end", jobID: t.jobID, durationMs: durationMs, status: status}
}

// RecordSpan records one completed stage span.
func (t *Tracer) RecordSpan(stage string, startedAt time.Time, durationMs float64, detail, status, errMsg string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{
		kind: "span",
		span: Span{
			ID:         uuid.NewString(),
			JobID:      t.jobID,
			Stage:      stage,
			StartedAt:  startedAt,
			DurationMs: durationMs,
			Detail:     truncate(detail, maxTraceFieldLen),
			Status:     status,
			Error:      truncate(errMsg, maxTraceFieldLen),
		},
	}
}

// Stage times fn and records it as one span named stage, regardless of
// whether fn returns an error, mirroring the teacher's start/end pairing
// but collapsed into a single call since clipforge stages are synchronous
// from the orchestrator's point of view.
func (t *Tracer) Stage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	status := "ok"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}
	t.RecordSpan(stage, start, durationMs, "", status, errMsg)
	return err
}

// Close drains pending writes and shuts down the background goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
