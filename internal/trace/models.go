// Package trace records per-job stage timings to a local SQLite database
// for offline debugging, per SPEC_FULL.md §9's supplemented "span tracing"
// feature. Adapted from the teacher's async-channel Tracer/Store, but
// scoped to one pipeline run (Job) instead of a long-lived call session,
// and backed by SQLite (github.com/mattn/go-sqlite3) instead of
// PostgreSQL since a single-process local pipeline has no shared
// Postgres server to talk to.
package trace

import "time"

// Job represents one full pipeline run, from INIT to a terminal state.
type Job struct {
	ID         string     `json:"id"`
	SourceURL  string     `json:"source_url"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Status     string     `json:"status"`
	DurationMs float64    `json:"duration_ms,omitempty"`
}

// Span represents one stage execution within a Job (e.g. "ingest",
// "transcribe", "window", "render").
type Span struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	Stage      string    `json:"stage"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Detail     string    `json:"detail,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}
