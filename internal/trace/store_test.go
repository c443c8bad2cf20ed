package trace

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateJobAndGetJobRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if err := store.CreateJob("job1", "https://example.com/video"); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := store.CreateSpan(Span{ID: "span1", JobID: "job1", Stage: "ingest", DurationMs: 12.5, Status: "ok"}); err != nil {
		t.Fatalf("CreateSpan: %v", err)
	}
	if err := store.EndJob("job1", 1500, "done"); err != nil {
		t.Fatalf("EndJob: %v", err)
	}

	job, spans, err := store.GetJob("job1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != "done" {
		t.Errorf("expected status done, got %q", job.Status)
	}
	if job.EndedAt == nil {
		t.Error("expected EndedAt to be set")
	}
	if len(spans) != 1 || spans[0].Stage != "ingest" {
		t.Errorf("expected one ingest span, got %+v", spans)
	}
}

func TestListJobsOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)
	if err := store.CreateJob("older", "https://example.com/a"); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := store.CreateJob("newer", "https://example.com/b"); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	jobs, total, err := store.ListJobs(10, 0)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 total jobs, got %d", total)
	}
	if jobs[0].ID != "newer" {
		t.Errorf("expected newest job first, got %q", jobs[0].ID)
	}
}
