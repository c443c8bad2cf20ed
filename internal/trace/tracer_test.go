package trace

import (
	"errors"
	"testing"
)

func TestTracerRecordsStageSpansAndJobEnd(t *testing.T) {
	store := openTestStore(t)
	tr := NewTracer(store, "jobX", "https://example.com/video")

	err := tr.Stage("windowing", func() error { return nil })
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	err = tr.Stage("grading", func() error { return errors.New("boom") })
	if err == nil {
		t.Fatal("expected Stage to propagate fn's error")
	}
	tr.EndJob(42, "done")
	tr.Close()

	job, spans, err := store.GetJob("jobX")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != "done" {
		t.Errorf("expected status done, got %q", job.Status)
	}
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Stage != "windowing" || spans[0].Status != "ok" {
		t.Errorf("unexpected first span: %+v", spans[0])
	}
	if spans[1].Stage != "grading" || spans[1].Status != "error" || spans[1].Error != "boom" {
		t.Errorf("unexpected second span: %+v", spans[1])
	}
}

func TestNilTracerMethodsAreNoOps(t *testing.T) {
	var tr *Tracer
	if err := tr.Stage("x", func() error { return nil }); err != nil {
		t.Fatalf("expected nil-receiver Stage to pass through fn's result, got %v", err)
	}
	tr.EndJob(1, "done")
	tr.Close()
}
