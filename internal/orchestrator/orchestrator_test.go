package orchestrator

import (
	"errors"
	"testing"

	"github.com/clipforge/clipforge/internal/clipforgeerr"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/media"
)

func TestGraderBackendsEmptyWithoutAPIKey(t *testing.T) {
	backends := graderBackends(config.Config{GraderEngine: "openai"})
	if len(backends) != 0 {
		t.Errorf("expected no backends without an API key, got %v", backends)
	}
}

func TestGraderBackendsSelectsEngineFromConfig(t *testing.T) {
	backends := graderBackends(config.Config{GraderEngine: "anthropic", GraderAPIKey: "k", GraderModel: "m"})
	if _, ok := backends["anthropic"]; !ok {
		t.Errorf("expected anthropic backend registered, got %v", backends)
	}
	if _, ok := backends["openai"]; ok {
		t.Error("expected no openai backend when engine is anthropic")
	}
}

func TestRetryableRejectsConfigErrors(t *testing.T) {
	err := clipforgeerr.New(clipforgeerr.Config, "ingest", errors.New("bad url"))
	if retryable(err) {
		t.Error("expected config errors to be non-retryable")
	}
}

func TestRetryableAcceptsPlainErrors(t *testing.T) {
	if !retryable(errors.New("connection reset")) {
		t.Error("expected a plain transient error to be retryable")
	}
}

func TestEstimateClipBytesPositiveForNonEmptyClip(t *testing.T) {
	plan := media.RenderPlan{CutStart: 10, CutEnd: 100}
	got := estimateClipBytes(plan)
	if got <= 0 {
		t.Errorf("expected positive byte estimate, got %d", got)
	}
}

func TestEstimateClipBytesNeverZeroOrNegativeForDegenerateClip(t *testing.T) {
	plan := media.RenderPlan{CutStart: 10, CutEnd: 10}
	if got := estimateClipBytes(plan); got <= 0 {
		t.Errorf("expected a positive floor estimate for a zero-length clip, got %d", got)
	}
}
