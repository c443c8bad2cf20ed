package rank

import (
	"testing"

	"github.com/clipforge/clipforge/internal/media"
)

func TestScoreClampedToUnitInterval(t *testing.T) {
	w := Default()
	high := Score(media.TextFeatures{CoverageScore: 1, DensityScore: 1}, media.LLMGrade{Cogency: 5, Quotes: []string{"a", "b", "c"}}, w)
	if high > 1 {
		t.Errorf("expected score clamped to <=1, got %v", high)
	}
	low := Score(media.TextFeatures{FillerRatio: 1, SceneCutPenalty: 1}, media.LLMGrade{Cogency: 1}, w)
	if low < 0 {
		t.Errorf("expected score clamped to >=0, got %v", low)
	}
}

func TestSelectTopKExcludesSentinelGrades(t *testing.T) {
	windows := []media.Window{
		{ID: "a", Start: 0, End: 90},
		{ID: "b", Start: 200, End: 290},
	}
	features := []media.TextFeatures{{CoverageScore: 0.8}, {CoverageScore: 0.9}}
	grades := []media.LLMGrade{{Cogency: 4}, media.SentinelGrade()}

	got := SelectTopK(windows, features, grades, 2, Default())
	if len(got) != 1 || got[0].Window.ID != "a" {
		t.Fatalf("expected only window a selected, got %+v", got)
	}
}

func TestSelectTopKEnforcesNonOverlap(t *testing.T) {
	windows := []media.Window{
		{ID: "strong", Start: 0, End: 90},
		{ID: "overlapping", Start: 10, End: 100},
		{ID: "disjoint", Start: 300, End: 390},
	}
	features := []media.TextFeatures{{CoverageScore: 0.9}, {CoverageScore: 0.85}, {CoverageScore: 0.5}}
	grades := []media.LLMGrade{{Cogency: 5}, {Cogency: 5}, {Cogency: 3}}

	got := SelectTopK(windows, features, grades, 2, Default())
	if len(got) != 2 {
		t.Fatalf("expected 2 clips selected, got %d", len(got))
	}
	if got[0].Window.ID != "strong" {
		t.Errorf("expected strongest window selected first, got %s", got[0].Window.ID)
	}
	if got[1].Window.ID != "disjoint" {
		t.Errorf("expected second pick to be the disjoint window, got %s", got[1].Window.ID)
	}
}

func TestSelectTopKReturnsFewerWhenPoolExhausted(t *testing.T) {
	windows := []media.Window{{ID: "only", Start: 0, End: 90}}
	features := []media.TextFeatures{{CoverageScore: 0.5}}
	grades := []media.LLMGrade{{Cogency: 3}}

	got := SelectTopK(windows, features, grades, 5, Default())
	if len(got) != 1 {
		t.Fatalf("expected 1 clip when pool exhausted, got %d", len(got))
	}
}

func TestSelectTopKTieBreaksOnCogencyThenCoverageThenStart(t *testing.T) {
	windows := []media.Window{
		{ID: "later", Start: 500, End: 590},
		{ID: "earlier", Start: 0, End: 90},
	}
	features := []media.TextFeatures{{CoverageScore: 0.5}, {CoverageScore: 0.5}}
	grades := []media.LLMGrade{{Cogency: 3}, {Cogency: 3}}

	got := SelectTopK(windows, features, grades, 1, Default())
	if len(got) != 1 || got[0].Window.ID != "earlier" {
		t.Fatalf("expected earlier window to win the tie, got %+v", got)
	}
}
