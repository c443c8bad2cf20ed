package window

import (
	"testing"

	"github.com/clipforge/clipforge/internal/media"
)

func tokensSpanning(totalSeconds float64, wordsPerSecond float64) []media.Token {
	n := int(totalSeconds * wordsPerSecond)
	step := 1.0 / wordsPerSecond
	tokens := make([]media.Token, 0, n)
	for i := 0; i < n; i++ {
		tokens = append(tokens, media.Token{
			Text:  "word",
			Start: float64(i) * step,
			End:   float64(i)*step + step*0.6,
		})
	}
	return tokens
}

func TestGenerateEmptyTranscriptProducesNoWindows(t *testing.T) {
	got := Generate("m1", media.Transcript{}, nil, DefaultParams())
	if got != nil {
		t.Errorf("expected nil windows for empty transcript, got %v", got)
	}
}

func TestGenerateShortMediaCollapsesToSingleWindow(t *testing.T) {
	transcript := media.Transcript{Tokens: tokensSpanning(30, 2)}
	got := Generate("m1", transcript, nil, DefaultParams())
	if len(got) != 1 {
		t.Fatalf("expected 1 window for short media, got %d", len(got))
	}
	if got[0].Start != 0 {
		t.Errorf("expected start=0, got %v", got[0].Start)
	}
}

func TestGenerateLongMediaProducesOrderedNonTrivialWindows(t *testing.T) {
	transcript := media.Transcript{Tokens: tokensSpanning(400, 2)}
	got := Generate("m1", transcript, nil, DefaultParams())
	if len(got) == 0 {
		t.Fatal("expected at least one window for long media")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Fatalf("windows not in ascending start order at index %d", i)
		}
	}
	for _, w := range got {
		d := w.Duration()
		if d < DefaultParams().MinLength-1 || d > DefaultParams().MaxLength+1 {
			t.Errorf("window duration %v outside [%v,%v]", d, DefaultParams().MinLength, DefaultParams().MaxLength)
		}
	}
}

func TestGenerateAnnotatesInteriorSceneCuts(t *testing.T) {
	transcript := media.Transcript{Tokens: tokensSpanning(200, 2)}
	cuts := []media.SceneCut{{Time: 50}, {Time: 140}}
	got := Generate("m1", transcript, cuts, DefaultParams())
	found := false
	for _, w := range got {
		if w.ContainsSceneCuts > 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one window to report interior scene cuts")
	}
}

func TestDedupDropsNearDuplicateSpans(t *testing.T) {
	a := media.Window{TokenSpan: media.TokenSpan{Start: 0, End: 100}, Start: 0}
	b := media.Window{TokenSpan: media.TokenSpan{Start: 2, End: 100}, Start: 2}
	got := dedup([]media.Window{a, b}, nil)
	if len(got) != 1 {
		t.Fatalf("expected overlapping windows deduped to 1, got %d", len(got))
	}
	if got[0].Start != 0 {
		t.Errorf("expected earlier window kept, got start=%v", got[0].Start)
	}
}
