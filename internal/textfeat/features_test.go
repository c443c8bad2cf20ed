package textfeat

import (
	"context"
	"testing"

	"github.com/clipforge/clipforge/internal/media"
)

func TestFillerRatioCountsPhraseAware(t *testing.T) {
	got := fillerRatio("you know this is like basically the point")
	if got <= 0 {
		t.Fatalf("expected positive filler ratio, got %v", got)
	}
}

func TestFillerRatioZeroForCleanText(t *testing.T) {
	got := fillerRatio("the quick brown fox jumps over the lazy dog")
	if got != 0 {
		t.Errorf("expected 0 filler ratio, got %v", got)
	}
}

func TestDensityScoreBoundedZeroToOne(t *testing.T) {
	got := densityScore("the the the the the")
	if got < 0 || got > 1 {
		t.Errorf("density score out of [0,1]: %v", got)
	}
}

func TestDensityScoreHigherForDiverseText(t *testing.T) {
	repetitive := densityScore("dog dog dog dog dog dog")
	diverse := densityScore("quantum flux reactor stabilizes under pressure gradients")
	if diverse <= repetitive {
		t.Errorf("expected diverse text to score higher density: diverse=%v repetitive=%v", diverse, repetitive)
	}
}

func TestBuildCorpusIDFRanksRareTermsHigher(t *testing.T) {
	windows := []media.Window{
		{Text: "common word common word common word"},
		{Text: "common word unique zeppelin appears once"},
	}
	idf := BuildCorpusIDF(windows)
	if idf.idf["zeppelin"] <= idf.idf["common"] {
		t.Errorf("expected rare term to have higher idf than common term")
	}
}

func TestStatisticalKeyphrasesReturnsAtMostTen(t *testing.T) {
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike november"
	idf := BuildCorpusIDF([]media.Window{{Text: text}})
	got := StatisticalKeyphrases(text, idf)
	if len(got) > 10 {
		t.Errorf("expected at most 10 keyphrases, got %d", len(got))
	}
}

func TestComputeWithoutEmbedderUsesStatisticalOnly(t *testing.T) {
	w := media.Window{Text: "the rare zeppelin flies over the common common common field", ContainsSceneCuts: 2}
	idf := BuildCorpusIDF([]media.Window{w})

	got, err := Compute(context.Background(), w, idf, nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(got.KeyPhrases) == 0 {
		t.Error("expected non-empty keyphrases")
	}
	if got.SceneCutPenalty != 2.0/3.0 {
		t.Errorf("expected scene cut penalty 2/3, got %v", got.SceneCutPenalty)
	}
	if got.CoverageScore < 0 || got.CoverageScore > 1 {
		t.Errorf("coverage score out of [0,1]: %v", got.CoverageScore)
	}
}

func TestMergeByMaxWeightKeepsHigherScore(t *testing.T) {
	a := []media.KeyPhrase{{Phrase: "hello world", Weight: 0.3}}
	b := []media.KeyPhrase{{Phrase: "hello world", Weight: 0.9}}
	merged := mergeByMaxWeight(a, b)
	if len(merged) != 1 || merged[0].Weight != 0.9 {
		t.Fatalf("expected merged max weight 0.9, got %+v", merged)
	}
}
