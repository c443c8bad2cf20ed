package asr

import "testing"

func TestNormalizeUsesWordTimestampsWhenPresent(t *testing.T) {
	resp := verboseResponse{
		Segments: []verboseSegment{
			{
				Text: "hello world", Start: 0, End: 1,
				Words: []verboseWord{
					{Word: "hello", Start: 0, End: 0.4, Probability: 0.9},
					{Word: "world", Start: 0.4, End: 1, Probability: 0.8},
				},
			},
		},
	}

	got := normalize(resp)
	if len(got.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(got.Tokens))
	}
	if got.Tokens[0].Text != "hello" || !got.Tokens[0].HasConf {
		t.Errorf("unexpected first token: %+v", got.Tokens[0])
	}
	if got.Tokens[1].End != 1 {
		t.Errorf("expected second token end=1, got %v", got.Tokens[1].End)
	}
}

func TestNormalizeFallsBackToEvenSplitWithoutWords(t *testing.T) {
	resp := verboseResponse{
		Segments: []verboseSegment{
			{Text: "a b c d", Start: 0, End: 4},
		},
	}

	got := normalize(resp)
	if len(got.Tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(got.Tokens))
	}
	if got.Tokens[0].Start != 0 || got.Tokens[0].End != 1 {
		t.Errorf("unexpected first token span: %+v", got.Tokens[0])
	}
	if got.Tokens[3].Start != 3 || got.Tokens[3].End != 4 {
		t.Errorf("unexpected last token span: %+v", got.Tokens[3])
	}
}

func TestNormalizeSkipsEmptySegments(t *testing.T) {
	resp := verboseResponse{Segments: []verboseSegment{{Text: "", Start: 0, End: 1}}}
	got := normalize(resp)
	if len(got.Tokens) != 0 {
		t.Errorf("expected no tokens from empty segment, got %d", len(got.Tokens))
	}
}
