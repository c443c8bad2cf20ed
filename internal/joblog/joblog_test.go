package joblog

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clipforge/clipforge/internal/media"
)

func TestPreviewCollapsesNewlinesAndTruncates(t *testing.T) {
	long := strings.Repeat("word ", 50) + "\nmore\ntext"
	got := preview(long)
	if len(got) > previewLen {
		t.Errorf("expected preview <= %d chars, got %d", previewLen, len(got))
	}
	if strings.Contains(got, "\n") {
		t.Error("expected newlines collapsed")
	}
}

func TestRowForClipJoinsKeyphrases(t *testing.T) {
	clip := media.RankedClip{
		Window: media.Window{ID: "w1", Start: 0, End: 90, Text: "hello world", ContainsSceneCuts: 1},
		Features: media.TextFeatures{
			KeyPhrases:    []media.KeyPhrase{{Phrase: "alpha"}, {Phrase: "beta"}},
			CoverageScore: 0.5,
			DensityScore:  0.6,
		},
		Grade:      media.LLMGrade{Cogency: 4, Quotes: []string{"q1"}, SalientTerms: []string{"t1", "t2"}},
		FinalScore: 0.7,
	}
	row := RowForClip("vid1", 1, clip, "/out/vid1_clip_01.mp4")
	if row.VideoID != "vid1" || row.Rank != 1 {
		t.Errorf("unexpected row identity: %+v", row)
	}
	if strings.Join(row.Keyphrases, "|") != "alpha|beta" {
		t.Errorf("expected joined keyphrases alpha|beta, got %v", row.Keyphrases)
	}
}

func TestAnnotateErrorPrefixesTextPreview(t *testing.T) {
	row := media.JobLogRow{TextPreview: "original text"}
	annotated := AnnotateError(row, errors.New("render failed"))
	if !strings.HasPrefix(annotated.TextPreview, "[error: render failed] ") {
		t.Errorf("unexpected annotated preview: %q", annotated.TextPreview)
	}
}

func TestWriteEmptyRowsProducesHeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	if err := Write(path, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header-only file (1 record), got %d", len(records))
	}
	if records[0][0] != "video_id" {
		t.Errorf("expected header row, got %v", records[0])
	}
}

func TestWriteProducesOneRowPerClipInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	rows := []media.JobLogRow{
		{VideoID: "v", Rank: 1, WindowID: "w1"},
		{VideoID: "v", Rank: 2, WindowID: "w2"},
	}
	if err := Write(path, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, _ := os.ReadFile(path)
	r := csv.NewReader(strings.NewReader(string(data)))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[1][2] != "w1" || records[2][2] != "w2" {
		t.Errorf("expected window ids in rank order, got %v / %v", records[1], records[2])
	}
}
