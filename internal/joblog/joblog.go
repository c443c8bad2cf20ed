// Package joblog emits the per-job CSV log described in SPEC_FULL.md §6:
// one row per produced clip, pipe-joined list fields, and a
// 160-character text preview. No CSV library appears anywhere in the
// example corpus, so this uses stdlib encoding/csv directly — the
// column layout is fixed and small enough that a library would add
// indirection without buying anything.
package joblog

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/clipforge/clipforge/internal/media"
)

var header = []string{
	"video_id", "rank", "window_id", "start_time", "end_time",
	"keyphrase_score", "density_score", "cogency_score", "final_score",
	"quotes", "salient_terms", "keyphrases", "scene_cuts", "file_path",
	"text_preview",
}

const previewLen = 160

// RowForClip builds the JobLogRow for one successfully selected-and-ranked
// clip, before rendering is attempted.
func RowForClip(videoID string, rank int, clip media.RankedClip, filePath string) media.JobLogRow {
	phrases := make([]string, 0, len(clip.Features.KeyPhrases))
	for _, kp := range clip.Features.KeyPhrases {
		phrases = append(phrases, kp.Phrase)
	}
	return media.JobLogRow{
		VideoID:        videoID,
		Rank:           rank,
		WindowID:       clip.Window.ID,
		StartTime:      clip.Window.Start,
		EndTime:        clip.Window.End,
		KeyphraseScore: clip.Features.CoverageScore,
		DensityScore:   clip.Features.DensityScore,
		CogencyScore:   clip.Grade.Cogency,
		FinalScore:     clip.FinalScore,
		Quotes:         clip.Grade.Quotes,
		SalientTerms:   clip.Grade.SalientTerms,
		Keyphrases:     phrases,
		SceneCuts:      clip.Window.ContainsSceneCuts,
		FilePath:       filePath,
		TextPreview:    preview(clip.Window.Text),
	}
}

// AnnotateError marks a row's text_preview with an `[error: ...]` prefix
// per §9's supplemented partial-failure annotation, rather than dropping
// the row when a clip's render is skipped after exhausting retries.
func AnnotateError(row media.JobLogRow, err error) media.JobLogRow {
	row.TextPreview = "[error: " + err.Error() + "] " + row.TextPreview
	return row
}

// preview collapses newlines and truncates to previewLen characters.
func preview(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if runes := []rune(collapsed); len(runes) > previewLen {
		return string(runes[:previewLen])
	}
	return collapsed
}

// Write emits rows to path as the §6 CSV log: header row, comma-delimited,
// pipe-joined list fields. Fields are quoted only where encoding/csv
// requires it (a comma, quote, or line break in the value, or a leading
// space); other fields are written bare. An empty rows slice still
// produces a header-only file (the empty-transcript/empty-candidate-pool
// scenarios are not errors).
func Write(path string, rows []media.JobLogRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.VideoID,
			strconv.Itoa(row.Rank),
			row.WindowID,
			strconv.FormatFloat(row.StartTime, 'f', 3, 64),
			strconv.FormatFloat(row.EndTime, 'f', 3, 64),
			strconv.FormatFloat(row.KeyphraseScore, 'f', 6, 64),
			strconv.FormatFloat(row.DensityScore, 'f', 6, 64),
			strconv.Itoa(row.CogencyScore),
			strconv.FormatFloat(row.FinalScore, 'f', 6, 64),
			strings.Join(row.Quotes, "|"),
			strings.Join(row.SalientTerms, "|"),
			strings.Join(row.Keyphrases, "|"),
			strconv.Itoa(row.SceneCuts),
			row.FilePath,
			row.TextPreview,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
