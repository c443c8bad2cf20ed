// Package media defines the value types that flow between clipforge's
// pipeline stages: the source asset, its transcript, candidate windows,
// and the feature/grade/rank/render artifacts derived from them.
//
// Every type here is a plain value. Components pass them by value or by
// read-only reference; no component retains a pointer into another's
// storage once a call returns (see the job arena note in SPEC_FULL.md §3).
package media

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// IDFromURL derives MediaAsset.ID deterministically from a source URL.
func IDFromURL(sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:12]
}

// WindowID derives a Window's deterministic ID from its owning media and span.
func WindowID(mediaID string, start, end float64) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%.3f:%.3f", mediaID, start, end)))
	return hex.EncodeToString(sum[:])[:12]
}

// Asset is a locally fetched source video: MediaAsset in spec.md §3.
type Asset struct {
	ID             string
	SourceURL      string
	LocalPath      string
	DurationSec    float64
	SampleRateHint int
}

// Token is a single word-level transcript unit with timing.
type Token struct {
	Text         string
	Start        float64
	End          float64
	Confidence   float64 // 0 if unset
	HasConf      bool
	SpeakerLabel string
}

// Transcript is an ordered, immutable sequence of Tokens.
type Transcript struct {
	Tokens []Token
}

// Text joins tokens [from,to] inclusive with single spaces.
func (t Transcript) Text(from, to int) string {
	if from < 0 || to >= len(t.Tokens) || from > to {
		return ""
	}
	out := make([]byte, 0, 16*(to-from+1))
	for i := from; i <= to; i++ {
		if i > from {
			out = append(out, ' ')
		}
		out = append(out, t.Tokens[i].Text...)
	}
	return string(out)
}

// SceneCut is a detected visual discontinuity timestamp.
type SceneCut struct {
	Time float64
}

// TokenSpan is an inclusive [Start,End] index range into a Transcript.
type TokenSpan struct {
	Start int
	End   int
}

// Window is a candidate clip interval snapped to token/scene structure.
type Window struct {
	ID                string
	MediaID           string
	Start             float64
	End               float64
	TokenSpan         TokenSpan
	Text              string
	ContainsSceneCuts int
}

// Duration returns End-Start.
func (w Window) Duration() float64 { return w.End - w.Start }

// KeyPhrase is a weighted candidate phrase.
type KeyPhrase struct {
	Phrase string
	Weight float64 // [0,1]
}

// TextFeatures holds the per-window text-signal outputs of §4.E.
type TextFeatures struct {
	KeyPhrases      []KeyPhrase
	CoverageScore   float64
	DensityScore    float64
	FillerRatio     float64
	SceneCutPenalty float64
}

// LLMGrade is the per-window cogency judgment from §4.F. Cogency==0 marks
// the sentinel value used when grading failed after the repair pass.
type LLMGrade struct {
	Cogency      int
	Quotes       []string
	SalientTerms []string
}

// IsSentinel reports whether this is the degraded placeholder grade.
func (g LLMGrade) IsSentinel() bool { return g.Cogency == 0 }

// SentinelGrade is the canonical disqualifying grade for a failed window.
func SentinelGrade() LLMGrade { return LLMGrade{} }

// RankedClip is a Window plus its derived signals and final score.
type RankedClip struct {
	Window     Window
	Features   TextFeatures
	Grade      LLMGrade
	FinalScore float64
}

// CropStrategy selects how the render planner reframes to 9:16.
type CropStrategy string

const (
	CropCenter        CropStrategy = "center"
	CropFaceTrackStub CropStrategy = "face_track_stub"
)

// SubtitleEvent is one burned-in caption line.
type SubtitleEvent struct {
	Start        float64
	End          float64
	Text         string
	SpeakerLabel string
}

// EncoderProfile selects the render codec path.
type EncoderProfile string

const (
	EncoderHWH264  EncoderProfile = "hw_h264_nvenc"
	EncoderCPUH264 EncoderProfile = "cpu_h264"
)

// RenderPlan is the fully resolved, executable description of one clip render.
type RenderPlan struct {
	ClipRank         int
	CutStart         float64
	CutEnd           float64
	SourcePath       string
	OutputPath       string
	CropStrategy     CropStrategy
	SubtitleEvents   []SubtitleEvent
	EncoderProfile   EncoderProfile
	TargetWidth      int
	TargetHeight     int
	TargetFPS        int
}

// JobLogRow is one CSV row per emitted clip, per §6.
type JobLogRow struct {
	VideoID         string
	Rank            int
	WindowID        string
	StartTime       float64
	EndTime         float64
	KeyphraseScore  float64
	DensityScore    float64
	CogencyScore    int
	FinalScore      float64
	Quotes          []string
	SalientTerms    []string
	Keyphrases      []string
	SceneCuts       int
	FilePath        string
	TextPreview     string
}
