// Package renderplan implements the Render Planner (SPEC_FULL.md §4.H):
// for each RankedClip it resolves padded cut points, a crop strategy,
// grouped caption events, and a deterministic output path.
package renderplan

import (
	"fmt"
	"path/filepath"

	"github.com/clipforge/clipforge/internal/media"
)

const (
	cutPad           = 0.1
	maxCaptionChars  = 42
	maxCaptionSecs   = 2.5
)

// CropStrategist resolves per-frame crop rectangles for a clip. The default
// implementation always returns the center-crop strategy; this interface is
// the explicit seam named in §9 for a future face-tracking implementation.
type CropStrategist interface {
	Strategy(clip media.RankedClip) media.CropStrategy
}

// CenterCropStrategist is the default CropStrategist.
type CenterCropStrategist struct{}

// Strategy always returns CropCenter.
func (CenterCropStrategist) Strategy(media.RankedClip) media.CropStrategy {
	return media.CropCenter
}

// Planner builds RenderPlans for a ranked clip set.
type Planner struct {
	OutputDir string
	Cropper   CropStrategist
}

// New creates a Planner. A nil cropper defaults to CenterCropStrategist.
func New(outputDir string, cropper CropStrategist) *Planner {
	if cropper == nil {
		cropper = CenterCropStrategist{}
	}
	return &Planner{OutputDir: outputDir, Cropper: cropper}
}

// Plan builds one RenderPlan per ranked clip, in input (already ranked)
// order; plan.ClipRank is 1-indexed per the output path convention.
func (p *Planner) Plan(mediaID, sourcePath string, duration float64, clips []media.RankedClip, transcript media.Transcript) []media.RenderPlan {
	plans := make([]media.RenderPlan, 0, len(clips))
	for i, clip := range clips {
		rank := i + 1
		cutStart := clip.Window.Start - cutPad
		if cutStart < 0 {
			cutStart = 0
		}
		cutEnd := clip.Window.End + cutPad
		if cutEnd > duration {
			cutEnd = duration
		}

		plans = append(plans, media.RenderPlan{
			ClipRank:       rank,
			CutStart:       cutStart,
			CutEnd:         cutEnd,
			SourcePath:     sourcePath,
			OutputPath:     outputPath(p.OutputDir, mediaID, rank),
			CropStrategy:   p.Cropper.Strategy(clip),
			SubtitleEvents: groupCaptions(transcript, clip.Window),
		})
	}
	return plans
}

func outputPath(outputDir, mediaID string, rank int) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s_clip_%02d.mp4", mediaID, rank))
}

// groupCaptions groups the window's tokens into caption lines of at most
// maxCaptionChars characters or maxCaptionSecs seconds, whichever triggers
// first, never splitting a token. Each event inherits the speaker label of
// its first token.
func groupCaptions(transcript media.Transcript, w media.Window) []media.SubtitleEvent {
	var events []media.SubtitleEvent
	start := w.TokenSpan.Start
	for start <= w.TokenSpan.End {
		end := start
		lineLen := len(transcript.Tokens[start].Text)
		for end+1 <= w.TokenSpan.End {
			next := transcript.Tokens[end+1]
			candidateLen := lineLen + 1 + len(next.Text)
			candidateDur := next.End - transcript.Tokens[start].Start
			if candidateLen > maxCaptionChars || candidateDur > maxCaptionSecs {
				break
			}
			end++
			lineLen = candidateLen
		}

		events = append(events, media.SubtitleEvent{
			Start:        transcript.Tokens[start].Start,
			End:          transcript.Tokens[end].End,
			Text:         transcript.Text(start, end),
			SpeakerLabel: transcript.Tokens[start].SpeakerLabel,
		})
		start = end + 1
	}
	return events
}
