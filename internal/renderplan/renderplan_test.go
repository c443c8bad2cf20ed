package renderplan

import (
	"strings"
	"testing"

	"github.com/clipforge/clipforge/internal/media"
)

func sampleTranscript() media.Transcript {
	words := strings.Fields("the quick brown fox jumps over the lazy dog again and again today")
	tokens := make([]media.Token, 0, len(words))
	for i, w := range words {
		tokens = append(tokens, media.Token{
			Text:  w,
			Start: float64(i),
			End:   float64(i) + 0.8,
		})
	}
	return media.Transcript{Tokens: tokens}
}

func TestPlanProducesDeterministicOutputPath(t *testing.T) {
	transcript := sampleTranscript()
	clip := media.RankedClip{Window: media.Window{TokenSpan: media.TokenSpan{Start: 0, End: 3}, Start: 0, End: 3.8}}

	p := New("/out", nil)
	plans := p.Plan("media123", "/src.mp4", 100, []media.RankedClip{clip}, transcript)

	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	if plans[0].OutputPath != "/out/media123_clip_01.mp4" {
		t.Errorf("unexpected output path: %s", plans[0].OutputPath)
	}
	if plans[0].CropStrategy != media.CropCenter {
		t.Errorf("expected default center crop strategy, got %s", plans[0].CropStrategy)
	}
}

func TestPlanPadsCutPointsAndClampsToDuration(t *testing.T) {
	transcript := sampleTranscript()
	clip := media.RankedClip{Window: media.Window{TokenSpan: media.TokenSpan{Start: 0, End: 2}, Start: 0, End: 2.95}}

	p := New("/out", nil)
	plans := p.Plan("m", "/src.mp4", 3.0, []media.RankedClip{clip}, transcript)

	if plans[0].CutStart != 0 {
		t.Errorf("expected cut start clamped to 0, got %v", plans[0].CutStart)
	}
	if plans[0].CutEnd != 3.0 {
		t.Errorf("expected cut end clamped to duration 3.0, got %v", plans[0].CutEnd)
	}
}

func TestGroupCaptionsNeverSplitsAToken(t *testing.T) {
	transcript := sampleTranscript()
	w := media.Window{TokenSpan: media.TokenSpan{Start: 0, End: len(transcript.Tokens) - 1}}

	events := groupCaptions(transcript, w)
	if len(events) == 0 {
		t.Fatal("expected at least one caption event")
	}
	for _, e := range events {
		if len(e.Text) > maxCaptionChars {
			t.Errorf("caption exceeds max chars: %q (%d)", e.Text, len(e.Text))
		}
		if e.End-e.Start > maxCaptionSecs+0.01 {
			t.Errorf("caption exceeds max duration: %v", e.End-e.Start)
		}
	}
}

func TestGroupCaptionsInheritsSpeakerLabelFromFirstToken(t *testing.T) {
	transcript := sampleTranscript()
	transcript.Tokens[0].SpeakerLabel = "host"
	w := media.Window{TokenSpan: media.TokenSpan{Start: 0, End: 2}}

	events := groupCaptions(transcript, w)
	if events[0].SpeakerLabel != "host" {
		t.Errorf("expected first event to inherit speaker label 'host', got %q", events[0].SpeakerLabel)
	}
}
