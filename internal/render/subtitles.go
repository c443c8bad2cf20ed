package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/clipforge/clipforge/internal/media"
)

// WriteSRT renders events as a SubRip file relative to the clip's own
// timeline (event.Start/End are seconds from the clip's cut start, already
// shifted by the caller) and writes it to path.
func WriteSRT(path string, events []media.SubtitleEvent) error {
	var b strings.Builder
	for i, e := range events {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(e.Start), srtTimestamp(e.End), e.Text)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// srtTimestamp formats seconds as SubRip's HH:MM:SS,mmm.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(seconds*1000 + 0.5)
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	s := totalSec % 60
	totalMin := totalSec / 60
	m := totalMin % 60
	h := totalMin / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// shiftToClipTimeline rebases events so that the plan's CutStart becomes
// time zero, since the render clips out [CutStart,CutEnd) from the
// source but the planner's subtitle events are in source-timeline time.
func shiftToClipTimeline(events []media.SubtitleEvent, cutStart float64) []media.SubtitleEvent {
	shifted := make([]media.SubtitleEvent, len(events))
	for i, e := range events {
		shifted[i] = media.SubtitleEvent{
			Start:        e.Start - cutStart,
			End:          e.End - cutStart,
			Text:         e.Text,
			SpeakerLabel: e.SpeakerLabel,
		}
	}
	return shifted
}
