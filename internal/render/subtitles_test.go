package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clipforge/clipforge/internal/media"
)

func TestSrtTimestampFormatsHoursMinutesSecondsMillis(t *testing.T) {
	got := srtTimestamp(3725.5)
	want := "01:02:05,500"
	if got != want {
		t.Errorf("srtTimestamp(3725.5) = %q, want %q", got, want)
	}
}

func TestSrtTimestampClampsNegativeToZero(t *testing.T) {
	if got := srtTimestamp(-1); got != "00:00:00,000" {
		t.Errorf("expected clamp to zero, got %q", got)
	}
}

func TestShiftToClipTimelineRebasesToCutStart(t *testing.T) {
	events := []media.SubtitleEvent{{Start: 100, End: 102, Text: "hi"}}
	shifted := shiftToClipTimeline(events, 90)
	if shifted[0].Start != 10 || shifted[0].End != 12 {
		t.Errorf("expected rebased [10,12], got [%v,%v]", shifted[0].Start, shifted[0].End)
	}
}

func TestWriteSRTProducesSequencedBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.srt")
	events := []media.SubtitleEvent{
		{Start: 0, End: 1, Text: "first line"},
		{Start: 1, End: 2.5, Text: "second line"},
	}
	if err := WriteSRT(path, events); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "1\n00:00:00,000 --> 00:00:01,000\nfirst line\n") {
		t.Errorf("unexpected first block: %q", content)
	}
	if !strings.Contains(content, "2\n00:00:01,000 --> 00:00:02,500\nsecond line\n") {
		t.Errorf("unexpected second block: %q", content)
	}
}
