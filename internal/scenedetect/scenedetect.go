// Package scenedetect implements the Scene Detector (SPEC_FULL.md §4.C): it
// runs ffmpeg's showinfo/scene filter over the ingested file and parses
// scene-cut timestamps from stderr. Grounded on the ffmpeg subprocess
// supervision pattern from the example corpus's ffmpeg-runner (stderr
// scanned line-by-line, non-zero/parse failure degrades rather than
// aborting the job).
package scenedetect

import (
	"bufio"
	"context"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/clipforge/clipforge/internal/media"
)

// Detector runs ffmpeg's scene-change filter against a local media file.
type Detector struct {
	FFmpegPath string // default "ffmpeg"
	Threshold  float64
}

// New creates a Detector with the default ffmpeg path and scene threshold.
func New() *Detector {
	return &Detector{FFmpegPath: "ffmpeg", Threshold: 0.4}
}

var pktPtsTimeRe = regexp.MustCompile(`pts_time:([0-9]+\.?[0-9]*)`)

// Detect returns scene-cut timestamps for localPath. Per SPEC_FULL.md §4.C,
// this stage is best-effort: a failure to run ffmpeg (missing binary,
// non-zero exit) is logged as a warning and degrades to an empty cut list
// rather than failing the job, since the windower treats "no scene data" as
// "no cut penalty" safely. Individual stderr lines that do not parse are
// skipped.
func (d *Detector) Detect(ctx context.Context, localPath string) []media.SceneCut {
	ffmpeg := d.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = 0.4
	}

	filter := "select='gt(scene," + strconv.FormatFloat(threshold, 'f', -1, 64) + ")',showinfo"
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-i", localPath,
		"-vf", filter,
		"-f", "null", "-",
	)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		slog.Warn("scene detection unavailable", "error", err)
		return nil
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("scene detection unavailable", "error", err)
		return nil
	}

	var cuts []media.SceneCut
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		m := pktPtsTimeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		cuts = append(cuts, media.SceneCut{Time: t})
	}
	if err := cmd.Wait(); err != nil {
		slog.Warn("scene detection failed, continuing without scene cuts", "error", err)
		return nil
	}

	return cuts
}
