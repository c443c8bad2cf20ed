// Package ingest implements the Media Ingest Adapter (SPEC_FULL.md §4.A):
// it fetches a source URL to a local file and probes its duration. Grounded
// on the teacher's orchestrator/compose.go pattern of shelling out to an
// external tool via exec.CommandContext and parsing its JSON output.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/clipforge/clipforge/internal/clipforgeerr"
	"github.com/clipforge/clipforge/internal/media"
)

// Adapter fetches source media via an external downloader binary and
// probes it with ffprobe. The downloader itself (e.g. yt-dlp) is treated
// as an external collaborator per SPEC_FULL.md §1 — only the argv and
// output contract are specified here.
type Adapter struct {
	DownloaderPath string // default "yt-dlp"
	FFprobePath    string // default "ffprobe"
}

// New creates an Adapter with the default tool paths.
func New() *Adapter {
	return &Adapter{DownloaderPath: "yt-dlp", FFprobePath: "ffprobe"}
}

// Fetch downloads sourceURL into scratchDir and returns the resulting
// MediaAsset. It does not retry; the orchestrator wraps Fetch with
// internal/retry using the 1s/4s/16s schedule and a 10-minute limit per
// attempt, and retries any error that is not a clipforgeerr Config error
// (HTTP 4xx and 5xx failures are not told apart).
func (a *Adapter) Fetch(ctx context.Context, sourceURL, scratchDir string) (media.Asset, error) {
	id := media.IDFromURL(sourceURL)
	outTemplate := filepath.Join(scratchDir, id+".%(ext)s")

	downloader := a.DownloaderPath
	if downloader == "" {
		downloader = "yt-dlp"
	}

	cmd := exec.CommandContext(ctx, downloader,
		"--no-playlist",
		"-f", "bestvideo*+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", outTemplate,
		sourceURL,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return media.Asset{}, clipforgeerr.New(clipforgeerr.Ingest, "fetch",
			fmt.Errorf("downloader failed: %w: %s", err, truncate(out, 2048)))
	}

	localPath, err := resolveOutputPath(scratchDir, id)
	if err != nil {
		return media.Asset{}, clipforgeerr.New(clipforgeerr.Ingest, "fetch", err)
	}

	duration, hasAudio, err := a.probe(ctx, localPath)
	if err != nil {
		return media.Asset{}, clipforgeerr.New(clipforgeerr.Ingest, "probe", err)
	}
	if !hasAudio {
		return media.Asset{}, clipforgeerr.New(clipforgeerr.Ingest, "probe",
			fmt.Errorf("no audio stream in %s", localPath))
	}
	if duration <= 0 {
		return media.Asset{}, clipforgeerr.New(clipforgeerr.Ingest, "probe",
			fmt.Errorf("non-positive duration probed for %s", localPath))
	}

	return media.Asset{
		ID:          id,
		SourceURL:   sourceURL,
		LocalPath:   localPath,
		DurationSec: duration,
	}, nil
}

// resolveOutputPath finds the single file the downloader produced for id,
// since the exact extension depends on what --merge-output-format settled on.
func resolveOutputPath(scratchDir, id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(scratchDir, id+".*"))
	if err != nil {
		return "", fmt.Errorf("glob downloaded file: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("downloader produced no output for %s", id)
	}
	return matches[0], nil
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

func (a *Adapter) probe(ctx context.Context, path string) (duration float64, hasAudio bool, err error) {
	ffprobe := a.FFprobePath
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, false, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, false, fmt.Errorf("parse ffprobe output: %w", err)
	}

	for _, s := range parsed.Streams {
		if s.CodecType == "audio" {
			hasAudio = true
			break
		}
	}

	duration, err = strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return 0, hasAudio, fmt.Errorf("parse duration %q: %w", parsed.Format.Duration, err)
	}
	return duration, hasAudio, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}

// Sweep removes the job's scratch directory and everything under it.
func Sweep(scratchDir string) error {
	if scratchDir == "" || scratchDir == "/" {
		return fmt.Errorf("refusing to sweep empty/root path")
	}
	return os.RemoveAll(scratchDir)
}
