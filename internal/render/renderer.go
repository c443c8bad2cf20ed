// renderer.go executes one clip's ffmpeg invocation: it tries the
// hardware encoder path first (if the job-level probe found one), falls
// back to software on nonzero exit or a missing output file, retries once
// more on software, and otherwise logs and skips the clip rather than
// failing the job — mirroring the teacher corpus's ffmpeg supervisor,
// simplified from a restart-loop daemon to a one-shot-with-one-fallback
// invocation since a render is a bounded, already-finite subprocess.
package render

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/clipforge/clipforge/internal/clipforgeerr"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Renderer executes RenderPlans against a local ffmpeg binary.
type Renderer struct {
	FFmpegPath string
	Probe      *HWProbe
	Profiles   Profiles
	ScratchDir string
}

// New constructs a Renderer. A nil probe disables the hardware path
// entirely (every clip renders on software).
func New(ffmpegPath string, probe *HWProbe, profiles Profiles, scratchDir string) *Renderer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Renderer{FFmpegPath: ffmpegPath, Probe: probe, Profiles: profiles, ScratchDir: scratchDir}
}

// Render executes one clip render per §4.I: hardware encoder first (if
// available), CPU fallback on nonzero exit or missing output, one CPU
// retry, then degrade (log and skip, removing any partial output file)
// rather than fail the whole job. Each attempt is limited to 15 minutes. It
// returns which encoder profile actually produced the output, for the
// caller to stamp onto the plan/CSV row.
func (r *Renderer) Render(ctx context.Context, plan media.RenderPlan, profileName string) (media.EncoderProfile, error) {
	profile := r.Profiles.Resolve(profileName)

	subtitlesPath, cleanup, err := r.writeSubtitles(plan)
	if err != nil {
		return "", clipforgeerr.New(clipforgeerr.Render, "render", fmt.Errorf("write subtitles: %w", err))
	}
	if cleanup != nil {
		defer cleanup()
	}

	useHardware := r.Probe != nil && r.Probe.Available(ctx)
	if useHardware {
		if err := r.attempt(ctx, plan, profile, subtitlesPath, EncoderHardware); err == nil {
			return media.EncoderHWH264, nil
		}
		metrics.RenderFallbacks.Inc()
		slog.Warn("hardware render failed, falling back to software", "clip_rank", plan.ClipRank, "output", plan.OutputPath)
	}

	if err := r.attempt(ctx, plan, profile, subtitlesPath, EncoderSoftware); err == nil {
		return media.EncoderCPUH264, nil
	}

	slog.Warn("software render failed, retrying once", "clip_rank", plan.ClipRank, "output", plan.OutputPath)
	if err := r.attempt(ctx, plan, profile, subtitlesPath, EncoderSoftware); err != nil {
		metrics.Errors.WithLabelValues("render", "exhausted").Inc()
		slog.Error("render exhausted retries, skipping clip", "clip_rank", plan.ClipRank, "output", plan.OutputPath, "error", err)
		_ = os.Remove(plan.OutputPath)
		return "", clipforgeerr.New(clipforgeerr.Render, "render", err)
	}
	return media.EncoderCPUH264, nil
}

// attempt runs one ffmpeg invocation for the given encoder path and
// validates that it exited clean and actually produced output.
func (r *Renderer) attempt(ctx context.Context, plan media.RenderPlan, profile Profile, subtitlesPath string, encoder Encoder) error {
	spec := BuildArgs(BuildArgsInput{
		FFmpegPath:    r.FFmpegPath,
		SourcePath:    plan.SourcePath,
		OutputPath:    plan.OutputPath,
		CutStart:      plan.CutStart,
		CutEnd:        plan.CutEnd,
		TargetWidth:   profile.Width,
		TargetHeight:  profile.Height,
		TargetFPS:     profile.FPS,
		Encoder:       encoder,
		SubtitlesPath: subtitlesPath,
		VideoBitrate:  profile.VideoBitrate,
		AudioBitrate:  profile.AudioBitrate,
	})

	timer := prometheus.NewTimer(metrics.RenderDuration.WithLabelValues(string(encoder)))
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Bin, spec.Args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	var lastLines []string
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		lastLines = appendCapped(lastLines, scanner.Text(), 40)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg exited: %w (last output: %v)", err, lastLines)
	}

	info, err := os.Stat(plan.OutputPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("output missing or empty at %s", plan.OutputPath)
	}
	return nil
}

// writeSubtitles renders the plan's caption events to a scratch .srt file
// rebased to the clip's own timeline; a plan with no events needs no file.
func (r *Renderer) writeSubtitles(plan media.RenderPlan) (string, func(), error) {
	if len(plan.SubtitleEvents) == 0 {
		return "", nil, nil
	}
	shifted := shiftToClipTimeline(plan.SubtitleEvents, plan.CutStart)
	path := filepath.Join(r.ScratchDir, fmt.Sprintf("clip_%02d.srt", plan.ClipRank))
	if err := WriteSRT(path, shifted); err != nil {
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}

func appendCapped(lines []string, line string, cap int) []string {
	lines = append(lines, line)
	if len(lines) > cap {
		lines = lines[len(lines)-cap:]
	}
	return lines
}
