package render

import (
	"context"
	"os/exec"
	"sync"
	"time"
)

// HWProbe caches the outcome of a one-time hardware-encoder availability
// check so every clip render in a job doesn't re-exec ffmpeg just to find
// out whether VAAPI works on this host.
type HWProbe struct {
	FFmpegPath  string
	VAAPIDevice string

	once      sync.Once
	available bool
}

// NewHWProbe returns a probe for the given ffmpeg binary and VAAPI render
// node, defaulting both to the conventional values.
func NewHWProbe(ffmpegPath, vaapiDevice string) *HWProbe {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if vaapiDevice == "" {
		vaapiDevice = "/dev/dri/renderD128"
	}
	return &HWProbe{FFmpegPath: ffmpegPath, VAAPIDevice: vaapiDevice}
}

// Available reports whether the VAAPI hardware encoder path works on this
// host, probing at most once per process lifetime.
func (p *HWProbe) Available(ctx context.Context) bool {
	p.once.Do(func() {
		p.available = p.probe(ctx)
	})
	return p.available
}

// probe runs a trivial 1-frame VAAPI encode against a synthetic source;
// a nonzero exit or timeout means the node has no usable hardware encoder
// (missing driver, no /dev/dri, wrong permissions) and callers should
// fall back to software encoding for the whole job.
func (p *HWProbe) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	args := []string{
		"-y", "-nostdin", "-hide_banner", "-loglevel", "error",
		"-init_hw_device", "vaapi=va:" + p.VAAPIDevice,
		"-filter_hw_device", "va",
		"-f", "lavfi", "-i", "color=c=black:s=64x64:d=0.1",
		"-vf", "format=nv12,hwupload",
		"-c:v", "h264_vaapi",
		"-frames:v", "1",
		"-f", "null", "-",
	}
	cmd := exec.CommandContext(probeCtx, p.FFmpegPath, args...)
	return cmd.Run() == nil
}
