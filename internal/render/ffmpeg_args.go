// Package render implements the Renderer (SPEC_FULL.md §4.I): it turns a
// media.RenderPlan into an ffmpeg invocation that seeks, re-encodes to
// 1080x1920, burns in subtitle events, and writes the final clip.
//
// ffmpeg_args.go generalizes the teacher corpus's codec-decision-tree
// argv builder (remux-for-browser-compatibility) to reframe+caption-burn:
// the argv is still a typed slice assembled field by field, never a shell
// string, and the hardware/software split is still a single decision
// point ahead of the rest of the argument list.
package render

import (
	"fmt"
	"strings"
)

// Encoder selects the video encoder path for BuildArgs.
type Encoder string

const (
	EncoderHardware Encoder = "hw_vaapi"
	EncoderSoftware Encoder = "cpu_libx264"
)

// ArgSpec is a fully-built ffmpeg invocation: a binary path plus argv.
// Kept as a struct (rather than a bare []string) so callers can log the
// binary and argv separately without re-parsing.
type ArgSpec struct {
	Bin  string
	Args []string
}

// BuildArgsInput carries everything BuildArgs needs to assemble one
// clip's ffmpeg invocation.
type BuildArgsInput struct {
	FFmpegPath    string
	SourcePath    string
	OutputPath    string
	CutStart      float64
	CutEnd        float64
	TargetWidth   int
	TargetHeight  int
	TargetFPS     int
	Encoder       Encoder
	VAAPIDevice   string // e.g. /dev/dri/renderD128, only used when Encoder == EncoderHardware
	SubtitlesPath string // pre-rendered .ass/.srt file to burn in, empty to skip
	VideoBitrate  string // e.g. "6M", from the quality profile
	AudioBitrate  string // e.g. "128k", from the quality profile
}

// BuildArgs assembles the argv for one clip render. It always re-encodes
// (never stream-copies): the crop/scale/pad and subtitle burn-in filters
// require decoding every frame, so there is no smart-copy path here the
// way there is for a pure remux.
func BuildArgs(in BuildArgsInput) ArgSpec {
	bin := in.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}

	duration := in.CutEnd - in.CutStart
	args := []string{
		"-y", "-nostdin", "-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", in.CutStart),
		"-i", in.SourcePath,
		"-t", fmt.Sprintf("%.3f", duration),
	}

	switch in.Encoder {
	case EncoderHardware:
		args = append(args, hardwareVideoArgs(in)...)
	default:
		args = append(args, softwareVideoArgs(in)...)
	}

	args = append(args,
		"-c:a", "aac",
		"-b:a", nonEmpty(in.AudioBitrate, "128k"),
		"-ar", "48000",
		"-ac", "2",
	)

	args = append(args,
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		"-sn", "-dn",
		"-f", "mp4",
		in.OutputPath,
	)

	return ArgSpec{Bin: bin, Args: args}
}

// softwareVideoArgs builds the CPU-fallback video filter chain and codec
// flags: scale-and-pad to the target 9:16 frame, burn in subtitles if
// present, encode with libx264.
func softwareVideoArgs(in BuildArgsInput) []string {
	filter := scalePadFilter(in.TargetWidth, in.TargetHeight)
	if in.SubtitlesPath != "" {
		filter += "," + subtitlesFilter(in.SubtitlesPath)
	}
	args := []string{
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
	}
	if in.VideoBitrate != "" {
		args = append(args, "-b:v", in.VideoBitrate)
	}
	if in.TargetFPS > 0 {
		args = append(args, "-r", fmt.Sprintf("%d", in.TargetFPS))
	}
	return args
}

// hardwareVideoArgs builds the VAAPI hardware-encode path. Subtitle
// burn-in and scale/pad must still happen on the CPU side of the pipeline
// before the frame is uploaded to the VAAPI surface, since drawtext/subtitles
// filters have no VAAPI equivalent.
func hardwareVideoArgs(in BuildArgsInput) []string {
	device := nonEmpty(in.VAAPIDevice, "/dev/dri/renderD128")
	filter := fmt.Sprintf("%s,format=nv12,hwupload", scalePadFilter(in.TargetWidth, in.TargetHeight))
	if in.SubtitlesPath != "" {
		filter = fmt.Sprintf("%s,%s,format=nv12,hwupload", scalePadFilter(in.TargetWidth, in.TargetHeight), subtitlesFilter(in.SubtitlesPath))
	}
	args := []string{
		"-init_hw_device", "vaapi=va:" + device,
		"-filter_hw_device", "va",
		"-vf", filter,
		"-c:v", "h264_vaapi",
	}
	if in.VideoBitrate != "" {
		args = append(args, "-b:v", in.VideoBitrate)
	}
	return args
}

// scalePadFilter scales the source into the target frame preserving
// aspect ratio, then pads to exactly fill it — the 9:16 reframe every
// clip gets regardless of crop strategy, since the crop strategy only
// chooses which part of a wider source survives the scale.
func scalePadFilter(width, height int) string {
	if width <= 0 {
		width = 1080
	}
	if height <= 0 {
		height = 1920
	}
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		width, height, width, height,
	)
}

// subtitlesFilter burns in the given subtitle file with a bottom-safe,
// readable style: large enough to read on a phone, outlined for
// contrast, and anchored clear of the frame edge.
func subtitlesFilter(path string) string {
	style := "FontSize=20,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,BorderStyle=1,Outline=2,Alignment=2,MarginV=80"
	return fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(path), style)
}

// escapeFilterPath escapes characters that the ffmpeg filtergraph parser
// treats specially when a path is embedded inside a filter argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
	)
	return replacer.Replace(path)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
