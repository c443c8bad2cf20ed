package render

import (
	"strings"
	"testing"
)

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestBuildArgsSoftwarePathUsesLibx264(t *testing.T) {
	spec := BuildArgs(BuildArgsInput{
		SourcePath: "/src.mp4",
		OutputPath: "/out/clip_01.mp4",
		CutStart:   10,
		CutEnd:     20,
		Encoder:    EncoderSoftware,
	})
	if spec.Bin != "ffmpeg" {
		t.Errorf("expected default binary ffmpeg, got %s", spec.Bin)
	}
	if !containsArg(spec.Args, "libx264") {
		t.Errorf("expected libx264 in software path args: %v", spec.Args)
	}
	if containsArg(spec.Args, "h264_vaapi") {
		t.Errorf("software path must not reference vaapi: %v", spec.Args)
	}
}

func TestBuildArgsHardwarePathUsesVAAPI(t *testing.T) {
	spec := BuildArgs(BuildArgsInput{
		SourcePath: "/src.mp4",
		OutputPath: "/out/clip_01.mp4",
		CutStart:   0,
		CutEnd:     90,
		Encoder:    EncoderHardware,
	})
	if !containsArg(spec.Args, "h264_vaapi") {
		t.Errorf("expected h264_vaapi in hardware path args: %v", spec.Args)
	}
	if !containsArg(spec.Args, "vaapi=va:/dev/dri/renderD128") {
		t.Errorf("expected default vaapi device arg: %v", spec.Args)
	}
}

func TestBuildArgsNeverStreamCopiesVideo(t *testing.T) {
	spec := BuildArgs(BuildArgsInput{SourcePath: "/src.mp4", OutputPath: "/out.mp4", CutEnd: 10, Encoder: EncoderSoftware})
	for i, a := range spec.Args {
		if a == "-c:v" && i+1 < len(spec.Args) && spec.Args[i+1] == "copy" {
			t.Fatal("renderer must always re-encode video, never stream-copy")
		}
	}
}

func TestBuildArgsIncludesSubtitlesFilterWhenProvided(t *testing.T) {
	spec := BuildArgs(BuildArgsInput{
		SourcePath:    "/src.mp4",
		OutputPath:    "/out.mp4",
		CutEnd:        10,
		Encoder:       EncoderSoftware,
		SubtitlesPath: "/scratch/clip_01.srt",
	})
	found := false
	for i, a := range spec.Args {
		if a == "-vf" && i+1 < len(spec.Args) {
			if strings.Contains(spec.Args[i+1], "subtitles=") {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected subtitles filter present in -vf when SubtitlesPath set: %v", spec.Args)
	}
}

func TestBuildArgsAudioAlwaysUpsampledTo48kHzStereo(t *testing.T) {
	spec := BuildArgs(BuildArgsInput{SourcePath: "/src.mp4", OutputPath: "/out.mp4", CutEnd: 10, Encoder: EncoderSoftware})
	if !containsArg(spec.Args, "48000") || !containsArg(spec.Args, "2") {
		t.Errorf("expected 48kHz stereo audio args: %v", spec.Args)
	}
}
