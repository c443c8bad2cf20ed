package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clipforge.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFileAppliesRecognizedKeys(t *testing.T) {
	path := writeTempConfig(t, `{
		"whisper_server_url": "http://asr.local:9000",
		"grader_concurrency": 8,
		"render_quality": "high"
	}`)

	got, err := LoadFile(path, Default())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.WhisperServerURL != "http://asr.local:9000" {
		t.Errorf("whisper url = %q", got.WhisperServerURL)
	}
	if got.GraderConcurrency != 8 {
		t.Errorf("grader concurrency = %d, want 8", got.GraderConcurrency)
	}
	if got.RenderQuality != "high" {
		t.Errorf("render quality = %q, want high", got.RenderQuality)
	}
	// Untouched defaults survive the merge.
	if got.WindowDuration != Default().WindowDuration {
		t.Errorf("window duration should be untouched by partial config")
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeTempConfig(t, `{"whisper_server_url": "http://x", "made_up_key": true}`)

	if _, err := LoadFile(path, Default()); err == nil {
		t.Fatal("expected error for unknown config key, got nil")
	}
}

func TestLoadFileMissingPathReturnsBase(t *testing.T) {
	got, err := LoadFile("", Default())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got != Default() {
		t.Errorf("expected unchanged defaults, got %+v", got)
	}
}

func TestFromEnvOverlaysOnlySetVariables(t *testing.T) {
	t.Setenv("CLIPFORGE_WHISPER_URL", "http://asr.example:9000")
	t.Setenv("CLIPFORGE_GRADER_API_KEY", "sk-test")

	got := FromEnv(Default())
	if got.WhisperServerURL != "http://asr.example:9000" {
		t.Errorf("whisper url = %q", got.WhisperServerURL)
	}
	if got.GraderAPIKey != "sk-test" {
		t.Errorf("grader api key = %q", got.GraderAPIKey)
	}
	// FFmpegPath has no env var set in this test, so the default survives.
	if got.FFmpegPath != Default().FFmpegPath {
		t.Errorf("expected unset env var to leave default, got %q", got.FFmpegPath)
	}
}

func TestFromEnvDoesNotTouchJSONConfigFields(t *testing.T) {
	got := FromEnv(Default())
	if got.WindowDuration != Default().WindowDuration || got.RenderQuality != Default().RenderQuality {
		t.Error("FromEnv must not alter the documented JSON config fields")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c Config) Config
		wantErr bool
	}{
		{"valid default plus url", func(c Config) Config { c.SourceURL = "https://example.com/v"; return c }, false},
		{"missing url", func(c Config) Config { return c }, true},
		{"k zero", func(c Config) Config { c.SourceURL = "u"; c.K = 0; return c }, true},
		{"bad window bounds", func(c Config) Config { c.SourceURL = "u"; c.WindowMin = 100; c.WindowMax = 50; return c }, true},
		{"bad render quality", func(c Config) Config { c.SourceURL = "u"; c.RenderQuality = "ultra"; return c }, true},
		{"zero concurrency", func(c Config) Config { c.SourceURL = "u"; c.GraderConcurrency = 0; return c }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mutate(Default()).Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
