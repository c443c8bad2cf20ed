package render

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile is one render_quality preset: encoder bitrates and the target
// output frame.
type Profile struct {
	VideoBitrate string `yaml:"video_bitrate"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
}

// Profiles is the embedded low/medium/high preset table.
type Profiles map[string]Profile

// LoadProfiles parses the embedded profiles.yaml.
func LoadProfiles() (Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(profilesYAML, &p); err != nil {
		return nil, fmt.Errorf("render: parse profiles.yaml: %w", err)
	}
	return p, nil
}

// Resolve looks up a named profile, falling back to "medium" for an
// unrecognized or empty name rather than failing the job over a config typo.
func (p Profiles) Resolve(name string) Profile {
	if prof, ok := p[name]; ok {
		return prof
	}
	return p["medium"]
}
