// Package options loads application configuration from embedded defaults,
// an optional YAML file, and command-line overrides, in that order.
package options

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/richinsley/gosingularity/compositor"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Options holds every tunable the application reads at startup.
type Options struct {
	Screen    ScreenOptions    `yaml:"screen"`
	Effects   EffectOptions    `yaml:"effects"`
	Physics   PhysicsOptions   `yaml:"physics"`
	Scene     SceneOptions     `yaml:"scene"`
	Record    RecordOptions    `yaml:"record"`
	Telemetry TelemetryOptions `yaml:"telemetry"`
}

// ScreenOptions holds window settings.
type ScreenOptions struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// EffectOptions holds the post-processing configuration.
type EffectOptions struct {
	Quality         string `yaml:"quality"`
	Bloom           bool   `yaml:"bloom"`
	ColorCorrection bool   `yaml:"color_correction"`
	FilmGrain       bool   `yaml:"film_grain"`
	SpaceDistortion bool   `yaml:"space_distortion"`
	Lensing         bool   `yaml:"lensing"`
}

// PhysicsOptions holds the gravity side-channel configuration.
type PhysicsOptions struct {
	Worker bool    `yaml:"worker"`
	Mass   float64 `yaml:"mass"`
}

// SceneOptions holds particle population sizes.
type SceneOptions struct {
	StarCount        int `yaml:"star_count"`
	NebulaCount      int `yaml:"nebula_count"`
	DiskParticles    int `yaml:"disk_particles"`
	HawkingParticles int `yaml:"hawking_particles"`
}

// RecordOptions holds offline video capture settings.
type RecordOptions struct {
	Mode     bool    `yaml:"mode"`
	Duration float64 `yaml:"duration"`
	FPS      int     `yaml:"fps"`
	Output   string  `yaml:"output"`
	Codec    string  `yaml:"codec"`
}

// TelemetryOptions holds frame statistics output settings.
type TelemetryOptions struct {
	Dir    string `yaml:"dir"`
	Window int    `yaml:"window"`
}

// Load parses the embedded defaults and then, if path is non-empty, merges
// the YAML file at path over them. Fields absent from the file keep their
// default values.
func Load(path string) (*Options, error) {
	opts := &Options{}
	if err := yaml.Unmarshal(defaultsYAML, opts); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading options file: %w", err)
		}
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("parsing options file: %w", err)
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate rejects settings the rest of the application cannot honor.
func (o *Options) Validate() error {
	if !compositor.ValidTier(o.Effects.Quality) {
		return fmt.Errorf("unknown quality tier %q", o.Effects.Quality)
	}
	if o.Screen.Width <= 0 || o.Screen.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", o.Screen.Width, o.Screen.Height)
	}
	if o.Record.Mode {
		if o.Record.Duration <= 0 {
			return fmt.Errorf("record duration must be positive, got %v", o.Record.Duration)
		}
		if o.Record.FPS <= 0 {
			return fmt.Errorf("record fps must be positive, got %d", o.Record.FPS)
		}
		if o.Record.Output == "" {
			return fmt.Errorf("record mode requires an output file")
		}
	}
	if o.Physics.Mass <= 0 {
		return fmt.Errorf("mass must be positive, got %v", o.Physics.Mass)
	}
	if o.Scene.DiskParticles <= 0 || o.Scene.HawkingParticles <= 0 {
		return fmt.Errorf("particle counts must be positive")
	}
	return nil
}

// EnabledEffects returns the effect toggles keyed by pass name, ready to
// hand to the compositor.
func (o *Options) EnabledEffects() map[string]bool {
	return map[string]bool{
		compositor.EffectBloom:           o.Effects.Bloom,
		compositor.EffectColorCorrection: o.Effects.ColorCorrection,
		compositor.EffectFilmGrain:       o.Effects.FilmGrain,
		compositor.EffectSpaceDistortion: o.Effects.SpaceDistortion,
		compositor.EffectLensing:         o.Effects.Lensing,
	}
}

// WriteYAML writes the current options to a YAML file.
func (o *Options) WriteYAML(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshaling options: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing options file: %w", err)
	}
	return nil
}
