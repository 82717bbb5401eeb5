// Package config loads the TOML options file.
//
// The options file carries the same parameter set the CLI exposes as
// flags, grouped into tables:
//
//	input = "portrait.png"
//
//	[drawing]
//	scale = 1.0
//	layers = 50
//	exponent = 2.0
//	prefactor = 0.0005
//	max_line_length_factor = 0.1
//	seed = 42
//
//	[output]
//	dir = "output"
//	formats = ["png", "svg"]
//
//	[animation]
//	duration = 10.0
//	fps = 25.0
//	width = 800
//	height = 600
//	highlight = "#ff0000"
//	highlight_secs = 2.0
//	hold_secs = 3.0
//
// Absent keys fall back to the shared defaults during pipeline
// validation. The one exception is the drawing exponent, where zero is a
// meaningful value: Load injects the default only when the key is absent
// from the file, so an explicit `exponent = 0.0` survives.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/pipeline"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// DefaultFile is the options file looked up when --config is not given.
const DefaultFile = "options.toml"

// DefaultOutputDir is where artifacts are written when the file and the
// CLI are both silent.
const DefaultOutputDir = "output"

// Config mirrors the options file layout.
type Config struct {
	// Input is the path to the source image, resolved relative to the
	// working directory.
	Input string `toml:"input"`

	Drawing   Drawing   `toml:"drawing"`
	Output    Output    `toml:"output"`
	Animation Animation `toml:"animation"`
}

// Drawing holds the generation parameters.
type Drawing struct {
	Scale               float64 `toml:"scale"`
	Layers              int     `toml:"layers"`
	Exponent            float64 `toml:"exponent"`
	Prefactor           float64 `toml:"prefactor"`
	MaxLineLengthFactor float64 `toml:"max_line_length_factor"`
	Seed                uint64  `toml:"seed"`
}

// Output holds artifact write settings.
type Output struct {
	Dir     string   `toml:"dir"`
	Name    string   `toml:"name"`
	Formats []string `toml:"formats"`
	Clean   bool     `toml:"clean"`
}

// Animation holds the GIF sink settings.
type Animation struct {
	Duration      float64 `toml:"duration"`
	FPS           float64 `toml:"fps"`
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	Highlight     string  `toml:"highlight"`
	HighlightSecs float64 `toml:"highlight_secs"`
	HoldSecs      float64 `toml:"hold_secs"`
}

// Default returns the configuration used when no options file exists.
// Only the exponent is pre-filled; the remaining zero values pick up the
// shared defaults during pipeline validation.
func Default() *Config {
	return &Config{
		Drawing: Drawing{Exponent: scribble.DefaultExponent},
	}
}

// Load reads and decodes an options file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "options file %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "failed to read %s", path)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "failed to parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"unknown option keys in %s: %s", path, strings.Join(keys, ", "))
	}

	// Zero is the constant-probability schedule, so the default applies
	// only when the key is missing entirely.
	if !md.IsDefined("drawing", "exponent") {
		c.Drawing.Exponent = scribble.DefaultExponent
	}

	return &c, nil
}

// Options converts the file values into pipeline options. Zero values
// pass through and pick up the shared defaults during validation.
func (c *Config) Options() (pipeline.Options, error) {
	opts := pipeline.Options{
		Input:               c.Input,
		Scale:               c.Drawing.Scale,
		Layers:              c.Drawing.Layers,
		Exponent:            c.Drawing.Exponent,
		Prefactor:           c.Drawing.Prefactor,
		MaxLineLengthFactor: c.Drawing.MaxLineLengthFactor,
		Seed:                c.Drawing.Seed,
		Formats:             c.Output.Formats,
	}

	opts.Anim.Duration = c.Animation.Duration
	opts.Anim.FPS = c.Animation.FPS
	opts.Anim.Width = c.Animation.Width
	opts.Anim.Height = c.Animation.Height
	opts.Anim.HighlightSecs = c.Animation.HighlightSecs
	opts.Anim.HoldSecs = c.Animation.HoldSecs
	if c.Animation.Highlight != "" {
		hl, err := ParseHighlight(c.Animation.Highlight)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Anim.Highlight = hl
	}

	return opts, nil
}

// ParseHighlight converts a "#rrggbb" hex string into a color. The
// leading "#" is optional.
func ParseHighlight(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, errors.New(errors.ErrCodeInvalidConfig,
			"highlight color must be a #rrggbb hex string, got %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, errors.Wrap(errors.ErrCodeInvalidConfig, err,
			"highlight color must be a #rrggbb hex string, got %q", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
