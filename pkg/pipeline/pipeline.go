// Package pipeline provides the complete generation pipeline for Scribble.
//
// This package implements the load → generate → render pipeline that is
// shared by the CLI and the HTTP API. Centralizing it keeps behavior and
// caching identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: decode the source image and prepare the grayscale density field
//  2. Generate: run the layered stochastic generator over the field
//  3. Render: encode the path into output formats (PNG, SVG, GIF, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:    "portrait.png",
//	    Exponent: scribble.DefaultExponent,
//	    Formats:  []string{pipeline.FormatPNG, pipeline.FormatSVG},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
//
// Callers that already hold the image in memory (the API does) set
// ImageData instead of Input.
package pipeline

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scribbleink/scribble/pkg/cache"
	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/render"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// DefaultScale is the default image scale factor (no resizing).
const DefaultScale = 1.0

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatGIF  = "gif"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatSVG:  true,
	FormatGIF:  true,
	FormatJSON: true,
}

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatPNG}

// Options contains all configuration for the generation pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options. Input is a path to the source image; ImageData
	// carries the image bytes directly and takes precedence when set.
	Input     string  `json:"input,omitempty"`
	ImageData []byte  `json:"-"`
	Scale     float64 `json:"scale,omitempty"`

	// Drawing options. A zero Exponent is the constant-probability
	// schedule, not an unset marker; callers wanting the default pass
	// scribble.DefaultExponent explicitly.
	Layers              int     `json:"layers,omitempty"`
	Exponent            float64 `json:"exponent,omitempty"`
	Prefactor           float64 `json:"prefactor,omitempty"`
	MaxLineLengthFactor float64 `json:"max_line_length_factor,omitempty"`
	Seed                uint64  `json:"seed,omitempty"`

	// Render options
	Formats []string           `json:"formats,omitempty"`
	Anim    render.AnimOptions `json:"animation"`

	// Refresh recomputes cached stages and overwrites their entries.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger              `json:"-"`
	OnLayer func(scribble.LayerStat) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scribble is the generated path with per-layer statistics.
	Scribble *scribble.Result

	// FieldHash is the content hash of the source image bytes.
	FieldHash string

	// PathHash is the content hash of the generated path.
	PathHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FieldWidth   int
	FieldHeight  int
	Points       int
	Segments     int
	LoadTime     time.Duration
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PathHit   bool // Whether the generated path came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeUnsupportedFormat,
			"invalid format: %q (must be one of: png, svg, gif, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent - calling it multiple
// times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Input == "" && o.ImageData == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "input image is required")
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"scale factor must be positive and finite, got %v", o.Scale)
	}

	o.SetDrawingDefaults()
	// Run the generator's own checks on a copy so errors surface here,
	// before any cache keys are computed.
	sopts := o.ScribbleOptions()
	if err := sopts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.wantsFormat(FormatGIF) {
		if err := o.Anim.ValidateAndSetDefaults(); err != nil {
			return err
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// SetDrawingDefaults fills zero-valued drawing fields with the shared
// generation defaults. Exponent is exempt (zero is meaningful).
func (o *Options) SetDrawingDefaults() {
	if o.Layers == 0 {
		o.Layers = scribble.DefaultLayers
	}
	if o.Prefactor == 0 {
		o.Prefactor = scribble.DefaultPrefactor
	}
	if o.MaxLineLengthFactor == 0 {
		o.MaxLineLengthFactor = scribble.DefaultMaxLineLengthFactor
	}
	if o.Seed == 0 {
		o.Seed = scribble.DefaultSeed
	}
}

// ScribbleOptions converts the drawing fields into generator options.
func (o *Options) ScribbleOptions() scribble.Options {
	return scribble.Options{
		Layers:              o.Layers,
		Exponent:            o.Exponent,
		Prefactor:           o.Prefactor,
		MaxLineLengthFactor: o.MaxLineLengthFactor,
		Seed:                o.Seed,
		OnLayer:             o.OnLayer,
	}
}

// PathKeyOpts returns cache key options for the generation stage.
func (o *Options) PathKeyOpts() cache.PathKeyOpts {
	return cache.PathKeyOpts{
		Layers:              o.Layers,
		Exponent:            o.Exponent,
		Prefactor:           o.Prefactor,
		MaxLineLengthFactor: o.MaxLineLengthFactor,
		Seed:                o.Seed,
		Scale:               o.Scale,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
// Animation parameters participate only for the GIF format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	ko := cache.ArtifactKeyOpts{Format: format}
	if format == FormatGIF {
		ko.Duration = o.Anim.Duration
		ko.FPS = o.Anim.FPS
		ko.Width = o.Anim.Width
		ko.Height = o.Anim.Height
		ko.Highlight = fmt.Sprintf("#%02x%02x%02x",
			o.Anim.Highlight.R, o.Anim.Highlight.G, o.Anim.Highlight.B)
		ko.HighlightSecs = o.Anim.HighlightSecs
		ko.HoldSecs = o.Anim.HoldSecs
	}
	return ko
}

func (o *Options) wantsFormat(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}
