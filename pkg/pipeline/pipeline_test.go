package pipeline

import (
	"math"
	"testing"

	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/render"
	"github.com/scribbleink/scribble/pkg/scribble"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"png", false},
		{"svg", false},
		{"gif", false},
		{"json", false},
		{"invalid", true},
		{"PNG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && errors.GetCode(err) != errors.ErrCodeUnsupportedFormat {
			t.Errorf("ValidateFormat(%q) code = %s, want %s",
				tt.format, errors.GetCode(err), errors.ErrCodeUnsupportedFormat)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{
		Input:    "image.png",
		Exponent: scribble.DefaultExponent,
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Scale != DefaultScale {
		t.Errorf("Scale should be %v, got %v", DefaultScale, opts.Scale)
	}
	if opts.Layers != scribble.DefaultLayers {
		t.Errorf("Layers should be %d, got %d", scribble.DefaultLayers, opts.Layers)
	}
	if opts.Prefactor != scribble.DefaultPrefactor {
		t.Errorf("Prefactor should be %v, got %v", scribble.DefaultPrefactor, opts.Prefactor)
	}
	if opts.Seed != scribble.DefaultSeed {
		t.Errorf("Seed should be %d, got %d", scribble.DefaultSeed, opts.Seed)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatPNG {
		t.Errorf("Formats should be [png], got %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsZeroExponentPreserved(t *testing.T) {
	// A zero exponent is the constant-probability schedule and must
	// survive validation untouched.
	opts := Options{Input: "image.png"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Exponent != 0 {
		t.Errorf("Exponent = %v, want 0 preserved", opts.Exponent)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing input", Options{}, errors.ErrCodeInvalidConfig},
		{"negative scale", Options{Input: "a.png", Scale: -1}, errors.ErrCodeInvalidConfig},
		{"nan scale", Options{Input: "a.png", Scale: math.NaN()}, errors.ErrCodeInvalidConfig},
		{"negative layers", Options{Input: "a.png", Layers: -3}, errors.ErrCodeInvalidConfig},
		{"bad format", Options{Input: "a.png", Formats: []string{"bmp"}}, errors.ErrCodeUnsupportedFormat},
		{"bad animation", Options{Input: "a.png", Formats: []string{"gif"}, Anim: render.AnimOptions{FPS: -1}}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("error code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestOptionsAnimationValidatedOnlyForGIF(t *testing.T) {
	// Broken animation options must not block still formats.
	opts := Options{
		Input:   "a.png",
		Formats: []string{FormatPNG},
		Anim:    render.AnimOptions{FPS: -1},
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("animation options should be ignored for still formats: %v", err)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{
		Input:    "image.png",
		Exponent: scribble.DefaultExponent,
	}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalLayers := opts.Layers
	originalFormats := len(opts.Formats)

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Layers != originalLayers {
		t.Error("Layers changed on second call")
	}
	if len(opts.Formats) != originalFormats {
		t.Error("Formats changed on second call")
	}
}

func TestPathKeyOpts(t *testing.T) {
	opts := Options{
		Input:    "image.png",
		Exponent: scribble.DefaultExponent,
		Scale:    0.5,
		Seed:     7,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}

	ko := opts.PathKeyOpts()
	if ko.Scale != 0.5 || ko.Seed != 7 {
		t.Errorf("explicit values not carried into key opts: %+v", ko)
	}
	if ko.Layers != scribble.DefaultLayers {
		t.Errorf("defaulted layers not carried into key opts: %+v", ko)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{
		Input:   "image.png",
		Formats: []string{FormatGIF},
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}

	ko := opts.ArtifactKeyOpts(FormatGIF)
	if ko.Format != FormatGIF {
		t.Errorf("Format = %q, want gif", ko.Format)
	}
	if ko.FPS != render.DefaultAnimFPS {
		t.Errorf("FPS = %v, want default %v", ko.FPS, render.DefaultAnimFPS)
	}
	if ko.Highlight != "#ff0000" {
		t.Errorf("Highlight = %q, want #ff0000", ko.Highlight)
	}

	// Still formats carry no animation parameters.
	still := opts.ArtifactKeyOpts(FormatSVG)
	if still.FPS != 0 || still.Highlight != "" {
		t.Errorf("still format should not carry animation fields: %+v", still)
	}
}
