package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"math"

	"github.com/disintegration/imaging"

	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// Default values for animation options.
const (
	DefaultAnimDuration      = 10.0
	DefaultAnimFPS           = 25.0
	DefaultAnimWidth         = 800
	DefaultAnimHeight        = 600
	DefaultAnimHighlightSecs = 2.0
	DefaultAnimHoldSecs      = 3.0
)

// DefaultHighlight is the stroke color for freshly drawn segments.
var DefaultHighlight = color.NRGBA{R: 255, A: 255}

// AnimOptions configures the animated GIF sink.
type AnimOptions struct {
	// Duration is the length of the drawing phase in seconds.
	Duration float64 `json:"duration"`

	// FPS is the frame rate of the animation.
	FPS float64 `json:"fps"`

	// Width and Height give the output frame size in pixels. The drawing
	// is scaled to fit and letterboxed on a white canvas.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Highlight is the stroke color for segments drawn within the last
	// HighlightSecs seconds of animation time.
	Highlight color.NRGBA `json:"highlight"`

	// HighlightSecs is how long a segment stays highlighted after it
	// first appears.
	HighlightSecs float64 `json:"highlight_secs"`

	// HoldSecs is how long the finished drawing is held at the end.
	HoldSecs float64 `json:"hold_secs"`

	validated bool
}

// ValidateAndSetDefaults fills in zero values and validates the options.
// It is idempotent and safe to call multiple times.
func (o *AnimOptions) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Duration == 0 {
		o.Duration = DefaultAnimDuration
	}
	if o.FPS == 0 {
		o.FPS = DefaultAnimFPS
	}
	if o.Width == 0 {
		o.Width = DefaultAnimWidth
	}
	if o.Height == 0 {
		o.Height = DefaultAnimHeight
	}
	if o.Highlight == (color.NRGBA{}) {
		o.Highlight = DefaultHighlight
	}
	if o.HighlightSecs == 0 {
		o.HighlightSecs = DefaultAnimHighlightSecs
	}
	if o.HoldSecs == 0 {
		o.HoldSecs = DefaultAnimHoldSecs
	}

	if o.Duration < 0 || math.IsNaN(o.Duration) || math.IsInf(o.Duration, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "animation duration must be a positive number of seconds")
	}
	if o.FPS < 0 || math.IsNaN(o.FPS) || math.IsInf(o.FPS, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "animation fps must be a positive number")
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "animation frame size must be positive")
	}
	if o.HighlightSecs < 0 || math.IsNaN(o.HighlightSecs) {
		return errors.New(errors.ErrCodeInvalidConfig, "highlight duration cannot be negative")
	}
	if o.HoldSecs < 0 || math.IsNaN(o.HoldSecs) {
		return errors.New(errors.ErrCodeInvalidConfig, "hold duration cannot be negative")
	}

	o.validated = true
	return nil
}

// RenderGIF encodes the path as an animated GIF that replays the drawing
// in emission order. Each frame advances the path by an equal share of
// segments, freshly drawn segments are stroked in the highlight color,
// and the finished drawing is held for HoldSecs at the end.
func RenderGIF(res *scribble.Result, opts AnimOptions) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	pal := color.Palette{color.White, color.Black, opts.Highlight}
	total := len(res.Path)

	frames := int(opts.Duration * opts.FPS)
	perFrame := int(float64(total)/(opts.Duration*opts.FPS)) + 1
	perSecond := int(float64(total) / opts.Duration)
	delay := int(math.Round(100 / opts.FPS))

	anim := &gif.GIF{LoopCount: 0}
	for i := 0; i < frames; i++ {
		upTo := min((i+1)*perFrame, total)
		cut := float64(upTo) - opts.HighlightSecs*float64(perSecond)
		dc := drawLines(res, upTo, cut, opts.Highlight)
		anim.Image = append(anim.Image, letterbox(dc.Image(), opts.Width, opts.Height, pal))
		anim.Delay = append(anim.Delay, delay)
	}

	hold := int(opts.FPS * opts.HoldSecs)
	if frames == 0 && hold == 0 {
		hold = 1
	}
	if hold > 0 {
		dc := drawLines(res, total, math.Inf(1), nil)
		final := letterbox(dc.Image(), opts.Width, opts.Height, pal)
		for i := 0; i < hold; i++ {
			anim.Image = append(anim.Image, final)
			anim.Delay = append(anim.Delay, delay)
		}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "failed to encode GIF")
	}
	return buf.Bytes(), nil
}

// letterbox scales img to fit the viewport while preserving its aspect
// ratio, centers it on a white canvas, and quantizes to the palette.
func letterbox(img image.Image, vw, vh int, pal color.Palette) *image.Paletted {
	b := img.Bounds()
	var resized *image.NRGBA
	if float64(b.Dx())/float64(b.Dy()) <= float64(vw)/float64(vh) {
		resized = imaging.Resize(img, 0, vh, imaging.Lanczos)
	} else {
		resized = imaging.Resize(img, vw, 0, imaging.Lanczos)
	}
	canvas := imaging.PasteCenter(imaging.New(vw, vh, color.NRGBA{255, 255, 255, 255}), resized)

	frame := image.NewPaletted(image.Rect(0, 0, vw, vh), pal)
	draw.Draw(frame, frame.Bounds(), canvas, image.Point{}, draw.Src)
	return frame
}
