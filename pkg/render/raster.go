package render

import (
	"bytes"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// RenderPNG rasterizes the full path onto a white canvas sized to the
// density field and returns the encoded PNG bytes.
func RenderPNG(res *scribble.Result) ([]byte, error) {
	dc := drawLines(res, len(res.Path), math.Inf(1), nil)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "failed to encode PNG")
	}
	return buf.Bytes(), nil
}

// drawLines renders the first upTo segments of the path onto a fresh
// white canvas. Segments with index strictly greater than highlightAfter
// are stroked in the highlight color at double width; the rest are black
// one-pixel strokes. A nil highlight disables highlighting entirely.
//
// Coordinates are offset by half a pixel so a one-pixel stroke lands on
// the pixel it names instead of straddling two.
func drawLines(res *scribble.Result, upTo int, highlightAfter float64, highlight color.Color) *gg.Context {
	dc := gg.NewContext(res.Width, res.Height)
	dc.SetColor(color.White)
	dc.Clear()

	for i, seg := range res.Path[:upTo] {
		if highlight != nil && float64(i) > highlightAfter {
			dc.SetColor(highlight)
			dc.SetLineWidth(2)
		} else {
			dc.SetColor(color.Black)
			dc.SetLineWidth(1)
		}
		dc.DrawLine(
			float64(seg.A.X)+0.5, float64(seg.A.Y)+0.5,
			float64(seg.B.X)+0.5, float64(seg.B.Y)+0.5,
		)
		dc.Stroke()
	}
	return dc
}
