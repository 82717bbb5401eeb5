package render

import (
	"bytes"

	svg "github.com/ajstarks/svgo"

	"github.com/scribbleink/scribble/pkg/scribble"
)

const lineStyle = "stroke:rgb(0,0,0);stroke-width:1"

// RenderSVG emits the path as an SVG document with one line element per
// segment. The viewport matches the density field, and no background
// rect is written so the document stays transparent.
func RenderSVG(res *scribble.Result) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(res.Width, res.Height)
	for _, seg := range res.Path {
		canvas.Line(seg.A.X, seg.A.Y, seg.B.X, seg.B.Y, lineStyle)
	}
	canvas.End()
	return buf.Bytes()
}
