// Package render turns generated scribble paths into output artifacts.
//
// # Overview
//
// This package contains the sinks that transform a finished generation
// result into files. It provides:
//
//   - PNG raster output (white canvas, black one-pixel strokes)
//   - SVG vector output (one line element per segment)
//   - Animated GIF output replaying the drawing in emission order
//   - JSON output carrying the raw path for external tooling
//
// # Usage
//
//	res, err := scribble.Generate(f, opts)
//	png, err := render.RenderPNG(res)
//	svg := render.RenderSVG(res)
//	gif, err := render.RenderGIF(res, render.AnimOptions{})
//
// All sinks consume the generator's result unchanged: segment order is
// the generator's layer-then-emission order, and coordinates stay in
// the density field's space (the GIF sink letterboxes them into the
// requested frame size). Background color, stroke width and highlight
// colors are rendering concerns and live here, never in the generator.
package render
