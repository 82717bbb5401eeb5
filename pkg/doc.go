// Package pkg provides the core libraries for Scribble image-to-art generation.
//
// # Overview
//
// Scribble redraws grayscale images as dense layered scribbles: dark regions
// collect strokes across many sampling layers while light regions stay almost
// empty, so the original image re-emerges from the accumulated lines. The pkg
// directory is organized into four main areas:
//
//  1. [field] and [scribble] - Domain logic (density fields, stochastic sampling)
//  2. [render] - Output sinks (PNG, SVG, GIF animation, JSON)
//  3. [cache] - Content-addressed result caching
//  4. [pipeline] - Orchestration (load -> generate -> render)
//
// # Architecture
//
// The typical data flow through Scribble:
//
//	Source Image (PNG/JPEG/GIF)
//	         ↓
//	    [field] package (grayscale density field)
//	         ↓
//	    [scribble] package (layered sampling + path assembly)
//	         ↓
//	    [render] package (artifact encoding)
//	         ↓
//	    PNG/SVG/GIF/JSON output
//
// # Quick Start
//
// Generate a scribble drawing and render it to SVG:
//
//	import (
//	    "github.com/scribbleink/scribble/pkg/field"
//	    "github.com/scribbleink/scribble/pkg/render"
//	    "github.com/scribbleink/scribble/pkg/scribble"
//	)
//
//	// 1. Load the density field
//	f, _ := field.Load("cat.png", 1.0)
//
//	// 2. Generate the layered path
//	res, _ := scribble.Generate(f, scribble.Options{Seed: 42})
//
//	// 3. Render to SVG
//	svg := render.RenderSVG(res)
//
// # Main Packages
//
// [field] - Grayscale density fields loaded from images. Darker pixels carry
// lower values and therefore survive more layer cutoffs.
//
// [scribble] - The generation core. A probability schedule assigns each layer
// a cutoff and a sampling probability, sampled points are ordered through a
// spatial grid, and nearby consecutive points become path segments.
//
// [render] - Artifact encoders for the generated path: PNG raster, SVG vector,
// animated GIF that draws the path over time, and a JSON document with the
// raw segments and per-layer statistics.
//
// [cache] - Content-addressed file cache keyed by input and option hashes,
// with scoped keyers so the CLI and API share storage without collisions.
//
// [pipeline] - Complete generation pipeline (load -> generate -> render) used
// by both the CLI and the HTTP API. Ensures consistent behavior across all
// entry points.
//
// [config] - The options.toml file format and its mapping onto pipeline
// options.
//
// [errors] - Coded errors shared across packages, mapping cleanly onto CLI
// exit messages and API status codes.
//
// [buildinfo] - Version metadata injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/scribble/...   # Specific package
//	go test -run Example         # Examples only
//
// [field]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/field
// [scribble]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/scribble
// [render]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/render
// [cache]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/config
// [errors]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/scribbleink/scribble/pkg/buildinfo
package pkg
