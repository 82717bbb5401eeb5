// Package field provides the grayscale density field consumed by the
// scribble generator.
//
// A Field is an immutable-by-convention 2-D grid of intensity values in
// [0, 255], stored row-major. Fields are produced once per run from a
// decoded source image (see [Load] and [FromImage]) and read by every
// layer of the generator; nothing downstream mutates them.
package field

import (
	"github.com/scribbleink/scribble/pkg/errors"
)

// Field is a width x height grid of 8-bit intensity values, row-major.
// 0 is black (maximum ink density), 255 is white.
type Field struct {
	W, H int
	Pix  []uint8 // len = W*H, index = y*W + x
}

// New returns an empty (all-zero) field of the given dimensions.
func New(w, h int) (*Field, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeMalformedInput, "field dimensions must be positive, got %dx%d", w, h)
	}
	return &Field{W: w, H: h, Pix: make([]uint8, w*h)}, nil
}

// At returns the intensity at (x, y). Callers must keep coordinates in
// bounds; At does not range-check.
func (f *Field) At(x, y int) uint8 {
	return f.Pix[y*f.W+x]
}

// Set writes the intensity at (x, y). Intended for tests and synthetic
// fields; production fields come from FromImage.
func (f *Field) Set(x, y int, v uint8) {
	f.Pix[y*f.W+x] = v
}

// Area returns the number of pixels in the field.
func (f *Field) Area() int {
	return f.W * f.H
}
