package field

import (
	"image"
	"io"
	"math"
	"os"

	// Registered decoders for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	"github.com/scribbleink/scribble/pkg/errors"
)

// Load reads the image at path, optionally rescales it, and converts it
// to a grayscale density field.
//
// The scale factor multiplies both source dimensions before grayscale
// conversion; 1 keeps the source size. Load fails with FILE_NOT_FOUND if
// the path does not exist, MALFORMED_INPUT if the file cannot be decoded,
// and INVALID_CONFIG for a non-positive or non-finite scale.
func Load(path string, scale float64) (*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input image %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "failed to open %s", path)
	}
	defer f.Close()
	return Decode(f, scale)
}

// Decode decodes an image from r and converts it to a density field,
// applying the same scaling rules as [Load].
func Decode(r io.Reader, scale float64) (*Field, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "failed to decode image")
	}
	return FromImage(img, scale)
}

// FromImage converts an already-decoded image to a density field.
//
// The source is rescaled by scale (Lanczos resampling), then converted to
// grayscale using the standard luma weights (0.299 R + 0.587 G + 0.114 B),
// matching the usual BGR-to-gray conversion of imaging toolkits.
func FromImage(img image.Image, scale float64) (*Field, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "scale factor must be positive and finite, got %v", scale)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeMalformedInput, "image has zero-area bounds %dx%d", w, h)
	}

	if scale != 1 {
		sw := int(math.Round(float64(w) * scale))
		sh := int(math.Round(float64(h) * scale))
		if sw < 1 || sh < 1 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "scale factor %v reduces %dx%d image below one pixel", scale, w, h)
		}
		img = imaging.Resize(img, sw, sh, imaging.Lanczos)
		w, h = sw, sh
	}

	gray := imaging.Grayscale(img)

	out := &Field{W: w, H: h, Pix: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			// Grayscale output has R = G = B; take the red channel.
			out.Pix[y*w+x] = row[x*4]
		}
	}
	return out, nil
}
