package scribble

import (
	"math/rand/v2"

	"github.com/scribbleink/scribble/pkg/field"
)

// samplePoints scans the field row-major (y outer, x inner) and collects
// every pixel at or below maxDensity that wins a probability draw.
//
// RNG consumption is part of the reproducibility contract:
//   - probability <= 0 returns nil without consuming any draws
//   - probability >= 1 keeps every qualifying pixel, also without draws
//   - otherwise exactly one Float64 draw per qualifying pixel, in scan
//     order; pixels above the cutoff never consume randomness
//
// Changing any of this changes the output of every seeded run.
func samplePoints(f *field.Field, maxDensity, probability float64, rng *rand.Rand) []Point {
	if probability <= 0 {
		return nil
	}
	keepAll := probability >= 1

	var pts []Point
	i := 0
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			if float64(f.Pix[i]) <= maxDensity && (keepAll || rng.Float64() < probability) {
				pts = append(pts, Point{X: x, Y: y})
			}
			i++
		}
	}
	return pts
}
