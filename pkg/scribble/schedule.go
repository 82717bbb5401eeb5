package scribble

import (
	"math"

	"github.com/scribbleink/scribble/pkg/errors"
)

// Layer holds the sampling parameters for one scribble layer.
//
// MaxDensity is the darkness cutoff: the highest intensity a pixel may
// have and still be eligible for this layer. Cutoffs decrease strictly
// with the layer index, so layer 0 admits the widest range of pixels and
// the last layer only the darkest ones. Probability is the per-pixel
// acceptance chance drawn from the power-law schedule.
type Layer struct {
	Index       int
	MaxDensity  float64
	Probability float64
}

// PlanLayers computes the darkness cutoff and sampling probability for
// every layer of a run.
//
// For layerCount layers the cutoffs step down from 255 in equal
// increments: cutoff(i) = 255 - (i+1) * 255/layerCount. Probabilities
// follow probability(i) = prefactor * i^exponent with the 0^0 = 1
// convention, so a zero exponent yields the prefactor for every layer
// and a positive exponent silences layer 0 entirely.
//
// PlanLayers rejects non-positive layer counts, non-finite exponents or
// prefactors, negative prefactors, and parameter combinations whose
// probabilities come out non-finite (a negative exponent sends layer 0
// to infinity). Validation happens here, before any sampling work, so a
// run never fails partway through its layers.
func PlanLayers(layerCount int, exponent, prefactor float64) ([]Layer, error) {
	if layerCount <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "layer count must be positive, got %d", layerCount)
	}
	if math.IsNaN(exponent) || math.IsInf(exponent, 0) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "exponent must be finite, got %v", exponent)
	}
	if math.IsNaN(prefactor) || math.IsInf(prefactor, 0) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "prefactor must be finite, got %v", prefactor)
	}
	if prefactor < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "prefactor must be non-negative, got %v", prefactor)
	}

	step := 255.0 / float64(layerCount)
	layers := make([]Layer, layerCount)
	for i := range layers {
		p := prefactor * math.Pow(float64(i), exponent)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"probability for layer %d is not finite (exponent %v, prefactor %v)", i, exponent, prefactor)
		}
		layers[i] = Layer{
			Index:       i,
			MaxDensity:  255.0 - float64(i+1)*step,
			Probability: p,
		}
	}
	return layers, nil
}
