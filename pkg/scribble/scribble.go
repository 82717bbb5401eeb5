// Package scribble implements the layered stochastic scribble generator.
//
// The generator turns a grayscale density field into an ordered set of
// short line segments that together approximate the source image. Work
// proceeds in layers: each layer owns a darkness cutoff and a sampling
// probability from a power-law schedule ([PlanLayers]), samples the
// qualifying pixels stochastically, orders the sampled points with a
// locality-preserving spatial grid, and connects consecutive points
// closer than the layer's cell width. Segments accumulate across layers
// into the final [Path], which external renderers consume unchanged.
//
// # Reproducibility
//
// A run is fully determined by the field contents, the options, and the
// seed. A single PCG stream is consumed in documented order (row-major
// scan within each layer, layers in ascending index), so two runs with
// equal inputs produce identical paths. See samplePoints for the exact
// draw-consumption rules.
package scribble

import (
	"math"
	"math/rand/v2"

	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/field"
)

// Default generation parameters, shared by CLI flags, the options file,
// and the API.
const (
	// DefaultLayers is the default number of darkness layers.
	DefaultLayers = 50

	// DefaultExponent is the default power-law exponent for the
	// sampling probability schedule.
	DefaultExponent = 2.0

	// DefaultPrefactor is the default power-law prefactor. With the
	// default exponent, probabilities stay below one until the darkest
	// few layers, which are sampled exhaustively.
	DefaultPrefactor = 0.0005

	// DefaultMaxLineLengthFactor caps segment length (and grid cell
	// width) at this fraction of the shorter canvas dimension.
	DefaultMaxLineLengthFactor = 0.1

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)
)

// Options configures a generation run.
// The struct supports JSON serialization for API requests.
type Options struct {
	Layers              int     `json:"layers,omitempty"`
	Exponent            float64 `json:"exponent,omitempty"`
	Prefactor           float64 `json:"prefactor,omitempty"`
	MaxLineLengthFactor float64 `json:"max_line_length_factor,omitempty"`
	Seed                uint64  `json:"seed,omitempty"`

	// OnLayer, if set, is called after each layer finishes (including
	// degenerate layers that were skipped) with that layer's
	// statistics. Used for progress reporting; must not block for long.
	OnLayer func(LayerStat) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults fills zero-valued fields with defaults and
// checks the rest. Exponent is deliberately exempt: zero is the
// documented constant-probability schedule (0^0 = 1), not an unset
// marker, so callers wanting the default exponent must pass it
// explicitly (the CLI, config file, and API all do).
// The method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Layers == 0 {
		o.Layers = DefaultLayers
	}
	if o.Prefactor == 0 {
		o.Prefactor = DefaultPrefactor
	}
	if o.MaxLineLengthFactor == 0 {
		o.MaxLineLengthFactor = DefaultMaxLineLengthFactor
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}

	if o.Layers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layer count must be positive, got %d", o.Layers)
	}
	if o.MaxLineLengthFactor < 0 || math.IsNaN(o.MaxLineLengthFactor) || math.IsInf(o.MaxLineLengthFactor, 0) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"max line length factor must be positive and finite, got %v", o.MaxLineLengthFactor)
	}
	o.validated = true
	return nil
}

// LayerStat records what one layer contributed to the run.
type LayerStat struct {
	Index       int     `json:"index"`
	MaxDensity  float64 `json:"max_density"`
	Probability float64 `json:"probability"`
	Points      int     `json:"points"`
	CellWidth   float64 `json:"cell_width,omitempty"` // zero when the layer was skipped
	Segments    int     `json:"segments"`
	Skipped     bool    `json:"skipped,omitempty"` // fewer than two points sampled
}

// Result is the outcome of a generation run.
type Result struct {
	// Path is the accumulated scribble path in layer-then-emission
	// order, in the same coordinate space as the input field.
	Path Path

	// Width and Height are the canvas dimensions the path refers to.
	Width, Height int

	// Layers holds per-layer statistics, one entry per planned layer.
	Layers []LayerStat

	// Points is the total number of points sampled across all layers,
	// including points from degenerate layers that yielded no segments.
	Points int
}

// Segments returns the total segment count of the run.
func (r *Result) Segments() int {
	return len(r.Path)
}

// Generate runs the full layered pipeline over the density field.
//
// Option and field validation errors surface before any layer work
// begins. A layer that samples fewer than two points is skipped without
// error; its LayerStat records Skipped = true. The accumulated path is
// append-only across layers, so Result.Path is ordered by layer first
// and emission order second.
func Generate(f *field.Field, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if f == nil || f.W <= 0 || f.H <= 0 || len(f.Pix) != f.W*f.H {
		return nil, errors.New(errors.ErrCodeMalformedInput, "density field is empty or malformed")
	}

	layers, err := PlanLayers(opts.Layers, opts.Exponent, opts.Prefactor)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))

	res := &Result{
		Width:  f.W,
		Height: f.H,
		Layers: make([]LayerStat, 0, len(layers)),
	}
	for _, layer := range layers {
		stat := LayerStat{
			Index:       layer.Index,
			MaxDensity:  layer.MaxDensity,
			Probability: layer.Probability,
		}

		pts := samplePoints(f, layer.MaxDensity, layer.Probability, rng)
		stat.Points = len(pts)
		res.Points += len(pts)

		if len(pts) < 2 {
			stat.Skipped = true
		} else {
			cw := layerCellWidth(f.W, f.H, len(pts), opts.MaxLineLengthFactor)
			stat.CellWidth = cw
			segs := connectPoints(orderPoints(pts, cw, f.W, f.H), cw)
			stat.Segments = len(segs)
			res.Path = append(res.Path, segs...)
		}

		res.Layers = append(res.Layers, stat)
		if opts.OnLayer != nil {
			opts.OnLayer(stat)
		}
	}
	return res, nil
}
