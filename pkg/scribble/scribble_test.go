package scribble

import (
	"math"
	"reflect"
	"testing"

	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/field"
)

func TestGenerateAllBlackFourByFour(t *testing.T) {
	// Fully black 4x4 field, one layer, constant probability 1: every
	// pixel qualifies (cutoff 0) and is kept without consuming
	// randomness. The cell width works out to min(sqrt(16/16), 0.5*4)
	// = 1, and since distinct pixels are never closer than one pixel,
	// the strict distance gate emits no segments at all.
	f := mustField(t, 4, 4, 0)

	res, err := Generate(f, Options{
		Layers:              1,
		Exponent:            0,
		Prefactor:           1,
		MaxLineLengthFactor: 0.5,
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	if res.Points != 16 {
		t.Errorf("Points = %d, want 16", res.Points)
	}
	if res.Segments() != 0 {
		t.Errorf("Segments() = %d, want 0", res.Segments())
	}
	if len(res.Layers) != 1 {
		t.Fatalf("len(Layers) = %d, want 1", len(res.Layers))
	}

	stat := res.Layers[0]
	if stat.MaxDensity != 0 {
		t.Errorf("MaxDensity = %v, want 0", stat.MaxDensity)
	}
	if stat.Probability != 1 {
		t.Errorf("Probability = %v, want 1", stat.Probability)
	}
	if stat.Points != 16 {
		t.Errorf("layer Points = %d, want 16", stat.Points)
	}
	if stat.CellWidth != 1 {
		t.Errorf("CellWidth = %v, want 1", stat.CellWidth)
	}
	if stat.Skipped {
		t.Error("layer marked skipped despite 16 points")
	}
}

func TestGenerateSparseCornersLiteral(t *testing.T) {
	// Four black pixels on white: three clustered top-left, one in the
	// far corner. Cell width = min(sqrt(16/4), 0.9*4) = 2, so the
	// cluster connects into two segments and the far corner stays
	// isolated.
	f := mustField(t, 4, 4, 255)
	f.Set(0, 0, 0)
	f.Set(1, 0, 0)
	f.Set(0, 1, 0)
	f.Set(3, 3, 0)

	res, err := Generate(f, Options{
		Layers:              1,
		Exponent:            0,
		Prefactor:           1,
		MaxLineLengthFactor: 0.9,
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	want := Path{
		{A: Point{0, 0}, B: Point{1, 0}},
		{A: Point{1, 0}, B: Point{0, 1}},
	}
	if !reflect.DeepEqual(res.Path, want) {
		t.Errorf("Path = %v, want %v", res.Path, want)
	}
	if res.Layers[0].CellWidth != 2 {
		t.Errorf("CellWidth = %v, want 2", res.Layers[0].CellWidth)
	}
}

func TestGenerateUniformGrayField(t *testing.T) {
	// Every pixel is 200. With five layers the cutoffs are 204, 153,
	// 102, 51, 0: only layer 0 admits any pixels, the rest sample
	// nothing and are skipped without error.
	f := mustField(t, 8, 8, 200)

	res, err := Generate(f, Options{
		Layers:              5,
		Exponent:            0,
		Prefactor:           1,
		MaxLineLengthFactor: 0.5,
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	if res.Layers[0].Points != 64 {
		t.Errorf("layer 0 Points = %d, want 64", res.Layers[0].Points)
	}
	if res.Layers[0].Skipped {
		t.Error("layer 0 marked skipped")
	}
	for i := 1; i < 5; i++ {
		stat := res.Layers[i]
		if stat.Points != 0 {
			t.Errorf("layer %d Points = %d, want 0 (cutoff %v below 200)", i, stat.Points, stat.MaxDensity)
		}
		if stat.Segments != 0 {
			t.Errorf("layer %d Segments = %d, want 0", i, stat.Segments)
		}
		if !stat.Skipped {
			t.Errorf("layer %d not marked skipped", i)
		}
	}
}

func TestGenerateSkipsDegenerateLayersMidRun(t *testing.T) {
	// probability(0) = 0 under a positive exponent, so layer 0 is
	// degenerate while later layers still produce output.
	f := mustField(t, 6, 6, 0)

	res, err := Generate(f, Options{
		Layers:              3,
		Exponent:            1,
		Prefactor:           1,
		MaxLineLengthFactor: 0.9,
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	if !res.Layers[0].Skipped {
		t.Error("layer 0 should be skipped (probability 0)")
	}
	if res.Layers[1].Points == 0 {
		t.Error("layer 1 sampled no points")
	}
	total := 0
	for _, stat := range res.Layers {
		total += stat.Segments
	}
	if total != res.Segments() {
		t.Errorf("per-layer segment counts sum to %d, path has %d (append-only accumulation broken)",
			total, res.Segments())
	}
}

func TestGenerateOnLayerCallback(t *testing.T) {
	f := mustField(t, 4, 4, 0)

	var seen []int
	_, err := Generate(f, Options{
		Layers:              3,
		Exponent:            0,
		Prefactor:           1,
		MaxLineLengthFactor: 0.5,
		OnLayer:             func(s LayerStat) { seen = append(seen, s.Index) },
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	if !reflect.DeepEqual(seen, []int{0, 1, 2}) {
		t.Errorf("OnLayer indices = %v, want [0 1 2]", seen)
	}
}

func testPattern(t *testing.T, w, h int) *field.Field {
	t.Helper()
	f, err := field.New(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for i := range f.Pix {
		f.Pix[i] = uint8((i * 7) % 256)
	}
	return f
}

func TestGenerateDeterminism(t *testing.T) {
	f := testPattern(t, 32, 32)
	opts := Options{
		Layers:              6,
		Exponent:            1,
		Prefactor:           0.3,
		MaxLineLengthFactor: 0.2,
		Seed:                99,
	}

	a, err := Generate(f, opts)
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	b, err := Generate(f, opts)
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	if !reflect.DeepEqual(a.Path, b.Path) {
		t.Error("same seed produced different paths")
	}
	if !reflect.DeepEqual(a.Layers, b.Layers) {
		t.Error("same seed produced different layer stats")
	}

	opts.Seed = 100
	c, err := Generate(f, opts)
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	if reflect.DeepEqual(a.Path, c.Path) {
		t.Error("different seeds produced identical paths")
	}
}

func TestGenerateSegmentLengthBound(t *testing.T) {
	f := testPattern(t, 24, 24)

	res, err := Generate(f, Options{
		Layers:              8,
		Exponent:            1,
		Prefactor:           0.5,
		MaxLineLengthFactor: 0.3,
		Seed:                5,
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	// Walk the path layer by layer using the per-layer segment counts.
	offset := 0
	for _, stat := range res.Layers {
		for _, seg := range res.Path[offset : offset+stat.Segments] {
			if seg.Length() >= stat.CellWidth {
				t.Errorf("layer %d segment %v length %v >= cell width %v",
					stat.Index, seg, seg.Length(), stat.CellWidth)
			}
		}
		offset += stat.Segments
	}
	if offset != len(res.Path) {
		t.Errorf("layer segment counts cover %d of %d path segments", offset, len(res.Path))
	}
}

func TestGenerateSampledDensityBound(t *testing.T) {
	f := testPattern(t, 24, 24)

	res, err := Generate(f, Options{
		Layers:              6,
		Exponent:            1,
		Prefactor:           0.4,
		MaxLineLengthFactor: 0.3,
		Seed:                17,
	})
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	offset := 0
	for _, stat := range res.Layers {
		for _, seg := range res.Path[offset : offset+stat.Segments] {
			for _, p := range []Point{seg.A, seg.B} {
				if v := float64(f.At(p.X, p.Y)); v > stat.MaxDensity {
					t.Errorf("layer %d endpoint (%d,%d) density %v above cutoff %v",
						stat.Index, p.X, p.Y, v, stat.MaxDensity)
				}
			}
		}
		offset += stat.Segments
	}
}

func TestGenerateValidation(t *testing.T) {
	f := mustField(t, 4, 4, 0)

	tests := []struct {
		name     string
		field    *field.Field
		opts     Options
		wantCode errors.Code
	}{
		{
			name:     "nil field",
			field:    nil,
			opts:     Options{Layers: 2, Exponent: 1, Prefactor: 0.5, MaxLineLengthFactor: 0.5},
			wantCode: errors.ErrCodeMalformedInput,
		},
		{
			name:     "zero-dimension field",
			field:    &field.Field{},
			opts:     Options{Layers: 2, Exponent: 1, Prefactor: 0.5, MaxLineLengthFactor: 0.5},
			wantCode: errors.ErrCodeMalformedInput,
		},
		{
			name:     "negative layer count",
			field:    f,
			opts:     Options{Layers: -2, Exponent: 1, Prefactor: 0.5, MaxLineLengthFactor: 0.5},
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "negative max line length factor",
			field:    f,
			opts:     Options{Layers: 2, Exponent: 1, Prefactor: 0.5, MaxLineLengthFactor: -0.5},
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "NaN exponent",
			field:    f,
			opts:     Options{Layers: 2, Exponent: math.NaN(), Prefactor: 0.5, MaxLineLengthFactor: 0.5},
			wantCode: errors.ErrCodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.field, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error = %v", err)
	}
	if opts.Layers != DefaultLayers {
		t.Errorf("Layers = %d, want %d", opts.Layers, DefaultLayers)
	}
	if opts.Prefactor != DefaultPrefactor {
		t.Errorf("Prefactor = %v, want %v", opts.Prefactor, DefaultPrefactor)
	}
	if opts.MaxLineLengthFactor != DefaultMaxLineLengthFactor {
		t.Errorf("MaxLineLengthFactor = %v, want %v", opts.MaxLineLengthFactor, DefaultMaxLineLengthFactor)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %v, want %v", opts.Seed, DefaultSeed)
	}
	// Zero exponent is the constant-probability schedule, never a
	// stand-in for "unset".
	if opts.Exponent != 0 {
		t.Errorf("Exponent = %v, want 0 preserved", opts.Exponent)
	}
}
