package scribble

import (
	"math"
	"reflect"
	"testing"
)

func TestLayerCellWidth(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		points    int
		maxFactor float64
		want      float64
	}{
		{"mean spacing wins", 4, 4, 4, 0.9, 2},
		{"dense layer shrinks cells", 4, 4, 16, 0.9, 1},
		{"cap wins on sparse layers", 4, 4, 1, 0.5, 2},
		{"cap uses shorter dimension", 10, 4, 1, 0.5, 2},
		{"sub-pixel cap", 4, 4, 4, 0.1, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layerCellWidth(tt.w, tt.h, tt.points, tt.maxFactor)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("layerCellWidth(%d, %d, %d, %v) = %v, want %v",
					tt.w, tt.h, tt.points, tt.maxFactor, got, tt.want)
			}
		})
	}
}

func TestOrderPointsCellTraversal(t *testing.T) {
	// Discovery order deliberately interleaves cells: with cellWidth 2
	// on a 4x4 canvas the cells are a 2x2 table, visited (0,0), (1,0),
	// (0,1), (1,1), with in-cell discovery order preserved.
	points := []Point{{0, 0}, {3, 0}, {1, 1}, {0, 3}}

	got := orderPoints(points, 2, 4, 4)
	want := []Point{{0, 0}, {1, 1}, {3, 0}, {0, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("orderPoints = %v, want %v", got, want)
	}
}

func TestOrderPointsPreservesDiscoveryOrderInCell(t *testing.T) {
	// All points share one cell; output must equal input order.
	points := []Point{{1, 1}, {0, 0}, {1, 0}, {0, 1}}

	got := orderPoints(points, 4, 4, 4)
	if !reflect.DeepEqual(got, points) {
		t.Errorf("orderPoints = %v, want discovery order %v", got, points)
	}
}

func TestOrderPointsSubUnitCellWidth(t *testing.T) {
	// Integer coordinates make sub-pixel cells equivalent to one-pixel
	// cells: every point lands in its own cell, ordered by (y, x).
	points := []Point{{2, 1}, {0, 0}, {1, 0}}

	got := orderPoints(points, 0.5, 3, 2)
	want := []Point{{0, 0}, {1, 0}, {2, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("orderPoints = %v, want %v", got, want)
	}
}

func TestOrderPointsSmallInputs(t *testing.T) {
	if got := orderPoints(nil, 2, 4, 4); len(got) != 0 {
		t.Errorf("orderPoints(nil) = %v, want empty", got)
	}
	single := []Point{{2, 2}}
	if got := orderPoints(single, 2, 4, 4); !reflect.DeepEqual(got, single) {
		t.Errorf("orderPoints(single) = %v, want %v", got, single)
	}
}

func TestConnectPoints(t *testing.T) {
	ordered := []Point{{0, 0}, {1, 0}, {4, 0}, {4, 1}}

	got := connectPoints(ordered, 2)
	want := []Segment{
		{A: Point{0, 0}, B: Point{1, 0}},
		{A: Point{4, 0}, B: Point{4, 1}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("connectPoints = %v, want %v", got, want)
	}
}

func TestConnectPointsThresholdIsExclusive(t *testing.T) {
	// Distance exactly equal to the cell width is dropped.
	got := connectPoints([]Point{{0, 0}, {2, 0}}, 2)
	if len(got) != 0 {
		t.Errorf("connectPoints = %v, want no segments at exact threshold", got)
	}
}

func TestConnectPointsShortInputs(t *testing.T) {
	if got := connectPoints(nil, 2); got != nil {
		t.Errorf("connectPoints(nil) = %v, want nil", got)
	}
	if got := connectPoints([]Point{{1, 1}}, 2); got != nil {
		t.Errorf("connectPoints(single) = %v, want nil", got)
	}
}

func TestSegmentLength(t *testing.T) {
	s := Segment{A: Point{0, 0}, B: Point{3, 4}}
	if got := s.Length(); got != 5 {
		t.Errorf("Length() = %v, want 5", got)
	}
}
