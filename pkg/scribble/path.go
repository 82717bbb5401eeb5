package scribble

import "math"

// Point is a sampled pixel position in canvas coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Segment is a straight stroke between two sampled points. Segments are
// stored directionally in emission order; renderers treat them as
// undirected lines.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(float64(s.B.X-s.A.X), float64(s.B.Y-s.A.Y))
}

// Path is the accumulated sequence of segments across all layers, in
// layer-then-emission order. The generator only ever appends; earlier
// layers' segments are never reordered or removed.
type Path []Segment

// connectPoints emits a segment for each consecutive pair of ordered
// points closer than cellWidth. Pairs at or beyond the threshold are
// dropped silently; the drops are what break the traversal into separate
// scribble strands instead of one serpentine line across the canvas.
func connectPoints(ordered []Point, cellWidth float64) []Segment {
	if len(ordered) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(ordered)-1)
	prev := ordered[0]
	for _, p := range ordered[1:] {
		if math.Hypot(float64(p.X-prev.X), float64(p.Y-prev.Y)) < cellWidth {
			segs = append(segs, Segment{A: prev, B: p})
		}
		prev = p
	}
	return segs
}
