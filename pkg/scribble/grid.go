package scribble

import "math"

// layerCellWidth derives the spatial grid cell size for one layer: the
// mean point spacing sqrt(area/count), capped at maxLineLengthFactor
// times the shorter canvas dimension. The cap keeps sparse layers from
// collapsing into a single giant cell that would connect points across
// the whole canvas.
func layerCellWidth(w, h, pointCount int, maxLineLengthFactor float64) float64 {
	avg := math.Sqrt(float64(w) * float64(h) / float64(pointCount))
	return math.Min(avg, maxLineLengthFactor*float64(min(w, h)))
}

// orderPoints flattens a point set into a locality-preserving sequence.
// Points are bucketed into square cells of side cellWidth by floor
// division of their coordinates, and emitted cell-row by cell-row
// (ascending cell y, then cell x) with the sampler's discovery order
// preserved inside each cell. Consecutive output points therefore tend
// to share a cell or sit in row-adjacent cells, which is what makes the
// later distance gate produce coherent strands.
//
// Sampled coordinates are integers, so cell widths below one pixel
// partition points exactly like one-pixel cells; bucketing clamps the
// width accordingly to keep the cell table bounded by the canvas area.
func orderPoints(points []Point, cellWidth float64, w, h int) []Point {
	if len(points) < 2 {
		return points
	}

	bw := max(cellWidth, 1)
	cols := int(float64(w-1)/bw) + 1
	rows := int(float64(h-1)/bw) + 1

	cells := make([][]Point, cols*rows)
	for _, p := range points {
		idx := int(float64(p.Y)/bw)*cols + int(float64(p.X)/bw)
		cells[idx] = append(cells[idx], p)
	}

	ordered := make([]Point, 0, len(points))
	for _, cell := range cells {
		ordered = append(ordered, cell...)
	}
	return ordered
}
