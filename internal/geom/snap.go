package geom

import "math"

// SnapToGrid rounds value to the nearest multiple of spacing.
//
// With no tolerance the snap is hard (grid drawing). With a tolerance the snap
// is soft: value is only moved when it already lies within tolerance of the
// grid line, otherwise it is returned unchanged (drag assist).
func SnapToGrid(value, spacing float64, tolerance ...float64) float64 {
	if spacing <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	snapped := math.Round(value/spacing) * spacing
	if len(tolerance) > 0 && math.Abs(snapped-value) > tolerance[0] {
		return value
	}
	// Normalize -0 so repeated snapping stays bit-identical.
	if snapped == 0 {
		return 0
	}
	return snapped
}

// SnapPoint hard-snaps both coordinates of p.
func SnapPoint(p Point, spacing float64) Point {
	return Point{X: SnapToGrid(p.X, spacing), Y: SnapToGrid(p.Y, spacing)}
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
