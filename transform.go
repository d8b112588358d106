package junctionbox

import "math"

// rotatePoint rotates (x, y) around the origin by r radians.
func rotatePoint(x, y, r float64) (float64, float64) {
	sin, cos := math.Sincos(r)
	return cos*x - sin*y, sin*x + cos*y
}

// dist returns the Euclidean distance between two points.
func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// bearing returns the atan2 angle of (x, y) seen from (cx, cy).
func bearing(x, y, cx, cy float64) float64 {
	return math.Atan2(y-cy, x-cx)
}

// seamDelta returns the change from oldTheta to newTheta, two atan2 results.
// When the pair straddles zero with opposite signs the magnitudes are
// compared instead of subtracting directly, so a crossing of the ±π seam
// never produces a jump of nearly a full turn.
//
//	old > 0, new < 0:  |old - |new||
//	old < 0, new > 0: -|new - |old||
func seamDelta(oldTheta, newTheta float64) float64 {
	switch {
	case oldTheta > 0 && newTheta < 0:
		return math.Abs(oldTheta - math.Abs(newTheta))
	case oldTheta < 0 && newTheta > 0:
		return -math.Abs(newTheta - math.Abs(oldTheta))
	}
	return newTheta - oldTheta
}
