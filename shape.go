package junctionbox

import "math"

// --- Hit testing ---

// Bounds is the geometry a Junction hit-tests against: a rectangle or an
// ellipse centered on (CenterX, CenterY), rotated by Angle radians.
type Bounds struct {
	Shape            Shape
	CenterX, CenterY float64
	Width, Height    float64
	Angle            float64
}

// Contains reports whether (x, y) lies inside the bounds. Rectangles use
// strict bounds, so points on an edge are outside. Ellipses include their
// boundary, except circles which use a strict radius test.
func (b Bounds) Contains(x, y float64) bool {
	switch b.Shape {
	case ShapeEllipse:
		if b.Width == b.Height {
			return dist(x, y, b.CenterX, b.CenterY) < b.Width/2
		}
		lx, ly := b.local(x, y)
		hw, hh := b.Width/2, b.Height/2
		if hw == 0 || hh == 0 {
			return false
		}
		return (lx*lx)/(hw*hw)+(ly*ly)/(hh*hh) <= 1
	default:
		lx, ly := b.local(x, y)
		return math.Abs(lx) < b.Width/2 && math.Abs(ly) < b.Height/2
	}
}

// local returns (x, y) relative to the center in the unrotated frame.
func (b Bounds) local(x, y float64) (float64, float64) {
	dx, dy := x-b.CenterX, y-b.CenterY
	if b.Angle == 0 {
		return dx, dy
	}
	return rotatePoint(dx, dy, -b.Angle)
}

// Position returns (x, y) normalized against the rectangle edges: 0 at the
// left/top edge and 1 at the right/bottom edge of the unrotated frame.
func (b Bounds) Position(x, y float64) (nx, ny float64) {
	lx, ly := b.local(x, y)
	return normal(lx+b.Width/2, 0, b.Width), normal(ly+b.Height/2, 0, b.Height)
}

// Polar returns the radius of (x, y) normalized against the ellipse edge on
// the same bearing, and the bearing folded into [0, 2π). The bearing grows
// counter-clockwise on screen, where y points down.
func (b Bounds) Polar(x, y float64) (r, theta float64) {
	theta = foldTheta(math.Atan2(y-b.CenterY, x-b.CenterX))
	d := dist(x, y, b.CenterX, b.CenterY)
	if b.Width == b.Height {
		return normal(d, 0, b.Width/2), theta
	}
	return normal(d, 0, b.edge(theta)), theta
}

// edge returns the distance from the center to the ellipse boundary along
// bearing theta, using the parametric angle t = atan((w/h)·tan θ).
func (b Bounds) edge(theta float64) float64 {
	t := math.Atan((b.Width / b.Height) * math.Tan(theta))
	ex := (b.Width / 2) * math.Cos(t)
	ey := (b.Height / 2) * math.Sin(t)
	return math.Hypot(ex, ey)
}

// foldTheta maps an atan2 result in (-π, π] onto [0, 2π): negative angles are
// negated and positive angles are subtracted from 2π.
func foldTheta(theta float64) float64 {
	switch {
	case theta < 0:
		return -theta
	case theta > 0:
		return TwoPi - theta
	}
	return 0
}
