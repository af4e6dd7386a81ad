package trellis

import "math"

// cubicPoint evaluates a cubic bezier at t.
func cubicPoint(p0, p1, p2, p3 Vec2, t float64) Vec2 {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Vec2{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// cubicBounds returns the bounding box of the four control points. This is a
// conservative hull bound, not the tight curve bound, sufficient for dirty
// regions and culling since the curve never leaves the hull.
func cubicBounds(p0, p1, p2, p3 Vec2) Rect {
	minX := min(min(p0.X, p1.X), min(p2.X, p3.X))
	minY := min(min(p0.Y, p1.Y), min(p2.Y, p3.Y))
	maxX := max(max(p0.X, p1.X), max(p2.X, p3.X))
	maxY := max(max(p0.Y, p1.Y), max(p2.Y, p3.Y))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// minConnectionSamples is the floor for closest-point sampling density.
const minConnectionSamples = 50

// connectionSamples picks a sample count proportional to the endpoint
// distance so long curves stay accurate without over-sampling short ones.
func connectionSamples(p0, p3 Vec2) int {
	dx := p3.X - p0.X
	dy := p3.Y - p0.Y
	n := int(math.Sqrt(dx*dx+dy*dy) / 4)
	return max(n, minConnectionSamples)
}

// cubicNearestDistance returns the minimum distance from p to the curve,
// sampled at the given density. A deliberate numeric approximation: the
// analytic closest point on a cubic needs a quintic solve and pointer hit
// testing doesn't warrant one.
func cubicNearestDistance(p, p0, p1, p2, p3 Vec2, samples int) float64 {
	if samples < 2 {
		samples = 2
	}
	best := math.Inf(1)
	for i := 0; i <= samples; i++ {
		t := float64(i) / float64(samples)
		q := cubicPoint(p0, p1, p2, p3, t)
		dx := q.X - p.X
		dy := q.Y - p.Y
		if d := dx*dx + dy*dy; d < best {
			best = d
		}
	}
	return math.Sqrt(best)
}

// connectionCurve computes the control points for a connection between an
// output port at src and an input (or parameter) port at dst. Control points
// are offset horizontally by a fixed distance in the direction of egress:
// wires flow right out of outputs and arrive from the left into inputs.
func connectionCurve(src, dst Vec2, offset float64) (p1, p2 Vec2) {
	return Vec2{X: src.X + offset, Y: src.Y}, Vec2{X: dst.X - offset, Y: dst.Y}
}
