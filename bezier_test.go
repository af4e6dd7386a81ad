package trellis

import "testing"

func TestCubicPointEndpoints(t *testing.T) {
	p0 := Vec2{X: 0, Y: 0}
	p1 := Vec2{X: 50, Y: 0}
	p2 := Vec2{X: 50, Y: 100}
	p3 := Vec2{X: 100, Y: 100}
	start := cubicPoint(p0, p1, p2, p3, 0)
	end := cubicPoint(p0, p1, p2, p3, 1)
	assertNear(t, "start x", start.X, 0)
	assertNear(t, "start y", start.Y, 0)
	assertNear(t, "end x", end.X, 100)
	assertNear(t, "end y", end.Y, 100)
}

func TestCubicBoundsContainsCurve(t *testing.T) {
	p0 := Vec2{X: 0, Y: 0}
	p1 := Vec2{X: 100, Y: -50}
	p2 := Vec2{X: -100, Y: 150}
	p3 := Vec2{X: 100, Y: 100}
	b := cubicBounds(p0, p1, p2, p3)
	for i := 0; i <= 100; i++ {
		q := cubicPoint(p0, p1, p2, p3, float64(i)/100)
		if !b.Contains(q.X, q.Y) {
			t.Fatalf("hull bound %+v loses curve point %+v at t=%v", b, q, float64(i)/100)
		}
	}
}

func TestCubicNearestDistanceOnCurve(t *testing.T) {
	p0 := Vec2{X: 0, Y: 0}
	p3 := Vec2{X: 200, Y: 0}
	p1, p2 := connectionCurve(p0, p3, 100)
	mid := cubicPoint(p0, p1, p2, p3, 0.5)
	d := cubicNearestDistance(mid, p0, p1, p2, p3, connectionSamples(p0, p3))
	if d > 1 {
		t.Errorf("point on curve reports distance %v", d)
	}
}

func TestCubicNearestDistanceOffCurve(t *testing.T) {
	p0 := Vec2{X: 0, Y: 0}
	p3 := Vec2{X: 200, Y: 0}
	// Straight horizontal curve: control points stay on Y=0.
	p1, p2 := connectionCurve(p0, p3, 50)
	d := cubicNearestDistance(Vec2{X: 100, Y: 40}, p0, p1, p2, p3, 200)
	assertNear(t, "distance", d, 40)
}

func TestConnectionCurveEgressDirections(t *testing.T) {
	src := Vec2{X: 300, Y: 50}
	dst := Vec2{X: 100, Y: 200}
	p1, p2 := connectionCurve(src, dst, 100)
	// Wires leave outputs rightward and enter inputs from the left, even
	// when the target sits left of the source.
	assertNear(t, "p1 x", p1.X, 400)
	assertNear(t, "p1 y", p1.Y, 50)
	assertNear(t, "p2 x", p2.X, 0)
	assertNear(t, "p2 y", p2.Y, 200)
}

func TestConnectionSamplesScaleWithDistance(t *testing.T) {
	short := connectionSamples(Vec2{}, Vec2{X: 10})
	long := connectionSamples(Vec2{}, Vec2{X: 4000})
	if short != minConnectionSamples {
		t.Errorf("short curve samples = %d, want floor %d", short, minConnectionSamples)
	}
	if long <= short {
		t.Errorf("long curve should sample more: %d vs %d", long, short)
	}
}
