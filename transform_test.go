package trellis

import (
	"math"
	"testing"
)

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestMultiplyAffineIdentity(t *testing.T) {
	m := [6]float64{2, 0, 0, 3, 10, 20}
	assertMatrix(t, "right identity", multiplyAffine(m, identityTransform), m)
	assertMatrix(t, "left identity", multiplyAffine(identityTransform, m), m)
}

func TestInvertAffineRoundTrip(t *testing.T) {
	m := [6]float64{1.5, 0, 0, 1.5, 40, -25}
	inv := invertAffine(m)
	assertMatrix(t, "m * inv", multiplyAffine(m, inv), identityTransform)
	assertMatrix(t, "inv * m", multiplyAffine(inv, m), identityTransform)
}

func TestTransformPointScaleTranslate(t *testing.T) {
	m := [6]float64{2, 0, 0, 2, 100, 50}
	x, y := transformPoint(m, 10, 20)
	assertNear(t, "x", x, 120)
	assertNear(t, "y", y, 90)
}

func TestTransformRect(t *testing.T) {
	m := [6]float64{2, 0, 0, 2, 10, 10}
	r := transformRect(m, Rect{X: 5, Y: 5, Width: 10, Height: 20})
	assertNear(t, "x", r.X, 20)
	assertNear(t, "y", r.Y, 20)
	assertNear(t, "w", r.Width, 20)
	assertNear(t, "h", r.Height, 40)
}
