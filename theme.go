package trellis

// Theme resolves named styling tokens to numbers and colors. The engine
// treats every visual constant (radii, paddings, thresholds, colors) as an
// opaque lookup with a caller-supplied fallback, so hosts can restyle the
// canvas without touching engine code.
type Theme interface {
	Number(token string, fallback float64) float64
	Color(token string, fallback Color) Color
}

// MapTheme is a Theme backed by two maps. Missing tokens resolve to the
// fallback passed at the lookup site.
type MapTheme struct {
	Numbers map[string]float64
	Colors  map[string]Color
}

// Number returns the token's value, or fallback if the token is absent.
func (t *MapTheme) Number(token string, fallback float64) float64 {
	if t != nil && t.Numbers != nil {
		if v, ok := t.Numbers[token]; ok {
			return v
		}
	}
	return fallback
}

// Color returns the token's color, or fallback if the token is absent.
func (t *MapTheme) Color(token string, fallback Color) Color {
	if t != nil && t.Colors != nil {
		if v, ok := t.Colors[token]; ok {
			return v
		}
	}
	return fallback
}

// defaultTheme resolves every token to its fallback.
var defaultTheme Theme = &MapTheme{}

// Fallback values for the tokens the engine looks up. Hosts override any of
// them by supplying a Theme that resolves the token name.
const (
	fallbackNodeWidth        = 180.0
	fallbackHeaderHeight     = 28.0
	fallbackRowHeight        = 24.0
	fallbackPortRadius       = 5.0
	fallbackPortHitMargin    = 4.0
	fallbackKnobRadius       = 9.0
	fallbackKnobHitMargin    = 3.0
	fallbackBezierHeight     = 64.0
	fallbackHandleRadius     = 5.0
	fallbackGridSpacing      = 40.0
	fallbackSnapThreshold    = 8.0
	fallbackConnThreshold    = 6.0
	fallbackConnOffset       = 100.0
	fallbackDragThreshold    = 5.0
	fallbackEdgeMargin       = 40.0
	fallbackEdgeMaxSpeed     = 14.0
	fallbackMomentumFriction = 0.92
	fallbackMomentumCutoff   = 0.5
	fallbackMinZoom          = 0.1
	fallbackMaxZoom          = 2.0
)
