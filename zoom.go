package trellis

import "math"

// wheelZoomFactor converts one wheel notch into an exponential zoom step.
const wheelZoomFactor = 0.1

// CanvasZoomHandler zooms the viewport around the cursor on scroll wheel.
// Wheel deltas accumulate across a frame and apply once, so a burst of
// events from a fast trackpad fling costs a single matrix rebuild.
type CanvasZoomHandler struct {
	pendingDelta float64
	anchorX      float64
	anchorY      float64
}

// Priority implements Handler.
func (h *CanvasZoomHandler) Priority() int { return 20 }

// CanHandle claims every wheel event.
func (h *CanvasZoomHandler) CanHandle(c *Canvas, ev Event) bool {
	return ev.Kind == EventWheel && ev.WheelY != 0
}

// Start accumulates the wheel delta; step applies it next frame.
func (h *CanvasZoomHandler) Start(c *Canvas, ev Event) {
	h.pendingDelta += ev.WheelY
	h.anchorX = ev.ScreenX
	h.anchorY = ev.ScreenY
}

// Update implements Handler.
func (h *CanvasZoomHandler) Update(c *Canvas, ev Event) {}

// End implements Handler.
func (h *CanvasZoomHandler) End(c *Canvas, ev Event) {}

// step applies the accumulated delta as one exponential zoom around the
// anchor point, then syncs the committed state.
func (h *CanvasZoomHandler) step(c *Canvas, dt float64) {
	if h.pendingDelta == 0 {
		return
	}
	factor := math.Exp(h.pendingDelta * wheelZoomFactor)
	h.pendingDelta = 0
	c.viewport.ZoomAtPoint(c.viewport.Zoom*factor, h.anchorX, h.anchorY)
	c.syncStateFromViewport()
}
