package trellis

import "math"

// velocitySampleWindow is how far back pointer samples count toward the
// release velocity for momentum.
const velocitySampleWindow = 0.1 // seconds

// velocitySample is one pointer position in the momentum ring buffer.
type velocitySample struct {
	x, y float64
	age  float64
}

// momentum carries a decaying pan velocity after the hand tool releases.
// Velocity is in screen pixels per frame; each step multiplies it by the
// friction factor until it falls under the cutoff.
type momentum struct {
	vx, vy   float64
	friction float64
	cutoff   float64
	active   bool
}

// start arms the momentum with a release velocity.
func (m *momentum) start(vx, vy float64) {
	m.vx = vx
	m.vy = vy
	m.active = math.Hypot(vx, vy) > m.cutoff
}

// stop kills any coasting immediately.
func (m *momentum) stop() {
	m.active = false
}

// step decays the velocity and returns the pan delta for this frame.
// Returns ok=false once the speed drops below the cutoff.
func (m *momentum) step() (dx, dy float64, ok bool) {
	if !m.active {
		return 0, 0, false
	}
	dx = m.vx
	dy = m.vy
	m.vx *= m.friction
	m.vy *= m.friction
	if math.Hypot(m.vx, m.vy) < m.cutoff {
		m.active = false
	}
	return dx, dy, true
}

// HandToolHandler pans the viewport by left-drag while the hand tool is
// active, anywhere on the canvas including over nodes. Releasing mid-motion
// hands the velocity to a momentum coast; pressing again stops it.
type HandToolHandler struct {
	lastX, lastY float64
	samples      []velocitySample
	frameDT      float64 // last dt seen by step
	inertia      momentum
}

// Priority implements Handler.
func (h *HandToolHandler) Priority() int { return 15 }

// CanHandle claims left presses while the hand tool is active. Targets are
// ignored on purpose: the hand tool pans even over nodes.
func (h *HandToolHandler) CanHandle(c *Canvas, ev Event) bool {
	return ev.Kind == EventPress && ev.Button == MouseButtonLeft && c.Tool() == ToolHand
}

// Start anchors the drag and kills any coasting in progress.
func (h *HandToolHandler) Start(c *Canvas, ev Event) {
	h.lastX = ev.ScreenX
	h.lastY = ev.ScreenY
	h.samples = h.samples[:0]
	h.inertia.friction = c.theme.Number("pan.momentumFriction", fallbackMomentumFriction)
	h.inertia.cutoff = c.theme.Number("pan.momentumCutoff", fallbackMomentumCutoff)
	h.inertia.stop()
}

// Update pans by the screen-space pointer delta and records the sample.
func (h *HandToolHandler) Update(c *Canvas, ev Event) {
	dx := ev.ScreenX - h.lastX
	dy := ev.ScreenY - h.lastY
	h.lastX = ev.ScreenX
	h.lastY = ev.ScreenY
	if dx == 0 && dy == 0 {
		return
	}
	c.ApplyState(c.state.WithPan(c.state.PanX+dx, c.state.PanY+dy))
	h.samples = append(h.samples, velocitySample{x: ev.ScreenX, y: ev.ScreenY})
}

// End computes the release velocity from recent samples and starts coasting.
func (h *HandToolHandler) End(c *Canvas, ev Event) {
	vx, vy, ok := h.releaseVelocity(ev.ScreenX, ev.ScreenY)
	if ok {
		h.inertia.start(vx, vy)
	}
	h.samples = h.samples[:0]
}

// step ages the velocity samples by the real frame time and applies the
// momentum coast after release.
func (h *HandToolHandler) step(c *Canvas, dt float64) {
	h.frameDT = dt
	h.ageSamples(dt)

	dx, dy, ok := h.inertia.step()
	if !ok {
		return
	}
	c.ApplyState(c.state.WithPan(c.state.PanX+dx, c.state.PanY+dy))
}

// ageSamples advances sample ages and drops samples older than the velocity
// window, so a pointer held still sheds its history before release.
func (h *HandToolHandler) ageSamples(dt float64) {
	kept := h.samples[:0]
	for _, s := range h.samples {
		s.age += dt
		if s.age <= velocitySampleWindow {
			kept = append(kept, s)
		}
	}
	h.samples = kept
}

// releaseVelocity averages pointer movement since the oldest retained sample
// into a per-frame velocity, using the frame time the stepper observed.
func (h *HandToolHandler) releaseVelocity(x, y float64) (vx, vy float64, ok bool) {
	if len(h.samples) == 0 {
		return 0, 0, false
	}
	dt := h.frameDT
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	oldest := h.samples[0]
	frames := math.Max((oldest.age+dt)/dt, 1)
	return (x - oldest.x) / frames, (y - oldest.y) / frames, true
}

// CanvasPanHandler pans by middle or right button drag regardless of the
// active tool. No momentum: this is the precise pan, the hand tool is the
// flingy one.
type CanvasPanHandler struct {
	lastX, lastY float64
}

// Priority implements Handler.
func (h *CanvasPanHandler) Priority() int { return 10 }

// CanHandle claims middle and right button presses anywhere.
func (h *CanvasPanHandler) CanHandle(c *Canvas, ev Event) bool {
	return ev.Kind == EventPress &&
		(ev.Button == MouseButtonMiddle || ev.Button == MouseButtonRight)
}

// Start anchors the drag.
func (h *CanvasPanHandler) Start(c *Canvas, ev Event) {
	h.lastX = ev.ScreenX
	h.lastY = ev.ScreenY
}

// Update pans by the pointer delta in screen space.
func (h *CanvasPanHandler) Update(c *Canvas, ev Event) {
	dx := ev.ScreenX - h.lastX
	dy := ev.ScreenY - h.lastY
	h.lastX = ev.ScreenX
	h.lastY = ev.ScreenY
	if dx == 0 && dy == 0 {
		return
	}
	c.ApplyState(c.state.WithPan(c.state.PanX+dx, c.state.PanY+dy))
}

// End implements Handler.
func (h *CanvasPanHandler) End(c *Canvas, ev Event) {}
