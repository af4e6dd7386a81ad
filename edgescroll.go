package trellis

// EdgeScroller auto-pans the viewport while a drag gesture holds the pointer
// near a viewport edge. Drag handlers feed it pointer positions with track
// and disarm it with cancel; the canvas drives it once per frame.
type EdgeScroller struct {
	theme Theme

	armed bool
	sx    float64
	sy    float64
}

// NewEdgeScroller creates an edge scroller styled by the theme.
func NewEdgeScroller(theme Theme) *EdgeScroller {
	if theme == nil {
		theme = defaultTheme
	}
	return &EdgeScroller{theme: theme}
}

// track arms the scroller with the current pointer position. Called by drag
// handlers on every update.
func (es *EdgeScroller) track(sx, sy float64) {
	es.armed = true
	es.sx = sx
	es.sy = sy
}

// cancel disarms the scroller. Called when the owning gesture ends.
func (es *EdgeScroller) cancel() {
	es.armed = false
}

// step pans the viewport when the tracked pointer sits inside the edge
// margin, speed ramping linearly from zero at the margin boundary to max at
// the edge itself. After panning it re-dispatches a synthetic move at the
// same screen position so the active drag re-evaluates its canvas-space
// anchor against the shifted viewport.
func (es *EdgeScroller) step(c *Canvas, dt float64) {
	if !es.armed {
		return
	}
	margin := es.theme.Number("edge.margin", fallbackEdgeMargin)
	maxSpeed := es.theme.Number("edge.maxSpeed", fallbackEdgeMaxSpeed)
	if margin <= 0 || maxSpeed <= 0 {
		return
	}

	b := c.viewport.ScreenBounds()
	vx := edgeSpeed(es.sx, b.X, b.X+b.Width, margin, maxSpeed)
	vy := edgeSpeed(es.sy, b.Y, b.Y+b.Height, margin, maxSpeed)
	if vx == 0 && vy == 0 {
		return
	}

	c.ApplyState(c.state.WithPan(c.state.PanX-vx, c.state.PanY-vy))

	if c.manager.Active() != nil {
		cx, cy := c.viewport.ScreenToCanvas(es.sx, es.sy)
		c.manager.Dispatch(c, Event{
			Kind:      EventMove,
			ScreenX:   es.sx,
			ScreenY:   es.sy,
			CanvasX:   cx,
			CanvasY:   cy,
			Modifiers: readModifiers(),
		})
	}
}

// edgeSpeed maps a coordinate's distance into the [lo, hi] span onto a pan
// speed: zero outside the margin, up to max right at the edge. Negative
// means scroll toward lo.
func edgeSpeed(pos, lo, hi, margin, max float64) float64 {
	if pos < lo+margin {
		t := (lo + margin - pos) / margin
		if t > 1 {
			t = 1
		}
		return -t * max
	}
	if pos > hi-margin {
		t := (pos - (hi - margin)) / margin
		if t > 1 {
			t = 1
		}
		return t * max
	}
	return 0
}
