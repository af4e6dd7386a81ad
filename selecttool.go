package trellis

// ConnectionSelectHandler toggles connection selection on click. Shift adds
// to the selection; a plain click replaces it.
type ConnectionSelectHandler struct {
	conn ConnectionID
}

// Priority implements Handler.
func (h *ConnectionSelectHandler) Priority() int { return 30 }

// CanHandle claims left presses on connection curves while the select tool
// is active.
func (h *ConnectionSelectHandler) CanHandle(c *Canvas, ev Event) bool {
	if ev.Kind != EventPress || ev.Button != MouseButtonLeft || c.Tool() != ToolSelect {
		return false
	}
	_, ok := ev.Target.(ConnectionHit)
	return ok
}

// Start applies the selection change immediately.
func (h *ConnectionSelectHandler) Start(c *Canvas, ev Event) {
	t := ev.Target.(ConnectionHit)
	h.conn = t.Connection
	additive := ev.Modifiers&ModShift != 0

	next := c.state
	if additive {
		if next.ConnectionSelected(t.Connection) {
			next = next.WithConnectionDeselected(t.Connection)
			c.ApplyState(next)
			c.observer.ConnectionSelected(t.Connection, false)
			return
		}
		next = next.WithConnectionSelected(t.Connection)
	} else {
		next = next.WithClearedSelection().WithConnectionSelected(t.Connection)
	}
	c.ApplyState(next)
	c.observer.ConnectionSelected(t.Connection, true)
}

// Update implements Handler.
func (h *ConnectionSelectHandler) Update(c *Canvas, ev Event) {}

// End implements Handler.
func (h *ConnectionSelectHandler) End(c *Canvas, ev Event) {}

// SelectionToolHandler drags a rectangle over empty canvas and selects every
// node whose box intersects it. The rectangle lives in canvas space, so it
// tracks correctly through pans and zooms mid-drag.
type SelectionToolHandler struct {
	startX float64
	startY float64
}

// Priority implements Handler.
func (h *SelectionToolHandler) Priority() int { return 25 }

// CanHandle claims left presses on empty canvas while the select tool is
// active.
func (h *SelectionToolHandler) CanHandle(c *Canvas, ev Event) bool {
	return ev.Kind == EventPress && ev.Button == MouseButtonLeft &&
		ev.Target == nil && c.Tool() == ToolSelect
}

// Start anchors the rectangle. Without shift the prior selection clears
// right away, matching click-on-empty-deselects.
func (h *SelectionToolHandler) Start(c *Canvas, ev Event) {
	h.startX = ev.CanvasX
	h.startY = ev.CanvasY

	if ev.Modifiers&ModShift == 0 && c.state.SelectionCount() > 0 {
		c.ApplyState(c.state.WithClearedSelection())
		c.observer.NodeSelected("", false)
	}
	c.selectionRect = &Rect{X: h.startX, Y: h.startY}
	c.render.MarkLayer(LayerOverlay)
}

// Update grows the rectangle and reselects intersecting nodes.
func (h *SelectionToolHandler) Update(c *Canvas, ev Event) {
	r := normalizedRect(h.startX, h.startY, ev.CanvasX, ev.CanvasY)
	c.selectionRect = &r

	next := c.state
	if ev.Modifiers&ModShift == 0 {
		next = next.WithClearedNodes()
	}
	for _, n := range c.graph.Nodes {
		m := c.metrics.Metrics(n)
		if m == nil {
			continue
		}
		if m.Box.Intersects(r) {
			next = next.WithNodeSelected(n.ID)
		}
	}
	c.ApplyState(next)
	c.render.MarkLayer(LayerOverlay)
}

// End drops the rectangle and reports the final selection.
func (h *SelectionToolHandler) End(c *Canvas, ev Event) {
	c.selectionRect = nil
	c.render.MarkLayer(LayerOverlay)
	for _, id := range c.state.SelectedNodes() {
		c.observer.NodeSelected(id, true)
	}
}

// normalizedRect builds a rect from two corners in any order.
func normalizedRect(x1, y1, x2, y2 float64) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
