package trellis

// PortConnectHandler wires ports. A press on any port starts a temporary
// connection whose floating endpoint follows the pointer; releasing over a
// compatible port reports a new connection through the observer, anywhere
// else discards the gesture with no mutation.
type PortConnectHandler struct {
	from PortHit
}

// Priority implements Handler.
func (h *PortConnectHandler) Priority() int { return 45 }

// CanHandle claims left presses on ports while the select tool is active.
func (h *PortConnectHandler) CanHandle(c *Canvas, ev Event) bool {
	if ev.Kind != EventPress || ev.Button != MouseButtonLeft || c.Tool() != ToolSelect {
		return false
	}
	_, ok := ev.Target.(PortHit)
	return ok
}

// Start anchors the temporary connection at the pressed port's center.
func (h *PortConnectHandler) Start(c *Canvas, ev Event) {
	h.from = ev.Target.(PortHit)
	anchor, ok := h.portCenter(c, h.from)
	if !ok {
		return
	}
	c.temp = &tempConnection{
		FromNode:   h.from.Node,
		FromPort:   h.from.Port,
		FromParam:  h.from.Param,
		FromOutput: h.from.Output,
		From:       anchor,
		To:         Vec2{X: ev.CanvasX, Y: ev.CanvasY},
	}
	c.render.MarkLayer(LayerOverlay)
}

// Update moves the floating endpoint, snapping it to a compatible port when
// the pointer is over one, and edge-scrolls near the viewport boundary.
func (h *PortConnectHandler) Update(c *Canvas, ev Event) {
	if c.temp == nil {
		return
	}
	c.temp.To = Vec2{X: ev.CanvasX, Y: ev.CanvasY}
	c.temp.Snapped = false

	if target, ok := c.hit.HitAt(ev.ScreenX, ev.ScreenY, c.state).(PortHit); ok {
		if h.compatible(target) {
			if p, found := h.portCenter(c, target); found {
				c.temp.Snapped = true
				c.temp.SnapPos = p
			}
		}
	}
	c.render.MarkLayer(LayerOverlay)
	c.scroller.track(ev.ScreenX, ev.ScreenY)
}

// End emits the connection if the release lands on a compatible port.
// The observer owns applying it to the graph; occupied target slots follow
// the replace policy of Graph.AddConnection.
func (h *PortConnectHandler) End(c *Canvas, ev Event) {
	c.scroller.cancel()
	if c.temp == nil {
		return
	}
	c.temp = nil
	c.render.MarkLayer(LayerOverlay)

	target, ok := c.hit.HitAt(ev.ScreenX, ev.ScreenY, c.state).(PortHit)
	if !ok || !h.compatible(target) {
		return
	}

	// Orient the pair output-first regardless of drag direction.
	src, dst := h.from, target
	if !src.Output && src.Param == "" {
		src, dst = dst, src
	} else if src.Param != "" {
		src, dst = dst, src
	}

	conn := &Connection{
		SourceNode:  src.Node,
		SourcePort:  src.Port,
		TargetNode:  dst.Node,
		TargetPort:  dst.Port,
		TargetParam: dst.Param,
	}
	if !c.graph.ValidConnection(c.catalog, conn) {
		return
	}
	c.render.MarkLayer(LayerConnections)
	c.render.MarkLayer(LayerParamConns)
	c.observer.ConnectionCreated(src.Node, src.Port, dst.Node, dst.Port, dst.Param)
}

// compatible reports whether the gesture's origin port may connect to the
// candidate: an output must land on an input or parameter port of another
// node, and vice versa.
func (h *PortConnectHandler) compatible(target PortHit) bool {
	if target.Node == h.from.Node {
		return false
	}
	fromOutput := h.from.Output && h.from.Param == ""
	targetOutput := target.Output && target.Param == ""
	return fromOutput != targetOutput
}

// portCenter resolves a port hit to its canvas-space center.
func (h *PortConnectHandler) portCenter(c *Canvas, p PortHit) (Vec2, bool) {
	n := c.graph.Node(p.Node)
	if n == nil {
		return Vec2{}, false
	}
	m := c.metrics.Metrics(n)
	if m == nil {
		return Vec2{}, false
	}
	if p.Param != "" {
		g, ok := m.Params[p.Param]
		if !ok || !g.HasPort {
			return Vec2{}, false
		}
		return g.Port, true
	}
	center, ok := m.Ports[PortKey(p.Output, p.Port)]
	return center, ok
}
