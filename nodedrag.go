package trellis

import "math"

// NodeActionHandler owns the instant header actions: the delete button on
// selected nodes and double-purpose header label presses that open the
// rename editor.
type NodeActionHandler struct {
	deleted bool
}

// Priority implements Handler.
func (h *NodeActionHandler) Priority() int { return 55 }

// CanHandle claims presses on delete buttons and header labels while the
// select tool is active.
func (h *NodeActionHandler) CanHandle(c *Canvas, ev Event) bool {
	if ev.Kind != EventPress || ev.Button != MouseButtonLeft || c.Tool() != ToolSelect {
		return false
	}
	switch ev.Target.(type) {
	case DeleteButtonHit, HeaderLabelHit:
		return true
	}
	return false
}

// Start commits the action immediately; the rest of the gesture is inert.
func (h *NodeActionHandler) Start(c *Canvas, ev Event) {
	switch t := ev.Target.(type) {
	case DeleteButtonHit:
		h.deleted = true
		c.graph.RemoveNode(t.Node)
		c.metrics.Remove(t.Node)
		c.ApplyState(c.state.WithNodeDeselected(t.Node))
		c.render.MarkLayer(LayerNodes)
		c.render.MarkLayer(LayerPorts)
		c.render.MarkLayer(LayerConnections)
		c.render.MarkLayer(LayerParamConns)
		c.observer.NodeDeleted(t.Node)
	case HeaderLabelHit:
		h.beginRename(c, t.Node)
	}
}

// Update implements Handler; the action already committed on Start.
func (h *NodeActionHandler) Update(c *Canvas, ev Event) {}

// End implements Handler.
func (h *NodeActionHandler) End(c *Canvas, ev Event) {
	h.deleted = false
}

// beginRename opens the label editor over the header text bounds.
func (h *NodeActionHandler) beginRename(c *Canvas, id NodeID) {
	n := c.graph.Node(id)
	if n == nil {
		return
	}
	m := c.metrics.Metrics(n)
	if m == nil {
		return
	}
	label := n.Label
	if label == "" {
		if spec := c.catalog.Spec(n.TypeID); spec != nil {
			label = spec.Label
		}
	}
	screenRect := c.viewport.CanvasRectToScreen(m.HeaderLabel)
	c.editor.Begin(screenRect, label,
		func(text string) {
			n.Label = text
			c.metrics.Invalidate(id)
			c.render.MarkNode(id)
			c.observer.NodeLabelChanged(id, text)
		},
		func() {})
}

// NodeDragHandler moves nodes. A press in a node's header region begins a
// potential drag; crossing the movement threshold turns it into an active
// drag that moves every selected node by the same snapped delta. A plain
// click (below threshold) only selects.
type NodeDragHandler struct {
	node         NodeID
	startScreenX float64
	startScreenY float64
	startCanvasX float64
	startCanvasY float64
	active       bool
	moved        bool
	initial      map[NodeID]Vec2 // positions at gesture start, all selected nodes
}

// Priority implements Handler.
func (h *NodeDragHandler) Priority() int { return 50 }

// CanHandle claims left presses inside a node header, or anywhere on a
// collapsed node's body. The hand tool owns left presses over nodes too, so
// the select tool must be active.
func (h *NodeDragHandler) CanHandle(c *Canvas, ev Event) bool {
	if ev.Kind != EventPress || ev.Button != MouseButtonLeft || c.Tool() != ToolSelect {
		return false
	}
	t, ok := ev.Target.(NodeHit)
	if !ok {
		return false
	}
	if t.Header {
		return true
	}
	n := c.graph.Node(t.Node)
	return n != nil && n.Collapsed
}

// Start records selection and initial positions. Selection updates on the
// press so a plain click still registers as a selection change.
func (h *NodeDragHandler) Start(c *Canvas, ev Event) {
	t := ev.Target.(NodeHit)
	h.node = t.Node
	h.startScreenX = ev.ScreenX
	h.startScreenY = ev.ScreenY
	h.startCanvasX = ev.CanvasX
	h.startCanvasY = ev.CanvasY
	h.active = false
	h.moved = false

	additive := ev.Modifiers&ModShift != 0
	if !c.state.NodeSelected(t.Node) {
		next := c.state
		if additive {
			next = next.WithNodeSelected(t.Node)
		} else {
			next = next.WithOnlyNode(t.Node)
		}
		c.ApplyState(next)
		c.observer.NodeSelected(t.Node, additive)
	}

	h.initial = make(map[NodeID]Vec2)
	for id := range c.state.selectedNodes {
		if n := c.graph.Node(id); n != nil {
			h.initial[id] = Vec2{X: n.X, Y: n.Y}
		}
	}
}

// Update applies the drag. Snapping is computed once against the primary
// node and the resulting delta applied uniformly to every selected node, so
// multi-drag never shears the selection apart.
func (h *NodeDragHandler) Update(c *Canvas, ev Event) {
	if !h.active {
		dx := ev.ScreenX - h.startScreenX
		dy := ev.ScreenY - h.startScreenY
		threshold := c.theme.Number("drag.threshold", fallbackDragThreshold)
		if math.Sqrt(dx*dx+dy*dy) <= threshold {
			return
		}
		h.active = true
	}

	primary := c.graph.Node(h.node)
	primaryStart, ok := h.initial[h.node]
	if primary == nil || !ok {
		return
	}
	m := c.metrics.Metrics(primary)
	if m == nil {
		return
	}

	proposedX := primaryStart.X + (ev.CanvasX - h.startCanvasX)
	proposedY := primaryStart.Y + (ev.CanvasY - h.startCanvasY)

	snap := c.guides.Snap(m.Box, proposedX, proposedY, c.viewport.Zoom,
		c.visibleSiblingBoxes(c.state.selectedNodes))

	dx := snap.X - primaryStart.X
	dy := snap.Y - primaryStart.Y
	for id, start := range h.initial {
		n := c.graph.Node(id)
		if n == nil {
			continue
		}
		n.X = start.X + dx
		n.Y = start.Y + dy
		c.markNodeAndIncident(id)
	}
	h.moved = true

	c.activeGuides = snap.Guides
	c.render.MarkLayer(LayerOverlay)
	c.scroller.track(ev.ScreenX, ev.ScreenY)
}

// End reports final positions and releases all transient drag state,
// including guides and the edge-scroll loop.
func (h *NodeDragHandler) End(c *Canvas, ev Event) {
	c.scroller.cancel()
	if len(c.activeGuides) > 0 {
		c.activeGuides = nil
		c.render.MarkLayer(LayerOverlay)
	}
	if h.moved {
		for id := range h.initial {
			if n := c.graph.Node(id); n != nil {
				c.observer.NodeMoved(id, n.X, n.Y)
			}
		}
	}
	h.initial = nil
	h.active = false
	h.moved = false
}
