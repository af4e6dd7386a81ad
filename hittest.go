package trellis

// HitTarget is the tagged union of everything a screen point can resolve to.
// Each interaction handler pattern-matches the variants it owns.
type HitTarget interface {
	isHitTarget()
}

// DeleteButtonHit is the delete button in a selected node's header.
type DeleteButtonHit struct {
	Node NodeID
}

// TypeBadgeHit is the value-type badge rendered beside a port.
type TypeBadgeHit struct {
	Node   NodeID
	Port   string
	Output bool
}

// ModeButtonHit is the input-mode button beside a wired-capable parameter.
type ModeButtonHit struct {
	Node  NodeID
	Param string
}

// BezierHandleHit is one of the two control points of a bezier editor widget.
type BezierHandleHit struct {
	Node   NodeID
	Param  string
	Handle int // 0 or 1
}

// WidgetHit is a parameter widget: knob, toggle, enum box, slider, or one
// cell of an array editor.
type WidgetHit struct {
	Node  NodeID
	Param string
	Kind  ParamKind
	Cell  int // array cell index; 0 otherwise
}

// PortHit is a regular input/output port or a parameter's dedicated input
// port (Param != "").
type PortHit struct {
	Node   NodeID
	Port   string
	Output bool
	Param  string
}

// NodeHit is a hit on the node body or header.
type NodeHit struct {
	Node   NodeID
	Header bool // inside the header region (drag grip)
}

// ConnectionHit is a hit near a connection curve.
type ConnectionHit struct {
	Connection ConnectionID
}

// HeaderLabelHit is the node title text, for rename. Produced by the
// canvas's double-click promotion rather than by HitAt.
type HeaderLabelHit struct {
	Node NodeID
}

func (DeleteButtonHit) isHitTarget() {}
func (TypeBadgeHit) isHitTarget()    {}
func (ModeButtonHit) isHitTarget()   {}
func (BezierHandleHit) isHitTarget() {}
func (WidgetHit) isHitTarget()       {}
func (PortHit) isHitTarget()         {}
func (NodeHit) isHitTarget()         {}
func (ConnectionHit) isHitTarget()   {}
func (HeaderLabelHit) isHitTarget()  {}

// HitTester resolves a screen point to the most specific hit target.
// Geometry always comes from current NodeRenderMetrics, recomputed first if
// stale; nodes whose type has no registered spec are skipped.
type HitTester struct {
	graph    *Graph
	catalog  SpecCatalog
	metrics  *MetricsCache
	viewport *Viewport
	theme    Theme
}

// NewHitTester wires a hit tester over shared engine state.
func NewHitTester(graph *Graph, catalog SpecCatalog, metrics *MetricsCache, viewport *Viewport, theme Theme) *HitTester {
	if theme == nil {
		theme = defaultTheme
	}
	return &HitTester{graph: graph, catalog: catalog, metrics: metrics, viewport: viewport, theme: theme}
}

// HitAt resolves the screen point (sx, sy) to exactly one target, or nil.
//
// Precedence is fixed, most specific first: delete button, type badge,
// parameter mode button, bezier control point, parameter widget, port, node
// body, connection curve. Within each category nodes are checked topmost
// first (reverse paint order), so overlap between unrelated nodes can never
// demote a higher-precedence element. HeaderLabelHit is never produced here:
// the canvas promotes a double-click on a header to it, since the label
// shares space with the drag grip.
func (h *HitTester) HitAt(sx, sy float64, state CanvasState) HitTarget {
	cx, cy := h.viewport.ScreenToCanvas(sx, sy)

	if t := h.hitDeleteButtons(cx, cy, state); t != nil {
		return t
	}
	if t := h.hitTypeBadges(cx, cy); t != nil {
		return t
	}
	if t := h.hitModeButtons(cx, cy); t != nil {
		return t
	}
	if t := h.hitBezierHandles(cx, cy); t != nil {
		return t
	}
	if t := h.hitWidgets(cx, cy); t != nil {
		return t
	}
	if t := h.hitPorts(cx, cy); t != nil {
		return t
	}
	if t := h.hitNodeBodies(cx, cy); t != nil {
		return t
	}
	return h.hitConnections(cx, cy)
}

// eachNodeTopFirst visits nodes in reverse paint order, skipping ones
// without metrics, until fn returns a non-nil target.
func (h *HitTester) eachNodeTopFirst(fn func(n *NodeInstance, m *NodeMetrics) HitTarget) HitTarget {
	for i := len(h.graph.Nodes) - 1; i >= 0; i-- {
		n := h.graph.Nodes[i]
		m := h.metrics.Metrics(n)
		if m == nil {
			continue
		}
		if t := fn(n, m); t != nil {
			return t
		}
	}
	return nil
}

func (h *HitTester) hitDeleteButtons(cx, cy float64, state CanvasState) HitTarget {
	return h.eachNodeTopFirst(func(n *NodeInstance, m *NodeMetrics) HitTarget {
		// The delete button only exists on selected nodes.
		if state.NodeSelected(n.ID) && m.DeleteButton.Contains(cx, cy) {
			return DeleteButtonHit{Node: n.ID}
		}
		return nil
	})
}

func (h *HitTester) hitTypeBadges(cx, cy float64) HitTarget {
	return h.eachNodeTopFirst(func(n *NodeInstance, m *NodeMetrics) HitTarget {
		for key, r := range m.PortTypes {
			if r.Contains(cx, cy) {
				output := len(key) > 7 && key[:7] == "output:"
				name := key[len("input:"):]
				if output {
					name = key[len("output:"):]
				}
				return TypeBadgeHit{Node: n.ID, Port: name, Output: output}
			}
		}
		return nil
	})
}

func (h *HitTester) hitModeButtons(cx, cy float64) HitTarget {
	return h.eachNodeTopFirst(func(n *NodeInstance, m *NodeMetrics) HitTarget {
		spec := h.catalog.Spec(n.TypeID)
		if spec == nil {
			// Metrics may outlive a spec removed from the catalog.
			return nil
		}
		for name, g := range m.Params {
			if !g.HasPort {
				continue
			}
			p := spec.Param(name)
			// The mode button applies to numeric parameters only.
			if p == nil || !numericKind(p.Kind) {
				continue
			}
			if g.ModeButton.Contains(cx, cy) {
				return ModeButtonHit{Node: n.ID, Param: name}
			}
		}
		return nil
	})
}

func (h *HitTester) hitBezierHandles(cx, cy float64) HitTarget {
	handleR := h.theme.Number("param.handleRadius", fallbackHandleRadius)
	return h.eachNodeTopFirst(func(n *NodeInstance, m *NodeMetrics) HitTarget {
		for name, g := range m.Params {
			if g.Editor.Width == 0 {
				continue
			}
			for i, hd := range g.Handles {
				dx := cx - hd.X
				dy := cy - hd.Y
				if dx*dx+dy*dy <= handleR*handleR {
					return BezierHandleHit{Node: n.ID, Param: name, Handle: i}
				}
			}
		}
		return nil
	})
}

func (h *HitTester) hitWidgets(cx, cy float64) HitTarget {
	margin := h.theme.Number("param.knobHitMargin", fallbackKnobHitMargin)
	return h.eachNodeTopFirst(func(n *NodeInstance, m *NodeMetrics) HitTarget {
		spec := h.catalog.Spec(n.TypeID)
		if spec == nil {
			return nil
		}
		for name, g := range m.Params {
			p := spec.Param(name)
			if p == nil || g.Widget.Width == 0 {
				continue
			}
			switch p.Kind {
			case ParamFloat, ParamInt, ParamToggle, ParamString:
				// Knob and toggle hits include a margin around the circle.
				if g.Widget.Inset(-margin).Contains(cx, cy) {
					return WidgetHit{Node: n.ID, Param: name, Kind: p.Kind}
				}
			case ParamEnum, ParamSlider:
				if g.Widget.Contains(cx, cy) {
					return WidgetHit{Node: n.ID, Param: name, Kind: p.Kind}
				}
			case ParamArray:
				if g.Widget.Contains(cx, cy) {
					cells := max(p.Size, 1)
					cellW := g.Widget.Width / float64(cells)
					cell := int((cx - g.Widget.X) / max(cellW, epsilon))
					cell = min(cell, cells-1)
					return WidgetHit{Node: n.ID, Param: name, Kind: p.Kind, Cell: cell}
				}
			}
		}
		return nil
	})
}

func (h *HitTester) hitPorts(cx, cy float64) HitTarget {
	radius := h.theme.Number("port.radius", fallbackPortRadius)
	// A fixed pixel margin is added to the visual radius so small ports stay
	// grabbable.
	hit := radius + h.theme.Number("port.hitMargin", fallbackPortHitMargin)
	hitSq := hit * hit
	return h.eachNodeTopFirst(func(n *NodeInstance, m *NodeMetrics) HitTarget {
		for key, c := range m.Ports {
			dx := cx - c.X
			dy := cy - c.Y
			if dx*dx+dy*dy <= hitSq {
				if len(key) > 7 && key[:7] == "output:" {
					return PortHit{Node: n.ID, Port: key[len("output:"):], Output: true}
				}
				return PortHit{Node: n.ID, Port: key[len("input:"):]}
			}
		}
		for name, g := range m.Params {
			if !g.HasPort {
				continue
			}
			dx := cx - g.Port.X
			dy := cy - g.Port.Y
			if dx*dx+dy*dy <= hitSq {
				return PortHit{Node: n.ID, Param: name}
			}
		}
		return nil
	})
}

func (h *HitTester) hitNodeBodies(cx, cy float64) HitTarget {
	return h.eachNodeTopFirst(func(n *NodeInstance, m *NodeMetrics) HitTarget {
		if m.Box.Contains(cx, cy) {
			return NodeHit{Node: n.ID, Header: m.Header.Contains(cx, cy)}
		}
		return nil
	})
}

func (h *HitTester) hitConnections(cx, cy float64) HitTarget {
	// The threshold is zoom-normalized: a constant number of screen pixels
	// regardless of zoom level.
	threshold := h.theme.Number("connection.hitThreshold", fallbackConnThreshold) / max(h.viewport.Zoom, epsilon)
	offset := h.theme.Number("connection.controlOffset", fallbackConnOffset)
	p := Vec2{X: cx, Y: cy}
	for i := len(h.graph.Connections) - 1; i >= 0; i-- {
		c := h.graph.Connections[i]
		src, dst, ok := h.connectionEndpoints(c)
		if !ok {
			continue
		}
		p1, p2 := connectionCurve(src, dst, offset)
		d := cubicNearestDistance(p, src, p1, p2, dst, connectionSamples(src, dst))
		if d <= threshold {
			return ConnectionHit{Connection: c.ID}
		}
	}
	return nil
}

// headerLabelAt reports whether the canvas point falls in the node's header
// text bounds. Used by the canvas for double-click rename promotion.
func (h *HitTester) headerLabelAt(id NodeID, cx, cy float64) bool {
	n := h.graph.Node(id)
	if n == nil {
		return false
	}
	m := h.metrics.Metrics(n)
	return m != nil && m.HeaderLabel.Contains(cx, cy)
}

// connectionEndpoints resolves a connection's port centers from current
// metrics. Missing nodes or ports make the connection invisible rather than
// an error.
func (h *HitTester) connectionEndpoints(c *Connection) (src, dst Vec2, ok bool) {
	return connectionEndpointsFor(h.graph, h.metrics, c)
}

// numericKind reports whether a parameter kind is adjusted by dragging.
func numericKind(k ParamKind) bool {
	switch k {
	case ParamFloat, ParamInt, ParamSlider, ParamArray:
		return true
	}
	return false
}
