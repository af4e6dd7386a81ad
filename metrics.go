package trellis

// PortKey builds the NodeMetrics port-map key for a regular port.
func PortKey(output bool, name string) string {
	if output {
		return "output:" + name
	}
	return "input:" + name
}

// ParamGeometry holds the cached canvas-space geometry of one parameter row.
type ParamGeometry struct {
	Row      Rect // full row area inside the node box
	Label    Rect // parameter name text bounds
	Widget   Rect // knob/toggle/enum/slider/array widget bounds
	ValueBox Rect // numeric value readout
	Port     Vec2 // parameter input port center (valid when HasPort)
	HasPort  bool
	// ModeButton sits outside the left edge of the node box, so nodes with
	// wired parameters need a wider dirty pad.
	ModeButton Rect
	// Bezier editor geometry (ParamBezier only).
	Editor  Rect
	Handles [2]Vec2
}

// NodeMetrics is the cached canvas-space layout of one node: its box, header,
// port centers, and parameter widget geometry. Computed lazily and
// invalidated whenever the node's position, parameters, collapsed state, or
// spec changes; never persisted.
type NodeMetrics struct {
	Box          Rect
	Header       Rect
	HeaderLabel  Rect
	DeleteButton Rect
	Ports        map[string]Vec2 // PortKey(output, name) -> center
	PortTypes    map[string]Rect // PortKey -> type badge bounds
	Params       map[string]ParamGeometry
}

type metricsEntry struct {
	m         *NodeMetrics
	x, y      float64
	collapsed bool
	valid     bool
}

// MetricsCache computes and caches NodeMetrics per node.
type MetricsCache struct {
	catalog SpecCatalog
	theme   Theme
	entries map[NodeID]*metricsEntry
}

// NewMetricsCache creates an empty cache resolving node types through catalog
// and sizes through theme.
func NewMetricsCache(catalog SpecCatalog, theme Theme) *MetricsCache {
	if theme == nil {
		theme = defaultTheme
	}
	return &MetricsCache{
		catalog: catalog,
		theme:   theme,
		entries: make(map[NodeID]*metricsEntry),
	}
}

// Invalidate drops the cached metrics for one node. Call after a parameter,
// label, or spec change; position and collapse changes are detected
// automatically.
func (mc *MetricsCache) Invalidate(id NodeID) {
	if e, ok := mc.entries[id]; ok {
		e.valid = false
	}
}

// InvalidateAll drops every cached entry.
func (mc *MetricsCache) InvalidateAll() {
	for _, e := range mc.entries {
		e.valid = false
	}
}

// Remove forgets a deleted node.
func (mc *MetricsCache) Remove(id NodeID) {
	delete(mc.entries, id)
}

// Metrics returns current metrics for the node, recomputing if stale.
// Returns nil when the node's type has no registered spec.
func (mc *MetricsCache) Metrics(n *NodeInstance) *NodeMetrics {
	e := mc.entries[n.ID]
	if e != nil && e.valid && e.x == n.X && e.y == n.Y && e.collapsed == n.Collapsed {
		return e.m
	}
	spec := mc.catalog.Spec(n.TypeID)
	if spec == nil {
		return nil
	}
	m := mc.layout(n, spec)
	mc.entries[n.ID] = &metricsEntry{m: m, x: n.X, y: n.Y, collapsed: n.Collapsed, valid: true}
	return m
}

// layout computes the full canvas-space geometry for one node.
func (mc *MetricsCache) layout(n *NodeInstance, spec *NodeSpec) *NodeMetrics {
	width := mc.theme.Number("node.width", fallbackNodeWidth)
	headerH := mc.theme.Number("node.headerHeight", fallbackHeaderHeight)
	rowH := mc.theme.Number("node.rowHeight", fallbackRowHeight)
	bezierH := mc.theme.Number("param.bezierHeight", fallbackBezierHeight)
	knobR := mc.theme.Number("param.knobRadius", fallbackKnobRadius)
	pad := mc.theme.Number("node.padding", 8)

	width = max(width, epsilon)
	headerH = max(headerH, epsilon)
	rowH = max(rowH, epsilon)

	m := &NodeMetrics{
		Ports:     make(map[string]Vec2),
		PortTypes: make(map[string]Rect),
		Params:    make(map[string]ParamGeometry),
	}

	height := headerH
	if !n.Collapsed {
		height += float64(len(spec.Inputs)+len(spec.Outputs)) * rowH
		for i := range spec.Params {
			if spec.Params[i].Kind == ParamBezier {
				height += bezierH
			} else {
				height += rowH
			}
		}
	}

	m.Box = Rect{X: n.X, Y: n.Y, Width: width, Height: height}
	m.Header = Rect{X: n.X, Y: n.Y, Width: width, Height: headerH}
	delSize := headerH * 0.6
	m.DeleteButton = Rect{
		X:      n.X + width - delSize - pad/2,
		Y:      n.Y + (headerH-delSize)/2,
		Width:  delSize,
		Height: delSize,
	}
	m.HeaderLabel = Rect{X: n.X + pad, Y: n.Y, Width: width - delSize - 2*pad, Height: headerH}

	if n.Collapsed {
		// Collapsed nodes pin every port to the header edges.
		cy := n.Y + headerH/2
		for _, p := range spec.Inputs {
			m.Ports[PortKey(false, p.Name)] = Vec2{X: n.X, Y: cy}
		}
		for _, p := range spec.Outputs {
			m.Ports[PortKey(true, p.Name)] = Vec2{X: n.X + width, Y: cy}
		}
		return m
	}

	badgeW := mc.theme.Number("port.badgeWidth", 34.0)
	badgeH := mc.theme.Number("port.badgeHeight", 14.0)
	y := n.Y + headerH

	for _, p := range spec.Inputs {
		cy := y + rowH/2
		key := PortKey(false, p.Name)
		m.Ports[key] = Vec2{X: n.X, Y: cy}
		m.PortTypes[key] = Rect{X: n.X + pad, Y: cy - badgeH/2, Width: badgeW, Height: badgeH}
		y += rowH
	}

	modeW := mc.theme.Number("param.modeButtonWidth", 16.0)
	valueW := mc.theme.Number("param.valueWidth", 48.0)
	for i := range spec.Params {
		p := &spec.Params[i]
		h := rowH
		if p.Kind == ParamBezier {
			h = bezierH
		}
		g := ParamGeometry{
			Row:     Rect{X: n.X, Y: y, Width: width, Height: h},
			HasPort: p.HasPort,
		}
		cy := y + min(h, rowH)/2
		if p.HasPort {
			g.Port = Vec2{X: n.X, Y: cy}
			g.ModeButton = Rect{X: n.X - modeW - 2, Y: cy - modeW/2, Width: modeW, Height: modeW}
		}

		switch p.Kind {
		case ParamBezier:
			g.Editor = Rect{X: n.X + pad, Y: y + 4, Width: width - 2*pad, Height: h - 8}
			vals := n.ParamValue(p).Values
			g.Handles = bezierHandles(g.Editor, vals)
		case ParamToggle:
			g.Widget = Rect{X: n.X + pad, Y: cy - knobR, Width: 2 * knobR, Height: 2 * knobR}
			g.Label = Rect{X: g.Widget.X + g.Widget.Width + pad, Y: y, Width: width - g.Widget.Width - 3*pad, Height: rowH}
		case ParamEnum:
			g.Label = Rect{X: n.X + pad, Y: y, Width: width/2 - pad, Height: rowH}
			g.Widget = Rect{X: n.X + width/2, Y: y + 3, Width: width/2 - pad, Height: rowH - 6}
		case ParamSlider:
			g.Label = Rect{X: n.X + pad, Y: y, Width: width / 3, Height: rowH}
			g.Widget = Rect{X: n.X + width/3 + pad, Y: y + 3, Width: width - width/3 - valueW - 3*pad, Height: rowH - 6}
			g.ValueBox = Rect{X: n.X + width - valueW - pad, Y: y + 3, Width: valueW, Height: rowH - 6}
		case ParamArray:
			g.Label = Rect{X: n.X + pad, Y: y, Width: width / 3, Height: rowH}
			g.Widget = Rect{X: n.X + width/3 + pad, Y: y + 3, Width: width - width/3 - 2*pad, Height: rowH - 6}
		default: // ParamFloat, ParamInt, ParamString
			g.Widget = Rect{X: n.X + pad, Y: cy - knobR, Width: 2 * knobR, Height: 2 * knobR}
			g.Label = Rect{X: g.Widget.X + g.Widget.Width + pad, Y: y, Width: width - g.Widget.Width - valueW - 3*pad, Height: rowH}
			g.ValueBox = Rect{X: n.X + width - valueW - pad, Y: y + 3, Width: valueW, Height: rowH - 6}
		}

		m.Params[p.Name] = g
		y += h
	}

	for _, p := range spec.Outputs {
		cy := y + rowH/2
		key := PortKey(true, p.Name)
		m.Ports[key] = Vec2{X: n.X + width, Y: cy}
		m.PortTypes[key] = Rect{X: n.X + width - pad - badgeW, Y: cy - badgeH/2, Width: badgeW, Height: badgeH}
		y += rowH
	}

	return m
}

// bezierHandles maps a 4-value bezier parameter (x1, y1, x2, y2 in [0,1]²)
// to canvas positions inside the editor rect. Y is flipped: value 0 sits at
// the editor bottom.
func bezierHandles(editor Rect, vals []float64) [2]Vec2 {
	v := [4]float64{0.25, 0.25, 0.75, 0.75}
	for i := 0; i < len(vals) && i < 4; i++ {
		v[i] = min(1, max(0, vals[i]))
	}
	w := max(editor.Width, epsilon)
	h := max(editor.Height, epsilon)
	return [2]Vec2{
		{X: editor.X + v[0]*w, Y: editor.Y + (1-v[1])*h},
		{X: editor.X + v[2]*w, Y: editor.Y + (1-v[3])*h},
	}
}
