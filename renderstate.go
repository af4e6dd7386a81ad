package trellis

// RenderState tracks what changed since the last render pass: dirty nodes,
// dirty connections, dirty layers, accumulated screen-space dirty
// rectangles, and a full-redraw escape hatch. Its job is to decide whether a
// render is worth scheduling and to bound incidental recomputation; the
// renderer always walks all visible content rather than patching pixels.
type RenderState struct {
	dirtyNodes  map[NodeID]struct{}
	dirtyConns  map[ConnectionID]struct{}
	dirtyLayers [layerCount]bool
	rects       []Rect
	full        bool
	requested   bool
}

// NewRenderState creates an empty render state.
func NewRenderState() *RenderState {
	return &RenderState{
		dirtyNodes: make(map[NodeID]struct{}),
		dirtyConns: make(map[ConnectionID]struct{}),
	}
}

// MarkNode records a node as needing redraw.
func (rs *RenderState) MarkNode(id NodeID) {
	rs.dirtyNodes[id] = struct{}{}
	rs.dirtyLayers[LayerNodes] = true
	rs.dirtyLayers[LayerPorts] = true
	rs.requested = true
}

// MarkConnection records a connection as needing redraw.
func (rs *RenderState) MarkConnection(id ConnectionID) {
	rs.dirtyConns[id] = struct{}{}
	rs.dirtyLayers[LayerConnections] = true
	rs.dirtyLayers[LayerParamConns] = true
	rs.requested = true
}

// MarkLayer records a whole layer as needing redraw.
func (rs *RenderState) MarkLayer(l Layer) {
	if l < layerCount {
		rs.dirtyLayers[l] = true
	}
	rs.requested = true
}

// ForceFull requests an unconditional full redraw. Any pan or zoom change
// lands here, since every element's screen position moves.
func (rs *RenderState) ForceFull() {
	rs.full = true
	rs.requested = true
}

// Requested reports whether anything since the last Clear wants a render.
func (rs *RenderState) Requested() bool {
	return rs.requested
}

// FullRedraw reports whether the next render must repaint everything.
func (rs *RenderState) FullRedraw() bool {
	return rs.full
}

// NodeDirty reports whether the node is currently marked.
func (rs *RenderState) NodeDirty(id NodeID) bool {
	_, ok := rs.dirtyNodes[id]
	return ok
}

// ConnectionDirty reports whether the connection is currently marked.
func (rs *RenderState) ConnectionDirty(id ConnectionID) bool {
	_, ok := rs.dirtyConns[id]
	return ok
}

// LayerDirty reports whether the layer is currently marked.
func (rs *RenderState) LayerDirty(l Layer) bool {
	return rs.full || (l < layerCount && rs.dirtyLayers[l])
}

// DirtyRects returns the accumulated screen-space rectangles. Only valid
// after BuildDirtyRects and before Clear.
func (rs *RenderState) DirtyRects() []Rect {
	return rs.rects
}

// Clear resets all dirty tracking. Called at the end of every render pass.
func (rs *RenderState) Clear() {
	clear(rs.dirtyNodes)
	clear(rs.dirtyConns)
	rs.dirtyLayers = [layerCount]bool{}
	rs.rects = rs.rects[:0]
	rs.full = false
	rs.requested = false
}

// Dirty-region pads in screen pixels. Wired-parameter nodes get the wide pad
// because their input-mode indicators extend outside the node box.
const (
	nodeDirtyPad      = 6.0
	nodeDirtyPadWired = 24.0
	connDirtyPad      = 8.0
)

// BuildDirtyRects converts dirty node/connection entries into screen-space
// rectangles through the current viewport. A region exceeding twice the
// viewport extent in each dimension degenerates into a full redraw: a guard
// against corrupt metrics producing unbounded regions, not an error.
func (rs *RenderState) BuildDirtyRects(graph *Graph, metrics *MetricsCache, viewport *Viewport) {
	if rs.full {
		return
	}
	limit := 2 * max(viewport.Width, epsilon) * 2 * max(viewport.Height, epsilon)

	for id := range rs.dirtyNodes {
		n := graph.Node(id)
		if n == nil {
			continue
		}
		m := metrics.Metrics(n)
		if m == nil {
			continue
		}
		pad := nodeDirtyPad
		if graph.HasWiredParam(id) {
			pad = nodeDirtyPadWired
		}
		r := viewport.CanvasRectToScreen(m.Box).Inset(-pad)
		if !rs.addRect(r, limit) {
			return
		}
	}

	offset := fallbackConnOffset
	for id := range rs.dirtyConns {
		c := graph.Connection(id)
		if c == nil {
			continue
		}
		src, dst, ok := connectionEndpointsFor(graph, metrics, c)
		if !ok {
			continue
		}
		p1, p2 := connectionCurve(src, dst, offset)
		r := viewport.CanvasRectToScreen(cubicBounds(src, p1, p2, dst)).Inset(-connDirtyPad)
		if !rs.addRect(r, limit) {
			return
		}
	}
}

// addRect appends a rect, or escalates to a full redraw when it exceeds the
// size limit. Returns false after escalating.
func (rs *RenderState) addRect(r Rect, areaLimit float64) bool {
	if r.Width*r.Height > areaLimit {
		rs.ForceFull()
		rs.rects = rs.rects[:0]
		return false
	}
	rs.rects = append(rs.rects, r)
	return true
}

// connectionEndpointsFor resolves a connection's endpoints without a
// HitTester. Shared by dirty-region math and the connection layers.
func connectionEndpointsFor(graph *Graph, metrics *MetricsCache, c *Connection) (src, dst Vec2, ok bool) {
	srcNode := graph.Node(c.SourceNode)
	dstNode := graph.Node(c.TargetNode)
	if srcNode == nil || dstNode == nil {
		return Vec2{}, Vec2{}, false
	}
	sm := metrics.Metrics(srcNode)
	dm := metrics.Metrics(dstNode)
	if sm == nil || dm == nil {
		return Vec2{}, Vec2{}, false
	}
	src, ok = sm.Ports[PortKey(true, c.SourcePort)]
	if !ok {
		return Vec2{}, Vec2{}, false
	}
	if c.TargetParam != "" {
		g, found := dm.Params[c.TargetParam]
		if !found || !g.HasPort {
			return Vec2{}, Vec2{}, false
		}
		return src, g.Port, true
	}
	dst, ok = dm.Ports[PortKey(false, c.TargetPort)]
	return src, dst, ok
}
