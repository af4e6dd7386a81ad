package trellis

import "time"

// bezierNotifyInterval throttles observer callbacks while a control point is
// being dragged; the final value always flushes on release.
const bezierNotifyInterval = 16 * time.Millisecond

// BezierControlDragHandler drags one of the two control points of a bezier
// editor widget. The point is clamped to the editor rectangle and stored
// normalized to the unit square with Y up.
type BezierControlDragHandler struct {
	node   NodeID
	param  string
	handle int

	lastNotify time.Time
	pending    bool
	value      ParamValue
}

// Priority implements Handler.
func (h *BezierControlDragHandler) Priority() int { return 35 }

// CanHandle claims left presses on bezier control points while the select
// tool is active.
func (h *BezierControlDragHandler) CanHandle(c *Canvas, ev Event) bool {
	if ev.Kind != EventPress || ev.Button != MouseButtonLeft || c.Tool() != ToolSelect {
		return false
	}
	_, ok := ev.Target.(BezierHandleHit)
	return ok
}

// Start records which control point is being dragged.
func (h *BezierControlDragHandler) Start(c *Canvas, ev Event) {
	t := ev.Target.(BezierHandleHit)
	h.node = t.Node
	h.param = t.Param
	h.handle = t.Handle
	h.pending = false
	h.lastNotify = time.Time{}
}

// Update moves the control point to the pointer, clamped to the editor.
func (h *BezierControlDragHandler) Update(c *Canvas, ev Event) {
	n := c.graph.Node(h.node)
	if n == nil {
		return
	}
	spec := c.catalog.Spec(n.TypeID)
	if spec == nil {
		return
	}
	p := spec.Param(h.param)
	if p == nil {
		return
	}
	m := c.metrics.Metrics(n)
	if m == nil {
		return
	}
	g, ok := m.Params[h.param]
	if !ok || g.Editor.Width == 0 {
		return
	}

	// Normalize into the editor rect; screen Y grows down, curve Y grows up.
	u := (ev.CanvasX - g.Editor.X) / max(g.Editor.Width, epsilon)
	w := 1 - (ev.CanvasY-g.Editor.Y)/max(g.Editor.Height, epsilon)
	u = min(1, max(0, u))
	w = min(1, max(0, w))

	v := n.ParamValue(p)
	vals := append([]float64(nil), v.Values...)
	for len(vals) < 4 {
		vals = append(vals, 0)
	}
	if vals[h.handle*2] == u && vals[h.handle*2+1] == w {
		return
	}
	vals[h.handle*2] = u
	vals[h.handle*2+1] = w
	v.Values = vals

	if n.Params == nil {
		n.Params = make(map[string]ParamValue)
	}
	n.Params[h.param] = v
	c.metrics.Invalidate(h.node)
	c.render.MarkNode(h.node)

	h.value = v
	h.pending = true
	now := time.Now()
	if now.Sub(h.lastNotify) >= bezierNotifyInterval {
		h.lastNotify = now
		h.pending = false
		c.observer.ParameterChanged(h.node, h.param, v)
	}
}

// End flushes any throttled value so the host always sees the final curve.
func (h *BezierControlDragHandler) End(c *Canvas, ev Event) {
	if h.pending {
		h.pending = false
		c.observer.ParameterChanged(h.node, h.param, h.value)
	}
}
