package trellis

import "math"

// Drag sensitivity multipliers selected by held modifiers: Alt for fine
// adjustment, Shift for coarse.
const (
	sensitivityFine   = 0.1
	sensitivityNormal = 1.0
	sensitivityCoarse = 10.0
)

// dragPixelsPerRange is how many screen pixels of vertical drag sweep a
// parameter across its full range at normal sensitivity.
const dragPixelsPerRange = 200.0

// ParameterDragHandler adjusts parameters. Numeric kinds use vertical drag
// with modifier-scaled sensitivity; toggles and enums commit instantly on
// press. It also owns the parameter input-mode button, which cycles on
// press.
type ParameterDragHandler struct {
	node       NodeID
	param      string
	cell       int
	dragging   bool
	startValue float64
	startY     float64
	spec       *ParamSpec
}

// Priority implements Handler.
func (h *ParameterDragHandler) Priority() int { return 40 }

// CanHandle claims left presses on parameter widgets and mode buttons while
// the select tool is active.
func (h *ParameterDragHandler) CanHandle(c *Canvas, ev Event) bool {
	if ev.Kind != EventPress || ev.Button != MouseButtonLeft || c.Tool() != ToolSelect {
		return false
	}
	switch ev.Target.(type) {
	case WidgetHit, ModeButtonHit:
		return true
	}
	return false
}

// Start either commits an instant action (toggle, enum, mode cycle) or arms
// a numeric drag.
func (h *ParameterDragHandler) Start(c *Canvas, ev Event) {
	h.dragging = false
	h.spec = nil

	switch t := ev.Target.(type) {
	case ModeButtonHit:
		h.cycleMode(c, t)
	case WidgetHit:
		n := c.graph.Node(t.Node)
		if n == nil {
			return
		}
		spec := c.catalog.Spec(n.TypeID)
		if spec == nil {
			return
		}
		p := spec.Param(t.Param)
		if p == nil {
			return
		}
		switch p.Kind {
		case ParamToggle:
			v := n.ParamValue(p)
			if v.Number != 0 {
				v.Number = 0
			} else {
				v.Number = 1
			}
			h.commit(c, n, p, v)
		case ParamEnum:
			v := n.ParamValue(p)
			count := max(len(p.Options), 1)
			v.Number = float64((int(v.Number) + 1) % count)
			h.commit(c, n, p, v)
		case ParamString:
			h.editText(c, n, p)
		default:
			h.node = t.Node
			h.param = t.Param
			h.cell = t.Cell
			h.dragging = true
			h.startY = ev.ScreenY
			h.startValue = h.currentNumber(n, p, t.Cell)
			h.spec = p
		}
	}
}

// Update maps vertical screen-pixel movement to a value delta proportional
// to the parameter's range and the modifier-selected sensitivity. Dragging
// up increases the value.
func (h *ParameterDragHandler) Update(c *Canvas, ev Event) {
	if !h.dragging || h.spec == nil {
		return
	}
	n := c.graph.Node(h.node)
	if n == nil {
		return
	}

	sens := sensitivityNormal
	if ev.Modifiers&ModAlt != 0 {
		sens = sensitivityFine
	} else if ev.Modifiers&ModShift != 0 {
		sens = sensitivityCoarse
	}

	dy := h.startY - ev.ScreenY
	value := h.startValue + dy*(h.spec.Range()/dragPixelsPerRange)*sens
	value = min(h.spec.Max, max(h.spec.Min, value))
	if h.spec.Step > 0 {
		value = h.spec.Min + math.Round((value-h.spec.Min)/h.spec.Step)*h.spec.Step
	}
	if h.spec.Kind == ParamInt {
		value = math.Round(value)
	}

	v := n.ParamValue(h.spec)
	if h.spec.Kind == ParamArray {
		v.Values = append([]float64(nil), v.Values...)
		for len(v.Values) <= h.cell {
			v.Values = append(v.Values, h.spec.Default)
		}
		if v.Values[h.cell] == value {
			return
		}
		v.Values[h.cell] = value
	} else {
		if v.Number == value {
			return
		}
		v.Number = value
	}
	h.commit(c, n, h.spec, v)
}

// End implements Handler.
func (h *ParameterDragHandler) End(c *Canvas, ev Event) {
	h.dragging = false
	h.spec = nil
}

// commit stores the value, dirties the node, and notifies the observer.
func (h *ParameterDragHandler) commit(c *Canvas, n *NodeInstance, p *ParamSpec, v ParamValue) {
	if n.Params == nil {
		n.Params = make(map[string]ParamValue)
	}
	n.Params[p.Name] = v
	c.metrics.Invalidate(n.ID)
	c.render.MarkNode(n.ID)
	c.observer.ParameterChanged(n.ID, p.Name, v)
}

// cycleMode advances the parameter's input mode (override → add → subtract
// → multiply → override).
func (h *ParameterDragHandler) cycleMode(c *Canvas, t ModeButtonHit) {
	n := c.graph.Node(t.Node)
	if n == nil {
		return
	}
	mode := n.InputMode(t.Param).Next()
	if n.InputModes == nil {
		n.InputModes = make(map[string]InputMode)
	}
	n.InputModes[t.Param] = mode
	c.render.MarkNode(t.Node)
	c.observer.ParameterInputModeChanged(t.Node, t.Param, mode)
}

// editText opens the inline editor over a string parameter's value box.
func (h *ParameterDragHandler) editText(c *Canvas, n *NodeInstance, p *ParamSpec) {
	m := c.metrics.Metrics(n)
	if m == nil {
		return
	}
	g, ok := m.Params[p.Name]
	if !ok {
		return
	}
	rect := g.ValueBox
	if rect.Width == 0 {
		rect = g.Label
	}
	id := n.ID
	name := p.Name
	c.editor.Begin(c.viewport.CanvasRectToScreen(rect), n.ParamValue(p).Text,
		func(text string) {
			node := c.graph.Node(id)
			if node == nil {
				return
			}
			if node.Params == nil {
				node.Params = make(map[string]ParamValue)
			}
			v := node.Params[name]
			v.Text = text
			node.Params[name] = v
			c.metrics.Invalidate(id)
			c.render.MarkNode(id)
			c.observer.ParameterChanged(id, name, v)
		},
		func() {})
}

// currentNumber reads the value a numeric drag starts from.
func (h *ParameterDragHandler) currentNumber(n *NodeInstance, p *ParamSpec, cell int) float64 {
	v := n.ParamValue(p)
	if p.Kind == ParamArray {
		if cell < len(v.Values) {
			return v.Values[cell]
		}
		return p.Default
	}
	return v.Number
}
