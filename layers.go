package trellis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// Default colors for the built-in look. Hosts override any of them through
// Theme color tokens.
var (
	fallbackBackground  = Color{R: 0.12, G: 0.12, B: 0.14, A: 1}
	fallbackGridLine    = Color{R: 0.18, G: 0.18, B: 0.21, A: 1}
	fallbackNodeFill    = Color{R: 0.22, G: 0.22, B: 0.26, A: 1}
	fallbackNodeStroke  = Color{R: 0.35, G: 0.35, B: 0.40, A: 1}
	fallbackHeaderFill  = Color{R: 0.28, G: 0.28, B: 0.34, A: 1}
	fallbackSelection   = Color{R: 0.95, G: 0.65, B: 0.20, A: 1}
	fallbackConnLine    = Color{R: 0.55, G: 0.60, B: 0.70, A: 1}
	fallbackParamConn   = Color{R: 0.45, G: 0.70, B: 0.55, A: 1}
	fallbackPortFill    = Color{R: 0.70, G: 0.75, B: 0.85, A: 1}
	fallbackText        = Color{R: 0.88, G: 0.88, B: 0.90, A: 1}
	fallbackDimText     = Color{R: 0.60, G: 0.60, B: 0.65, A: 1}
	fallbackWidgetFill  = Color{R: 0.32, G: 0.32, B: 0.38, A: 1}
	fallbackAccent      = Color{R: 0.40, G: 0.65, B: 0.95, A: 1}
	fallbackGuideLine   = Color{R: 0.95, G: 0.35, B: 0.55, A: 1}
	fallbackTempSnap    = Color{R: 0.45, G: 0.85, B: 0.55, A: 1}
	fallbackMarqueeFill = Color{R: 0.40, G: 0.65, B: 0.95, A: 0.15}
)

// LayerManager paints the canvas in fixed layer order: grid, connections,
// parameter connections, nodes, ports, overlay. Each pass culls against the
// visible canvas bounds before touching geometry.
type LayerManager struct {
	canvas *Canvas
	face   text.Face
}

// NewLayerManager creates the layer stack for a canvas. Text uses a built-in
// bitmap face unless the host installs another through SetFace.
func NewLayerManager(c *Canvas) *LayerManager {
	return &LayerManager{
		canvas: c,
		face:   text.NewGoXFace(basicfont.Face7x13),
	}
}

// SetFace replaces the text face used for labels and value readouts.
func (lm *LayerManager) SetFace(face text.Face) {
	lm.face = face
	lm.canvas.render.ForceFull()
}

// Render repaints the cached frame. All six layers paint every call; the
// dirty bookkeeping in RenderState decides when Render runs, not what it
// draws, so the frame is always internally consistent.
func (lm *LayerManager) Render(frame *ebiten.Image) {
	c := lm.canvas
	frame.Fill(c.theme.Color("canvas.background", fallbackBackground).toRGBA())

	visible := c.viewport.VisibleBounds()
	lm.drawGrid(frame)
	lm.drawConnections(frame, visible, false)
	lm.drawConnections(frame, visible, true)
	lm.drawNodes(frame, visible)
	lm.drawPorts(frame, visible)
	lm.drawOverlay(frame, visible)

	if c.debug {
		c.stats.record(len(c.graph.Nodes), len(c.graph.Connections), c.render.FullRedraw())
	}
}

// --- Grid ---

// drawGrid paints the background grid in screen space. Line spacing scales
// with zoom; when zoomed far out the grid coarsens by powers of two so lines
// never crowd below half the base spacing.
func (lm *LayerManager) drawGrid(frame *ebiten.Image) {
	c := lm.canvas
	spacing := c.theme.Number("grid.spacing", fallbackGridSpacing)
	if spacing <= 0 {
		return
	}
	col := c.theme.Color("grid.line", fallbackGridLine).toRGBA()

	step := spacing * c.viewport.Zoom
	for step < spacing/2 {
		step *= 2
	}

	w := c.viewport.Width
	h := c.viewport.Height
	// First grid line at or left of the viewport origin, in frame coords.
	offX := math.Mod(c.viewport.PanX, step)
	if offX < 0 {
		offX += step
	}
	offY := math.Mod(c.viewport.PanY, step)
	if offY < 0 {
		offY += step
	}
	for x := offX; x <= w; x += step {
		vector.StrokeLine(frame, float32(x), 0, float32(x), float32(h), 1, col, false)
	}
	for y := offY; y <= h; y += step {
		vector.StrokeLine(frame, 0, float32(y), float32(w), float32(y), 1, col, false)
	}
}

// --- Connections ---

// drawConnections paints wire curves. paramPass selects parameter-input
// connections, which draw above regular port wires in a distinct color.
func (lm *LayerManager) drawConnections(frame *ebiten.Image, visible Rect, paramPass bool) {
	c := lm.canvas
	offset := c.theme.Number("connection.controlOffset", fallbackConnOffset)
	lineCol := c.theme.Color("connection.line", fallbackConnLine)
	if paramPass {
		lineCol = c.theme.Color("connection.paramLine", fallbackParamConn)
	}
	selCol := c.theme.Color("canvas.selection", fallbackSelection)

	for _, conn := range c.graph.Connections {
		if (conn.TargetParam != "") != paramPass {
			continue
		}
		src, dst, ok := connectionEndpointsFor(c.graph, c.metrics, conn)
		if !ok {
			continue
		}
		p1, p2 := connectionCurve(src, dst, offset)
		if !cubicBounds(src, p1, p2, dst).Intersects(visible) {
			continue
		}
		col := lineCol
		width := 2.0
		if c.state.ConnectionSelected(conn.ID) {
			col = selCol
			width = 3.0
		}
		lm.strokeCubic(frame, src, p1, p2, dst, width, col, false)
	}
}

// strokeCubic flattens a cubic into line segments in frame space. Dashed
// curves skip every other segment.
func (lm *LayerManager) strokeCubic(frame *ebiten.Image, p0, p1, p2, p3 Vec2, width float64, col Color, dashed bool) {
	rgba := col.toRGBA()
	samples := connectionSamples(p0, p3)
	px, py := lm.framePoint(cubicPoint(p0, p1, p2, p3, 0))
	for i := 1; i <= samples; i++ {
		t := float64(i) / float64(samples)
		x, y := lm.framePoint(cubicPoint(p0, p1, p2, p3, t))
		if !dashed || i%2 == 1 {
			vector.StrokeLine(frame, float32(px), float32(py), float32(x), float32(y), float32(width), rgba, true)
		}
		px, py = x, y
	}
}

// framePoint converts a canvas point to frame (viewport-local screen) coords.
func (lm *LayerManager) framePoint(p Vec2) (x, y float64) {
	sx, sy := lm.canvas.viewport.CanvasToScreen(p.X, p.Y)
	return sx - lm.canvas.viewport.OriginX, sy - lm.canvas.viewport.OriginY
}

// frameRect converts a canvas rect to frame coords.
func (lm *LayerManager) frameRect(r Rect) Rect {
	x, y := lm.framePoint(Vec2{X: r.X, Y: r.Y})
	z := lm.canvas.viewport.Zoom
	return Rect{X: x, Y: y, Width: r.Width * z, Height: r.Height * z}
}

// --- Nodes ---

// drawNodes paints node boxes, headers, labels, and parameter widgets for
// every visible node in paint order.
func (lm *LayerManager) drawNodes(frame *ebiten.Image, visible Rect) {
	c := lm.canvas
	for _, n := range c.graph.Nodes {
		m := c.metrics.Metrics(n)
		if m == nil || !m.Box.Intersects(visible) {
			continue
		}
		lm.drawNode(frame, n, m)
	}
}

func (lm *LayerManager) drawNode(frame *ebiten.Image, n *NodeInstance, m *NodeMetrics) {
	c := lm.canvas
	spec := c.catalog.Spec(n.TypeID)
	if spec == nil {
		// Metrics may outlive a spec removed from the catalog.
		return
	}
	selected := c.state.NodeSelected(n.ID)

	box := lm.frameRect(m.Box)
	lm.fillRect(frame, box, c.theme.Color("node.fill", fallbackNodeFill))
	header := lm.frameRect(m.Header)
	lm.fillRect(frame, header, c.theme.Color("node.headerFill", fallbackHeaderFill))

	stroke := c.theme.Color("node.stroke", fallbackNodeStroke)
	strokeW := 1.0
	if selected {
		stroke = c.theme.Color("canvas.selection", fallbackSelection)
		strokeW = 2.0
	}
	lm.strokeRect(frame, box, strokeW, stroke)

	label := n.Label
	if label == "" {
		label = spec.Label
	}
	lm.drawText(frame, label, lm.frameRect(m.HeaderLabel), c.theme.Color("node.text", fallbackText))

	if selected {
		del := lm.frameRect(m.DeleteButton)
		lm.fillRect(frame, del, c.theme.Color("node.deleteFill", Color{R: 0.75, G: 0.25, B: 0.25, A: 1}))
		lm.drawText(frame, "x", del, c.theme.Color("node.text", fallbackText))
	}

	if n.Collapsed {
		return
	}

	textCol := c.theme.Color("node.text", fallbackText)
	dimCol := c.theme.Color("node.dimText", fallbackDimText)
	for key, badge := range m.PortTypes {
		output := len(key) > 7 && key[:7] == "output:"
		name := key[len("input:"):]
		if output {
			name = key[len("output:"):]
		}
		var port *PortSpec
		if output {
			port = spec.Output(name)
		} else {
			port = spec.Input(name)
		}
		if port == nil {
			continue
		}
		r := lm.frameRect(badge)
		lm.fillRect(frame, r, c.theme.Color("port.badgeFill", fallbackWidgetFill))
		lm.drawText(frame, port.Type, r, dimCol)
	}

	for i := range spec.Params {
		p := &spec.Params[i]
		g, ok := m.Params[p.Name]
		if !ok {
			continue
		}
		lm.drawParam(frame, n, p, g, textCol, dimCol)
	}
}

// drawParam paints one parameter row: label, widget, value readout, and the
// input-mode button when the parameter is wireable.
func (lm *LayerManager) drawParam(frame *ebiten.Image, n *NodeInstance, p *ParamSpec, g ParamGeometry, textCol, dimCol Color) {
	c := lm.canvas
	wired := c.graph.IncomingTo(n.ID, "", p.Name) != nil
	v := lm.displayValue(n, p, wired)
	widgetCol := c.theme.Color("param.widgetFill", fallbackWidgetFill)
	accent := c.theme.Color("param.accent", fallbackAccent)

	if g.Label.Width > 0 {
		lm.drawText(frame, p.Name, lm.frameRect(g.Label), dimCol)
	}

	switch p.Kind {
	case ParamFloat, ParamInt, ParamString:
		lm.drawKnob(frame, g.Widget, knobFraction(p, v.Number), widgetCol, accent)
		if p.Kind == ParamString {
			lm.drawText(frame, v.Text, lm.frameRect(g.ValueBox), textCol)
		} else {
			lm.drawText(frame, formatNumber(v.Number), lm.frameRect(g.ValueBox), textCol)
		}
	case ParamToggle:
		r := lm.frameRect(g.Widget)
		lm.fillRect(frame, r, widgetCol)
		if v.Number != 0 {
			lm.fillRect(frame, r.Inset(3), accent)
		}
	case ParamEnum:
		r := lm.frameRect(g.Widget)
		lm.fillRect(frame, r, widgetCol)
		idx := int(v.Number)
		if idx >= 0 && idx < len(p.Options) {
			lm.drawText(frame, p.Options[idx], r, textCol)
		}
	case ParamSlider:
		r := lm.frameRect(g.Widget)
		track := Rect{X: r.X, Y: r.Y + r.Height/2 - 1.5, Width: r.Width, Height: 3}
		lm.fillRect(frame, track, widgetCol)
		t := knobFraction(p, v.Number)
		hx := r.X + t*r.Width
		vector.DrawFilledCircle(frame, float32(hx), float32(r.Y+r.Height/2), 6, accent.toRGBA(), true)
		lm.drawText(frame, formatNumber(v.Number), lm.frameRect(g.ValueBox), textCol)
	case ParamArray:
		r := lm.frameRect(g.Widget)
		cells := max(p.Size, 1)
		cellW := r.Width / float64(cells)
		for i := 0; i < cells; i++ {
			cr := Rect{X: r.X + float64(i)*cellW + 1, Y: r.Y, Width: cellW - 2, Height: r.Height}
			lm.fillRect(frame, cr, widgetCol)
			cv := p.Default
			if i < len(v.Values) {
				cv = v.Values[i]
			}
			lm.drawText(frame, formatNumber(cv), cr, textCol)
		}
	case ParamBezier:
		lm.drawBezierEditor(frame, g, v.Values, widgetCol, accent)
	}

	if g.HasPort {
		lm.drawModeButton(frame, n, p, g, dimCol)
	}
	if wired {
		// A wired parameter shows a live-value tint on its widget outline.
		lm.strokeRect(frame, lm.frameRect(g.Widget), 1, c.theme.Color("connection.paramLine", fallbackParamConn))
	}
}

// displayValue picks what a parameter row shows: the live effective value
// while wired and resolvable, the stored static value otherwise.
func (lm *LayerManager) displayValue(n *NodeInstance, p *ParamSpec, wired bool) ParamValue {
	c := lm.canvas
	v := n.ParamValue(p)
	if wired && c.resolver != nil {
		if ev, ok := c.resolver.EffectiveValue(n.ID, p.Name); ok {
			v.Number = ev
		}
	}
	return v
}

// drawKnob paints a circular knob with an indicator line at the value angle.
// The sweep runs 270 degrees from the lower-left to the lower-right.
func (lm *LayerManager) drawKnob(frame *ebiten.Image, widget Rect, t float64, fill, accent Color) {
	r := lm.frameRect(widget)
	cx := r.X + r.Width/2
	cy := r.Y + r.Height/2
	radius := r.Width / 2
	vector.DrawFilledCircle(frame, float32(cx), float32(cy), float32(radius), fill.toRGBA(), true)
	angle := math.Pi*0.75 + t*math.Pi*1.5
	ex := cx + math.Cos(angle)*radius*0.8
	ey := cy + math.Sin(angle)*radius*0.8
	vector.StrokeLine(frame, float32(cx), float32(cy), float32(ex), float32(ey), 2, accent.toRGBA(), true)
}

// drawBezierEditor paints the curve preview plus its two control handles.
func (lm *LayerManager) drawBezierEditor(frame *ebiten.Image, g ParamGeometry, vals []float64, fill, accent Color) {
	r := lm.frameRect(g.Editor)
	lm.fillRect(frame, r, fill)

	// Endpoints are fixed at (0,0) and (1,1) in curve space.
	p0 := Vec2{X: g.Editor.X, Y: g.Editor.Y + g.Editor.Height}
	p3 := Vec2{X: g.Editor.X + g.Editor.Width, Y: g.Editor.Y}
	h := bezierHandles(g.Editor, vals)
	lm.strokeCubic(frame, p0, h[0], h[1], p3, 1.5, accent, false)

	dim := Color{R: accent.R, G: accent.G, B: accent.B, A: accent.A * 0.5}
	for i, hd := range h {
		anchor := p0
		if i == 1 {
			anchor = p3
		}
		ax, ay := lm.framePoint(anchor)
		hx, hy := lm.framePoint(hd)
		vector.StrokeLine(frame, float32(ax), float32(ay), float32(hx), float32(hy), 1, dim.toRGBA(), true)
		vector.DrawFilledCircle(frame, float32(hx), float32(hy), 4, accent.toRGBA(), true)
	}
}

// drawModeButton paints the input-mode glyph beside a wireable parameter.
func (lm *LayerManager) drawModeButton(frame *ebiten.Image, n *NodeInstance, p *ParamSpec, g ParamGeometry, dimCol Color) {
	c := lm.canvas
	r := lm.frameRect(g.ModeButton)
	lm.fillRect(frame, r, c.theme.Color("param.widgetFill", fallbackWidgetFill))
	lm.drawText(frame, modeGlyph(n.InputMode(p.Name)), r, dimCol)
}

// modeGlyph is the single-character label for an input mode.
func modeGlyph(m InputMode) string {
	switch m {
	case InputModeAdd:
		return "+"
	case InputModeSubtract:
		return "-"
	case InputModeMultiply:
		return "*"
	}
	return "="
}

// knobFraction normalizes a value into [0, 1] over the parameter range.
func knobFraction(p *ParamSpec, v float64) float64 {
	t := (v - p.Min) / p.Range()
	return min(1, max(0, t))
}

// formatNumber renders a numeric readout, trimming trailing float noise.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e9 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// --- Ports ---

// drawPorts paints port circles above node bodies so connection endpoints
// stay visible when nodes overlap.
func (lm *LayerManager) drawPorts(frame *ebiten.Image, visible Rect) {
	c := lm.canvas
	radius := c.theme.Number("port.radius", fallbackPortRadius) * c.viewport.Zoom
	fill := c.theme.Color("port.fill", fallbackPortFill).toRGBA()
	paramFill := c.theme.Color("connection.paramLine", fallbackParamConn).toRGBA()

	for _, n := range c.graph.Nodes {
		m := c.metrics.Metrics(n)
		if m == nil || !m.Box.Inset(-fallbackPortRadius).Intersects(visible) {
			continue
		}
		for _, center := range m.Ports {
			x, y := lm.framePoint(center)
			vector.DrawFilledCircle(frame, float32(x), float32(y), float32(radius), fill, true)
		}
		for _, g := range m.Params {
			if !g.HasPort {
				continue
			}
			x, y := lm.framePoint(g.Port)
			vector.DrawFilledCircle(frame, float32(x), float32(y), float32(radius), paramFill, true)
		}
	}
}

// --- Overlay ---

// drawOverlay paints transient interaction chrome: the in-progress wire, the
// smart guides, and the selection marquee.
func (lm *LayerManager) drawOverlay(frame *ebiten.Image, visible Rect) {
	c := lm.canvas
	offset := c.theme.Number("connection.controlOffset", fallbackConnOffset)

	if t := c.temp; t != nil {
		end := t.To
		col := c.theme.Color("connection.line", fallbackConnLine)
		dashed := true
		if t.Snapped {
			// Snapped previews draw solid to the snap target.
			end = t.SnapPos
			col = c.theme.Color("connection.snap", fallbackTempSnap)
			dashed = false
		}
		src, dst := t.From, end
		if !t.FromOutput {
			src, dst = end, t.From
		}
		p1, p2 := connectionCurve(src, dst, offset)
		lm.strokeCubic(frame, src, p1, p2, dst, 2, col, dashed)
		if t.Snapped {
			x, y := lm.framePoint(t.SnapPos)
			vector.StrokeCircle(frame, float32(x), float32(y), 8, 2, col.toRGBA(), true)
		}
	}

	if len(c.activeGuides) > 0 {
		col := c.theme.Color("guide.line", fallbackGuideLine).toRGBA()
		for _, g := range c.activeGuides {
			if g.Vertical {
				x1, y1 := lm.framePoint(Vec2{X: g.Pos, Y: g.From})
				x2, y2 := lm.framePoint(Vec2{X: g.Pos, Y: g.To})
				vector.StrokeLine(frame, float32(x1), float32(y1), float32(x2), float32(y2), 1, col, false)
			} else {
				x1, y1 := lm.framePoint(Vec2{X: g.From, Y: g.Pos})
				x2, y2 := lm.framePoint(Vec2{X: g.To, Y: g.Pos})
				vector.StrokeLine(frame, float32(x1), float32(y1), float32(x2), float32(y2), 1, col, false)
			}
		}
	}

	if r := c.selectionRect; r != nil {
		fr := lm.frameRect(*r)
		lm.fillRect(frame, fr, c.theme.Color("selection.fill", fallbackMarqueeFill))
		lm.strokeRect(frame, fr, 1, c.theme.Color("param.accent", fallbackAccent))
	}
}

// --- Primitives ---

func (lm *LayerManager) fillRect(frame *ebiten.Image, r Rect, col Color) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	vector.DrawFilledRect(frame, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), col.toRGBA(), false)
}

func (lm *LayerManager) strokeRect(frame *ebiten.Image, r Rect, width float64, col Color) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	vector.StrokeRect(frame, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), float32(width), col.toRGBA(), false)
}

// drawText renders a string centered vertically in r, left-aligned with a
// small inset, clipped only by ebiten's own glyph bounds.
func (lm *LayerManager) drawText(frame *ebiten.Image, s string, r Rect, col Color) {
	if s == "" || lm.face == nil {
		return
	}
	op := &text.DrawOptions{}
	met := lm.face.Metrics()
	op.GeoM.Translate(r.X+3, r.Y+(r.Height-(met.HAscent+met.HDescent))/2)
	op.ColorScale.ScaleWithColor(col.toRGBA())
	text.Draw(frame, s, lm.face, op)
}

// debugString summarizes the layer stack for the debug overlay.
func (lm *LayerManager) debugString() string {
	c := lm.canvas
	return fmt.Sprintf("nodes=%d conns=%d zoom=%.2f", len(c.graph.Nodes), len(c.graph.Connections), c.viewport.Zoom)
}
