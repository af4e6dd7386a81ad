package trellis

import (
	"fmt"
	"testing"
)

// recordingObserver logs mutation callbacks and applies structural ones to
// the graph, the way a real host would.
type recordingObserver struct {
	graph  *Graph
	events []string
}

func (o *recordingObserver) log(format string, args ...any) {
	o.events = append(o.events, fmt.Sprintf(format, args...))
}

func (o *recordingObserver) NodeMoved(id NodeID, x, y float64) {
	o.log("moved %s %.0f %.0f", id, x, y)
}

func (o *recordingObserver) NodeSelected(id NodeID, multi bool) {
	o.log("selected %s %v", id, multi)
}

func (o *recordingObserver) NodeDeleted(id NodeID) {
	o.log("deleted %s", id)
}

func (o *recordingObserver) NodeLabelChanged(id NodeID, label string) {
	o.log("renamed %s %q", id, label)
}

func (o *recordingObserver) ConnectionCreated(srcNode NodeID, srcPort string, dstNode NodeID, dstPort, dstParam string) {
	o.log("connected %s.%s -> %s.%s%s", srcNode, srcPort, dstNode, dstPort, dstParam)
	if o.graph != nil {
		id := ConnectionID(fmt.Sprintf("%s.%s>%s.%s%s", srcNode, srcPort, dstNode, dstPort, dstParam))
		o.graph.AddConnection(&Connection{
			ID:         id,
			SourceNode: srcNode, SourcePort: srcPort,
			TargetNode: dstNode, TargetPort: dstPort, TargetParam: dstParam,
		})
	}
}

func (o *recordingObserver) ConnectionSelected(id ConnectionID, selected bool) {
	o.log("conn-selected %s %v", id, selected)
}

func (o *recordingObserver) ConnectionDeleted(id ConnectionID) {
	o.log("conn-deleted %s", id)
}

func (o *recordingObserver) ParameterChanged(id NodeID, name string, v ParamValue) {
	o.log("param %s.%s", id, name)
}

func (o *recordingObserver) ParameterInputModeChanged(id NodeID, name string, mode InputMode) {
	o.log("mode %s.%s %d", id, name, mode)
}

func (o *recordingObserver) has(event string) bool {
	for _, e := range o.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestCanvas(g *Graph) (*Canvas, *recordingObserver) {
	obs := &recordingObserver{graph: g}
	c := NewCanvas(CanvasConfig{
		Graph:    g,
		Catalog:  basicCatalog(),
		Observer: obs,
		Width:    800,
		Height:   600,
	})
	return c, obs
}

// drain feeds every queued synthetic event through the pointer state machine.
func drain(c *Canvas) {
	for len(c.injectQueue) > 0 {
		c.processInjectedInput()
	}
}

// Port rows for the test specs at zoom 1, pan 0: screen equals canvas.
func genOutPort(n *NodeInstance) (float64, float64) {
	return n.X + fallbackNodeWidth, n.Y + fallbackHeaderHeight + fallbackRowHeight/2
}

func sinkInPort(n *NodeInstance) (float64, float64) {
	return n.X, n.Y + fallbackHeaderHeight + fallbackRowHeight/2
}

// --- Wiring ---

func TestDragCreatesConnection(t *testing.T) {
	g := twoNodeGraph()
	c, obs := newTestCanvas(g)

	sx, sy := genOutPort(g.Node("a"))
	tx, ty := sinkInPort(g.Node("b"))
	c.InjectPress(sx, sy)
	c.InjectMove((sx+tx)/2, sy+40)
	c.InjectMove(tx, ty)
	c.InjectRelease(tx, ty)
	drain(c)

	if !obs.has("connected a.out -> b.in") {
		t.Fatalf("expected connection event, got %v", obs.events)
	}
	if len(g.Connections) != 1 {
		t.Errorf("host should have applied the connection, got %v", g.Connections)
	}
	if c.temp != nil {
		t.Error("temp connection should clear on release")
	}
}

func TestDragFromInputToOutputAlsoConnects(t *testing.T) {
	g := twoNodeGraph()
	c, obs := newTestCanvas(g)

	sx, sy := sinkInPort(g.Node("b"))
	tx, ty := genOutPort(g.Node("a"))
	c.InjectPress(sx, sy)
	c.InjectMove(tx, ty)
	c.InjectRelease(tx, ty)
	drain(c)

	// Orientation is normalized output-first regardless of drag direction.
	if !obs.has("connected a.out -> b.in") {
		t.Fatalf("expected normalized connection, got %v", obs.events)
	}
}

func TestDragToEmptyCanvasDiscards(t *testing.T) {
	g := twoNodeGraph()
	c, obs := newTestCanvas(g)

	sx, sy := genOutPort(g.Node("a"))
	c.InjectPress(sx, sy)
	c.InjectMove(sx+60, sy+90)
	c.InjectRelease(sx+60, sy+90)
	drain(c)

	if len(g.Connections) != 0 {
		t.Errorf("no connection expected, got %v", g.Connections)
	}
	if len(obs.events) != 0 {
		t.Errorf("no events expected, got %v", obs.events)
	}
	if c.temp != nil {
		t.Error("temp connection should clear")
	}
}

func TestDragSelfLoopRejected(t *testing.T) {
	g := &Graph{Nodes: []*NodeInstance{{ID: "p", TypeID: "proc", X: 200, Y: 100}}}
	c, obs := newTestCanvas(g)

	m := c.metrics.Metrics(g.Node("p"))
	out := m.Ports[PortKey(true, "out")]
	in := m.Ports[PortKey(false, "in")]

	c.InjectPress(out.X, out.Y)
	c.InjectMove(in.X, in.Y)
	c.InjectRelease(in.X, in.Y)
	drain(c)

	if len(g.Connections) != 0 {
		t.Errorf("self loop must not connect, got %v", g.Connections)
	}
	if len(obs.events) != 0 {
		t.Errorf("no events expected, got %v", obs.events)
	}
}

func TestTempConnectionSnapsToCompatiblePort(t *testing.T) {
	g := twoNodeGraph()
	c, _ := newTestCanvas(g)

	sx, sy := genOutPort(g.Node("a"))
	tx, ty := sinkInPort(g.Node("b"))
	c.InjectPress(sx, sy)
	c.processInjectedInput()
	c.InjectMove(tx+2, ty-2) // inside the port hit margin
	drain(c)

	if c.temp == nil || !c.temp.Snapped {
		t.Fatal("temp connection should snap over a compatible port")
	}
	assertNear(t, "snap x", c.temp.SnapPos.X, tx)
	assertNear(t, "snap y", c.temp.SnapPos.Y, ty)

	c.InjectRelease(500, 400)
	drain(c)
}

// --- Selection ---

func TestMarqueeSelectsIntersectingNodes(t *testing.T) {
	g := &Graph{Nodes: []*NodeInstance{
		{ID: "n1", TypeID: "gen", X: 0, Y: 0},
		{ID: "n2", TypeID: "gen", X: 200, Y: 0},
		{ID: "n3", TypeID: "gen", X: 500, Y: 500},
	}}
	c, _ := newTestCanvas(g)

	c.InjectPress(-10, -10)
	c.InjectMove(120, 120)
	c.InjectMove(250, 250)
	c.InjectRelease(250, 250)
	drain(c)

	st := c.State()
	if !st.NodeSelected("n1") || !st.NodeSelected("n2") {
		t.Errorf("n1 and n2 intersect the marquee, state %v", st.SelectedNodes())
	}
	if st.NodeSelected("n3") {
		t.Error("n3 lies outside the marquee")
	}
	if c.selectionRect != nil {
		t.Error("marquee rect should clear on release")
	}
}

func TestClickEmptyCanvasClearsSelection(t *testing.T) {
	g := twoNodeGraph()
	c, obs := newTestCanvas(g)
	c.ApplyState(c.State().WithNodeSelected("a"))

	c.InjectPress(50, 400)
	c.InjectRelease(50, 400)
	drain(c)

	if c.State().SelectionCount() != 0 {
		t.Error("selection should clear")
	}
	if !obs.has("selected  false") {
		t.Errorf("cleared selection reports empty id, got %v", obs.events)
	}
}

func TestClickNodeHeaderSelects(t *testing.T) {
	g := twoNodeGraph()
	c, obs := newTestCanvas(g)

	c.InjectPress(150, 110) // header of a
	c.InjectRelease(150, 110)
	drain(c)

	if !c.State().NodeSelected("a") {
		t.Error("click should select")
	}
	if !obs.has("selected a false") {
		t.Errorf("events %v", obs.events)
	}
	// Below the drag threshold no move is reported.
	for _, e := range obs.events {
		if len(e) > 5 && e[:5] == "moved" {
			t.Errorf("plain click must not move: %q", e)
		}
	}
}

// --- Node dragging ---

func TestDragMovesNodeAndReportsOnRelease(t *testing.T) {
	g := twoNodeGraph()
	c, obs := newTestCanvas(g)

	c.InjectPress(150, 110)
	c.InjectMove(250, 160)
	c.InjectRelease(250, 160)
	drain(c)

	n := g.Node("a")
	assertNear(t, "x", n.X, 200)
	assertNear(t, "y", n.Y, 150)
	if !obs.has("moved a 200 150") {
		t.Errorf("expected move report, got %v", obs.events)
	}
}

func TestMultiDragPreservesRelativePositions(t *testing.T) {
	g := &Graph{Nodes: []*NodeInstance{
		{ID: "n1", TypeID: "gen", X: 0, Y: 0},
		{ID: "n2", TypeID: "gen", X: 200, Y: 0},
		{ID: "n3", TypeID: "gen", X: 500, Y: 500},
	}}
	c, _ := newTestCanvas(g)

	// Marquee-select n1 and n2, then drag n1 by (+100, +130).
	c.InjectPress(-10, -10)
	c.InjectMove(250, 250)
	c.InjectRelease(250, 250)
	c.InjectPress(50, 10) // n1 header
	c.InjectMove(150, 140)
	c.InjectRelease(150, 140)
	drain(c)

	n1, n2, n3 := g.Node("n1"), g.Node("n2"), g.Node("n3")
	assertNear(t, "n1 x", n1.X, 100)
	assertNear(t, "n1 y", n1.Y, 130)
	assertNear(t, "gap preserved", n2.X-n1.X, 200)
	assertNear(t, "n2 y", n2.Y, 130)
	assertNear(t, "n3 untouched x", n3.X, 500)
}

func TestDragSnapsAndShowsGuides(t *testing.T) {
	g := &Graph{Nodes: []*NodeInstance{
		{ID: "n1", TypeID: "gen", X: 0, Y: 0},
		{ID: "n2", TypeID: "gen", X: 300, Y: 300},
	}}
	c, _ := newTestCanvas(g)

	// Drag n1 so its left edge lands 3px off n2's left edge.
	c.InjectPress(50, 10)
	c.InjectMove(353, 110)
	drain(c)

	assertNear(t, "snapped left edge", g.Node("n1").X, 300)
	if len(c.activeGuides) == 0 {
		t.Fatal("guides should show while snapped")
	}

	c.InjectRelease(353, 110)
	drain(c)
	if len(c.activeGuides) != 0 {
		t.Error("guides should clear on release")
	}
}

// --- Node actions ---

func TestDeleteButtonRemovesNode(t *testing.T) {
	g := twoNodeGraph()
	g.AddConnection(&Connection{ID: "c1", SourceNode: "a", SourcePort: "out", TargetNode: "b", TargetPort: "in"})
	c, obs := newTestCanvas(g)

	// Select a, then click its delete button.
	c.InjectPress(150, 110)
	c.InjectRelease(150, 110)
	drain(c)
	m := c.metrics.Metrics(g.Node("a"))
	dx := m.DeleteButton.X + m.DeleteButton.Width/2
	dy := m.DeleteButton.Y + m.DeleteButton.Height/2
	c.InjectPress(dx, dy)
	c.InjectRelease(dx, dy)
	drain(c)

	if g.Node("a") != nil {
		t.Error("node a should be removed")
	}
	if len(g.Connections) != 0 {
		t.Error("incident connection should cascade")
	}
	if !obs.has("deleted a") {
		t.Errorf("events %v", obs.events)
	}
	if c.State().NodeSelected("a") {
		t.Error("deleted node must leave the selection")
	}
}

func TestDoubleClickHeaderOpensRename(t *testing.T) {
	g := twoNodeGraph()
	c, obs := newTestCanvas(g)

	c.InjectClick(150, 110)
	c.InjectClick(150, 110)
	drain(c)

	if !c.editor.Active() {
		t.Fatal("double-click on the header text should open the editor")
	}
	ed := c.editor.(*keyboardEditor)
	if ed.Text() != "Generator" {
		t.Errorf("editor seeds the current label, got %q", ed.Text())
	}
	ed.buf = []rune("Osc A")
	ed.Commit()

	if g.Node("a").Label != "Osc A" {
		t.Errorf("label = %q", g.Node("a").Label)
	}
	if !obs.has(`renamed a "Osc A"`) {
		t.Errorf("events %v", obs.events)
	}
}

// --- Parameters ---

func paramFixture() (*Canvas, *recordingObserver, *NodeInstance) {
	g := &Graph{Nodes: []*NodeInstance{{ID: "p", TypeID: "proc", X: 100, Y: 100}}}
	c, obs := newTestCanvas(g)
	return c, obs, g.Node("p")
}

func TestKnobDragAdjustsValue(t *testing.T) {
	c, obs, n := paramFixture()
	m := c.metrics.Metrics(n)
	w := m.Params["amount"].Widget
	cx := w.X + w.Width/2
	cy := w.Y + w.Height/2

	// Drag up 100px: range 10 over 200px sweep = +5 from the default 5.
	c.InjectPress(cx, cy)
	c.InjectMove(cx, cy-100)
	c.InjectRelease(cx, cy-100)
	drain(c)

	spec := basicCatalog()["proc"].Param("amount")
	assertNear(t, "value", n.ParamValue(spec).Number, 10)
	if !obs.has("param p.amount") {
		t.Errorf("events %v", obs.events)
	}
}

func TestKnobDragClampsToRange(t *testing.T) {
	c, _, n := paramFixture()
	m := c.metrics.Metrics(n)
	w := m.Params["amount"].Widget
	cx := w.X + w.Width/2
	cy := w.Y + w.Height/2

	c.InjectPress(cx, cy)
	c.InjectMove(cx, cy+10000)
	c.InjectRelease(cx, cy+10000)
	drain(c)

	spec := basicCatalog()["proc"].Param("amount")
	assertNear(t, "clamped", n.ParamValue(spec).Number, 0)
}

func TestKnobDragSensitivityModifiers(t *testing.T) {
	c, _, n := paramFixture()
	m := c.metrics.Metrics(n)
	w := m.Params["amount"].Widget
	cx, cy := w.X+w.Width/2, w.Y+w.Height/2
	spec := basicCatalog()["proc"].Param("amount")

	h := &ParameterDragHandler{}
	press := Event{
		Kind: EventPress, ScreenX: cx, ScreenY: cy, CanvasX: cx, CanvasY: cy,
		Button: MouseButtonLeft,
		Target: WidgetHit{Node: "p", Param: "amount", Kind: ParamFloat},
	}
	h.Start(c, press)

	// 40 px up: range 10 over 200 px = +2 at normal sensitivity.
	move := press
	move.Kind = EventMove
	move.ScreenY = cy - 40

	move.Modifiers = ModAlt
	h.Update(c, move)
	assertNear(t, "fine", n.ParamValue(spec).Number, 5.2)

	move.Modifiers = 0
	h.Update(c, move)
	assertNear(t, "normal", n.ParamValue(spec).Number, 7)

	// Coarse would be +20; the range clamps it.
	move.Modifiers = ModShift
	h.Update(c, move)
	assertNear(t, "coarse clamped", n.ParamValue(spec).Number, 10)

	h.End(c, move)
}

func TestToggleCommitsOnPress(t *testing.T) {
	c, obs, n := paramFixture()
	m := c.metrics.Metrics(n)
	w := m.Params["on"].Widget
	cx, cy := w.X+w.Width/2, w.Y+w.Height/2

	c.InjectPress(cx, cy)
	drain(c)
	spec := basicCatalog()["proc"].Param("on")
	assertNear(t, "toggled on", n.ParamValue(spec).Number, 1)
	if !obs.has("param p.on") {
		t.Errorf("events %v", obs.events)
	}

	c.InjectRelease(cx, cy)
	c.InjectClick(cx, cy)
	drain(c)
	assertNear(t, "toggled off", n.ParamValue(spec).Number, 0)
}

func TestEnumCyclesOptions(t *testing.T) {
	c, _, n := paramFixture()
	m := c.metrics.Metrics(n)
	w := m.Params["mode"].Widget
	cx, cy := w.X+w.Width/2, w.Y+w.Height/2
	spec := basicCatalog()["proc"].Param("mode")

	c.InjectClick(cx, cy)
	drain(c)
	assertNear(t, "first cycle", n.ParamValue(spec).Number, 1)

	c.InjectClick(cx, cy)
	c.InjectClick(cx, cy)
	drain(c)
	assertNear(t, "wraps", n.ParamValue(spec).Number, 0)
}

func TestModeButtonCyclesInputMode(t *testing.T) {
	c, obs, n := paramFixture()
	m := c.metrics.Metrics(n)
	b := m.Params["amount"].ModeButton
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2

	c.InjectClick(cx, cy)
	drain(c)
	if n.InputMode("amount") != InputModeAdd {
		t.Errorf("mode = %d, want add", n.InputMode("amount"))
	}
	if !obs.has("mode p.amount 1") {
		t.Errorf("events %v", obs.events)
	}
}

func TestArrayCellDragIsIndependent(t *testing.T) {
	c, _, n := paramFixture()
	m := c.metrics.Metrics(n)
	w := m.Params["taps"].Widget
	// Middle cell of three.
	cx := w.X + w.Width/2
	cy := w.Y + w.Height/2

	c.InjectPress(cx, cy)
	c.InjectMove(cx, cy-50) // +0.25 over the 0..1 range
	c.InjectRelease(cx, cy-50)
	drain(c)

	// Cells below the dragged one materialize at the default.
	spec := basicCatalog()["proc"].Param("taps")
	v := n.ParamValue(spec)
	if len(v.Values) < 2 {
		t.Fatalf("values = %v", v.Values)
	}
	assertNear(t, "cell 1", v.Values[1], 0.75)
	assertNear(t, "cell 0 untouched", v.Values[0], 0.5)
}

func TestBezierHandleDragClampsToEditor(t *testing.T) {
	c, obs, n := paramFixture()
	n.Params = map[string]ParamValue{"curve": {Values: []float64{0.25, 0.25, 0.75, 0.75}}}
	c.metrics.Invalidate("p")
	m := c.metrics.Metrics(n)
	hd := m.Params["curve"].Handles[0]

	// Drag far outside the editor; the stored point clamps to the unit square.
	c.InjectPress(hd.X, hd.Y)
	c.InjectMove(hd.X-500, hd.Y+500)
	c.InjectRelease(hd.X-500, hd.Y+500)
	drain(c)

	v := n.Params["curve"].Values
	assertNear(t, "x clamped", v[0], 0)
	assertNear(t, "y clamped", v[1], 0)
	assertNear(t, "other handle x", v[2], 0.75)
	if !obs.has("param p.curve") {
		t.Errorf("events %v", obs.events)
	}
}

// --- Connection selection ---

func TestClickSelectsConnection(t *testing.T) {
	g := twoNodeGraph()
	g.AddConnection(&Connection{ID: "c1", SourceNode: "a", SourcePort: "out", TargetNode: "b", TargetPort: "in"})
	c, obs := newTestCanvas(g)

	wireY := 100 + fallbackHeaderHeight + fallbackRowHeight/2
	c.InjectClick(390, wireY)
	drain(c)

	if !c.State().ConnectionSelected("c1") {
		t.Error("connection should be selected")
	}
	if !obs.has("conn-selected c1 true") {
		t.Errorf("events %v", obs.events)
	}

	// Shift-click toggles it off.
	c.InjectPressButton(390, wireY, MouseButtonLeft, ModShift)
	c.InjectRelease(390, wireY)
	drain(c)
	if c.State().ConnectionSelected("c1") {
		t.Error("shift-click should deselect")
	}
}

// --- State choke point ---

func TestApplyStateClampsZoomAndSyncsViewport(t *testing.T) {
	c, _ := newTestCanvas(twoNodeGraph())
	c.ApplyState(c.State().WithZoom(50).WithPan(10, 20))
	assertNear(t, "zoom clamped", c.State().Zoom, fallbackMaxZoom)
	assertNear(t, "viewport zoom", c.Viewport().Zoom, fallbackMaxZoom)
	assertNear(t, "viewport pan", c.Viewport().PanX, 10)
	if !c.render.Requested() {
		t.Error("pan/zoom change requests a render")
	}
}

func TestWheelZoomAnchorsUnderCursor(t *testing.T) {
	c, _ := newTestCanvas(twoNodeGraph())
	ax, ay := 300.0, 200.0
	cx, cy := c.Viewport().ScreenToCanvas(ax, ay)

	c.InjectWheel(ax, ay, 0, 1)
	drain(c)
	c.manager.stepAll(c, 1.0/60.0) // wheel deltas apply on the frame step

	if c.Viewport().Zoom <= 1 {
		t.Fatalf("zoom = %v, want > 1", c.Viewport().Zoom)
	}
	gx, gy := c.Viewport().CanvasToScreen(cx, cy)
	assertNear(t, "anchor x", gx, ax)
	assertNear(t, "anchor y", gy, ay)
}

func TestToolSwitchCancelsActiveGesture(t *testing.T) {
	g := twoNodeGraph()
	c, _ := newTestCanvas(g)

	c.InjectPress(150, 110)
	c.InjectMove(250, 160)
	drain(c)
	if c.manager.Active() == nil {
		t.Fatal("drag should be active")
	}

	c.SetTool(ToolHand)
	if c.manager.Active() != nil {
		t.Error("tool switch must cancel the gesture")
	}
}

// --- Pan handlers ---

func TestMiddleDragPansAnyTool(t *testing.T) {
	c, _ := newTestCanvas(twoNodeGraph())
	c.InjectPressButton(400, 300, MouseButtonMiddle, 0)
	c.InjectMove(450, 330)
	c.InjectRelease(450, 330)
	drain(c)

	assertNear(t, "pan x", c.State().PanX, 50)
	assertNear(t, "pan y", c.State().PanY, 30)
}

func TestHandToolPansOverNodes(t *testing.T) {
	c, _ := newTestCanvas(twoNodeGraph())
	c.SetTool(ToolHand)

	// Press lands on node a's header, but the hand tool pans regardless.
	c.InjectPress(150, 110)
	c.InjectMove(190, 150)
	c.InjectRelease(190, 150)
	drain(c)

	assertNear(t, "pan x", c.State().PanX, 40)
	assertNear(t, "node stays", c.Graph().Node("a").X, 100)
}

func TestHandToolPansOverPorts(t *testing.T) {
	c, obs := newTestCanvas(twoNodeGraph())
	c.SetTool(ToolHand)

	px, py := genOutPort(c.Graph().Node("a"))
	c.InjectPress(px, py)
	c.InjectMove(px+30, py)
	drain(c)

	if c.temp != nil {
		t.Fatal("hand tool must not start a connection drag")
	}
	assertNear(t, "pan x", c.State().PanX, 30)

	c.InjectRelease(px+30, py)
	drain(c)
	if len(obs.events) != 0 {
		t.Errorf("no graph mutations expected, got %v", obs.events)
	}
}
