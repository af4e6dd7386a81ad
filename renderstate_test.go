package trellis

import "testing"

func TestRenderStateStartsClean(t *testing.T) {
	rs := NewRenderState()
	if rs.Requested() || rs.FullRedraw() {
		t.Error("fresh state should request nothing")
	}
}

func TestMarkNodeDirtiesNodeAndPortLayers(t *testing.T) {
	rs := NewRenderState()
	rs.MarkNode("a")
	if !rs.Requested() {
		t.Error("mark should request a render")
	}
	if !rs.NodeDirty("a") || rs.NodeDirty("b") {
		t.Error("only the marked node is dirty")
	}
	if !rs.LayerDirty(LayerNodes) || !rs.LayerDirty(LayerPorts) {
		t.Error("node marks dirty the node and port layers")
	}
	if rs.LayerDirty(LayerGrid) {
		t.Error("grid layer untouched")
	}
}

func TestMarkConnectionDirtiesWireLayers(t *testing.T) {
	rs := NewRenderState()
	rs.MarkConnection("c")
	if !rs.ConnectionDirty("c") {
		t.Error("connection should be dirty")
	}
	if !rs.LayerDirty(LayerConnections) || !rs.LayerDirty(LayerParamConns) {
		t.Error("connection marks dirty both wire layers")
	}
}

// Marks accumulate monotonically until Clear: nothing un-dirties.
func TestRenderStateMonotonicUntilClear(t *testing.T) {
	rs := NewRenderState()
	rs.MarkNode("a")
	rs.MarkConnection("c")
	rs.MarkLayer(LayerOverlay)
	if !rs.NodeDirty("a") || !rs.ConnectionDirty("c") || !rs.LayerDirty(LayerOverlay) {
		t.Fatal("all marks should hold")
	}

	rs.Clear()
	if rs.Requested() || rs.NodeDirty("a") || rs.ConnectionDirty("c") || rs.LayerDirty(LayerOverlay) {
		t.Error("clear should reset everything")
	}
}

func TestForceFullOverridesLayerChecks(t *testing.T) {
	rs := NewRenderState()
	rs.ForceFull()
	for l := Layer(0); l < layerCount; l++ {
		if !rs.LayerDirty(l) {
			t.Errorf("layer %d should report dirty under full redraw", l)
		}
	}
}

// --- Dirty rect construction ---

func buildDirtyFixture() (*Graph, *MetricsCache, *Viewport) {
	g := &Graph{Nodes: []*NodeInstance{
		{ID: "a", TypeID: "gen", X: 100, Y: 100},
		{ID: "b", TypeID: "sink", X: 500, Y: 100},
	}}
	return g, NewMetricsCache(basicCatalog(), nil), NewViewport(800, 600)
}

func TestBuildDirtyRectsPadsNodeBox(t *testing.T) {
	g, mc, vp := buildDirtyFixture()
	rs := NewRenderState()
	rs.MarkNode("a")
	rs.BuildDirtyRects(g, mc, vp)

	rects := rs.DirtyRects()
	if len(rects) != 1 {
		t.Fatalf("expected 1 rect, got %d", len(rects))
	}
	r := rects[0]
	assertNear(t, "x", r.X, 100-nodeDirtyPad)
	assertNear(t, "y", r.Y, 100-nodeDirtyPad)
	assertNear(t, "w", r.Width, fallbackNodeWidth+2*nodeDirtyPad)
}

func TestBuildDirtyRectsWiredParamWidensPad(t *testing.T) {
	g, mc, vp := buildDirtyFixture()
	g.Nodes = append(g.Nodes, &NodeInstance{ID: "p", TypeID: "proc", X: 300, Y: 300})
	g.AddConnection(&Connection{ID: "w", SourceNode: "a", SourcePort: "out", TargetNode: "p", TargetParam: "amount"})

	rs := NewRenderState()
	rs.MarkNode("p")
	rs.BuildDirtyRects(g, mc, vp)
	r := rs.DirtyRects()[0]
	assertNear(t, "wired pad x", r.X, 300-nodeDirtyPadWired)
}

func TestBuildDirtyRectsCoversConnectionHull(t *testing.T) {
	g, mc, vp := buildDirtyFixture()
	g.AddConnection(&Connection{ID: "c1", SourceNode: "a", SourcePort: "out", TargetNode: "b", TargetPort: "in"})

	rs := NewRenderState()
	rs.MarkConnection("c1")
	rs.BuildDirtyRects(g, mc, vp)
	rects := rs.DirtyRects()
	if len(rects) != 1 {
		t.Fatalf("expected 1 rect, got %d", len(rects))
	}
	src := mc.Metrics(g.Node("a")).Ports[PortKey(true, "out")]
	dst := mc.Metrics(g.Node("b")).Ports[PortKey(false, "in")]
	if !rects[0].Contains(src.X, src.Y) || !rects[0].Contains(dst.X, dst.Y) {
		t.Errorf("rect %+v should cover both endpoints %v %v", rects[0], src, dst)
	}
}

func TestBuildDirtyRectsEscalatesToFull(t *testing.T) {
	g, mc, _ := buildDirtyFixture()
	vp := NewViewport(100, 100)
	vp.SetZoom(2) // node box at zoom 2 dwarfs a 100x100 viewport's limit
	rs := NewRenderState()
	rs.MarkNode("a")
	rs.BuildDirtyRects(g, mc, vp)
	if !rs.FullRedraw() {
		t.Error("oversized region should escalate to full redraw")
	}
	if len(rs.DirtyRects()) != 0 {
		t.Error("escalation drops partial rects")
	}
}

func TestBuildDirtyRectsSkipsMissingNodes(t *testing.T) {
	g, mc, vp := buildDirtyFixture()
	rs := NewRenderState()
	rs.MarkNode("ghost")
	rs.BuildDirtyRects(g, mc, vp)
	if len(rs.DirtyRects()) != 0 {
		t.Error("missing node contributes no rect")
	}
}
