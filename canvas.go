package trellis

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

// effectivePollInterval is how often the canvas polls the
// EffectiveValueResolver for wired parameters.
const effectivePollInterval = 100 * time.Millisecond

// Double-click detection window and movement tolerance.
const (
	doubleClickInterval = 350 * time.Millisecond
	doubleClickSlop     = 4.0
)

// CanvasConfig configures a Canvas. Graph, Catalog, and Observer are
// required; everything else has sensible defaults.
type CanvasConfig struct {
	Graph    *Graph
	Catalog  SpecCatalog
	Observer GraphObserver

	// Resolver supplies live values for wired parameters; nil disables
	// polling.
	Resolver EffectiveValueResolver
	// Theme restyles the canvas; nil uses built-in fallbacks.
	Theme Theme
	// Editor handles inline header-label editing; nil uses the built-in
	// key-polling editor.
	Editor TextEditor

	// Width and Height are the initial viewport dimensions in screen pixels.
	Width, Height float64
}

// tempConnection is the overlay state of an in-progress wire drag.
type tempConnection struct {
	FromNode   NodeID
	FromPort   string
	FromParam  string
	FromOutput bool
	From       Vec2 // anchored port center, canvas space
	To         Vec2 // floating endpoint following the pointer
	Snapped    bool // endpoint currently over a compatible port
	SnapPos    Vec2 // compatible port center when Snapped
}

// Canvas is the engine façade: it owns the viewport, caches, interaction
// handlers, and render layers, converts native input into abstract events,
// and reports every graph mutation to the host's GraphObserver.
type Canvas struct {
	graph    *Graph
	catalog  SpecCatalog
	observer GraphObserver
	resolver EffectiveValueResolver
	theme    Theme

	viewport *Viewport
	metrics  *MetricsCache
	hit      *HitTester
	guides   *GuideEngine
	render   *RenderState
	manager  *InteractionManager
	layers   *LayerManager
	scroller *EdgeScroller
	editor   TextEditor

	state CanvasState
	tool  Tool

	// Overlay state, rendered by the overlay layer.
	temp          *tempConnection
	activeGuides  []Guide
	selectionRect *Rect // canvas space

	// Frame cache: layers render here only when RenderState asks.
	frame        *ebiten.Image
	framePainted bool

	// Input polling state.
	pointerDown bool
	lastScreenX float64
	lastScreenY float64
	lastPressAt time.Time
	lastPressX  float64
	lastPressY  float64
	injectQueue []syntheticEvent
	gesture     *GestureRunner

	lastPoll time.Time
	debug    bool
	stats    frameStats
}

// NewCanvas creates a canvas over the given graph. The graph stays owned by
// the host; the engine reads it and reports mutations through cfg.Observer.
func NewCanvas(cfg CanvasConfig) *Canvas {
	theme := cfg.Theme
	if theme == nil {
		theme = defaultTheme
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	w := cfg.Width
	h := cfg.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 600
	}

	c := &Canvas{
		graph:    cfg.Graph,
		catalog:  cfg.Catalog,
		observer: observer,
		resolver: cfg.Resolver,
		theme:    theme,
		viewport: NewViewport(w, h),
		render:   NewRenderState(),
		manager:  NewInteractionManager(),
		guides:   NewGuideEngine(theme),
		editor:   cfg.Editor,
	}
	c.viewport.MinZoom = theme.Number("zoom.min", fallbackMinZoom)
	c.viewport.MaxZoom = theme.Number("zoom.max", fallbackMaxZoom)
	c.metrics = NewMetricsCache(cfg.Catalog, theme)
	c.hit = NewHitTester(cfg.Graph, cfg.Catalog, c.metrics, c.viewport, theme)
	c.layers = NewLayerManager(c)
	c.scroller = NewEdgeScroller(theme)
	if c.editor == nil {
		c.editor = newKeyboardEditor()
	}
	c.state = CanvasState{Zoom: c.viewport.Zoom}

	c.manager.Register(&NodeActionHandler{})
	c.manager.Register(&NodeDragHandler{})
	c.manager.Register(&PortConnectHandler{})
	c.manager.Register(&ParameterDragHandler{})
	c.manager.Register(&BezierControlDragHandler{})
	c.manager.Register(&ConnectionSelectHandler{})
	c.manager.Register(&SelectionToolHandler{})
	c.manager.Register(&CanvasZoomHandler{})
	c.manager.Register(&HandToolHandler{})
	c.manager.Register(&CanvasPanHandler{})

	c.render.ForceFull()
	return c
}

// Graph returns the graph the canvas renders.
func (c *Canvas) Graph() *Graph {
	return c.graph
}

// Viewport returns the canvas viewport for host-driven panning or zooming.
func (c *Canvas) Viewport() *Viewport {
	return c.viewport
}

// Layers returns the layer manager, for host styling such as SetFace.
func (c *Canvas) Layers() *LayerManager {
	return c.layers
}

// State returns the current canvas UI state. Hosts may persist Zoom/Pan and
// the selection from here; the engine never auto-saves them.
func (c *Canvas) State() CanvasState {
	return c.state
}

// Tool returns the active tool.
func (c *Canvas) Tool() Tool {
	return c.tool
}

// SetTool switches the active tool, cancelling any gesture in flight.
func (c *Canvas) SetTool(t Tool) {
	if t == c.tool {
		return
	}
	c.manager.CancelActive(c)
	c.tool = t
}

// SetDebugMode toggles per-frame render stat logging.
func (c *Canvas) SetDebugMode(enabled bool) {
	c.debug = enabled
	c.debugCheckMetrics()
}

// SetViewportRect repositions the canvas area on the rendering surface.
func (c *Canvas) SetViewportRect(r Rect) {
	c.viewport.OriginX = r.X
	c.viewport.OriginY = r.Y
	c.viewport.Width = r.Width
	c.viewport.Height = r.Height
	c.viewport.dirty = true
	c.frame = nil
	c.render.ForceFull()
}

// ApplyState is the single choke point through which handlers commit UI
// state. Pan/zoom changes force a full redraw; selection changes dirty the
// node and overlay layers.
func (c *Canvas) ApplyState(next CanvasState) {
	prev := c.state
	next.Zoom = c.viewport.clampZoom(next.Zoom)
	c.state = next

	if next.Zoom != prev.Zoom || next.PanX != prev.PanX || next.PanY != prev.PanY {
		c.viewport.Zoom = next.Zoom
		c.viewport.PanX = next.PanX
		c.viewport.PanY = next.PanY
		c.viewport.dirty = true
		c.render.ForceFull()
	}
	if !sameNodeSet(prev.selectedNodes, next.selectedNodes) ||
		!sameConnSet(prev.selectedConnections, next.selectedConnections) {
		c.render.MarkLayer(LayerNodes)
		c.render.MarkLayer(LayerConnections)
		c.render.MarkLayer(LayerOverlay)
	}
}

// syncStateFromViewport pulls pan/zoom mutated directly on the viewport
// (tweens, edge scroll) back into the state value.
func (c *Canvas) syncStateFromViewport() {
	if c.state.Zoom != c.viewport.Zoom || c.state.PanX != c.viewport.PanX || c.state.PanY != c.viewport.PanY {
		c.state.Zoom = c.viewport.Zoom
		c.state.PanX = c.viewport.PanX
		c.state.PanY = c.viewport.PanY
		c.render.ForceFull()
	}
}

func sameNodeSet(a, b map[NodeID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sameConnSet(a, b map[ConnectionID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// RequestRender marks the canvas as needing a repaint without dirtying any
// specific element.
func (c *Canvas) RequestRender() {
	c.render.MarkLayer(LayerOverlay)
}

// FocusNode animates the viewport to center the given node.
func (c *Canvas) FocusNode(id NodeID, duration float32) {
	n := c.graph.Node(id)
	if n == nil {
		return
	}
	m := c.metrics.Metrics(n)
	if m == nil {
		return
	}
	c.viewport.ScrollTo(m.Box.X+m.Box.Width/2, m.Box.Y+m.Box.Height/2, duration, ease.OutQuad)
}

// markNodeAndIncident dirties a node plus every connection touching it.
func (c *Canvas) markNodeAndIncident(id NodeID) {
	c.render.MarkNode(id)
	for _, conn := range c.graph.Incident(id) {
		c.render.MarkConnection(conn.ID)
	}
}

// visibleSiblingBoxes collects the boxes of all visible nodes except the
// ones being dragged, for smart-guide comparison.
func (c *Canvas) visibleSiblingBoxes(exclude map[NodeID]struct{}) []Rect {
	visible := c.viewport.VisibleBounds()
	var out []Rect
	for _, n := range c.graph.Nodes {
		if _, skip := exclude[n.ID]; skip {
			continue
		}
		m := c.metrics.Metrics(n)
		if m == nil || !m.Box.Intersects(visible) {
			continue
		}
		out = append(out, m.Box)
	}
	return out
}

// --- Frame loop ---

// Update processes one frame of input and animation. Call from
// ebiten.Game.Update.
func (c *Canvas) Update() {
	dt := 1.0 / float64(max(ebiten.TPS(), 1))

	if c.viewport.update(float32(dt)) {
		c.syncStateFromViewport()
	}

	if c.gesture != nil {
		c.gesture.step(c)
	}
	if !c.processInjectedInput() {
		c.pollInput()
	}

	// Per-frame handler work: batched wheel zoom, edge scroll, momentum.
	c.manager.stepAll(c, dt)
	c.scroller.step(c, dt)
	c.syncStateFromViewport()

	if c.editor.Active() {
		c.editor.Step()
	}

	c.pollEffectiveValues()
}

// pollEffectiveValues marks nodes with wired parameters dirty on a fixed
// interval so animated values stay visually current.
func (c *Canvas) pollEffectiveValues() {
	if c.resolver == nil {
		return
	}
	now := time.Now()
	if now.Sub(c.lastPoll) < effectivePollInterval {
		return
	}
	c.lastPoll = now
	for _, conn := range c.graph.Connections {
		if conn.TargetParam == "" {
			continue
		}
		if _, ok := c.resolver.EffectiveValue(conn.TargetNode, conn.TargetParam); ok {
			c.render.MarkNode(conn.TargetNode)
		}
	}
}

// Draw renders the canvas. The layer stack repaints the cached frame only
// when RenderState reports work; otherwise the cache is blitted as-is.
// Call from ebiten.Game.Draw.
func (c *Canvas) Draw(screen *ebiten.Image) {
	w := int(c.viewport.Width)
	h := int(c.viewport.Height)
	if w <= 0 || h <= 0 {
		return
	}
	if c.frame == nil || c.frame.Bounds().Dx() != w || c.frame.Bounds().Dy() != h {
		c.frame = ebiten.NewImage(w, h)
		c.render.ForceFull()
		c.framePainted = false
	}

	if c.render.Requested() || !c.framePainted {
		c.render.BuildDirtyRects(c.graph, c.metrics, c.viewport)
		c.layers.Render(c.frame)
		c.render.Clear()
		c.framePainted = true
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Translate(c.viewport.OriginX, c.viewport.OriginY)
	screen.DrawImage(c.frame, &op)
}

// --- Input polling ---

// pollInput reads ebiten's mouse state and converts it into abstract events.
func (c *Canvas) pollInput() {
	mods := readModifiers()
	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx), float64(my)

	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		switch {
		case left:
			button = MouseButtonLeft
		case right:
			button = MouseButtonRight
		default:
			button = MouseButtonMiddle
		}
	}

	if wx, wy := ebiten.Wheel(); wx != 0 || wy != 0 {
		c.feedPointer(sx, sy, c.pointerDown, button, mods, wx, wy)
	}
	c.feedPointer(sx, sy, pressed, button, mods, 0, 0)
}

// feedPointer runs the pointer state machine: press/move/release edges plus
// wheel events, all routed through the interaction manager.
func (c *Canvas) feedPointer(sx, sy float64, pressed bool, button MouseButton, mods KeyModifiers, wheelX, wheelY float64) {
	cx, cy := c.viewport.ScreenToCanvas(sx, sy)
	base := Event{
		ScreenX: sx, ScreenY: sy,
		CanvasX: cx, CanvasY: cy,
		Button: button, Modifiers: mods,
	}

	if wheelX != 0 || wheelY != 0 {
		ev := base
		ev.Kind = EventWheel
		ev.WheelX = wheelX
		ev.WheelY = wheelY
		c.manager.Dispatch(c, ev)
		return
	}

	switch {
	case pressed && !c.pointerDown:
		c.pointerDown = true
		// An outside press commits any active label edit before the new
		// gesture starts.
		if c.editor.Active() {
			c.editor.Commit()
		}
		ev := base
		ev.Kind = EventPress
		ev.Target = c.hit.HitAt(sx, sy, c.state)

		// Double-click on the header text promotes the hit to a rename
		// target; the label shares space with the drag grip, so a single
		// click stays a drag.
		now := time.Now()
		double := now.Sub(c.lastPressAt) <= doubleClickInterval &&
			math.Abs(sx-c.lastPressX) <= doubleClickSlop &&
			math.Abs(sy-c.lastPressY) <= doubleClickSlop
		c.lastPressAt = now
		c.lastPressX = sx
		c.lastPressY = sy
		if nh, ok := ev.Target.(NodeHit); ok && nh.Header && double && c.hit.headerLabelAt(nh.Node, cx, cy) {
			ev.Target = HeaderLabelHit{Node: nh.Node}
		}
		c.manager.Dispatch(c, ev)
	case !pressed && c.pointerDown:
		c.pointerDown = false
		ev := base
		ev.Kind = EventRelease
		ev.Target = c.hit.HitAt(sx, sy, c.state)
		c.manager.Dispatch(c, ev)
	case sx != c.lastScreenX || sy != c.lastScreenY:
		ev := base
		ev.Kind = EventMove
		c.manager.Dispatch(c, ev)
	}
	c.lastScreenX = sx
	c.lastScreenY = sy
}
