// Package trellis is an interactive node-graph canvas engine for [Ebitengine].
//
// Trellis renders a directed graph of typed processing nodes on an infinite
// pannable/zoomable 2D surface and handles every interaction a node editor
// needs: dragging nodes with alignment guides, wiring ports with live
// connection previews, tweaking parameters through on-canvas widgets (knobs,
// toggles, sliders, bezier editors), rectangle selection, wheel zoom, and
// hand-tool panning with momentum.
//
// # Quick start
//
// Build a [Graph], describe your node types through a [SpecCatalog], and hand
// both to [NewCanvas] together with a [GraphObserver] that receives every
// mutation the user performs:
//
//	canvas := trellis.NewCanvas(trellis.CanvasConfig{
//		Graph:    graph,
//		Catalog:  catalog,
//		Observer: observer,
//	})
//
// Then drive it from an [ebiten.Game]:
//
//	type Game struct{ canvas *trellis.Canvas }
//
//	func (g *Game) Update() error              { g.canvas.Update(); return nil }
//	func (g *Game) Draw(screen *ebiten.Image)  { g.canvas.Draw(screen) }
//	func (g *Game) Layout(w, h int) (int, int) { return w, h }
//
// # Coordinate spaces
//
// Node positions live in canvas space, a zoom/pan-independent coordinate
// system. Pointer input arrives in screen space. The [Viewport] converts
// between the two and clamps zoom to a configured range.
//
// # Host integration
//
// The engine never persists anything. Structural changes (new connections,
// deleted nodes, parameter edits) are reported through the [GraphObserver]
// port; the hosting application owns the graph and applies them. Connections
// referencing missing nodes are skipped rather than treated as errors.
//
// [Ebitengine]: https://ebitengine.org
package trellis
