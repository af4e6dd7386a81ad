package trellis

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// viewportAnim holds active tweens for pan X/Y and zoom.
type viewportAnim struct {
	tweenX    *gween.Tween
	tweenY    *gween.Tween
	tweenZoom *gween.Tween
	doneX     bool
	doneY     bool
	doneZoom  bool
}

// Viewport holds the pan/zoom state of the canvas and converts between
// screen space (pointer pixels) and canvas space (where node positions
// live). All conversions go through a cached affine matrix and its inverse.
type Viewport struct {
	// Zoom is the scale factor, clamped to [MinZoom, MaxZoom] on every
	// mutation.
	Zoom float64
	// PanX and PanY are the screen-space offset of the canvas origin.
	PanX, PanY float64
	// OriginX and OriginY locate the canvas area's top-left corner on the
	// rendering surface (nonzero when the canvas shares the window with
	// host chrome).
	OriginX, OriginY float64
	// Width and Height are the canvas area's screen-space dimensions.
	Width, Height float64

	MinZoom, MaxZoom float64

	view    [6]float64
	invView [6]float64
	dirty   bool

	anim *viewportAnim
}

// NewViewport creates a viewport covering a width×height screen area at
// zoom 1 with no pan.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{
		Zoom:    1.0,
		Width:   width,
		Height:  height,
		MinZoom: fallbackMinZoom,
		MaxZoom: fallbackMaxZoom,
		dirty:   true,
	}
}

// SetPan sets the pan offset and invalidates the cached matrix.
func (v *Viewport) SetPan(x, y float64) {
	v.PanX = x
	v.PanY = y
	v.dirty = true
}

// PanBy shifts the pan offset by (dx, dy) screen pixels.
func (v *Viewport) PanBy(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
	v.dirty = true
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(zoom float64) {
	v.Zoom = v.clampZoom(zoom)
	v.dirty = true
}

func (v *Viewport) clampZoom(zoom float64) float64 {
	return max(v.MinZoom, min(zoom, v.MaxZoom))
}

// ZoomAtPoint sets the zoom factor while keeping the canvas point currently
// under the screen point (sx, sy) fixed: the pan is recomputed as
// screenPoint - canvasPoint*newZoom.
func (v *Viewport) ZoomAtPoint(newZoom, sx, sy float64) {
	newZoom = v.clampZoom(newZoom)
	cx, cy := v.ScreenToCanvas(sx, sy)
	v.Zoom = newZoom
	v.PanX = sx - v.OriginX - cx*newZoom
	v.PanY = sy - v.OriginY - cy*newZoom
	v.dirty = true
}

// computeView recomputes the cached view matrix if dirty.
//
//	view = Translate(origin + pan) * Scale(zoom)
func (v *Viewport) computeView() [6]float64 {
	if !v.dirty {
		return v.view
	}
	v.dirty = false
	translate := [6]float64{1, 0, 0, 1, v.OriginX + v.PanX, v.OriginY + v.PanY}
	scale := [6]float64{v.Zoom, 0, 0, v.Zoom, 0, 0}
	v.view = multiplyAffine(translate, scale)
	v.invView = invertAffine(v.view)
	return v.view
}

// ScreenToCanvas converts screen coordinates to canvas coordinates.
func (v *Viewport) ScreenToCanvas(sx, sy float64) (cx, cy float64) {
	v.computeView()
	return transformPoint(v.invView, sx, sy)
}

// CanvasToScreen converts canvas coordinates to screen coordinates.
func (v *Viewport) CanvasToScreen(cx, cy float64) (sx, sy float64) {
	v.computeView()
	return transformPoint(v.view, cx, cy)
}

// CanvasRectToScreen converts a canvas-space rectangle to screen space.
func (v *Viewport) CanvasRectToScreen(r Rect) Rect {
	v.computeView()
	return transformRect(v.view, r)
}

// VisibleBounds returns the canvas-space rectangle currently visible.
// Used for render culling and smart-guide candidate filtering.
func (v *Viewport) VisibleBounds() Rect {
	v.computeView()
	x0, y0 := transformPoint(v.invView, v.OriginX, v.OriginY)
	x1, y1 := transformPoint(v.invView, v.OriginX+v.Width, v.OriginY+v.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ScreenBounds returns the viewport's screen-space rectangle.
func (v *Viewport) ScreenBounds() Rect {
	return Rect{X: v.OriginX, Y: v.OriginY, Width: v.Width, Height: v.Height}
}

// ScrollTo animates the pan so the canvas point (cx, cy) ends up centered,
// over duration seconds.
func (v *Viewport) ScrollTo(cx, cy float64, duration float32, easeFn ease.TweenFunc) {
	targetPanX := v.Width/2 - cx*v.Zoom
	targetPanY := v.Height/2 - cy*v.Zoom
	v.anim = &viewportAnim{
		tweenX:   gween.New(float32(v.PanX), float32(targetPanX), duration, easeFn),
		tweenY:   gween.New(float32(v.PanY), float32(targetPanY), duration, easeFn),
		doneZoom: true,
	}
}

// ZoomTo animates zoom toward newZoom about the viewport center, keeping the
// centered canvas point fixed throughout.
func (v *Viewport) ZoomTo(newZoom float64, duration float32, easeFn ease.TweenFunc) {
	newZoom = v.clampZoom(newZoom)
	if v.anim == nil {
		v.anim = &viewportAnim{doneX: true, doneY: true}
	}
	v.anim.tweenZoom = gween.New(float32(v.Zoom), float32(newZoom), duration, easeFn)
	v.anim.doneZoom = false
}

// Animating reports whether a scroll or zoom tween is in flight.
func (v *Viewport) Animating() bool {
	return v.anim != nil
}

// update advances active tweens. Returns true if the viewport changed,
// which forces a full redraw.
func (v *Viewport) update(dt float32) bool {
	if v.anim == nil {
		return false
	}
	a := v.anim
	if !a.doneX {
		val, done := a.tweenX.Update(dt)
		v.PanX = float64(val)
		a.doneX = done
	}
	if !a.doneY {
		val, done := a.tweenY.Update(dt)
		v.PanY = float64(val)
		a.doneY = done
	}
	if !a.doneZoom {
		val, done := a.tweenZoom.Update(dt)
		v.ZoomAtPoint(float64(val), v.OriginX+v.Width/2, v.OriginY+v.Height/2)
		a.doneZoom = done
	}
	v.dirty = true
	if a.doneX && a.doneY && a.doneZoom {
		v.anim = nil
	}
	return true
}
