package trellis

import "math"

// Guide is a transient alignment line shown while a drag snaps.
type Guide struct {
	Vertical bool
	Pos      float64 // canvas X (vertical) or Y (horizontal)
	From, To float64 // extent along the guide's axis
}

// SnapResult is the outcome of a smart-guide query: the snapped candidate
// position and the guides to render.
type SnapResult struct {
	X, Y   float64
	Guides []Guide
}

// GuideEngine computes axis-aligned alignment guides for a node being
// dragged, against the currently visible sibling nodes.
type GuideEngine struct {
	theme Theme
}

// NewGuideEngine creates a guide engine styled by theme.
func NewGuideEngine(theme Theme) *GuideEngine {
	if theme == nil {
		theme = defaultTheme
	}
	return &GuideEngine{theme: theme}
}

// axisCandidate tracks the best alignment found on one axis.
type axisCandidate struct {
	found    bool
	dist     float64
	delta    float64 // applied to the proposed position when accepted
	guidePos float64
	lo, hi   float64 // merged extent along the perpendicular axis
}

// consider offers one edge pair. Strictly-below-threshold keeps an edge at
// exactly the threshold distance from snapping; ties keep the earlier
// discovery.
func (c *axisCandidate) consider(dist, delta, guidePos, lo, hi float64, threshold float64) {
	if dist >= threshold {
		return
	}
	if c.found && c.guidePos == guidePos {
		// Same guide coordinate from another pair: merge extents.
		c.lo = min(c.lo, lo)
		c.hi = max(c.hi, hi)
		return
	}
	if c.found && dist >= c.dist {
		return
	}
	c.found = true
	c.dist = dist
	c.delta = delta
	c.guidePos = guidePos
	c.lo = lo
	c.hi = hi
}

// Snap compares the moving box's left/right/top/bottom edges at the proposed
// position against the same edges of every sibling. The screen threshold is
// divided by zoom so snapping feels constant at any zoom level. A candidate
// is accepted only if accepting it would move the node by no more than the
// threshold, which keeps guides from appearing far from the cursor.
func (e *GuideEngine) Snap(moving Rect, proposedX, proposedY, zoom float64, siblings []Rect) SnapResult {
	threshold := e.theme.Number("snap.threshold", fallbackSnapThreshold) / max(zoom, epsilon)

	box := Rect{X: proposedX, Y: proposedY, Width: moving.Width, Height: moving.Height}
	var bestX, bestY axisCandidate

	for _, s := range siblings {
		// Vertical guides: left-left and right-right.
		for _, pair := range [2][2]float64{
			{box.X, s.X},
			{box.X + box.Width, s.X + s.Width},
		} {
			d := pair[0] - pair[1]
			bestX.consider(math.Abs(d), -d, pair[1],
				min(box.Y, s.Y), max(box.Y+box.Height, s.Y+s.Height), threshold)
		}
		// Horizontal guides: top-top and bottom-bottom.
		for _, pair := range [2][2]float64{
			{box.Y, s.Y},
			{box.Y + box.Height, s.Y + s.Height},
		} {
			d := pair[0] - pair[1]
			bestY.consider(math.Abs(d), -d, pair[1],
				min(box.X, s.X), max(box.X+box.Width, s.X+s.Width), threshold)
		}
	}

	result := SnapResult{X: proposedX, Y: proposedY}
	if bestX.found && math.Abs(bestX.delta) <= threshold {
		result.X = proposedX + bestX.delta
		result.Guides = append(result.Guides, Guide{
			Vertical: true, Pos: bestX.guidePos, From: bestX.lo, To: bestX.hi,
		})
	}
	if bestY.found && math.Abs(bestY.delta) <= threshold {
		result.Y = proposedY + bestY.delta
		result.Guides = append(result.Guides, Guide{
			Vertical: false, Pos: bestY.guidePos, From: bestY.lo, To: bestY.hi,
		})
	}
	result.Guides = dedupGuides(result.Guides)
	return result
}

// dedupGuides merges guides sharing an orientation and coordinate,
// extending their extents over all contributors.
func dedupGuides(guides []Guide) []Guide {
	if len(guides) < 2 {
		return guides
	}
	out := guides[:0]
	for _, g := range guides {
		merged := false
		for i := range out {
			if out[i].Vertical == g.Vertical && out[i].Pos == g.Pos {
				out[i].From = min(out[i].From, g.From)
				out[i].To = max(out[i].To, g.To)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, g)
		}
	}
	return out
}
