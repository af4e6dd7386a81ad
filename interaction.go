package trellis

import "sort"

// EventKind identifies a kind of abstract interaction event.
type EventKind uint8

const (
	EventPress   EventKind = iota // pointer button pressed
	EventMove                     // pointer moved (with or without a button held)
	EventRelease                  // pointer button released
	EventWheel                    // scroll wheel turned
)

// Event is the abstract interaction event the canvas feeds to handlers:
// position in both screen and canvas space, plus modifier and button state.
type Event struct {
	Kind             EventKind
	ScreenX, ScreenY float64
	CanvasX, CanvasY float64
	Button           MouseButton
	Modifiers        KeyModifiers
	WheelX, WheelY   float64
	// Target is the hit-test result at the event position, resolved once by
	// the canvas so handlers don't re-run the hit tester.
	Target HitTarget
}

// Handler implements one interaction family with a start/update/end
// lifecycle. Once a handler claims a gesture it receives every subsequent
// event until the gesture ends; End always runs, even on cancellation, so
// transient state and the cursor are always released.
type Handler interface {
	// Priority orders claim checks; higher priorities ask first.
	Priority() int
	// CanHandle reports whether the handler claims the given press (or
	// wheel) event. Only called when no gesture is active.
	CanHandle(c *Canvas, ev Event) bool
	// Start begins a gesture.
	Start(c *Canvas, ev Event)
	// Update advances an active gesture.
	Update(c *Canvas, ev Event)
	// End finishes the gesture and must release all transient state.
	End(c *Canvas, ev Event)
}

// frameStepper is implemented by handlers that do per-frame work outside the
// event stream (wheel-delta application, edge scrolling, momentum).
type frameStepper interface {
	step(c *Canvas, dt float64)
}

// InteractionManager owns the priority-ordered handler registry and routes
// events. Exactly one handler owns a gesture at a time; handlers never call
// each other.
type InteractionManager struct {
	handlers []Handler
	active   Handler
	lastEv   Event
}

// NewInteractionManager creates an empty registry.
func NewInteractionManager() *InteractionManager {
	return &InteractionManager{}
}

// Register adds a handler, keeping the registry sorted by descending
// priority.
func (im *InteractionManager) Register(h Handler) {
	im.handlers = append(im.handlers, h)
	sort.SliceStable(im.handlers, func(i, j int) bool {
		return im.handlers[i].Priority() > im.handlers[j].Priority()
	})
}

// Active returns the handler owning the current gesture, or nil.
func (im *InteractionManager) Active() Handler {
	return im.active
}

// Dispatch routes one event. Presses ask each handler in descending
// priority; moves and releases go to the active handler unconditionally.
// Wheel events are single-event gestures: Start and End fire back to back.
func (im *InteractionManager) Dispatch(c *Canvas, ev Event) {
	im.lastEv = ev

	if im.active != nil {
		switch ev.Kind {
		case EventMove:
			im.active.Update(c, ev)
		case EventRelease:
			h := im.active
			im.active = nil
			h.Update(c, ev)
			h.End(c, ev)
		}
		return
	}

	switch ev.Kind {
	case EventPress:
		for _, h := range im.handlers {
			if h.CanHandle(c, ev) {
				im.active = h
				h.Start(c, ev)
				return
			}
		}
	case EventWheel:
		for _, h := range im.handlers {
			if h.CanHandle(c, ev) {
				h.Start(c, ev)
				h.End(c, ev)
				return
			}
		}
	}
}

// CancelActive force-ends the current gesture (tool switch, focus loss).
// End still runs so animation loops tied to the gesture are cancelled.
func (im *InteractionManager) CancelActive(c *Canvas) {
	if im.active == nil {
		return
	}
	h := im.active
	im.active = nil
	h.End(c, im.lastEv)
}

// stepAll advances per-frame work on handlers that need it.
func (im *InteractionManager) stepAll(c *Canvas, dt float64) {
	for _, h := range im.handlers {
		if s, ok := h.(frameStepper); ok {
			s.step(c, dt)
		}
	}
}
