package trellis

import "testing"

// stubHandler records its lifecycle calls for dispatch-order tests.
type stubHandler struct {
	priority int
	claims   bool
	log      *[]string
	name     string
}

func (h *stubHandler) Priority() int { return h.priority }

func (h *stubHandler) CanHandle(c *Canvas, ev Event) bool {
	*h.log = append(*h.log, h.name+".can")
	return h.claims
}

func (h *stubHandler) Start(c *Canvas, ev Event) {
	*h.log = append(*h.log, h.name+".start")
}

func (h *stubHandler) Update(c *Canvas, ev Event) {
	*h.log = append(*h.log, h.name+".update")
}

func (h *stubHandler) End(c *Canvas, ev Event) {
	*h.log = append(*h.log, h.name+".end")
}

func TestDispatchAsksHandlersByDescendingPriority(t *testing.T) {
	var log []string
	im := NewInteractionManager()
	// Registered out of order on purpose.
	im.Register(&stubHandler{priority: 10, log: &log, name: "low"})
	im.Register(&stubHandler{priority: 50, log: &log, name: "high", claims: true})
	im.Register(&stubHandler{priority: 30, log: &log, name: "mid"})

	im.Dispatch(nil, Event{Kind: EventPress})

	want := []string{"high.can", "high.start"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestDispatchFallsThroughToLowerPriority(t *testing.T) {
	var log []string
	im := NewInteractionManager()
	im.Register(&stubHandler{priority: 50, log: &log, name: "high"})
	im.Register(&stubHandler{priority: 10, log: &log, name: "low", claims: true})

	im.Dispatch(nil, Event{Kind: EventPress})

	if im.Active() == nil {
		t.Fatal("low handler should have claimed")
	}
	if log[len(log)-1] != "low.start" {
		t.Errorf("log = %v", log)
	}
}

func TestActiveHandlerOwnsMovesAndRelease(t *testing.T) {
	var log []string
	im := NewInteractionManager()
	owner := &stubHandler{priority: 50, log: &log, name: "owner", claims: true}
	rival := &stubHandler{priority: 90, log: &log, name: "rival"} // never claims

	im.Register(owner)
	im.Register(rival)
	im.Dispatch(nil, Event{Kind: EventPress})
	log = log[:0]

	im.Dispatch(nil, Event{Kind: EventMove})
	im.Dispatch(nil, Event{Kind: EventMove})
	im.Dispatch(nil, Event{Kind: EventRelease})

	// Moves and the release go to the owner; rival is never consulted and the
	// release runs a final update before end.
	want := []string{"owner.update", "owner.update", "owner.update", "owner.end"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
	if im.Active() != nil {
		t.Error("gesture should be over")
	}
}

func TestMoveWithoutGestureIsDropped(t *testing.T) {
	var log []string
	im := NewInteractionManager()
	im.Register(&stubHandler{priority: 50, log: &log, name: "h", claims: true})

	im.Dispatch(nil, Event{Kind: EventMove})
	im.Dispatch(nil, Event{Kind: EventRelease})

	if len(log) != 0 {
		t.Errorf("no handler should run, log = %v", log)
	}
}

func TestWheelIsSingleEventGesture(t *testing.T) {
	var log []string
	im := NewInteractionManager()
	im.Register(&stubHandler{priority: 50, log: &log, name: "wheel", claims: true})

	im.Dispatch(nil, Event{Kind: EventWheel, WheelY: 1})

	want := []string{"wheel.can", "wheel.start", "wheel.end"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	if im.Active() != nil {
		t.Error("wheel must not leave a gesture active")
	}
}

func TestCancelActiveRunsEnd(t *testing.T) {
	var log []string
	im := NewInteractionManager()
	im.Register(&stubHandler{priority: 50, log: &log, name: "h", claims: true})

	im.Dispatch(nil, Event{Kind: EventPress})
	im.CancelActive(nil)

	if log[len(log)-1] != "h.end" {
		t.Errorf("log = %v", log)
	}
	if im.Active() != nil {
		t.Error("cancel should clear the active handler")
	}
	// Idempotent.
	im.CancelActive(nil)
}
