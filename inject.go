package trellis

// syntheticEvent is a single injected pointer event. Screen coordinates are
// used and converted to canvas space the same way real mouse input is.
type syntheticEvent struct {
	screenX, screenY float64
	pressed          bool
	button           MouseButton
	mods             KeyModifiers
	wheelX, wheelY   float64
	wheel            bool
}

// InjectPress queues a pointer press at the given screen coordinates (left
// button). The event is consumed on the next Update call.
func (c *Canvas) InjectPress(x, y float64) {
	c.injectQueue = append(c.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  MouseButtonLeft,
	})
}

// InjectPressButton queues a press with an explicit button and modifiers.
func (c *Canvas) InjectPressButton(x, y float64, button MouseButton, mods KeyModifiers) {
	c.injectQueue = append(c.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  button,
		mods:    mods,
	})
}

// InjectMove queues a pointer move with the button held down. Use between
// InjectPress and InjectRelease to simulate a drag.
func (c *Canvas) InjectMove(x, y float64) {
	c.injectQueue = append(c.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  MouseButtonLeft,
	})
}

// InjectRelease queues a pointer release at the given screen coordinates.
func (c *Canvas) InjectRelease(x, y float64) {
	c.injectQueue = append(c.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		pressed: false,
		button:  MouseButtonLeft,
	})
}

// InjectClick queues a press followed by a release at the same position.
// Consumes two frames.
func (c *Canvas) InjectClick(x, y float64) {
	c.InjectPress(x, y)
	c.InjectRelease(x, y)
}

// InjectWheel queues a scroll wheel event at the given screen coordinates.
func (c *Canvas) InjectWheel(x, y, wheelX, wheelY float64) {
	c.injectQueue = append(c.injectQueue, syntheticEvent{
		screenX: x, screenY: y,
		wheelX: wheelX, wheelY: wheelY,
		wheel: true,
	})
}

// InjectDrag queues a full drag: press at (fromX, fromY), interpolated moves
// over frames-2 intermediate frames, release at (toX, toY). Minimum frames
// is 2 (press + release).
func (c *Canvas) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	c.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		c.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	c.InjectRelease(toX, toY)
}

// processInjectedInput pops one queued event and feeds it through the same
// pointer state machine real input uses. Returns true if an event was
// consumed, in which case real mouse polling is skipped for the frame.
func (c *Canvas) processInjectedInput() bool {
	if len(c.injectQueue) == 0 {
		return false
	}
	evt := c.injectQueue[0]
	copy(c.injectQueue, c.injectQueue[1:])
	c.injectQueue = c.injectQueue[:len(c.injectQueue)-1]

	if evt.wheel {
		c.feedPointer(evt.screenX, evt.screenY, c.pointerDown, MouseButtonLeft, evt.mods, evt.wheelX, evt.wheelY)
		return true
	}
	c.feedPointer(evt.screenX, evt.screenY, evt.pressed, evt.button, evt.mods, 0, 0)
	return true
}
