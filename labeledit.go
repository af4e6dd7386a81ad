package trellis

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// TextEditor is the inline text entry used for node renames and string
// parameters. The engine positions it over the edited text (screen rect) and
// supplies commit/cancel continuations; the editor owns key handling.
//
// HTML-style hosts can substitute their own implementation that floats a
// native input element over the canvas.
type TextEditor interface {
	// Begin opens an editing session over the given screen rect.
	Begin(rect Rect, initial string, commit func(string), cancel func())
	// Active reports whether a session is open.
	Active() bool
	// Step polls input once per frame while active.
	Step()
	// Commit ends the session, invoking the commit continuation.
	Commit()
	// Cancel ends the session, invoking the cancel continuation.
	Cancel()
}

// keyboardEditor is the built-in TextEditor: it polls ebiten's typed
// characters, supports backspace, and maps Enter to commit and Escape to
// cancel. Rendering of the in-progress text is left to the host overlay;
// Text exposes the current buffer.
type keyboardEditor struct {
	rect     Rect
	buf      []rune
	commitFn func(string)
	cancelFn func()
	active   bool
	chars    []rune
}

func newKeyboardEditor() *keyboardEditor {
	return &keyboardEditor{}
}

func (e *keyboardEditor) Begin(rect Rect, initial string, commit func(string), cancel func()) {
	if e.active {
		e.Commit()
	}
	e.rect = rect
	e.buf = []rune(initial)
	e.commitFn = commit
	e.cancelFn = cancel
	e.active = true
}

func (e *keyboardEditor) Active() bool {
	return e.active
}

// Text returns the in-progress buffer, for hosts that render the editor.
func (e *keyboardEditor) Text() string {
	return string(e.buf)
}

// Rect returns the screen rect the session was opened over.
func (e *keyboardEditor) Rect() Rect {
	return e.rect
}

func (e *keyboardEditor) Step() {
	if !e.active {
		return
	}
	e.chars = ebiten.AppendInputChars(e.chars[:0])
	for _, r := range e.chars {
		if r >= ' ' {
			e.buf = append(e.buf, r)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(e.buf) > 0 {
		e.buf = e.buf[:len(e.buf)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		e.Commit()
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		e.Cancel()
	}
}

func (e *keyboardEditor) Commit() {
	if !e.active {
		return
	}
	e.active = false
	if e.commitFn != nil {
		e.commitFn(string(e.buf))
	}
}

func (e *keyboardEditor) Cancel() {
	if !e.active {
		return
	}
	e.active = false
	if e.cancelFn != nil {
		e.cancelFn()
	}
}
