package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mossgate/voxelgarden/controller"
)

// keyCodes maps ebiten keys to the DOM-style codes the controller speaks.
var keyCodes = map[ebiten.Key]string{
	ebiten.KeyW:          "KeyW",
	ebiten.KeyA:          "KeyA",
	ebiten.KeyS:          "KeyS",
	ebiten.KeyD:          "KeyD",
	ebiten.KeyB:          "KeyB",
	ebiten.KeySpace:      "Space",
	ebiten.KeyShiftLeft:  "ShiftLeft",
	ebiten.KeyShiftRight: "ShiftRight",
	ebiten.KeyEnter:      "Enter",
	ebiten.KeyEscape:     "Escape",
	ebiten.KeyArrowUp:    "ArrowUp",
	ebiten.KeyArrowDown:  "ArrowDown",
	ebiten.KeyArrowLeft:  "ArrowLeft",
	ebiten.KeyArrowRight: "ArrowRight",
}

// gameSurface adapts ebiten's cursor capture and polled input to the
// controller's capture-surface contract. Events are synthesized once per
// frame in pump, before the controller's Update runs.
type gameSurface struct {
	handler    controller.Handler
	locked     bool
	textActive func() bool

	lastX, lastY int
	resetDelta   bool

	// skipToggleKeys drops Enter/Escape for one pump. The host sets it on
	// the frame that closes chat, where IsKeyJustPressed still reports the
	// submitting keypress and would otherwise reopen chat immediately.
	skipToggleKeys bool
}

// keyDown delivers a press, holding back the mode-toggle keys when the frame
// that consumed them asked for it.
func (s *gameSurface) keyDown(code string, skipToggles bool) {
	if skipToggles && (code == "Enter" || code == "Escape") {
		return
	}
	s.handler.KeyDown(code)
}

func (s *gameSurface) Bind(h controller.Handler) func() {
	s.handler = h
	return func() {
		if s.handler == h {
			s.handler = nil
		}
	}
}

func (s *gameSurface) RequestLock() {
	ebiten.SetCursorMode(ebiten.CursorModeCaptured)
	s.locked = true
	s.resetDelta = true
	if s.handler != nil {
		s.handler.LockChanged(true)
	}
}

func (s *gameSurface) ReleaseLock() {
	ebiten.SetCursorMode(ebiten.CursorModeVisible)
	s.locked = false
	if s.handler != nil {
		s.handler.LockChanged(false)
	}
}

func (s *gameSurface) Locked() bool { return s.locked }

func (s *gameSurface) TextInputActive() bool {
	return s.textActive != nil && s.textActive()
}

// pump polls ebiten input and synthesizes surface events for this frame.
func (s *gameSurface) pump() {
	if s.handler == nil {
		return
	}

	// The platform can drop capture on its own (focus loss, window manager).
	if s.locked && ebiten.CursorMode() != ebiten.CursorModeCaptured {
		s.locked = false
		s.handler.LockChanged(false)
	}

	skipToggles := s.skipToggleKeys
	s.skipToggleKeys = false

	for key, code := range keyCodes {
		if inpututil.IsKeyJustPressed(key) {
			s.keyDown(code, skipToggles)
		}
		if inpututil.IsKeyJustReleased(key) {
			s.handler.KeyUp(code)
		}
	}

	x, y := ebiten.CursorPosition()
	if s.locked {
		if s.resetDelta {
			s.resetDelta = false
		} else if dx, dy := x-s.lastX, y-s.lastY; dx != 0 || dy != 0 {
			s.handler.PointerMove(float64(dx), float64(dy))
		}
	}
	s.lastX, s.lastY = x, y

	buttons := []struct {
		eb ebiten.MouseButton
		mb controller.MouseButton
	}{
		{ebiten.MouseButtonLeft, controller.MouseLeft},
		{ebiten.MouseButtonRight, controller.MouseRight},
		{ebiten.MouseButtonMiddle, controller.MouseMiddle},
	}
	for _, b := range buttons {
		if inpututil.IsMouseButtonJustPressed(b.eb) {
			s.handler.PointerButton(b.mb, true)
		}
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			s.handler.PointerButton(b.mb, false)
		}
	}
}
