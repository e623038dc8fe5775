package controller

// MouseButton identifies a pointer button on the capture surface.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Handler receives raw input events from a Surface. The controller implements
// it; a surface must deliver events only between Bind and the returned unbind.
type Handler interface {
	// KeyDown reports a key press by its DOM-style code ("KeyW", "Enter", ...).
	KeyDown(code string)
	// KeyUp reports a key release.
	KeyUp(code string)
	// PointerMove reports relative pointer motion while capture is held.
	PointerMove(dx, dy float64)
	// PointerButton reports a button press or release.
	PointerButton(button MouseButton, pressed bool)
	// LockChanged reports that the platform granted or revoked pointer
	// capture. Revocation can happen at any time outside the controller's
	// call stack.
	LockChanged(locked bool)
}

// Surface is the input capture surface the controller attaches to. Pointer
// capture is an externally owned resource: RequestLock and ReleaseLock are
// requests, and the outcome is observed through Handler.LockChanged, never
// through a synchronous return value.
type Surface interface {
	// Bind registers h for input events and returns a function that removes
	// exactly that registration. Binding a second handler replaces the first.
	Bind(h Handler) (unbind func())
	RequestLock()
	ReleaseLock()
	// Locked reports whether the surface currently holds pointer capture.
	Locked() bool
	// TextInputActive reports whether a text-entry field has focus, in which
	// case key events must not drive movement.
	TextInputActive() bool
}
