package controller

// Bindings maps controller actions to DOM-style key codes.
type Bindings struct {
	Forward string
	Back    string
	Left    string
	Right   string
	Up      string
	Down    string
	Chat    string
	Build   string
	Cancel  string
}

// DefaultBindings is the reference layout: WASD plus space/shift for
// vertical flight, enter/B/escape for mode transitions.
func DefaultBindings() Bindings {
	return Bindings{
		Forward: "KeyW",
		Back:    "KeyS",
		Left:    "KeyA",
		Right:   "KeyD",
		Up:      "Space",
		Down:    "ShiftLeft",
		Chat:    "Enter",
		Build:   "KeyB",
		Cancel:  "Escape",
	}
}

// KeyDown implements Handler. Mode-toggle keys are edge-triggered transitions
// and never enter the held set; everything else accumulates for the next
// Update. Keys are ignored entirely while a text-entry field has focus so
// normal typing is unaffected.
func (c *Controller) KeyDown(code string) {
	if !c.attached {
		return
	}
	if c.surface.TextInputActive() {
		return
	}
	b := c.settings.Bindings
	switch code {
	case b.Chat:
		if c.mode == ModeFree {
			c.enterChat()
		}
	case b.Build:
		c.toggleBuild()
	case b.Cancel:
		switch c.mode {
		case ModeChat:
			c.leaveChat()
		case ModeBuild:
			c.toggleBuild()
		}
	default:
		if c.mode == ModeChat {
			return
		}
		c.held[code] = struct{}{}
	}
}

// KeyUp implements Handler. Releases are honored unconditionally so a key
// pressed before a focus change cannot stick.
func (c *Controller) KeyUp(code string) {
	if !c.attached {
		return
	}
	delete(c.held, code)
}

func (c *Controller) heldKey(code string) bool {
	_, ok := c.held[code]
	return ok
}

func (c *Controller) clearHeld() {
	for code := range c.held {
		delete(c.held, code)
	}
}
