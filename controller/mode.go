package controller

// Mode is the exclusive interaction mode. Exactly one mode is active at a
// time; transitions happen only through the controller's key handling and
// chat submission paths so the exclusivity invariant is structural.
type Mode int

const (
	// ModeFree is first-person movement and look.
	ModeFree Mode = iota
	// ModeChat is text entry; held keys are cleared on entry and movement
	// integration is suppressed while active.
	ModeChat
	// ModeBuild is voxel placement. Look and movement stay live; placement
	// clicks are routed to the host, which projects the target cell.
	ModeBuild
)

func (m Mode) String() string {
	switch m {
	case ModeFree:
		return "free"
	case ModeChat:
		return "chat"
	case ModeBuild:
		return "build"
	default:
		return "unknown"
	}
}

// enterChat transitions free -> chat: stop motion, give up pointer capture,
// hand focus to the host's text input.
func (c *Controller) enterChat() {
	c.clearHeld()
	if c.surface.Locked() {
		c.surface.ReleaseLock()
	}
	c.mode = ModeChat
	if c.cb.ChatStarted != nil {
		c.cb.ChatStarted()
	}
}

// leaveChat transitions chat -> free and asks for pointer capture back.
func (c *Controller) leaveChat() {
	c.mode = ModeFree
	c.surface.RequestLock()
	if c.cb.ChatEnded != nil {
		c.cb.ChatEnded()
	}
}

// toggleBuild flips free <-> build. No pointer-lock side effect: building
// happens while still looking around.
func (c *Controller) toggleBuild() {
	switch c.mode {
	case ModeFree:
		c.mode = ModeBuild
	case ModeBuild:
		c.mode = ModeFree
	default:
		return
	}
	if c.cb.BuildChanged != nil {
		c.cb.BuildChanged(c.mode == ModeBuild)
	}
}
