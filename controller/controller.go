// Package controller is the client-side avatar control and world-sync layer:
// it turns raw surface input into a local first-person pose, gates input
// through an exclusive free/chat/build mode machine, and keeps the world
// server informed over the persistent channel with throttled position
// updates and discrete actions.
//
// The controller is single-threaded and frame-driven. Surface events and the
// host's render loop must run on the same goroutine; channel messages arrive
// on a reader goroutine but are only consumed inside Update, so all state
// mutation stays on the frame thread.
package controller

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mossgate/voxelgarden/protocol"
)

// moveInterval caps outbound position updates at 20 Hz.
const moveInterval = 50 * time.Millisecond

// Channel is the persistent bidirectional message channel. Send must be
// fire-and-forget: it never blocks the frame, dropping on backpressure
// instead.
type Channel interface {
	Send(env protocol.Envelope)
	Inbound() <-chan protocol.Envelope
}

// Camera receives the avatar pose once per frame. Implemented by the host's
// rendering camera.
type Camera interface {
	SetPose(position mgl64.Vec3, yaw, pitch float64)
}

// Callbacks is the host-facing notification surface. Every field is
// optional. These are the only points where the host observes the
// controller's internal state; the controller never reaches into
// presentation state directly.
type Callbacks struct {
	// ChatStarted asks the host to show and focus its chat input.
	ChatStarted func()
	// ChatEnded reports that chat mode finished, by submit or cancel.
	ChatEnded func()
	// BuildChanged reports build mode toggling.
	BuildChanged func(active bool)
	// LockChanged mirrors pointer-capture grants and revocations, including
	// revocations the platform initiated on its own.
	LockChanged func(locked bool)
	// Interact fires on a pointer click in free mode, e.g. to let the host
	// re-request capture or open an interaction menu.
	Interact func()
	// JoinFailed surfaces a rejected join verbatim. Retry policy belongs to
	// the host.
	JoinFailed func(reason string)
	// Unhandled receives channel traffic this subsystem does not consume,
	// such as other avatars' movement, for the rendering layer.
	Unhandled func(env protocol.Envelope)
}

// Settings are the controller tunables.
type Settings struct {
	MoveSpeed       float64 // units per second
	LookSensitivity float64 // radians per pointer count
	EyeHeight       float64 // camera offset above the avatar's feet
	Bindings        Bindings
	Logger          *slog.Logger
}

// DefaultSettings returns the reference tuning.
func DefaultSettings() Settings {
	return Settings{
		MoveSpeed:       5.0,
		LookSensitivity: 0.002,
		EyeHeight:       1.6,
		Bindings:        DefaultBindings(),
	}
}

// Controller wires input capture, pose integration, the mode machine and
// network sync to one avatar. A zero-attached controller is inert: every
// entry point no-ops until Init and after Dispose.
type Controller struct {
	settings Settings
	logger   *slog.Logger

	ch       Channel
	camera   Camera
	surface  Surface
	avatarID string
	cb       Callbacks
	unbind   func()

	attached bool
	joined   bool
	mode     Mode
	held     map[string]struct{}
	pose     Pose
	lastMove time.Time

	now func() time.Time
}

// New creates a detached controller. Zero-valued settings fields fall back
// to DefaultSettings.
func New(settings Settings) *Controller {
	def := DefaultSettings()
	if settings.MoveSpeed == 0 {
		settings.MoveSpeed = def.MoveSpeed
	}
	if settings.LookSensitivity == 0 {
		settings.LookSensitivity = def.LookSensitivity
	}
	if settings.EyeHeight == 0 {
		settings.EyeHeight = def.EyeHeight
	}
	if settings.Bindings == (Bindings{}) {
		settings.Bindings = def.Bindings
	}
	logger := settings.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		settings: settings,
		logger:   logger.With("component", "controller"),
		held:     make(map[string]struct{}),
		now:      time.Now,
	}
}

// Init attaches the controller to a channel, camera, avatar and capture
// surface, registers for surface events, announces the avatar, and requests
// pointer capture. It is callable at most once per attachment; Dispose makes
// the controller re-attachable.
func (c *Controller) Init(ch Channel, camera Camera, avatarID string, surface Surface, cb Callbacks) error {
	if c.attached {
		return errors.New("controller: already attached")
	}
	if ch == nil {
		return errors.New("controller: nil channel")
	}
	if surface == nil {
		return errors.New("controller: nil surface")
	}

	c.ch = ch
	c.camera = camera
	c.avatarID = avatarID
	c.surface = surface
	c.cb = cb
	c.mode = ModeFree
	c.joined = false
	c.lastMove = time.Time{}
	c.clearHeld()
	c.pose = Pose{Position: mgl64.Vec3{0, c.settings.EyeHeight, 0}}

	c.attached = true
	c.unbind = surface.Bind(c)

	c.ch.Send(protocol.MustEncode(protocol.TypeJoin, protocol.Join{AvatarID: avatarID}))
	c.surface.RequestLock()
	c.logger.Info("attached", "avatarId", avatarID)
	return nil
}

// Update advances one frame: drain inbound messages, integrate held input
// unless chat suppresses it, publish the pose to the camera, and emit a
// throttled position update. delta is the frame time in seconds.
func (c *Controller) Update(delta float64) {
	if !c.attached {
		return
	}
	c.drainInbound()
	if c.mode != ModeChat {
		c.integrate(delta)
	}
	if c.camera != nil {
		c.camera.SetPose(c.pose.Position, c.pose.Yaw, c.pose.Pitch)
	}
	c.maybeSendMove()
}

// Dispose tears the attachment down: unregisters the surface handler,
// releases pointer capture if held, and announces the leave. It is safe to
// call in any state, repeatedly, and before Init; afterwards the controller
// is inert and may be re-initialized.
func (c *Controller) Dispose() {
	if !c.attached {
		return
	}
	if c.unbind != nil {
		c.unbind()
		c.unbind = nil
	}
	if c.surface.Locked() {
		c.surface.ReleaseLock()
	}
	c.ch.Send(protocol.MustEncode(protocol.TypeLeave, nil))
	c.clearHeld()
	c.joined = false
	c.mode = ModeFree
	c.attached = false
	c.ch = nil
	c.camera = nil
	c.surface = nil
	c.cb = Callbacks{}
	c.logger.Info("detached", "avatarId", c.avatarID)
}

// PointerButton implements Handler. Presses in free mode surface a generic
// interaction request; build placement is driven by the host through
// PlaceBlock and RemoveBlock because only the host can project the target
// cell.
func (c *Controller) PointerButton(button MouseButton, pressed bool) {
	if !c.attached || !pressed {
		return
	}
	if c.mode == ModeFree && c.cb.Interact != nil {
		c.cb.Interact()
	}
}

// LockChanged implements Handler. The platform can revoke capture at any
// time; the controller only mirrors the fact to the host. Mode and lock
// state are independent: free mode with lock lost just means input is not
// currently captured.
func (c *Controller) LockChanged(locked bool) {
	if !c.attached {
		return
	}
	if c.cb.LockChanged != nil {
		c.cb.LockChanged(locked)
	}
}

// Tune adjusts movement speed and look sensitivity in place, e.g. from a
// live-reloaded config. Non-positive values are ignored.
func (c *Controller) Tune(moveSpeed, lookSensitivity float64) {
	if moveSpeed > 0 {
		c.settings.MoveSpeed = moveSpeed
	}
	if lookSensitivity > 0 {
		c.settings.LookSensitivity = lookSensitivity
	}
}

// Pose returns the current avatar pose.
func (c *Controller) Pose() Pose { return c.pose }

// Mode returns the active interaction mode.
func (c *Controller) Mode() Mode { return c.mode }

// Joined reports whether the server has confirmed the avatar.
func (c *Controller) Joined() bool { return c.joined }

// Attached reports whether the controller is live.
func (c *Controller) Attached() bool { return c.attached }
