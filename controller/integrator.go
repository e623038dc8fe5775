package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// pitchLimit keeps pitch just under +-90 degrees to prevent gimbal flip.
const pitchLimit = math.Pi/2 - 0.01

// Pose is the avatar's camera pose. The controller owns it exclusively while
// attached; collaborators read it, they never mutate it.
type Pose struct {
	Position mgl64.Vec3
	Yaw      float64 // radians, 0 faces -Z, positive turns left
	Pitch    float64 // radians, positive looks up
}

// Forward returns the full look direction including pitch. Hosts use it to
// project build targets from the camera.
func (p Pose) Forward() mgl64.Vec3 {
	cp := math.Cos(p.Pitch)
	return mgl64.Vec3{
		-math.Sin(p.Yaw) * cp,
		math.Sin(p.Pitch),
		-math.Cos(p.Yaw) * cp,
	}
}

// horizontalBasis derives the movement basis from yaw alone. Pitch does not
// affect horizontal movement; flight stays predictable while looking up or
// down.
func horizontalBasis(yaw float64) (forward, right mgl64.Vec3) {
	sin, cos := math.Sin(yaw), math.Cos(yaw)
	forward = mgl64.Vec3{-sin, 0, -cos}
	right = mgl64.Vec3{cos, 0, -sin}
	return
}

// integrate advances the pose by delta seconds of held-key movement. The
// displacement is linear in delta, so integrating in sub-steps summing to T
// matches a single step of T and the controller stays frame-rate independent.
func (c *Controller) integrate(delta float64) {
	b := c.settings.Bindings
	forward, right := horizontalBasis(c.pose.Yaw)

	var move mgl64.Vec3
	if c.heldKey(b.Forward) {
		move = move.Add(forward)
	}
	if c.heldKey(b.Back) {
		move = move.Sub(forward)
	}
	if c.heldKey(b.Right) {
		move = move.Add(right)
	}
	if c.heldKey(b.Left) {
		move = move.Sub(right)
	}
	// Normalize before scaling so diagonals are not faster than axes.
	if l := move.Len(); l > 0 {
		move = move.Mul(1 / l)
	}

	var vertical float64
	if c.heldKey(b.Up) {
		vertical++
	}
	if c.heldKey(b.Down) {
		vertical--
	}

	step := c.settings.MoveSpeed * delta
	c.pose.Position = c.pose.Position.Add(move.Mul(step))
	c.pose.Position[1] += vertical * step
}

// applyLook consumes a relative pointer delta. Positive dx looks right,
// positive dy looks down, matching pointer-lock movementX/Y conventions.
func (c *Controller) applyLook(dx, dy float64) {
	s := c.settings.LookSensitivity
	c.pose.Yaw -= dx * s
	c.pose.Pitch -= dy * s
	if c.pose.Pitch > pitchLimit {
		c.pose.Pitch = pitchLimit
	}
	if c.pose.Pitch < -pitchLimit {
		c.pose.Pitch = -pitchLimit
	}
}

// PointerMove implements Handler. Look is live in free and build modes; chat
// suppresses it along with movement.
func (c *Controller) PointerMove(dx, dy float64) {
	if !c.attached || c.mode == ModeChat {
		return
	}
	c.applyLook(dx, dy)
}
