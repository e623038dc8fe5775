package controller

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mossgate/voxelgarden/protocol"
)

// drainInbound consumes every message queued on the channel since the last
// frame. It runs at the top of Update, so inbound effects always
// happen-before that frame's integration.
func (c *Controller) drainInbound() {
	for {
		select {
		case env, ok := <-c.ch.Inbound():
			if !ok {
				return
			}
			c.handleMessage(env)
		default:
			return
		}
	}
}

func (c *Controller) handleMessage(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeJoined:
		var joined protocol.Joined
		if err := env.Payload(&joined); err != nil {
			c.logger.Warn("malformed joined payload", "error", err)
			return
		}
		c.joined = true
		if joined.Position != nil {
			// The server owns the starting position; the avatar eye sits
			// EyeHeight above it.
			c.pose.Position = mgl64.Vec3{
				joined.Position.X,
				joined.Position.Y + c.settings.EyeHeight,
				joined.Position.Z,
			}
		}
	case protocol.TypeError:
		var info protocol.ErrorInfo
		if err := env.Payload(&info); err != nil {
			c.logger.Warn("malformed error payload", "error", err)
			return
		}
		// No retry here: rejoining requires re-provisioning the avatar,
		// which is the host's call.
		if c.cb.JoinFailed != nil {
			c.cb.JoinFailed(info.Reason)
		}
	default:
		// World traffic for the rendering collaborator.
		if c.cb.Unhandled != nil {
			c.cb.Unhandled(env)
		}
	}
}

// maybeSendMove emits a throttled position update: at most one per
// moveInterval regardless of frame rate, and nothing before the server has
// confirmed the join.
func (c *Controller) maybeSendMove() {
	if !c.joined {
		return
	}
	now := c.now()
	if !c.lastMove.IsZero() && now.Sub(c.lastMove) < moveInterval {
		return
	}
	c.lastMove = now
	p := c.pose.Position
	c.ch.Send(protocol.MustEncode(protocol.TypeMove, protocol.Move{
		X: round2(p.X()),
		Y: round2(p.Y()),
		Z: round2(p.Z()),
	}))
}

// round2 bounds coordinate precision to two decimals so float noise does not
// spam the channel.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SubmitChat delivers the host's chat input. Whitespace-only text is a
// cancel, not an error; either way chat mode ends and pointer capture is
// requested back.
func (c *Controller) SubmitChat(text string) {
	if !c.attached || c.mode != ModeChat {
		return
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		c.ch.Send(protocol.MustEncode(protocol.TypeSpeak, protocol.Speak{Text: trimmed}))
	}
	c.leaveChat()
}

// PlaceBlock transmits a voxel placement at an integer world cell. The host
// computes the cell from camera-forward projection; the controller only
// transmits, and only while build mode is active.
func (c *Controller) PlaceBlock(x, y, z int, color, material string) {
	if !c.attached || c.mode != ModeBuild {
		return
	}
	c.ch.Send(protocol.MustEncode(protocol.TypeBuild, protocol.Build{
		X: x, Y: y, Z: z, Color: color, Material: material,
	}))
}

// RemoveBlock transmits a voxel removal at an integer world cell.
func (c *Controller) RemoveBlock(x, y, z int) {
	if !c.attached || c.mode != ModeBuild {
		return
	}
	c.ch.Send(protocol.MustEncode(protocol.TypeDestroy, protocol.Destroy{X: x, Y: y, Z: z}))
}
