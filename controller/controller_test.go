package controller

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mossgate/voxelgarden/protocol"
)

func TestInitSendsJoinAndRequestsLock(t *testing.T) {
	f := newFixture(t, Callbacks{})

	joins := f.ch.sentOfType(protocol.TypeJoin)
	if len(joins) != 1 {
		t.Fatalf("expected 1 join on init, got %d", len(joins))
	}
	var join protocol.Join
	if err := joins[0].Payload(&join); err != nil {
		t.Fatalf("join payload: %v", err)
	}
	if join.AvatarID != "avatar-1" {
		t.Fatalf("join avatarId = %q", join.AvatarID)
	}
	if f.surface.lockRequests != 1 {
		t.Fatalf("expected 1 lock request, got %d", f.surface.lockRequests)
	}
}

func TestInitTwiceFails(t *testing.T) {
	f := newFixture(t, Callbacks{})
	if err := f.ctrl.Init(f.ch, nil, "avatar-1", f.surface, Callbacks{}); err == nil {
		t.Fatal("second Init should fail while attached")
	}
}

func TestJoinedAdoptsAuthoritativePositionWithEyeHeight(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.join(t, &protocol.Vec3{X: 5, Y: 0, Z: 5})

	want := mgl64.Vec3{5, 1.6, 5}
	if got := f.ctrl.Pose().Position; !vecNear(got, want, tolerance) {
		t.Fatalf("pose after join = %v, want %v", got, want)
	}
	if !f.ctrl.Joined() {
		t.Fatal("controller should report joined")
	}
}

func TestJoinedOverwritesOptimisticMovement(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.ctrl.KeyDown("KeyW")
	f.ctrl.Update(0.5) // optimistic drift before the server confirms
	f.ctrl.KeyUp("KeyW")

	f.join(t, &protocol.Vec3{X: -3, Y: 2, Z: 7})
	want := mgl64.Vec3{-3, 3.6, 7}
	if got := f.ctrl.Pose().Position; !vecNear(got, want, tolerance) {
		t.Fatalf("authoritative position not adopted: got %v, want %v", got, want)
	}
}

func TestNoMoveMessagesBeforeJoinConfirmation(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.ctrl.KeyDown("KeyW")
	for i := 0; i < 100; i++ {
		f.advance(16*time.Millisecond, 0.016)
	}
	if n := len(f.ch.sentOfType(protocol.TypeMove)); n != 0 {
		t.Fatalf("sent %d move messages before join confirmation", n)
	}
}

func TestMoveThrottleAtHighFrameRate(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.join(t, nil)
	f.ctrl.KeyDown("KeyW")

	// 240 frames across one second must collapse to roughly 20 sends.
	const frames = 240
	step := time.Second / frames
	for i := 0; i < frames; i++ {
		f.advance(step, step.Seconds())
	}

	got := len(f.ch.sentOfType(protocol.TypeMove))
	if got > 21 {
		t.Fatalf("throttle failed: %d move messages in 1s (limit 21)", got)
	}
	if got < 19 {
		t.Fatalf("throttle starved: %d move messages in 1s", got)
	}
}

func TestMoveThrottleAtLowFrameRate(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.join(t, nil)

	sentAfterJoin := len(f.ch.sentOfType(protocol.TypeMove))

	// 5 fps: every frame is past the interval, every frame may send.
	for i := 0; i < 10; i++ {
		f.advance(200*time.Millisecond, 0.2)
	}
	if got := len(f.ch.sentOfType(protocol.TypeMove)) - sentAfterJoin; got != 10 {
		t.Fatalf("expected 10 move messages at 5 fps, got %d", got)
	}
}

func TestMoveCoordinatesRoundedToTwoDecimals(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.join(t, nil)
	f.ctrl.pose.Position = mgl64.Vec3{1.23456, 7.89999, -0.00149}
	f.advance(time.Second, 0)

	moves := f.ch.sentOfType(protocol.TypeMove)
	if len(moves) == 0 {
		t.Fatal("no move message sent")
	}
	var move protocol.Move
	if err := moves[len(moves)-1].Payload(&move); err != nil {
		t.Fatalf("move payload: %v", err)
	}
	if move.X != 1.23 || move.Y != 7.9 || move.Z != 0 {
		t.Fatalf("coordinates not rounded: %+v", move)
	}
}

func TestJoinErrorSurfacedWithoutRetry(t *testing.T) {
	var reason string
	f := newFixture(t, Callbacks{JoinFailed: func(r string) { reason = r }})

	f.ch.inbound <- protocol.MustEncode(protocol.TypeError, protocol.ErrorInfo{Reason: "avatar id already in use"})
	f.ctrl.Update(0)

	if reason != "avatar id already in use" {
		t.Fatalf("reason = %q", reason)
	}
	if n := len(f.ch.sentOfType(protocol.TypeJoin)); n != 1 {
		t.Fatalf("controller retried the join itself: %d join messages", n)
	}
	if f.ctrl.Joined() {
		t.Fatal("controller should not report joined after an error")
	}
}

func TestUnconsumedTrafficForwardedToHost(t *testing.T) {
	var got []protocol.Envelope
	f := newFixture(t, Callbacks{Unhandled: func(env protocol.Envelope) { got = append(got, env) }})

	f.ch.inbound <- protocol.MustEncode(protocol.TypeMove, protocol.Move{AvatarID: "other", X: 1})
	f.ch.inbound <- protocol.MustEncode(protocol.TypeSpeak, protocol.Speak{AvatarID: "other", Text: "hi"})
	f.ctrl.Update(0)

	if len(got) != 2 || got[0].Type != protocol.TypeMove || got[1].Type != protocol.TypeSpeak {
		t.Fatalf("forwarded traffic = %+v", got)
	}
}

func TestBuildActionsOnlyTransmitInBuildMode(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.join(t, nil)

	f.ctrl.PlaceBlock(1, 2, 3, "#fff", "moss")
	f.ctrl.RemoveBlock(1, 2, 3)
	if n := len(f.ch.sentOfType(protocol.TypeBuild)) + len(f.ch.sentOfType(protocol.TypeDestroy)); n != 0 {
		t.Fatalf("build traffic outside build mode: %d messages", n)
	}

	f.ctrl.KeyDown("KeyB")
	f.ctrl.PlaceBlock(1, 2, 3, "#fff", "moss")
	f.ctrl.RemoveBlock(4, 5, 6)

	builds := f.ch.sentOfType(protocol.TypeBuild)
	if len(builds) != 1 {
		t.Fatalf("expected 1 build, got %d", len(builds))
	}
	var build protocol.Build
	if err := builds[0].Payload(&build); err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if build.X != 1 || build.Y != 2 || build.Z != 3 || build.Color != "#fff" || build.Material != "moss" {
		t.Fatalf("build payload = %+v", build)
	}
	destroys := f.ch.sentOfType(protocol.TypeDestroy)
	if len(destroys) != 1 {
		t.Fatalf("expected 1 destroy, got %d", len(destroys))
	}
}

func TestInteractFiresOnClickInFreeMode(t *testing.T) {
	var clicks int
	f := newFixture(t, Callbacks{Interact: func() { clicks++ }})

	f.ctrl.PointerButton(MouseLeft, true)
	f.ctrl.PointerButton(MouseLeft, false)
	if clicks != 1 {
		t.Fatalf("expected 1 interact on press, got %d", clicks)
	}

	f.ctrl.KeyDown("KeyB")
	f.ctrl.PointerButton(MouseLeft, true)
	if clicks != 1 {
		t.Fatalf("interact fired in build mode")
	}
}

func TestDisposeIsIdempotentAndSafeBeforeInit(t *testing.T) {
	// Dispose before any Init must be a no-op.
	New(Settings{}).Dispose()

	f := newFixture(t, Callbacks{})
	f.ctrl.Dispose()
	f.ctrl.Dispose()

	if f.surface.handler != nil {
		t.Fatal("surface handler still bound after dispose")
	}
	if f.surface.Locked() {
		t.Fatal("pointer lock still held after dispose")
	}
	leaves := f.ch.sentOfType(protocol.TypeLeave)
	if len(leaves) != 1 {
		t.Fatalf("expected exactly 1 leave, got %d", len(leaves))
	}
}

func TestDisposedControllerIgnoresEverything(t *testing.T) {
	f := newFixture(t, Callbacks{})
	surface := f.surface
	f.ctrl.Dispose()
	sentBefore := len(f.ch.sent)

	// Raw events into the detached controller and a frame tick: no effects.
	f.ctrl.KeyDown("KeyW")
	f.ctrl.PointerMove(100, 100)
	f.ctrl.PointerButton(MouseLeft, true)
	f.ctrl.LockChanged(true)
	f.ctrl.SubmitChat("hello")
	f.ctrl.Update(1.0)

	if len(f.ch.sent) != sentBefore {
		t.Fatalf("disposed controller sent %d messages", len(f.ch.sent)-sentBefore)
	}
	if got := f.ctrl.Pose().Position; !vecNear(got, mgl64.Vec3{0, 1.6, 0}, tolerance) {
		t.Fatalf("disposed controller moved to %v", got)
	}
	if surface.handler != nil {
		t.Fatal("surface delivery still possible after dispose")
	}
}

func TestReInitAfterDispose(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.ctrl.Dispose()

	ch2 := newFakeChannel()
	surface2 := &fakeSurface{}
	if err := f.ctrl.Init(ch2, nil, "avatar-2", surface2, Callbacks{}); err != nil {
		t.Fatalf("re-init after dispose: %v", err)
	}
	if len(ch2.sentOfType(protocol.TypeJoin)) != 1 {
		t.Fatal("re-init did not announce the new avatar")
	}
}

func TestTuneAdjustsSpeed(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.ctrl.Tune(10, 0) // zero sensitivity ignored
	f.ctrl.KeyDown("KeyW")
	f.ctrl.Update(1.0)
	if got := f.ctrl.Pose().Position.Z(); math.Abs(got-(-10)) > tolerance {
		t.Fatalf("tuned speed not applied: z=%v", got)
	}
	if f.ctrl.settings.LookSensitivity != DefaultSettings().LookSensitivity {
		t.Fatal("zero sensitivity should have been ignored")
	}
}
