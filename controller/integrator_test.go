package controller

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const tolerance = 1e-9

func vecNear(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

func TestForwardDisplacementAtYawZero(t *testing.T) {
	f := newFixture(t, Callbacks{})
	start := f.ctrl.Pose().Position

	f.ctrl.KeyDown("KeyW")
	f.ctrl.Update(1.0)

	want := start.Add(mgl64.Vec3{0, 0, -5})
	if got := f.ctrl.Pose().Position; !vecNear(got, want, tolerance) {
		t.Fatalf("holding forward 1s at 5 u/s: got %v, want %v", got, want)
	}
}

func TestSubStepIntegrationMatchesSingleStep(t *testing.T) {
	for _, steps := range []int{2, 3, 10, 240} {
		one := newFixture(t, Callbacks{})
		many := newFixture(t, Callbacks{})
		for _, f := range []*fixture{one, many} {
			f.ctrl.KeyDown("KeyW")
			f.ctrl.KeyDown("KeyD")
			f.ctrl.KeyDown("Space")
			f.ctrl.applyLook(123, -45)
		}

		const total = 1.5
		one.ctrl.Update(total)
		for i := 0; i < steps; i++ {
			many.ctrl.Update(total / float64(steps))
		}

		a := one.ctrl.Pose().Position
		b := many.ctrl.Pose().Position
		if !vecNear(a, b, 1e-9*float64(steps)) {
			t.Fatalf("%d sub-steps diverged: %v vs %v", steps, b, a)
		}
	}
}

func TestDiagonalMovementIsNotFaster(t *testing.T) {
	single := newFixture(t, Callbacks{})
	single.ctrl.KeyDown("KeyW")
	single.ctrl.Update(1.0)
	singleDist := single.ctrl.Pose().Position.Sub(mgl64.Vec3{0, 1.6, 0}).Len()

	diag := newFixture(t, Callbacks{})
	diag.ctrl.KeyDown("KeyW")
	diag.ctrl.KeyDown("KeyD")
	diag.ctrl.Update(1.0)
	diagDist := diag.ctrl.Pose().Position.Sub(mgl64.Vec3{0, 1.6, 0}).Len()

	if math.Abs(diagDist-singleDist) > tolerance {
		t.Fatalf("diagonal speed %v != single-axis speed %v", diagDist, singleDist)
	}
}

func TestVerticalMovement(t *testing.T) {
	f := newFixture(t, Callbacks{})
	f.ctrl.KeyDown("Space")
	f.ctrl.Update(2.0)
	if got, want := f.ctrl.Pose().Position.Y(), 1.6+10.0; math.Abs(got-want) > tolerance {
		t.Fatalf("ascent: got y=%v, want %v", got, want)
	}

	f.ctrl.KeyUp("Space")
	f.ctrl.KeyDown("ShiftLeft")
	f.ctrl.Update(1.0)
	if got, want := f.ctrl.Pose().Position.Y(), 1.6+5.0; math.Abs(got-want) > tolerance {
		t.Fatalf("descent: got y=%v, want %v", got, want)
	}
}

func TestPitchClampUnderExtremeDeltas(t *testing.T) {
	f := newFixture(t, Callbacks{})
	for i := 0; i < 10000; i++ {
		f.ctrl.PointerMove(0, -500)
	}
	if p := f.ctrl.Pose().Pitch; p > pitchLimit || p < -pitchLimit {
		t.Fatalf("pitch escaped clamp looking up: %v", p)
	}
	if p := f.ctrl.Pose().Pitch; math.Abs(p-pitchLimit) > tolerance {
		t.Fatalf("sustained up-look should rest at the clamp, got %v", p)
	}

	for i := 0; i < 10000; i++ {
		f.ctrl.PointerMove(0, 500)
	}
	if p := f.ctrl.Pose().Pitch; math.Abs(p+pitchLimit) > tolerance {
		t.Fatalf("sustained down-look should rest at the clamp, got %v", p)
	}
}

func TestYawRotatesMovementBasis(t *testing.T) {
	f := newFixture(t, Callbacks{})
	// Quarter turn left: forward should now point down -X.
	f.ctrl.pose.Yaw = math.Pi / 2
	f.ctrl.KeyDown("KeyW")
	f.ctrl.Update(1.0)

	want := mgl64.Vec3{-5, 1.6, 0}
	if got := f.ctrl.Pose().Position; !vecNear(got, want, 1e-9) {
		t.Fatalf("forward at yaw=pi/2: got %v, want %v", got, want)
	}
}

func TestPitchDoesNotAffectHorizontalMovement(t *testing.T) {
	level := newFixture(t, Callbacks{})
	tilted := newFixture(t, Callbacks{})
	tilted.ctrl.pose.Pitch = 1.2

	for _, f := range []*fixture{level, tilted} {
		f.ctrl.KeyDown("KeyW")
		f.ctrl.Update(1.0)
	}
	if a, b := level.ctrl.Pose().Position, tilted.ctrl.Pose().Position; !vecNear(a, b, tolerance) {
		t.Fatalf("pitch leaked into horizontal movement: %v vs %v", a, b)
	}
}

func TestPoseForward(t *testing.T) {
	p := Pose{}
	if got := p.Forward(); !vecNear(got, mgl64.Vec3{0, 0, -1}, tolerance) {
		t.Fatalf("identity forward: got %v", got)
	}
	p.Pitch = math.Pi / 2
	if got := p.Forward(); math.Abs(got.Y()-1) > tolerance {
		t.Fatalf("straight-up forward: got %v", got)
	}
}
