package controller

import (
	"testing"
	"time"

	"github.com/mossgate/voxelgarden/protocol"
)

type fakeChannel struct {
	sent    []protocol.Envelope
	inbound chan protocol.Envelope
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{inbound: make(chan protocol.Envelope, 32)}
}

func (f *fakeChannel) Send(env protocol.Envelope)        { f.sent = append(f.sent, env) }
func (f *fakeChannel) Inbound() <-chan protocol.Envelope { return f.inbound }

func (f *fakeChannel) sentOfType(t protocol.Type) []protocol.Envelope {
	var out []protocol.Envelope
	for _, env := range f.sent {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

// fakeSurface grants lock requests immediately and counts them.
type fakeSurface struct {
	handler    Handler
	locked     bool
	textActive bool

	lockRequests    int
	releaseRequests int
}

func (s *fakeSurface) Bind(h Handler) func() {
	s.handler = h
	return func() {
		if s.handler == h {
			s.handler = nil
		}
	}
}

func (s *fakeSurface) RequestLock() {
	s.lockRequests++
	s.locked = true
	if s.handler != nil {
		s.handler.LockChanged(true)
	}
}

func (s *fakeSurface) ReleaseLock() {
	s.releaseRequests++
	s.locked = false
	if s.handler != nil {
		s.handler.LockChanged(false)
	}
}

func (s *fakeSurface) Locked() bool          { return s.locked }
func (s *fakeSurface) TextInputActive() bool { return s.textActive }

// revoke simulates the platform dropping capture outside any request.
func (s *fakeSurface) revoke() {
	s.locked = false
	if s.handler != nil {
		s.handler.LockChanged(false)
	}
}

type fixture struct {
	ctrl    *Controller
	ch      *fakeChannel
	surface *fakeSurface
	clock   time.Time
}

func newFixture(t *testing.T, cb Callbacks) *fixture {
	t.Helper()
	f := &fixture{
		ch:      newFakeChannel(),
		surface: &fakeSurface{},
		clock:   time.Unix(1000, 0),
	}
	f.ctrl = New(Settings{})
	f.ctrl.now = func() time.Time { return f.clock }
	if err := f.ctrl.Init(f.ch, nil, "avatar-1", f.surface, cb); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return f
}

// join confirms the avatar so move messages flow.
func (f *fixture) join(t *testing.T, pos *protocol.Vec3) {
	t.Helper()
	f.ch.inbound <- protocol.MustEncode(protocol.TypeJoined, protocol.Joined{Position: pos})
	f.ctrl.Update(0)
}

// advance moves the fake clock and runs one frame.
func (f *fixture) advance(d time.Duration, delta float64) {
	f.clock = f.clock.Add(d)
	f.ctrl.Update(delta)
}
