// Headless bot client: joins the garden, wanders a scripted path, and chats
// periodically. Useful for soaking the dev server without a display.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mossgate/voxelgarden/channel"
	"github.com/mossgate/voxelgarden/controller"
)

var (
	serverURL = flag.String("server", "ws://localhost:8080/ws", "world server websocket url")
	name      = flag.String("name", "", "avatar id (random when empty)")
	frameHz   = flag.Int("fps", 60, "simulated frame rate")
)

// botSurface satisfies the capture surface contract without any platform
// behind it: lock requests are granted immediately.
type botSurface struct {
	handler controller.Handler
	locked  bool
}

func (s *botSurface) Bind(h controller.Handler) func() {
	s.handler = h
	return func() { s.handler = nil }
}

func (s *botSurface) RequestLock() {
	s.locked = true
	if s.handler != nil {
		s.handler.LockChanged(true)
	}
}

func (s *botSurface) ReleaseLock() {
	s.locked = false
	if s.handler != nil {
		s.handler.LockChanged(false)
	}
}

func (s *botSurface) Locked() bool          { return s.locked }
func (s *botSurface) TextInputActive() bool { return false }

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	avatarID := *name
	if avatarID == "" {
		avatarID = "bot_" + uuid.New().String()[:8]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		logger.Info("interrupt received, shutting down")
		cancel()
	}()

	ch, err := channel.Dial(ctx, *serverURL, logger)
	if err != nil {
		logger.Error("dial failed", "url", *serverURL, "error", err)
		os.Exit(1)
	}
	defer ch.Close()

	surface := &botSurface{}
	ctrl := controller.New(controller.Settings{Logger: logger})
	err = ctrl.Init(ch, nil, avatarID, surface, controller.Callbacks{
		JoinFailed: func(reason string) {
			logger.Error("join rejected", "reason", reason)
			cancel()
		},
	})
	if err != nil {
		logger.Error("controller init failed", "error", err)
		os.Exit(1)
	}
	defer ctrl.Dispose()

	frame := time.Second / time.Duration(*frameHz)
	delta := frame.Seconds()
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	chatTicker := time.NewTicker(10 * time.Second)
	defer chatTicker.Stop()

	// Scripted wandering: hold forward, and sweep the view a little each
	// frame so the bot walks a wide circle.
	surface.handler.KeyDown("KeyW")
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch.Done():
			logger.Info("connection lost, exiting")
			return
		case <-chatTicker.C:
			surface.handler.KeyDown("Enter")
			ctrl.SubmitChat("still wandering at " + time.Since(start).Truncate(time.Second).String())
		case <-ticker.C:
			surface.handler.PointerMove(2, 0)
			ctrl.Update(delta)
			if p := ctrl.Pose(); int(time.Since(start).Seconds())%30 == 0 {
				logger.Debug("pose", "x", p.Position.X(), "z", p.Position.Z())
			}
		}
	}
}
