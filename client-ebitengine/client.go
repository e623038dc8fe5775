// Garden client: an Ebitengine host application that wires the avatar
// controller, capture surface, and websocket channel together, renders a
// top-down debug view of the world, and owns the chat input and build
// targeting the controller deliberately leaves to its host.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/mossgate/voxelgarden/channel"
	"github.com/mossgate/voxelgarden/config"
	"github.com/mossgate/voxelgarden/controller"
	"github.com/mossgate/voxelgarden/protocol"
	"github.com/mossgate/voxelgarden/world"
)

const (
	screenWidth  = 1024
	screenHeight = 768
	viewScale    = 8.0 // pixels per world unit in the top-down view
	buildReach   = 4.0 // units ahead of the camera a placement lands
	chatLogLines = 8
)

var (
	configPath = flag.String("config", "voxelgarden.yaml", "client config file")
	serverFlag = flag.String("server", "", "world server url (overrides config)")
	nameFlag   = flag.String("name", "", "avatar id (random when empty)")
)

type Game struct {
	ctrl    *controller.Controller
	surface *gameSurface
	logger  *slog.Logger

	// Camera pose, pushed by the controller once per frame.
	camPos   mgl64.Vec3
	camYaw   float64
	camPitch float64

	// World mirror fed by relayed channel traffic.
	avatars map[string]protocol.Vec3
	voxels  map[world.Cell]string

	chatting bool
	chatBuf  []rune
	chatLog  []string

	buildActive bool
	joinFailed  string

	buildColor    string
	buildMaterial string

	pendingCfg atomic.Pointer[config.Config]
	lastFrame  time.Time
}

// SetPose implements controller.Camera.
func (g *Game) SetPose(position mgl64.Vec3, yaw, pitch float64) {
	g.camPos = position
	g.camYaw = yaw
	g.camPitch = pitch
}

func (g *Game) Update() error {
	if g.joinFailed != "" && inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if cfg := g.pendingCfg.Swap(nil); cfg != nil {
		g.ctrl.Tune(cfg.MoveSpeed, cfg.LookSensitivity)
	}

	// Chat input is the host's: while typing, the surface reports
	// TextInputActive and the controller ignores raw keys. This runs before
	// the surface pump so the keypress that opens chat is not also the one
	// that submits it.
	wasChatting := g.chatting
	if g.chatting {
		g.chatBuf = ebiten.AppendInputChars(g.chatBuf)
		if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(g.chatBuf) > 0 {
			g.chatBuf = g.chatBuf[:len(g.chatBuf)-1]
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			g.ctrl.SubmitChat(string(g.chatBuf))
		} else if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
			g.ctrl.SubmitChat("")
		}
	}
	if wasChatting && !g.chatting {
		// The keypress that just closed chat is still "just pressed"; the
		// pump must not hand it back as a fresh mode toggle.
		g.surface.skipToggleKeys = true
	}

	g.surface.pump()

	// Build targeting: project the camera-forward ray to an integer cell.
	// The controller only transmits; the geometry is ours.
	if g.ctrl.Mode() == controller.ModeBuild && g.surface.Locked() {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			c := g.targetCell()
			g.ctrl.PlaceBlock(c.X, c.Y, c.Z, g.buildColor, g.buildMaterial)
		}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
			c := g.targetCell()
			g.ctrl.RemoveBlock(c.X, c.Y, c.Z)
		}
	}

	now := time.Now()
	delta := now.Sub(g.lastFrame).Seconds()
	g.lastFrame = now
	if delta > 0.25 {
		delta = 0.25 // a stalled frame should not teleport the avatar
	}
	g.ctrl.Update(delta)
	return nil
}

func (g *Game) targetCell() world.Cell {
	pose := g.ctrl.Pose()
	t := pose.Position.Add(pose.Forward().Mul(buildReach))
	return world.Cell{
		X: int(math.Floor(t.X())),
		Y: int(math.Floor(t.Y())),
		Z: int(math.Floor(t.Z())),
	}
}

// handleWorldMessage mirrors relayed traffic the controller does not consume:
// other avatars' movement, chat, and voxel edits.
func (g *Game) handleWorldMessage(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeJoined:
		var joined protocol.Joined
		if env.Payload(&joined) == nil && joined.AvatarID != "" && joined.Position != nil {
			g.avatars[joined.AvatarID] = *joined.Position
			g.pushChatLine("* " + joined.AvatarID + " joined")
		}
	case protocol.TypeMove:
		var move protocol.Move
		if env.Payload(&move) == nil && move.AvatarID != "" {
			g.avatars[move.AvatarID] = protocol.Vec3{X: move.X, Y: move.Y, Z: move.Z}
		}
	case protocol.TypeLeave:
		var leave protocol.Leave
		if env.Payload(&leave) == nil && leave.AvatarID != "" {
			delete(g.avatars, leave.AvatarID)
			g.pushChatLine("* " + leave.AvatarID + " left")
		}
	case protocol.TypeSpeak:
		var speak protocol.Speak
		if env.Payload(&speak) == nil {
			g.pushChatLine(speak.AvatarID + ": " + speak.Text)
		}
	case protocol.TypeBuild:
		var build protocol.Build
		if env.Payload(&build) == nil {
			g.voxels[world.Cell{X: build.X, Y: build.Y, Z: build.Z}] = build.Color
		}
	case protocol.TypeDestroy:
		var destroy protocol.Destroy
		if env.Payload(&destroy) == nil {
			delete(g.voxels, world.Cell{X: destroy.X, Y: destroy.Y, Z: destroy.Z})
		}
	}
}

func (g *Game) pushChatLine(line string) {
	g.chatLog = append(g.chatLog, line)
	if len(g.chatLog) > chatLogLines {
		g.chatLog = g.chatLog[len(g.chatLog)-chatLogLines:]
	}
}

func (g *Game) worldToScreen(wx, wz float64) (float32, float32) {
	sx := (wx-g.camPos.X())*viewScale + screenWidth/2
	sy := (wz-g.camPos.Z())*viewScale + screenHeight/2
	return float32(sx), float32(sy)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 18, G: 24, B: 18, A: 255})

	// Voxels.
	for cell, hex := range g.voxels {
		c, err := parseHexColor(hex)
		if err != nil {
			c = color.RGBA{R: 128, G: 0, B: 128, A: 255}
		}
		sx, sy := g.worldToScreen(float64(cell.X), float64(cell.Z))
		vector.DrawFilledRect(screen, sx, sy, viewScale, viewScale, c, false)
	}

	// Other avatars.
	for id, pos := range g.avatars {
		sx, sy := g.worldToScreen(pos.X, pos.Z)
		vector.DrawFilledCircle(screen, sx, sy, 5, color.White, true)
		label := id
		if len(label) > 8 {
			label = label[:8]
		}
		ebitenutil.DebugPrintAt(screen, label, int(sx)+6, int(sy)-6)
	}

	// Self, with a heading tick.
	cx, cy := float32(screenWidth/2), float32(screenHeight/2)
	vector.DrawFilledCircle(screen, cx, cy, 5, color.RGBA{R: 233, G: 196, B: 106, A: 255}, true)
	hx := cx + float32(-math.Sin(g.camYaw)*14)
	hy := cy + float32(-math.Cos(g.camYaw)*14)
	vector.StrokeLine(screen, cx, cy, hx, hy, 2, color.RGBA{R: 233, G: 196, B: 106, A: 255}, true)

	// Build target marker.
	if g.buildActive {
		t := g.targetCell()
		sx, sy := g.worldToScreen(float64(t.X), float64(t.Z))
		vector.StrokeRect(screen, sx, sy, viewScale, viewScale, 1.5, color.RGBA{R: 231, G: 111, B: 81, A: 255}, false)
	}

	// HUD.
	pose := g.ctrl.Pose()
	hud := fmt.Sprintf("mode: %s  locked: %v  joined: %v\npos: %.1f %.1f %.1f  yaw: %.2f pitch: %.2f\navatars: %d  voxels: %d  fps: %.1f",
		g.ctrl.Mode(), g.surface.Locked(), g.ctrl.Joined(),
		pose.Position.X(), pose.Position.Y(), pose.Position.Z(), pose.Yaw, pose.Pitch,
		len(g.avatars), len(g.voxels), ebiten.ActualFPS())
	ebitenutil.DebugPrint(screen, hud)

	for i, line := range g.chatLog {
		ebitenutil.DebugPrintAt(screen, line, 8, screenHeight-40-(len(g.chatLog)-i)*14)
	}
	if g.chatting {
		ebitenutil.DebugPrintAt(screen, "say: "+string(g.chatBuf)+"_", 8, screenHeight-24)
	} else if g.joinFailed != "" {
		ebitenutil.DebugPrintAt(screen, "join failed: "+g.joinFailed+" (escape to quit)", 8, screenHeight-24)
	} else if !g.surface.Locked() {
		ebitenutil.DebugPrintAt(screen, "click to capture the pointer", 8, screenHeight-24)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// parseHexColor converts "#RRGGBB" or "#RGB" to a color.
func parseHexColor(s string) (color.Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	c := color.RGBA{A: 255}
	var err error
	switch len(s) {
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = fmt.Errorf("invalid length, must be 7 or 4")
	}
	return c, err
}

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
	}
	avatarID := *nameFlag
	if avatarID == "" {
		avatarID = cfg.AvatarID
	}
	if avatarID == "" {
		avatarID = "gardener_" + uuid.New().String()[:8]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := channel.Dial(ctx, cfg.ServerURL, logger)
	if err != nil {
		log.Fatalf("dial %s: %v", cfg.ServerURL, err)
	}
	defer ch.Close()

	game := &Game{
		logger:        logger,
		avatars:       make(map[string]protocol.Vec3),
		voxels:        make(map[world.Cell]string),
		buildColor:    "#2a9d8f",
		buildMaterial: "moss",
		lastFrame:     time.Now(),
	}
	surface := &gameSurface{textActive: func() bool { return game.chatting }}
	game.surface = surface

	ctrl := controller.New(cfg.ControllerSettings())
	game.ctrl = ctrl
	err = ctrl.Init(ch, game, avatarID, surface, controller.Callbacks{
		ChatStarted: func() {
			game.chatting = true
			game.chatBuf = game.chatBuf[:0]
		},
		ChatEnded: func() { game.chatting = false },
		BuildChanged: func(active bool) {
			game.buildActive = active
		},
		LockChanged: func(locked bool) {
			logger.Info("pointer capture changed", "locked", locked)
		},
		Interact: func() {
			if !surface.Locked() {
				surface.RequestLock()
			}
		},
		JoinFailed: func(reason string) {
			game.joinFailed = reason
		},
		Unhandled: game.handleWorldMessage,
	})
	if err != nil {
		log.Fatalf("controller init: %v", err)
	}
	defer ctrl.Dispose()

	stopWatch, err := config.Watch(*configPath, logger, func(c config.Config) {
		game.pendingCfg.Store(&c)
	})
	if err != nil {
		logger.Warn("config watch unavailable", "error", err)
	} else {
		defer stopWatch()
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("voxelgarden")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && err != ebiten.Termination {
		log.Fatalf("ebiten: %v", err)
	}
	logger.Info("client finished")
}
