package server

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/mossgate/voxelgarden/protocol"
	"github.com/mossgate/voxelgarden/world"
)

// Hub maintains the set of connected clients, the avatar registry, and the
// voxel grid, and fans client actions out to everyone else.
type Hub struct {
	logger *slog.Logger
	grid   *world.Grid

	clientsMux sync.RWMutex
	clients    map[*Client]bool
	avatars    map[string]*Client
	joinSeq    int

	register   chan *Client
	unregister chan *Client
}

// NewHub creates a hub with an empty world.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger.With("component", "hub"),
		grid:       world.NewGrid(),
		clients:    make(map[*Client]bool),
		avatars:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Grid exposes the voxel store, primarily for inspection endpoints.
func (h *Hub) Grid() *world.Grid { return h.grid }

// Run processes registration events. Game messages are handled on each
// client's read goroutine; the maps are guarded by clientsMux.
func (h *Hub) Run() {
	h.logger.Info("hub started")
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clientsMux.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.clientsMux.Unlock()
	connectedClients.Set(float64(n))
	client.logger.Info("client registered", "clients", n)
}

func (h *Hub) handleUnregister(client *Client) {
	h.clientsMux.Lock()
	if _, ok := h.clients[client]; !ok {
		h.clientsMux.Unlock()
		return
	}
	delete(h.clients, client)
	avatarID := client.avatarID
	if avatarID != "" {
		delete(h.avatars, avatarID)
	}
	n := len(h.clients)
	h.clientsMux.Unlock()

	client.shutdown()
	connectedClients.Set(float64(n))
	client.logger.Info("client unregistered", "clients", n)

	if avatarID != "" {
		h.broadcast(client, protocol.MustEncode(protocol.TypeLeave, protocol.Leave{AvatarID: avatarID}))
	}
}

// handleJoin admits an avatar: validates the id, picks a deterministic spawn
// position, confirms with the authoritative starting position, and tells
// everyone else. Rejections go back as an error message; the client decides
// whether to re-provision.
func (h *Hub) handleJoin(c *Client, join protocol.Join) {
	id := strings.TrimSpace(join.AvatarID)
	if id == "" {
		c.enqueue(protocol.MustEncode(protocol.TypeError, protocol.ErrorInfo{Reason: "missing avatarId"}))
		return
	}

	h.clientsMux.Lock()
	if c.avatarID != "" {
		h.clientsMux.Unlock()
		c.enqueue(protocol.MustEncode(protocol.TypeError, protocol.ErrorInfo{Reason: "already joined"}))
		return
	}
	if _, taken := h.avatars[id]; taken {
		h.clientsMux.Unlock()
		c.enqueue(protocol.MustEncode(protocol.TypeError, protocol.ErrorInfo{Reason: "avatar id already in use"}))
		return
	}
	c.avatarID = id
	c.position = world.SpawnPosition(h.joinSeq)
	h.joinSeq++
	h.avatars[id] = c
	h.clientsMux.Unlock()

	joinedAvatars.Inc()
	c.logger.Info("avatar joined", "avatarId", id, "spawn", c.position)

	pos := c.position
	c.enqueue(protocol.MustEncode(protocol.TypeJoined, protocol.Joined{AvatarID: id, Position: &pos}))
	h.broadcast(c, protocol.MustEncode(protocol.TypeJoined, protocol.Joined{AvatarID: id, Position: &pos}))
}

func (h *Hub) handleMove(c *Client, move protocol.Move) {
	if c.avatarID == "" {
		return
	}
	p := world.ClampPosition(protocol.Vec3{X: move.X, Y: move.Y, Z: move.Z})
	c.position = p
	h.broadcast(c, protocol.MustEncode(protocol.TypeMove, protocol.Move{
		AvatarID: c.avatarID, X: p.X, Y: p.Y, Z: p.Z,
	}))
}

func (h *Hub) handleSpeak(c *Client, speak protocol.Speak) {
	if c.avatarID == "" {
		return
	}
	text := strings.TrimSpace(speak.Text)
	if text == "" {
		return
	}
	h.broadcast(c, protocol.MustEncode(protocol.TypeSpeak, protocol.Speak{
		AvatarID: c.avatarID, Text: text,
	}))
}

func (h *Hub) handleBuild(c *Client, build protocol.Build) {
	if c.avatarID == "" {
		return
	}
	cell := world.Cell{X: build.X, Y: build.Y, Z: build.Z}
	if !h.grid.Place(cell, world.Voxel{Color: build.Color, Material: build.Material}) {
		c.logger.Warn("build out of bounds", "x", cell.X, "y", cell.Y, "z", cell.Z)
		return
	}
	build.AvatarID = c.avatarID
	h.broadcast(c, protocol.MustEncode(protocol.TypeBuild, build))
}

func (h *Hub) handleDestroy(c *Client, destroy protocol.Destroy) {
	if c.avatarID == "" {
		return
	}
	cell := world.Cell{X: destroy.X, Y: destroy.Y, Z: destroy.Z}
	if !h.grid.Remove(cell) {
		return
	}
	destroy.AvatarID = c.avatarID
	h.broadcast(c, protocol.MustEncode(protocol.TypeDestroy, destroy))
}

// broadcast fans env out to every joined client except the sender.
func (h *Hub) broadcast(except *Client, env protocol.Envelope) {
	h.clientsMux.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c != except && c.avatarID != "" {
			targets = append(targets, c)
		}
	}
	h.clientsMux.RUnlock()

	for _, c := range targets {
		c.enqueue(env)
	}
	broadcastMessages.WithLabelValues(string(env.Type)).Add(float64(len(targets)))
}
