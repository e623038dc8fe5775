// Package world holds the server-side voxel grid and spawn layout for the
// garden. Cells are addressed by integer world coordinates; the grid is the
// single authority for what is built where.
package world

import (
	"math"
	"sync"

	"github.com/mossgate/voxelgarden/protocol"
)

// World bounds. Horizontal coordinates live in [-Extent, Extent], vertical
// in [0, Height).
const (
	Extent = 256
	Height = 64
)

// Cell addresses one voxel.
type Cell struct {
	X, Y, Z int
}

// Voxel is the placed content of a cell.
type Voxel struct {
	Color    string
	Material string
}

// Grid is the authoritative voxel store. Safe for concurrent use.
type Grid struct {
	mu    sync.RWMutex
	cells map[Cell]Voxel
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[Cell]Voxel)}
}

// InBounds reports whether a cell lies inside the world.
func InBounds(c Cell) bool {
	return c.X >= -Extent && c.X <= Extent &&
		c.Z >= -Extent && c.Z <= Extent &&
		c.Y >= 0 && c.Y < Height
}

// Place sets the voxel at c. It reports false, without mutating, for cells
// outside the world.
func (g *Grid) Place(c Cell, v Voxel) bool {
	if !InBounds(c) {
		return false
	}
	g.mu.Lock()
	g.cells[c] = v
	g.mu.Unlock()
	return true
}

// Remove clears the voxel at c, reporting whether one was present.
func (g *Grid) Remove(c Cell) bool {
	g.mu.Lock()
	_, ok := g.cells[c]
	if ok {
		delete(g.cells, c)
	}
	g.mu.Unlock()
	return ok
}

// At returns the voxel at c, if any.
func (g *Grid) At(c Cell) (Voxel, bool) {
	g.mu.RLock()
	v, ok := g.cells[c]
	g.mu.RUnlock()
	return v, ok
}

// Count returns the number of placed voxels.
func (g *Grid) Count() int {
	g.mu.RLock()
	n := len(g.cells)
	g.mu.RUnlock()
	return n
}

// Snapshot copies the current cell map, for broadcast or inspection.
func (g *Grid) Snapshot() map[Cell]Voxel {
	g.mu.RLock()
	out := make(map[Cell]Voxel, len(g.cells))
	for c, v := range g.cells {
		out[c] = v
	}
	g.mu.RUnlock()
	return out
}

// SpawnPosition lays joining avatars out on a ring around the origin so they
// do not stack. n is the join ordinal; the layout is deterministic.
func SpawnPosition(n int) protocol.Vec3 {
	const radius = 5.0
	angle := float64(n) * (math.Pi * 2 / 8)
	ring := radius * (1 + float64(n/8))
	return protocol.Vec3{
		X: math.Round(math.Cos(angle)*ring*100) / 100,
		Y: 0,
		Z: math.Round(math.Sin(angle)*ring*100) / 100,
	}
}

// ClampPosition forces a reported avatar position back inside the world.
func ClampPosition(p protocol.Vec3) protocol.Vec3 {
	p.X = math.Max(-Extent, math.Min(p.X, Extent))
	p.Z = math.Max(-Extent, math.Min(p.Z, Extent))
	p.Y = math.Max(0, math.Min(p.Y, Height))
	return p
}
