package voxel

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// ChunkSize is the edge length of a chunk in blocks
	ChunkSize = 32
	// ChunkVolume is the number of blocks stored in one chunk
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Axis selects one component of a coordinate.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists every axis in component order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Position is a continuous world position measured in blocks.
type Position = mgl32.Vec3

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the remainder paired with floorDiv, always in [0, b).
func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// FloorDiv exposes negative-aware division for packages that snap to grids.
func FloorDiv(a, b int) int { return floorDiv(a, b) }

// BlockPos is an integer block coordinate. Depending on context it is either
// global or relative to a chunk origin.
type BlockPos struct {
	X, Y, Z int
}

func (p BlockPos) Add(o BlockPos) BlockPos { return BlockPos{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }
func (p BlockPos) Sub(o BlockPos) BlockPos { return BlockPos{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }

// Get returns the component along axis a.
func (p BlockPos) Get(a Axis) int {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// With returns p with the component along a replaced by v.
func (p BlockPos) With(a Axis, v int) BlockPos {
	switch a {
	case AxisX:
		p.X = v
	case AxisY:
		p.Y = v
	default:
		p.Z = v
	}
	return p
}

// IsChunkLocal reports whether every component lies in [0, ChunkSize).
func (p BlockPos) IsChunkLocal() bool {
	return p.X >= 0 && p.X < ChunkSize &&
		p.Y >= 0 && p.Y < ChunkSize &&
		p.Z >= 0 && p.Z < ChunkSize
}

// Chunk returns the chunk containing the block.
func (p BlockPos) Chunk() ChunkPos {
	return ChunkPos{floorDiv(p.X, ChunkSize), floorDiv(p.Y, ChunkSize), floorDiv(p.Z, ChunkSize)}
}

// ChunkLocal returns the block's position inside its chunk.
func (p BlockPos) ChunkLocal() BlockPos {
	return BlockPos{floorMod(p.X, ChunkSize), floorMod(p.Y, ChunkSize), floorMod(p.Z, ChunkSize)}
}

// Split returns the owning chunk and the chunk-local position.
func (p BlockPos) Split() (ChunkPos, BlockPos) {
	return p.Chunk(), p.ChunkLocal()
}

// Index flattens a chunk-local position. Panics on anything else: an
// out-of-range local coordinate means the caller's coordinate math is broken.
func (p BlockPos) Index() int {
	if !p.IsChunkLocal() {
		panic(fmt.Sprintf("voxel: block %v is not chunk local", p))
	}
	return (p.X*ChunkSize+p.Y)*ChunkSize + p.Z
}

// FaceComponent returns the component along the face's normal axis.
func (p BlockPos) FaceComponent(f Face) int {
	return p.Get(f.Axis())
}

// Position converts to a world position at the block's minimum corner.
func (p BlockPos) Position() Position {
	return Position{float32(p.X), float32(p.Y), float32(p.Z)}
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// BlockPosOf returns the block containing a world position.
func BlockPosOf(p Position) BlockPos {
	return BlockPos{
		int(math.Floor(float64(p.X()))),
		int(math.Floor(float64(p.Y()))),
		int(math.Floor(float64(p.Z()))),
	}
}

// ChunkPos is a chunk coordinate: one unit is one chunk edge.
type ChunkPos struct {
	X, Y, Z int
}

// Splat returns a ChunkPos with every component set to v.
func Splat(v int) ChunkPos { return ChunkPos{v, v, v} }

// Unit returns the unit vector along a.
func Unit(a Axis) ChunkPos { return ChunkPos{}.With(a, 1) }

func (c ChunkPos) Add(o ChunkPos) ChunkPos { return ChunkPos{c.X + o.X, c.Y + o.Y, c.Z + o.Z} }
func (c ChunkPos) Sub(o ChunkPos) ChunkPos { return ChunkPos{c.X - o.X, c.Y - o.Y, c.Z - o.Z} }
func (c ChunkPos) Scale(n int) ChunkPos    { return ChunkPos{c.X * n, c.Y * n, c.Z * n} }

func (c ChunkPos) Get(a Axis) int {
	switch a {
	case AxisX:
		return c.X
	case AxisY:
		return c.Y
	default:
		return c.Z
	}
}

func (c ChunkPos) With(a Axis, v int) ChunkPos {
	switch a {
	case AxisX:
		c.X = v
	case AxisY:
		c.Y = v
	default:
		c.Z = v
	}
	return c
}

// AxisOnly zeroes every component except a.
func (c ChunkPos) AxisOnly(a Axis) ChunkPos {
	return ChunkPos{}.With(a, c.Get(a))
}

// AllButAxis zeroes the component along a.
func (c ChunkPos) AllButAxis(a Axis) ChunkPos {
	return c.With(a, 0)
}

// BlockPos returns the global coordinate of the chunk's minimum block.
func (c ChunkPos) BlockPos() BlockPos {
	return BlockPos{c.X * ChunkSize, c.Y * ChunkSize, c.Z * ChunkSize}
}

func (c ChunkPos) String() string {
	return fmt.Sprintf("[%d, %d, %d]", c.X, c.Y, c.Z)
}

// ChunkPosOf returns the chunk containing a world position.
func ChunkPosOf(p Position) ChunkPos {
	return BlockPosOf(p).Chunk()
}
