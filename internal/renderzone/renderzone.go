// Package renderzone tracks which groups of chunks need their meshes pulled
// again. A render zone is a cube of Size chunks per side, named by its
// minimum chunk coordinate.
package renderzone

import (
	"cmp"
	"slices"

	"voxelstream/internal/voxel"
)

// Size is the edge length of a render zone in chunks.
const Size = 8

// ZoneOf snaps a chunk coordinate down to its render zone.
func ZoneOf(c voxel.ChunkPos) voxel.ChunkPos {
	return voxel.ChunkPos{
		X: voxel.FloorDiv(c.X, Size) * Size,
		Y: voxel.FloorDiv(c.Y, Size) * Size,
		Z: voxel.FloorDiv(c.Z, Size) * Size,
	}
}

// Chunks returns the box of chunks covered by a zone.
func Chunks(zone voxel.ChunkPos) voxel.ChunkBox {
	return voxel.Box(zone, zone.Add(voxel.Splat(Size)))
}

// Set is the dirty set accumulated between mesh pulls. It is owned by the
// simulation goroutine and is not safe for concurrent use.
type Set struct {
	zones map[voxel.ChunkPos]struct{}
}

func New() *Set {
	return &Set{zones: make(map[voxel.ChunkPos]struct{})}
}

func (s *Set) MarkBlock(b voxel.BlockPos) {
	s.MarkChunk(b.Chunk())
}

func (s *Set) MarkChunk(c voxel.ChunkPos) {
	s.zones[ZoneOf(c)] = struct{}{}
}

// MarkChunkZone marks every zone intersecting the half-open box [min, max).
func (s *Set) MarkChunkZone(min, max voxel.ChunkPos) {
	if voxel.Box(min, max).Volume() == 0 {
		return
	}
	lo := ZoneOf(min)
	hi := ZoneOf(max.Sub(voxel.Splat(1)))
	for x := lo.X; x <= hi.X; x += Size {
		for y := lo.Y; y <= hi.Y; y += Size {
			for z := lo.Z; z <= hi.Z; z += Size {
				s.zones[voxel.ChunkPos{X: x, Y: y, Z: z}] = struct{}{}
			}
		}
	}
}

// MarkBox is MarkChunkZone for a ChunkBox.
func (s *Set) MarkBox(b voxel.ChunkBox) {
	s.MarkChunkZone(b.Min, b.Max)
}

func (s *Set) Contains(zone voxel.ChunkPos) bool {
	_, ok := s.zones[zone]
	return ok
}

func (s *Set) Len() int { return len(s.zones) }

// Zones returns the dirty zones in a stable order.
func (s *Set) Zones() []voxel.ChunkPos {
	out := make([]voxel.ChunkPos, 0, len(s.zones))
	for z := range s.zones {
		out = append(out, z)
	}
	slices.SortFunc(out, func(a, b voxel.ChunkPos) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.Z, b.Z)
	})
	return out
}

// Each calls fn for every dirty zone in no particular order.
func (s *Set) Each(fn func(zone voxel.ChunkPos)) {
	for z := range s.zones {
		fn(z)
	}
}

func (s *Set) Clear() {
	clear(s.zones)
}
