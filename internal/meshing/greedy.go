package meshing

import (
	"voxelstream/internal/voxel"
)

// Source resolves blocks for the chunk being meshed. Positions are relative to
// the chunk origin and may step up to one block outside [0, ChunkSize) into a
// neighbouring chunk; ok is false when that neighbour is not loaded.
type Source interface {
	Block(local voxel.BlockPos) (b voxel.Block, ok bool)
}

// plane maps (u, v) coordinates of one face-slice back to chunk-local block
// positions. X faces use (y, z), Y faces (x, z) and Z faces (x, y).
type plane struct {
	axis  voxel.Axis
	index int
}

func (p plane) at(u, v int) voxel.BlockPos {
	switch p.axis {
	case voxel.AxisX:
		return voxel.BlockPos{X: p.index, Y: u, Z: v}
	case voxel.AxisY:
		return voxel.BlockPos{X: u, Y: p.index, Z: v}
	default:
		return voxel.BlockPos{X: u, Y: v, Z: p.index}
	}
}

const (
	size = voxel.ChunkSize
	// occluder grid covers u, v in [-1, size]
	occSize = size + 2
	// vertex grid covers u, v in [0, size]
	vertSize = size + 1
)

// sliceMesher holds the per-slice scratch grids.
type sliceMesher struct {
	src    Source
	plane  plane
	normal voxel.BlockPos

	occluders [occSize * occSize]uint8
	levels    [vertSize * vertSize]uint8
}

// occluder reports 1 when the block one step along the normal from (u, v) is
// solid. Unknown neighbours count as open.
func (m *sliceMesher) occluder(u, v int) uint8 {
	b, ok := m.src.Block(m.plane.at(u, v).Add(m.normal))
	if ok && !b.IsTranslucent() {
		return 1
	}
	return 0
}

func (m *sliceMesher) occ(u, v int) uint8 {
	return m.occluders[(u+1)*occSize+(v+1)]
}

func (m *sliceMesher) fill() {
	for u := -1; u <= size; u++ {
		for v := -1; v <= size; v++ {
			m.occluders[(u+1)*occSize+(v+1)] = m.occluder(u, v)
		}
	}
	for u := 0; u <= size; u++ {
		for v := 0; v <= size; v++ {
			m.levels[u*vertSize+v] = VertexOcclusion(
				m.occ(u-1, v-1), m.occ(u, v-1),
				m.occ(u-1, v), m.occ(u, v),
			)
		}
	}
}

// VertexOcclusion combines the four occluders touching a vertex into a level.
// Two diagonally opposite occluders already read as a full corner.
func VertexOcclusion(tl, tr, bl, br uint8) uint8 {
	if (tl == 1 && br == 1) || (tr == 1 && bl == 1) {
		return 3
	}
	return tl + tr + bl + br
}

func (m *sliceMesher) corners(u, v int) OcclusionCorners {
	return OcclusionCorners{
		TL: m.levels[u*vertSize+v+1],
		TR: m.levels[(u+1)*vertSize+v+1],
		BL: m.levels[u*vertSize+v],
		BR: m.levels[(u+1)*vertSize+v],
	}
}

// visible returns the cell's block when its face must be drawn: the block is
// not air and the neighbour in front of the face is known and see-through.
func (m *sliceMesher) visible(u, v int) (voxel.Block, bool) {
	pos := m.plane.at(u, v)
	b, ok := m.src.Block(pos)
	if !ok || b.IsAir() {
		return voxel.Air, false
	}
	n, ok := m.src.Block(pos.Add(m.normal))
	if !ok || !n.IsTranslucent() {
		return voxel.Air, false
	}
	return b, true
}

// BuildSlice greedily meshes one face-slice of a chunk. origin is the global
// position of the chunk's minimum block and is added to every emitted vertex.
//
// Runs only grow along v. A run continues while the next cell is visible, has
// the same block kind and shares all four corner occlusion levels with the
// first cell, so one quad never needs more than its four corner shades.
func BuildSlice(src Source, origin voxel.BlockPos, face voxel.Face, index int) []Quad {
	m := &sliceMesher{
		src:    src,
		plane:  plane{axis: face.Axis(), index: index},
		normal: face.Offset(),
	}
	m.fill()

	var quads []Quad
	for u := 0; u < size; u++ {
		v := 0
		for v < size {
			b, ok := m.visible(u, v)
			if !ok {
				v++
				continue
			}

			corners := m.corners(u, v)
			width := 1
			if corners.uniform() {
				for v+width < size {
					next, ok := m.visible(u, v+width)
					if !ok || next != b || m.corners(u, v+width) != corners {
						break
					}
					width++
				}
			}

			texture, _ := b.TextureIndex()
			quads = append(quads, FromCubeCorners(
				face,
				texture,
				origin.Add(m.plane.at(u, v)),
				origin.Add(m.plane.at(u, v+width-1)),
				corners,
			))
			v += width
		}
	}
	return quads
}
