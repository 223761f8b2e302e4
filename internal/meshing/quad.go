package meshing

import (
	"fmt"

	"voxelstream/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the per-vertex layout uploaded to the GPU.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	// texture colour is multiplied by this
	Color   mgl32.Vec3
	Texture int32
}

// Quad is one textured block face, vertices ordered tl, bl, br, tr.
// All four are coplanar; the front is the side they wind clockwise from.
type Quad [4]Vertex

// OcclusionCorners holds the occlusion level (0..3) of each corner of a face.
type OcclusionCorners struct {
	TL, TR, BL, BR uint8
}

// corners named by the in-plane directions they sit toward
func (o OcclusionCorners) pos() uint8    { return o.TR }
func (o OcclusionCorners) neg() uint8    { return o.BL }
func (o OcclusionCorners) posNeg() uint8 { return o.BR }
func (o OcclusionCorners) negPos() uint8 { return o.TL }
func (o OcclusionCorners) uniform() bool { return o.TL == o.BL && o.TR == o.BR }

// occlusionColors maps an occlusion level to a vertex shade.
var occlusionColors = [4]float32{1.0, 0.8, 0.6, 0.4}

// Indices is the index pattern for one quad.
var Indices = [6]uint32{0, 2, 1, 2, 0, 3}

func newVertex(pos, normal mgl32.Vec3, texture int32, level uint8) Vertex {
	if int(level) >= len(occlusionColors) {
		panic(fmt.Sprintf("meshing: invalid occlusion level %d", level))
	}
	c := occlusionColors[level]
	return Vertex{
		Position: pos,
		Normal:   normal,
		Color:    mgl32.Vec3{c, c, c},
		Texture:  texture,
	}
}

func offset(p voxel.BlockPos, x, y, z float32) mgl32.Vec3 {
	return p.Position().Add(mgl32.Vec3{x, y, z})
}

// FromCorners builds a quad from the blocks at its top-left and bottom-right
// corners, as seen from in front of the face.
func FromCorners(face voxel.Face, texture int32, tlBlock, brBlock voxel.BlockPos, occ OcclusionCorners) Quad {
	var tl, br mgl32.Vec3
	switch face {
	case voxel.FaceXPos:
		tl, br = offset(tlBlock, 1, 1, 0), offset(brBlock, 1, 0, 1)
	case voxel.FaceXNeg:
		tl, br = offset(tlBlock, 0, 1, 1), offset(brBlock, 0, 0, 0)
	case voxel.FaceYPos:
		tl, br = offset(tlBlock, 0, 1, 1), offset(brBlock, 1, 1, 0)
	case voxel.FaceYNeg:
		tl, br = offset(tlBlock, 0, 0, 0), offset(brBlock, 1, 0, 1)
	case voxel.FaceZPos:
		tl, br = offset(tlBlock, 1, 1, 1), offset(brBlock, 0, 0, 1)
	case voxel.FaceZNeg:
		tl, br = offset(tlBlock, 0, 1, 0), offset(brBlock, 1, 0, 0)
	}

	var bl, tr mgl32.Vec3
	switch face.Axis() {
	case voxel.AxisX:
		bl = mgl32.Vec3{tl.X(), br.Y(), tl.Z()}
		tr = mgl32.Vec3{tl.X(), tl.Y(), br.Z()}
	case voxel.AxisY:
		bl = mgl32.Vec3{tl.X(), tl.Y(), br.Z()}
		tr = mgl32.Vec3{br.X(), tl.Y(), tl.Z()}
	case voxel.AxisZ:
		bl = mgl32.Vec3{tl.X(), br.Y(), tl.Z()}
		tr = mgl32.Vec3{br.X(), tl.Y(), tl.Z()}
	}

	n := face.Normal()
	return Quad{
		newVertex(tl, n, texture, occ.TL),
		newVertex(bl, n, texture, occ.BL),
		newVertex(br, n, texture, occ.BR),
		newVertex(tr, n, texture, occ.TR),
	}
}

// FromCubeCorners builds a quad spanning the blocks between neg and pos
// (the minimum and maximum block of a merged run). occ is expressed in the
// slice plane; it is rotated into the face's own corner order here.
func FromCubeCorners(face voxel.Face, texture int32, neg, pos voxel.BlockPos, occ OcclusionCorners) Quad {
	var tl, br voxel.BlockPos
	var rot OcclusionCorners

	switch face {
	case voxel.FaceXPos:
		tl = voxel.BlockPos{X: pos.X, Y: pos.Y, Z: neg.Z}
		br = voxel.BlockPos{X: pos.X, Y: neg.Y, Z: pos.Z}
		rot = OcclusionCorners{TL: occ.posNeg(), TR: occ.pos(), BL: occ.neg(), BR: occ.negPos()}
	case voxel.FaceXNeg:
		tl = voxel.BlockPos{X: neg.X, Y: pos.Y, Z: pos.Z}
		br = voxel.BlockPos{X: neg.X, Y: neg.Y, Z: neg.Z}
		rot = OcclusionCorners{TL: occ.pos(), TR: occ.posNeg(), BL: occ.negPos(), BR: occ.neg()}
	case voxel.FaceYPos:
		tl = voxel.BlockPos{X: neg.X, Y: pos.Y, Z: pos.Z}
		br = voxel.BlockPos{X: pos.X, Y: pos.Y, Z: neg.Z}
		rot = OcclusionCorners{TL: occ.negPos(), TR: occ.pos(), BL: occ.neg(), BR: occ.posNeg()}
	case voxel.FaceYNeg:
		tl = voxel.BlockPos{X: neg.X, Y: neg.Y, Z: neg.Z}
		br = voxel.BlockPos{X: pos.X, Y: neg.Y, Z: pos.Z}
		rot = OcclusionCorners{TL: occ.neg(), TR: occ.posNeg(), BL: occ.negPos(), BR: occ.pos()}
	case voxel.FaceZPos:
		tl = voxel.BlockPos{X: pos.X, Y: pos.Y, Z: pos.Z}
		br = voxel.BlockPos{X: neg.X, Y: neg.Y, Z: pos.Z}
		rot = OcclusionCorners{TL: occ.pos(), TR: occ.negPos(), BL: occ.posNeg(), BR: occ.neg()}
	case voxel.FaceZNeg:
		tl = voxel.BlockPos{X: neg.X, Y: pos.Y, Z: neg.Z}
		br = voxel.BlockPos{X: pos.X, Y: neg.Y, Z: neg.Z}
		rot = OcclusionCorners{TL: occ.negPos(), TR: occ.pos(), BL: occ.neg(), BR: occ.posNeg()}
	}

	return FromCorners(face, texture, tl, br, rot)
}

// Flatten converts quads into vertex and index buffers ready for upload.
func Flatten(quads []Quad) ([]Vertex, []uint32) {
	vertices := make([]Vertex, 0, len(quads)*4)
	indices := make([]uint32, 0, len(quads)*len(Indices))
	for i, q := range quads {
		base := uint32(i * 4)
		vertices = append(vertices, q[:]...)
		for _, idx := range Indices {
			indices = append(indices, base+idx)
		}
	}
	return vertices, indices
}
