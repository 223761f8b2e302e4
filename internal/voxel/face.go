package voxel

import "github.com/go-gl/mathgl/mgl32"

// Face is one of the six axis-aligned directions a block face can point.
type Face uint8

const (
	FaceXPos Face = iota
	FaceXNeg
	FaceYPos
	FaceYNeg
	FaceZPos
	FaceZNeg
)

// NumFaces is the number of face directions.
const NumFaces = 6

// Faces lists every face in index order.
var Faces = [NumFaces]Face{FaceXPos, FaceXNeg, FaceYPos, FaceYNeg, FaceZPos, FaceZNeg}

// FaceFromAxis returns the face pointing along a, positive or negative.
func FaceFromAxis(a Axis, positive bool) Face {
	f := Face(a) * 2
	if !positive {
		f++
	}
	return f
}

// Axis returns the face's normal axis.
func (f Face) Axis() Axis { return Axis(f / 2) }

// IsPositive reports whether the face points toward increasing coordinates.
func (f Face) IsPositive() bool { return f%2 == 0 }

// Opposite returns the face pointing the other way along the same axis.
func (f Face) Opposite() Face { return f ^ 1 }

// Offset is the one-block step along the face normal.
func (f Face) Offset() BlockPos {
	d := 1
	if !f.IsPositive() {
		d = -1
	}
	return BlockPos{}.With(f.Axis(), d)
}

// Normal is the unit normal used for vertices.
func (f Face) Normal() mgl32.Vec3 {
	o := f.Offset()
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

// Boundary is the slice index of the chunk layer touching the face's side.
func (f Face) Boundary() int {
	if f.IsPositive() {
		return ChunkSize - 1
	}
	return 0
}

func (f Face) String() string {
	switch f {
	case FaceXPos:
		return "+x"
	case FaceXNeg:
		return "-x"
	case FaceYPos:
		return "+y"
	case FaceYNeg:
		return "-y"
	case FaceZPos:
		return "+z"
	case FaceZNeg:
		return "-z"
	}
	return "?"
}
