package physics

import (
	"math"

	"voxelstream/internal/profiling"
	"voxelstream/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxReachDistance is the default reach for block interaction.
const MaxReachDistance = 5.0

// Probe inspects the block a ray has just entered. solid stops the ray;
// ok false means the block's chunk is not loaded, which aborts the cast.
type Probe func(pos voxel.BlockPos) (solid, ok bool)

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      voxel.BlockPos
	AdjacentPosition voxel.BlockPos
	Distance         float32
	Hit              bool
}

// Raycast walks the ray cell by cell using a DDA: each axis tracks the ray
// distance to its next cell boundary, and the walk always crosses the
// nearest one. The starting cell is never reported. The cast misses when the
// next boundary lies beyond maxDist, when probe reports an unloaded block, or
// when direction is zero.
func Raycast(start, direction mgl32.Vec3, maxDist float32, probe Probe) RaycastResult {
	defer profiling.Track("physics.Raycast")()

	if direction.Len() == 0 {
		return RaycastResult{}
	}
	dir := direction.Normalize()
	cell := voxel.BlockPosOf(start)

	var (
		step      [3]int
		sideDist  [3]float32
		deltaDist [3]float32
	)
	inf := float32(math.Inf(1))
	for a := 0; a < 3; a++ {
		s := start[a]
		frac := s - float32(math.Floor(float64(s)))
		switch {
		case dir[a] > 0:
			step[a] = 1
			deltaDist[a] = 1 / dir[a]
			sideDist[a] = (1 - frac) / dir[a]
		case dir[a] < 0:
			step[a] = -1
			deltaDist[a] = -1 / dir[a]
			sideDist[a] = frac / -dir[a]
		default:
			deltaDist[a] = inf
			sideDist[a] = inf
		}
	}

	for {
		var axis voxel.Axis
		switch {
		case sideDist[0] < sideDist[1] && sideDist[0] < sideDist[2]:
			axis = voxel.AxisX
		case sideDist[1] < sideDist[2]:
			axis = voxel.AxisY
		default:
			axis = voxel.AxisZ
		}

		dist := sideDist[axis]
		if dist > maxDist {
			return RaycastResult{}
		}

		prev := cell
		cell = cell.With(axis, cell.Get(axis)+step[axis])
		sideDist[axis] += deltaDist[axis]

		solid, ok := probe(cell)
		if !ok {
			return RaycastResult{}
		}
		if solid {
			return RaycastResult{
				HitPosition:      cell,
				AdjacentPosition: prev,
				Distance:         dist,
				Hit:              true,
			}
		}
	}
}
