package voxel

import "fmt"

// ChunkBox is the half-open box of chunk coordinates [Min, Max).
type ChunkBox struct {
	Min, Max ChunkPos
}

// Box builds a ChunkBox from its corners.
func Box(min, max ChunkPos) ChunkBox {
	return ChunkBox{Min: min, Max: max}
}

// BoxAround returns [center-radius, center+radius).
func BoxAround(center, radius ChunkPos) ChunkBox {
	return ChunkBox{Min: center.Sub(radius), Max: center.Add(radius)}
}

// Volume returns the number of chunks inside the box, or 0 when it is empty.
func (b ChunkBox) Volume() int {
	dx, dy, dz := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y, b.Max.Z-b.Min.Z
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return 0
	}
	return dx * dy * dz
}

// Contains reports whether c lies inside the box.
func (b ChunkBox) Contains(c ChunkPos) bool {
	return c.X >= b.Min.X && c.Y >= b.Min.Y && c.Z >= b.Min.Z &&
		c.X < b.Max.X && c.Y < b.Max.Y && c.Z < b.Max.Z
}

// Each calls fn for every chunk in the box, x-major.
func (b ChunkBox) Each(fn func(ChunkPos)) {
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for z := b.Min.Z; z < b.Max.Z; z++ {
				fn(ChunkPos{x, y, z})
			}
		}
	}
}

// Shift moves both corners by d.
func (b ChunkBox) Shift(d ChunkPos) ChunkBox {
	return ChunkBox{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

func (b ChunkBox) String() string {
	return fmt.Sprintf("%v..%v", b.Min, b.Max)
}
