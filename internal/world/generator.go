package world

import "voxelstream/internal/voxel"

// Generator produces newly generated chunks. GenerateChunk is called from
// worker goroutines, possibly concurrently for distinct coordinates. The
// returned chunk must have a zero load count.
type Generator interface {
	GenerateChunk(w *World, pos voxel.ChunkPos) *LoadedChunk
}

// GeneratorFunc adapts a per-block function into a Generator.
type GeneratorFunc func(pos voxel.BlockPos) voxel.Block

func (f GeneratorFunc) GenerateChunk(w *World, pos voxel.ChunkPos) *LoadedChunk {
	return NewLoadedChunk(NewChunk(w, pos, f))
}

// FlatGenerator fills everything below Height with Fill and leaves the rest
// as air, capped with Top when it is not air.
type FlatGenerator struct {
	Height int
	Fill   voxel.Block
	Top    voxel.Block
}

func (g FlatGenerator) block(pos voxel.BlockPos) voxel.Block {
	switch {
	case pos.Y < g.Height-1:
		return g.Fill
	case pos.Y == g.Height-1 && g.Top != voxel.Air:
		return g.Top
	case pos.Y == g.Height-1:
		return g.Fill
	}
	return voxel.Air
}

func (g FlatGenerator) GenerateChunk(w *World, pos voxel.ChunkPos) *LoadedChunk {
	return GeneratorFunc(g.block).GenerateChunk(w, pos)
}
