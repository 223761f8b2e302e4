package voxel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkBlockRoundTrip(t *testing.T) {
	for x := -70; x <= 70; x += 7 {
		for y := -40; y <= 40; y += 5 {
			for z := -3; z <= 3; z++ {
				c := ChunkPos{x, y, z}
				require.Equal(t, c, c.BlockPos().Chunk(), "chunk %v", c)
			}
		}
	}
}

func TestChunkLocalReconstructs(t *testing.T) {
	samples := []BlockPos{
		{0, 0, 0}, {31, 31, 31}, {32, 0, 0}, {-1, -1, -1}, {-32, -33, -64},
		{-31, 5, 95}, {1000, -1000, 17}, {-65, 64, -63},
	}
	for _, p := range samples {
		chunk, local := p.Split()
		assert.True(t, local.IsChunkLocal(), "local %v of %v", local, p)
		assert.Equal(t, p, chunk.BlockPos().Add(local), "reconstruct %v", p)
	}
}

func TestNegativeFloorDivision(t *testing.T) {
	assert.Equal(t, ChunkPos{-1, -1, -2}, BlockPos{-1, -32, -33}.Chunk())
	assert.Equal(t, BlockPos{31, 0, 31}, BlockPos{-1, -32, -33}.ChunkLocal())
	assert.Equal(t, 1, FloorDiv(15, 8))
	assert.Equal(t, -1, FloorDiv(-1, 8))
	assert.Equal(t, -2, FloorDiv(-9, 8))
}

func TestBlockPosOfFloors(t *testing.T) {
	assert.Equal(t, BlockPos{0, 0, 0}, BlockPosOf(Position{0.5, 0.99, 0}))
	assert.Equal(t, BlockPos{-1, -1, -2}, BlockPosOf(Position{-0.01, -1, -1.5}))
	assert.Equal(t, ChunkPos{-1, 0, 1}, ChunkPosOf(Position{-0.5, 31.9, 32}))
}

func TestIndexPanicsOutsideChunk(t *testing.T) {
	assert.NotPanics(t, func() { _ = BlockPos{31, 31, 31}.Index() })
	assert.Panics(t, func() { _ = BlockPos{32, 0, 0}.Index() })
	assert.Panics(t, func() { _ = BlockPos{0, -1, 0}.Index() })
}

func TestAxisHelpers(t *testing.T) {
	c := ChunkPos{3, 4, 5}
	assert.Equal(t, ChunkPos{0, 4, 0}, c.AxisOnly(AxisY))
	assert.Equal(t, ChunkPos{3, 0, 5}, c.AllButAxis(AxisY))
	assert.Equal(t, ChunkPos{0, 0, 1}, Unit(AxisZ))
	assert.Equal(t, 5, c.Get(AxisZ))
}

func TestChunkBox(t *testing.T) {
	b := Box(ChunkPos{-1, 0, 0}, ChunkPos{1, 2, 3})
	assert.Equal(t, 12, b.Volume())
	assert.True(t, b.Contains(ChunkPos{-1, 1, 2}))
	assert.False(t, b.Contains(ChunkPos{1, 1, 2}))

	n := 0
	b.Each(func(c ChunkPos) {
		assert.True(t, b.Contains(c))
		n++
	})
	assert.Equal(t, b.Volume(), n)

	assert.Zero(t, Box(ChunkPos{0, 0, 0}, ChunkPos{0, 5, 5}).Volume())
	assert.Equal(t, Box(Splat(-2), Splat(2)), BoxAround(ChunkPos{}, Splat(2)))
}

func TestFaces(t *testing.T) {
	for _, f := range Faces {
		assert.Equal(t, f, FaceFromAxis(f.Axis(), f.IsPositive()))
		assert.Equal(t, f.Axis(), f.Opposite().Axis())
		assert.NotEqual(t, f.IsPositive(), f.Opposite().IsPositive())
		assert.Equal(t, BlockPos{}, f.Offset().Add(f.Opposite().Offset()))
	}
	assert.Equal(t, 31, FaceZPos.Boundary())
	assert.Equal(t, 0, FaceYNeg.Boundary())
}

func TestBlockCapabilities(t *testing.T) {
	assert.True(t, Air.IsAir())
	assert.True(t, Air.IsTranslucent())
	assert.True(t, TestBlock.IsTranslucent())
	assert.False(t, Stone.IsTranslucent())

	_, ok := Air.TextureIndex()
	assert.False(t, ok)

	seen := map[int32]bool{}
	for _, b := range Blocks() {
		idx, ok := b.TextureIndex()
		if b.IsAir() {
			continue
		}
		require.True(t, ok, b.Name())
		assert.False(t, seen[idx], "duplicate texture index %d", idx)
		assert.Less(t, int(idx), NumTextures())
		seen[idx] = true
	}
	assert.Len(t, seen, NumTextures())
}
