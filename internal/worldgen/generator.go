// Package worldgen is the default terrain generator. Surface height comes
// from OpenSimplex noise; heat and humidity come from Perlin noise and pick a
// biome whose layers fill each column.
package worldgen

import (
	"voxelstream/internal/profiling"
	"voxelstream/internal/voxel"
	"voxelstream/internal/world"
)

const (
	heightScale  = 0.05
	climateScale = 0.002
	// biomeHeightGain is applied before cubing the biome height noise, so
	// most terrain stays flat with rare large offsets.
	biomeHeightGain = 6.0
)

// Generator produces terrain for a seed. It is safe for concurrent use.
type Generator struct {
	height      simplexNoise
	biomeHeight simplexNoise
	heat        perlinNoise
	humidity    perlinNoise
	biomes      *BiomeMap
}

var _ world.Generator = (*Generator)(nil)

func New(seed int64) *Generator {
	return &Generator{
		height:      newSimplexNoise(seed, heightScale),
		biomeHeight: newSimplexNoise(seed+1, climateScale),
		heat:        newPerlinNoise(seed+2, climateScale),
		humidity:    newPerlinNoise(seed+3, climateScale),
		biomes:      NewBiomeMap(Biomes),
	}
}

// Column is the surface of one block column.
type Column struct {
	Height int
	Biome  *Biome
}

// Column samples the surface at block column (x, z).
func (g *Generator) Column(x, z int) Column {
	heat := uniformClimate(g.heat.sample(x, z))
	humidity := uniformClimate(g.humidity.sample(x, z))
	biome := g.biomes.Biome(heat, humidity)

	b := biomeHeightGain * g.biomeHeight.sample(x, z)
	base := int(b * b * b)
	return Column{
		Height: base + int(biome.HeightAmplitude*g.height.sample(x, z)),
		Biome:  biome,
	}
}

// Block returns the block at a global position.
func (g *Generator) Block(pos voxel.BlockPos) voxel.Block {
	c := g.Column(pos.X, pos.Z)
	return c.Biome.BlockAtDepth(pos.Y - c.Height)
}

// GenerateChunk builds the chunk at pos, sampling each column once.
func (g *Generator) GenerateChunk(w *world.World, pos voxel.ChunkPos) *world.LoadedChunk {
	defer profiling.Track("worldgen.GenerateChunk")()

	origin := pos.BlockPos()
	var cols [voxel.ChunkSize][voxel.ChunkSize]Column
	for x := 0; x < voxel.ChunkSize; x++ {
		for z := 0; z < voxel.ChunkSize; z++ {
			cols[x][z] = g.Column(origin.X+x, origin.Z+z)
		}
	}

	c := world.NewChunk(w, pos, func(b voxel.BlockPos) voxel.Block {
		col := cols[b.X-origin.X][b.Z-origin.Z]
		return col.Biome.BlockAtDepth(b.Y - col.Height)
	})
	return world.NewLoadedChunk(c)
}
