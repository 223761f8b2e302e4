package worldgen

import (
	"math"
	"strings"

	"voxelstream/internal/voxel"
)

// Layer is a band of one block kind under the surface.
type Layer struct {
	Block     voxel.Block
	Thickness int
}

// Biome describes the surface of a climate region.
type Biome struct {
	Name string
	// HeightAmplitude scales the surface height noise.
	HeightAmplitude float64
	// Layers run downward from the surface block.
	Layers []Layer
	// Filler is used below the last layer.
	Filler   voxel.Block
	Heat     int
	Humidity int
}

// BlockAtDepth returns the block depth blocks above the surface. Depth is 0 at
// the surface block and negative below it.
func (b *Biome) BlockAtDepth(depth int) voxel.Block {
	if depth > 0 {
		return voxel.Air
	}
	bottom := 0
	for _, l := range b.Layers {
		bottom -= l.Thickness
		if depth > bottom {
			return l.Block
		}
	}
	return b.Filler
}

var (
	Grasslands = &Biome{
		Name:            "grasslands",
		HeightAmplitude: 4,
		Layers:          []Layer{{voxel.Grass, 1}, {voxel.Dirt, 3}, {voxel.RockyDirt, 3}},
		Filler:          voxel.Stone,
		Heat:            28,
		Humidity:        18,
	}
	LushGrasslands = &Biome{
		Name:            "lush grasslands",
		HeightAmplitude: 4,
		Layers:          []Layer{{voxel.Dirt, 1}, {voxel.Dirt, 3}, {voxel.RockyDirt, 3}},
		Filler:          voxel.Stone,
		Heat:            28,
		Humidity:        25,
	}
	ConiferousForest = &Biome{
		Name:            "coniferous forest",
		HeightAmplitude: 50,
		Layers:          []Layer{{voxel.Stone, 1}, {voxel.Dirt, 3}, {voxel.RockyDirt, 3}},
		Filler:          voxel.Stone,
		Heat:            13,
		Humidity:        35,
	}
)

// Biomes lists every surface biome.
var Biomes = []*Biome{Grasslands, LushGrasslands, ConiferousForest}

// BiomeMapSize is the number of heat and humidity levels.
const BiomeMapSize = 50

// BiomeMap assigns each (heat, humidity) cell the biome whose climate point
// is nearest, forming a Voronoi diagram.
type BiomeMap struct {
	cells [BiomeMapSize][BiomeMapSize]*Biome
}

func NewBiomeMap(biomes []*Biome) *BiomeMap {
	m := &BiomeMap{}
	for heat := 0; heat < BiomeMapSize; heat++ {
		for humidity := 0; humidity < BiomeMapSize; humidity++ {
			best := math.Inf(1)
			for _, b := range biomes {
				dh := float64(b.Heat - heat)
				dw := float64(b.Humidity - humidity)
				if d := math.Hypot(dh, dw); d < best {
					best = d
					m.cells[heat][humidity] = b
				}
			}
		}
	}
	return m
}

// Biome returns the biome for a climate cell. Values are clamped to the map.
func (m *BiomeMap) Biome(heat, humidity int) *Biome {
	heat = min(max(heat, 0), BiomeMapSize-1)
	humidity = min(max(humidity, 0), BiomeMapSize-1)
	return m.cells[heat][humidity]
}

// String draws the map with one letter per cell, heat down and humidity
// across.
func (m *BiomeMap) String() string {
	var sb strings.Builder
	for heat := 0; heat < BiomeMapSize; heat++ {
		for humidity := 0; humidity < BiomeMapSize; humidity++ {
			sb.WriteByte(m.cells[heat][humidity].Name[0])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
