package worldgen

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// simplexNoise is OpenSimplex noise scaled to block coordinates.
type simplexNoise struct {
	noise opensimplex.Noise
	scale float64
}

func newSimplexNoise(seed int64, scale float64) simplexNoise {
	return simplexNoise{noise: opensimplex.New(seed), scale: scale}
}

func (n simplexNoise) sample(x, z int) float64 {
	return n.noise.Eval2(float64(x)*n.scale, float64(z)*n.scale)
}

// Perlin parameters for the climate fields: smoothing, frequency, octaves.
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = 3
)

// perlinNoise is Perlin noise scaled to block coordinates.
type perlinNoise struct {
	noise *perlin.Perlin
	scale float64
}

func newPerlinNoise(seed int64, scale float64) perlinNoise {
	return perlinNoise{noise: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed), scale: scale}
}

func (n perlinNoise) sample(x, z int) float64 {
	return n.noise.Noise2D(float64(x)*n.scale, float64(z)*n.scale)
}

// climateVariance approximates the variance of the raw climate noise.
const climateVariance = 0.0463

// uniformClimate spreads roughly normal noise over [0, BiomeMapSize).
func uniformClimate(v float64) int {
	u := 25 + 25*math.Erf(v/math.Sqrt(2*climateVariance))
	return int(min(max(u, 0), BiomeMapSize-1))
}
