package config

import "fmt"

// Generator names accepted in WorldGen.Generator.
const (
	GeneratorNoise = "noise"
	GeneratorFlat  = "flat"
)

// WorldGen holds terrain generation settings.
type WorldGen struct {
	Seed      int64  `yaml:"seed"`
	Generator string `yaml:"generator"`
	// FlatHeight is the ground height of the flat generator.
	FlatHeight int `yaml:"flat_height"`
}

func defaultWorldGen() WorldGen {
	return WorldGen{Generator: GeneratorNoise, FlatHeight: 8}
}

func (w *WorldGen) validate() error {
	switch w.Generator {
	case "":
		w.Generator = GeneratorNoise
	case GeneratorNoise, GeneratorFlat:
	default:
		return fmt.Errorf("worldgen.generator %q: want %q or %q", w.Generator, GeneratorNoise, GeneratorFlat)
	}
	return nil
}
