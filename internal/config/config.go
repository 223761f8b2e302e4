// Package config loads driver settings from YAML with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig  = "VOXELSTREAM_CONFIG"
	EnvWorkers = "VOXELSTREAM_WORKERS"
	EnvSeed    = "VOXELSTREAM_SEED"
)

const (
	MinRenderDistance = 1
	MaxRenderDistance = 32
)

// Distance is a per-axis chunk radius.
type Distance struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Velocity is a per-tick movement in blocks.
type Velocity struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// Config holds everything the driver needs.
type Config struct {
	// Workers is the task worker count, defaulting to one less than the CPU count.
	Workers   int           `yaml:"workers"`
	IdleSleep time.Duration `yaml:"idle_sleep"`

	RenderDistance Distance `yaml:"render_distance"`
	WorldGen       WorldGen `yaml:"worldgen"`

	// MetricsAddr serves Prometheus metrics when set, e.g. ":9100".
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	// Ticks is how many simulation ticks the driver runs; 0 runs until
	// interrupted.
	Ticks    int      `yaml:"ticks"`
	TickRate float64  `yaml:"tick_rate"`
	Walk     Velocity `yaml:"walk"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:        max(runtime.NumCPU()-1, 1),
		IdleSleep:      2 * time.Millisecond,
		RenderDistance: Distance{X: 10, Y: 5, Z: 10},
		WorldGen:       defaultWorldGen(),
		LogLevel:       "info",
		LogFormat:      "text",
		Ticks:          600,
		TickRate:       60,
		Walk:           Velocity{X: 0.25},
	}
}

// Load reads the YAML file at path, or at $VOXELSTREAM_CONFIG when path is
// empty, over the defaults. With neither set only defaults and environment
// overrides apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvSeed); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.WorldGen.Seed = n
	}
	return nil
}

// Validate clamps out of range values and fills in missing ones. Values that
// cannot be clamped, such as an unknown generator name, are errors.
func (c *Config) Validate() error {
	d := Default()
	if c.Workers < 1 {
		c.Workers = d.Workers
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = d.IdleSleep
	}
	c.RenderDistance.X = clampDistance(c.RenderDistance.X)
	c.RenderDistance.Y = clampDistance(c.RenderDistance.Y)
	c.RenderDistance.Z = clampDistance(c.RenderDistance.Z)
	if err := c.WorldGen.validate(); err != nil {
		return err
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Ticks < 0 {
		c.Ticks = 0
	}
	if c.TickRate <= 0 {
		c.TickRate = d.TickRate
	}
	return nil
}

func clampDistance(v int) int {
	return min(max(v, MinRenderDistance), MaxRenderDistance)
}

// TickInterval returns the time between ticks.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
