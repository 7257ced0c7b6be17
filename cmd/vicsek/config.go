package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/PrincetonUniversity/vicsek"
	"gopkg.in/yaml.v3"
)

// Output kinds.
const (
	OutputDat    = "dat"
	OutputHDF5   = "hdf5"
	OutputSQLite = "sqlite"
)

// Config holds the various parameters required for running a simulation.
type Config struct {
	// Output is the kind of output: "dat", "hdf5" or "sqlite",
	// or the empty string for an interactive OpenGL simulation.
	Output string

	// Path is the root directory of dat outputs,
	// or the file of hdf5 and sqlite outputs.
	Path string

	LogLevel      string // info, debug or trace
	ProgressEvery int    // steps between progress logs, 0 for 100 logs per run

	SwarmSize int    // number of particles
	Steps     int    // number of time steps
	Seed      uint64 // seed of the random streams, 0 to seed from the clock

	// Particles parameters
	Speed        float64 // unit: distance/step
	SearchRadius float64 // unit: distance
	Noise        float64 // unit: rad

	// Domain parameters
	Radius     float64 // unit: distance
	Separation float64 // unit: distance

	// Performance parameters
	Workers   int    // goroutines per step, 0 for GOMAXPROCS
	MaxPasses int    // confinement passes per particle, 0 for the default
	Neighbors string // possible values: grid, allpairs

	// Viewer parameters
	View float64 // unit: distance (half width of the default viewport)
}

// DefaultConf are the default parameters.
var DefaultConf = &Config{
	Output:       "",
	Path:         "data",
	LogLevel:     "info",
	SwarmSize:    1000,
	Steps:        1000,
	Seed:         0,
	Speed:        1.0,
	SearchRadius: 1.0,
	Noise:        0.2,
	Radius:       10,
	Separation:   12,
	Neighbors:    vicsek.NeighborsGrid,
	View:         24,
}

// ParseConfig parses the config file whose path is provided.
// Files ending in .yaml or .yml are decoded as YAML, anything else as TOML.
// Parameters missing from the file keep their default value.
func ParseConfig(path string) (*Config, error) {
	conf := *DefaultConf
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		md, err := toml.DecodeFile(path, &conf)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, fmt.Errorf("%s: unknown parameter %q", path, keys[0].String())
		}
	}
	if err := conf.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &conf, nil
}

// check validates the parameters that are not simulation parameters.
func (c *Config) check() error {
	switch c.Output {
	case "", OutputDat, OutputHDF5, OutputSQLite:
	default:
		return fmt.Errorf("bad output %q", c.Output)
	}
	if c.Output != "" && c.Path == "" {
		return fmt.Errorf("output %s requires a path", c.Output)
	}
	if c.View < 0 {
		return fmt.Errorf("bad view %g", c.View)
	}
	return nil
}

// Sim returns the simulation parameters.
func (c *Config) Sim() vicsek.Config {
	return vicsek.Config{
		SwarmSize:    c.SwarmSize,
		Speed:        c.Speed,
		SearchRadius: c.SearchRadius,
		Noise:        c.Noise,
		Domain:       vicsek.Domain{Radius: c.Radius, Separation: c.Separation},
		Steps:        c.Steps,
		Seed:         c.Seed,
		Workers:      c.Workers,
		MaxPasses:    c.MaxPasses,
		Neighbors:    c.Neighbors,
	}
}

// WriteTOML writes the config as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
