package vicsek

import (
	"errors"
	"fmt"
	"math"
)

// Neighbor finder names accepted by Config.Neighbors.
const (
	NeighborsGrid     = "grid"
	NeighborsAllPairs = "allpairs"
)

// DefaultMaxPasses is the number of confinement passes used when Config.MaxPasses is zero.
const DefaultMaxPasses = 8

// Config contains all the parameters of a simulation.
// It is validated once when the simulation is created and never changes afterwards.
type Config struct {
	SwarmSize    int     // number of particles
	Speed        float64 // distance covered per step
	SearchRadius float64 // interaction radius, inclusive
	Noise        float64 // noise strength η
	Domain       Domain  // confining geometry
	Steps        int     // number of steps of a run
	Seed         uint64  // seed of all random streams

	Workers   int    // number of goroutines per step, 0 means GOMAXPROCS
	MaxPasses int    // bound on confinement passes per particle and step
	Neighbors string // neighbor finder: "grid" (default) or "allpairs"
}

// A ConfigurationError reports an invalid simulation parameter.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("vicsek: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// A ConfinementError reports a particle that could not be brought back
// inside the domain within the allowed number of passes.
type ConfinementError struct {
	Particle int     // index of the particle
	Step     int     // step during which confinement failed
	X, Y     float64 // last candidate position
}

func (e *ConfinementError) Error() string {
	return fmt.Sprintf("vicsek: particle %d left the domain at step %d (last candidate (%g, %g))",
		e.Particle, e.Step, e.X, e.Y)
}

// ErrFinished is returned when stepping a simulation that already ran all its steps.
var ErrFinished = errors.New("vicsek: simulation finished")

// ErrFailed is returned when stepping a simulation after a step failed.
var ErrFailed = errors.New("vicsek: simulation failed")

// ErrUninitialized is returned when stepping a simulation not created by NewSimulation.
var ErrUninitialized = errors.New("vicsek: simulation not initialized")

// Validate checks the configuration and returns a *ConfigurationError
// describing the first invalid parameter.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"speed", c.Speed},
		{"search radius", c.SearchRadius},
		{"domain radius", c.Domain.Radius},
	}
	if c.SwarmSize <= 0 {
		return &ConfigurationError{"swarm size", c.SwarmSize, "must be positive"}
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return &ConfigurationError{p.name, p.v, "must be positive and finite"}
		}
	}
	if !(c.Noise >= 0) || math.IsInf(c.Noise, 0) {
		return &ConfigurationError{"noise", c.Noise, "must be non-negative and finite"}
	}
	if !(c.Domain.Separation >= 0) || math.IsInf(c.Domain.Separation, 0) {
		return &ConfigurationError{"lobe separation", c.Domain.Separation, "must be non-negative and finite"}
	}
	if c.Steps < 0 {
		return &ConfigurationError{"steps", c.Steps, "must not be negative"}
	}
	if c.Workers < 0 {
		return &ConfigurationError{"workers", c.Workers, "must not be negative"}
	}
	if c.MaxPasses < 0 {
		return &ConfigurationError{"max passes", c.MaxPasses, "must not be negative"}
	}
	switch c.Neighbors {
	case "", NeighborsGrid, NeighborsAllPairs:
	default:
		return &ConfigurationError{"neighbor finder", c.Neighbors, `must be "grid" or "allpairs"`}
	}
	return nil
}

func (c Config) maxPasses() int {
	if c.MaxPasses == 0 {
		return DefaultMaxPasses
	}
	return c.MaxPasses
}
