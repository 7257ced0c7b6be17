package vicsek

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// scatterStream is the PCG stream used for initial conditions.
// Step streams never reach it.
const scatterStream = ^uint64(0)

// Scatter returns n particles drawn uniformly in the domain with uniform
// random directions. Positions are drawn in the bounding box of the domain
// and rejected until they fall inside.
func Scatter(n int, d Domain, rng *rand.Rand) []Particle {
	lo, hi := d.Bounds()
	swarm := make([]Particle, n)
	for i := range swarm {
		for {
			p := r2.Vec{
				X: lo.X + (hi.X-lo.X)*rng.Float64(),
				Y: lo.Y + (hi.Y-lo.Y)*rng.Float64(),
			}
			θ := math.Pi - 2*math.Pi*rng.Float64()
			if d.Contains(p) {
				swarm[i] = Particle{X: p.X, Y: p.Y, Theta: θ}
				break
			}
		}
	}
	return swarm
}

// NewSwarm validates c and returns its initial swarm, seeded from c.Seed.
func NewSwarm(c Config) ([]Particle, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return Scatter(c.SwarmSize, c.Domain, rand.New(rand.NewPCG(c.Seed, scatterStream))), nil
}
