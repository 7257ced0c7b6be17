package vicsek

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Align returns the new direction of a particle whose neighbors in swarm
// are listed in nbrs: the circular mean of their directions plus η·ξ,
// mapped into (-π, π]. nbrs must not be empty; neighbor queries always
// include the particle itself.
func Align(swarm []Particle, nbrs []int, η, ξ float64) float64 {
	θ, _ := align(nil, swarm, nbrs, η, ξ)
	return θ
}

// align is Align using buf as scratch space. It returns the grown buffer.
func align(buf []float64, swarm []Particle, nbrs []int, η, ξ float64) (float64, []float64) {
	buf = buf[:0]
	for _, j := range nbrs {
		buf = append(buf, swarm[j].Theta)
	}
	return NormAngle(stat.CircularMean(buf, nil) + η*ξ), buf
}

// Advance returns the position of p after moving a distance v along its direction.
func Advance(p Particle, v float64) r2.Vec {
	sin, cos := math.Sincos(p.Theta)
	return r2.Vec{X: p.X + v*cos, Y: p.Y + v*sin}
}

// Polarization returns the Vicsek order parameter of a swarm, the norm of
// the mean unit direction. It is 1 when all particles move in the same
// direction and close to 0 for disordered swarms.
func Polarization(swarm []Particle) float64 {
	if len(swarm) == 0 {
		return 0
	}
	var v r2.Vec
	for _, p := range swarm {
		sin, cos := math.Sincos(p.Theta)
		v.X += cos
		v.Y += sin
	}
	return r2.Norm(v) / float64(len(swarm))
}
