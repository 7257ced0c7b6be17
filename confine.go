package vicsek

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// A Coin draws uniform numbers in [0, 1). It breaks geometric ties.
type Coin interface {
	Float64() float64
}

// heads reports the outcome of an unbiased coin flip.
func heads(c Coin) bool {
	return c.Float64() < 0.5
}

// A Confiner keeps particles inside a domain by reflecting them off
// the wall of the lobe they crossed.
type Confiner struct {
	Domain    Domain
	Speed     float64
	MaxPasses int
}

// ReflectionLobe returns the lobe whose wall a particle moving from old to
// the outside point cand is reflected against. A candidate on the same side
// of the waist as old uses old's lobe and a candidate across the waist uses
// the lobe on its own side, so the lobe follows the sign of cand.X.
// A candidate exactly on x = 0 is assigned by coin flip.
func (d Domain) ReflectionLobe(old Particle, cand r2.Vec, coin Coin) Lobe {
	switch {
	case cand.X > 0:
		return Right
	case cand.X < 0:
		return Left
	}
	if heads(coin) {
		return Right
	}
	return Left
}

// Reflect returns the direction of a particle reflected off the wall of lobe l
// at the outside point cand, given its incoming direction θ.
// The radial direction at cand is turned inward when the particle moves outward,
// kept when it already moves inward, and chosen by coin flip when the particle
// moves exactly tangentially.
func (d Domain) Reflect(cand r2.Vec, l Lobe, θ float64, coin Coin) float64 {
	c := d.Center(l)
	wall := math.Atan2(cand.Y-c.Y, cand.X-c.X)
	switch cos := math.Cos(diffAngle(wall, θ)); {
	case cos > 0:
		wall += math.Pi
	case cos == 0:
		if heads(coin) {
			wall += math.Pi
		}
	}
	return NormAngle(wall)
}

// Confine returns the committed state of a particle that moved from old to
// cand and whose aligned direction is θ. A candidate inside the domain is
// kept as is. Otherwise the particle is reflected off the wall and moved
// from old along the reflected direction, and the test is repeated on the
// result at most MaxPasses times. The boolean reports whether a reflection
// occurred. The error, if any, is a *ConfinementError with Particle and Step unset.
func (cf *Confiner) Confine(old Particle, cand r2.Vec, θ float64, coin Coin) (Particle, bool, error) {
	if cf.Domain.Contains(cand) {
		return Particle{X: cand.X, Y: cand.Y, Theta: θ}, false, nil
	}
	incoming := old.Theta
	for pass := 0; pass < cf.MaxPasses; pass++ {
		l := cf.Domain.ReflectionLobe(old, cand, coin)
		dir := cf.Domain.Reflect(cand, l, incoming, coin)
		sin, cos := math.Sincos(dir)
		cand = r2.Vec{X: old.X + cf.Speed*cos, Y: old.Y + cf.Speed*sin}
		if cf.Domain.Contains(cand) {
			return Particle{X: cand.X, Y: cand.Y, Theta: dir}, true, nil
		}
		incoming = dir
	}
	return old, true, &ConfinementError{X: cand.X, Y: cand.Y}
}
