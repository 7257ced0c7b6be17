package vicsek

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// A Particle is a point moving at constant speed in direction Theta.
// This structure is mapped to compound datatypes by the output drivers
// so field names are important.
type Particle struct {
	X     float64 // position in length units
	Y     float64 // position in length units
	Theta float64 // direction in radians, in (-π, π]
}

// Pos returns the position of the particle.
func (p Particle) Pos() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// A Lobe is one of the two disks whose union forms the domain.
type Lobe int

const (
	Right Lobe = iota // disk centered at (+d/2, 0)
	Left              // disk centered at (-d/2, 0)
)

func (l Lobe) String() string {
	switch l {
	case Right:
		return "right"
	case Left:
		return "left"
	}
	return fmt.Sprintf("Lobe(%d)", int(l))
}

// A Domain is the union of two disks of equal radius whose centers
// are separated by a distance Separation along the x axis.
// With Separation < 2*Radius the union is a single non-convex "peanut".
type Domain struct {
	Radius     float64 // radius of each lobe
	Separation float64 // distance between the two lobe centers
}

// Center returns the center of lobe l.
func (d Domain) Center(l Lobe) r2.Vec {
	if l == Left {
		return r2.Vec{X: -d.Separation / 2}
	}
	return r2.Vec{X: d.Separation / 2}
}

// DistToLobe returns the distance between p and the center of lobe l.
func (d Domain) DistToLobe(p r2.Vec, l Lobe) float64 {
	return Dist(p, d.Center(l))
}

// Contains reports whether p lies inside the domain, boundary included.
func (d Domain) Contains(p r2.Vec) bool {
	return d.DistToLobe(p, Right) <= d.Radius || d.DistToLobe(p, Left) <= d.Radius
}

// Bounds returns the bottom left and top right corners of the bounding box of the domain.
func (d Domain) Bounds() (min, max r2.Vec) {
	w := d.Radius + d.Separation/2
	return r2.Vec{X: -w, Y: -d.Radius}, r2.Vec{X: w, Y: d.Radius}
}

// Area returns the area of the domain.
func (d Domain) Area() float64 {
	r, s := d.Radius, math.Abs(d.Separation)
	disk := math.Pi * r * r
	if s >= 2*r {
		return 2 * disk
	}
	// area of the lens shared by both disks
	lens := 2*r*r*math.Acos(s/(2*r)) - s/2*math.Sqrt(4*r*r-s*s)
	return 2*disk - lens
}

// Home returns the lobe a particle at p belongs to.
// The waist line x = 0 belongs to the right lobe.
func Home(p r2.Vec) Lobe {
	if p.X >= 0 {
		return Right
	}
	return Left
}

// Dist returns the Euclidean distance between two points.
func Dist(p, q r2.Vec) float64 {
	return r2.Norm(r2.Sub(p, q))
}

// NormAngle maps θ into (-π, π].
func NormAngle(θ float64) float64 {
	θ = math.Mod(θ, 2*math.Pi)
	switch {
	case θ <= -math.Pi:
		θ += 2 * math.Pi
	case θ > math.Pi:
		θ -= 2 * math.Pi
	}
	return θ
}

// diffAngle returns the difference between two angles in radians.
// The result is in (-π, π].
func diffAngle(θ, φ float64) float64 {
	return NormAngle(θ - φ)
}
