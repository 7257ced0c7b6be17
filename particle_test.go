package vicsek

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestDist(t *testing.T) {
	tests := []struct {
		p, q r2.Vec
		want float64
	}{
		{r2.Vec{}, r2.Vec{}, 0},
		{r2.Vec{X: 0, Y: 0}, r2.Vec{X: 3, Y: 4}, 5},
		{r2.Vec{X: -1, Y: 2}, r2.Vec{X: -1, Y: -2}, 4},
	}
	for _, tt := range tests {
		if got := Dist(tt.p, tt.q); got != tt.want {
			t.Errorf("Dist(%v, %v) = %g, want %g", tt.p, tt.q, got, tt.want)
		}
	}
}

func TestDomainContains(t *testing.T) {
	d := Domain{Radius: 5, Separation: 6}
	tests := []struct {
		name string
		p    r2.Vec
		want bool
	}{
		{"right center", r2.Vec{X: 3}, true},
		{"left center", r2.Vec{X: -3}, true},
		{"waist", r2.Vec{}, true},
		{"right edge", r2.Vec{X: 8}, true},
		{"left edge", r2.Vec{X: -8}, true},
		{"beyond right edge", r2.Vec{X: 8.001}, false},
		{"top of waist", r2.Vec{Y: 4}, true},
		{"above waist", r2.Vec{Y: 4.01}, false},
		{"top of right lobe", r2.Vec{X: 3, Y: 5}, true},
		{"corner of box", r2.Vec{X: 8, Y: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestDistToLobe(t *testing.T) {
	d := Domain{Radius: 5, Separation: 6}
	p := r2.Vec{X: 3, Y: 4}
	if got := d.DistToLobe(p, Right); got != 4 {
		t.Errorf("DistToLobe(right) = %g, want 4", got)
	}
	if got := d.DistToLobe(p, Left); math.Abs(got-math.Sqrt(52)) > 1e-12 {
		t.Errorf("DistToLobe(left) = %g, want %g", got, math.Sqrt(52))
	}
}

func TestDomainArea(t *testing.T) {
	disk := math.Pi * 4
	tests := []struct {
		name string
		d    Domain
		want float64
	}{
		{"single disk", Domain{Radius: 2, Separation: 0}, disk},
		{"tangent disks", Domain{Radius: 2, Separation: 4}, 2 * disk},
		{"disjoint disks", Domain{Radius: 2, Separation: 10}, 2 * disk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Area(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Area() = %g, want %g", got, tt.want)
			}
		})
	}

	peanut := Domain{Radius: 2, Separation: 2}
	if a := peanut.Area(); a <= disk || a >= 2*disk {
		t.Errorf("peanut Area() = %g, want between %g and %g", a, disk, 2*disk)
	}
}

func TestHome(t *testing.T) {
	if got := Home(r2.Vec{X: 0, Y: 3}); got != Right {
		t.Errorf("Home on the waist = %v, want right", got)
	}
	if got := Home(r2.Vec{X: -1e-300}); got != Left {
		t.Errorf("Home(-0+) = %v, want left", got)
	}
	if got := Home(r2.Vec{X: 2}); got != Right {
		t.Errorf("Home(2) = %v, want right", got)
	}
}

func TestNormAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
		{5, 5 - 2*math.Pi},
	}
	for _, tt := range tests {
		if got := NormAngle(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormAngle(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}

	for θ := -20.0; θ < 20; θ += 0.01 {
		got := NormAngle(θ)
		if got <= -math.Pi || got > math.Pi {
			t.Fatalf("NormAngle(%g) = %g, out of (-π, π]", θ, got)
		}
		if math.Abs(math.Sin(got)-math.Sin(θ)) > 1e-9 || math.Abs(math.Cos(got)-math.Cos(θ)) > 1e-9 {
			t.Fatalf("NormAngle(%g) = %g, not the same direction", θ, got)
		}
	}
}

func TestLobeString(t *testing.T) {
	if Right.String() != "right" || Left.String() != "left" {
		t.Errorf("got %q and %q", Right, Left)
	}
}
