package vicsek

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// A NeighborFinder answers fixed-radius neighbor queries over a set of positions.
// Within must return every index j such that Dist(pos[i], pos[j]) <= radius,
// i itself included, in increasing order. After Reset, Within may be called
// concurrently.
type NeighborFinder interface {
	Reset(pos []r2.Vec)
	Within(i int, dst []int) []int
}

// NeighborsWithin returns the indices of all positions within radius of pos[i], i included.
func NeighborsWithin(pos []r2.Vec, i int, radius float64) []int {
	f := &AllPairs{Radius: radius}
	f.Reset(pos)
	return f.Within(i, nil)
}

// AllPairs is the reference O(N²) neighbor finder.
type AllPairs struct {
	Radius float64
	pos    []r2.Vec
}

// Reset sets the positions to query.
func (f *AllPairs) Reset(pos []r2.Vec) {
	f.pos = pos
}

// Within appends to dst[:0] the neighbors of particle i.
func (f *AllPairs) Within(i int, dst []int) []int {
	dst = dst[:0]
	p := f.pos[i]
	for j, q := range f.pos {
		if Dist(p, q) <= f.Radius {
			dst = append(dst, j)
		}
	}
	return dst
}

// maxCellsPerParticle bounds the size of the grid when particles are sparse.
const maxCellsPerParticle = 4

// Grid is a cell list neighbor finder. Space is cut into square cells
// at least as wide as the radius so only the 3×3 block of cells around
// a particle needs to be scanned. Candidates are filtered with the same
// predicate as AllPairs so both return identical sets.
type Grid struct {
	Radius float64

	pos    []r2.Vec
	min    r2.Vec
	size   float64 // cell width
	nx, ny int
	start  []int // start[c] is the offset of cell c in items, len nx*ny+1
	items  []int // particle indices sorted by cell
	cell   []int // cell of each particle
}

// Reset sorts the positions into cells.
func (g *Grid) Reset(pos []r2.Vec) {
	g.pos = pos
	if len(pos) == 0 {
		g.nx, g.ny = 0, 0
		g.start = g.start[:0]
		g.items = g.items[:0]
		g.cell = g.cell[:0]
		return
	}

	lo, hi := pos[0], pos[0]
	for _, p := range pos[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	g.min = lo

	// slightly wider than the radius so that rounding never
	// puts two neighbors more than one cell apart
	g.size = max(g.Radius*(1+1e-9), math.SmallestNonzeroFloat64)
	// cell counts are compared in floating point since they may not fit an int
	bound := float64(maxCellsPerParticle*len(pos) + 8)
	for {
		fx := math.Floor((hi.X-lo.X)/g.size) + 1
		fy := math.Floor((hi.Y-lo.Y)/g.size) + 1
		if fx*fy <= bound {
			g.nx, g.ny = int(fx), int(fy)
			break
		}
		g.size *= 2
	}

	// counting sort of particles by cell
	n := g.nx * g.ny
	g.start = resize(g.start, n+1)
	clear(g.start)
	g.cell = resize(g.cell, len(pos))
	for i, p := range pos {
		c := g.cellOf(p)
		g.cell[i] = c
		g.start[c+1]++
	}
	for c := 1; c <= n; c++ {
		g.start[c] += g.start[c-1]
	}
	g.items = resize(g.items, len(pos))
	fill := make([]int, n)
	for i, c := range g.cell {
		g.items[g.start[c]+fill[c]] = i
		fill[c]++
	}
}

// Within appends to dst[:0] the neighbors of particle i.
func (g *Grid) Within(i int, dst []int) []int {
	dst = dst[:0]
	p := g.pos[i]
	cx, cy := g.cell[i]%g.nx, g.cell[i]/g.nx
	for y := max(cy-1, 0); y <= min(cy+1, g.ny-1); y++ {
		for x := max(cx-1, 0); x <= min(cx+1, g.nx-1); x++ {
			c := y*g.nx + x
			for _, j := range g.items[g.start[c]:g.start[c+1]] {
				if Dist(p, g.pos[j]) <= g.Radius {
					dst = append(dst, j)
				}
			}
		}
	}
	slices.Sort(dst)
	return dst
}

func (g *Grid) cellOf(p r2.Vec) int {
	x := min(int((p.X-g.min.X)/g.size), g.nx-1)
	y := min(int((p.Y-g.min.Y)/g.size), g.ny-1)
	return y*g.nx + x
}

// resize returns a slice of length n reusing the storage of s if possible.
func resize(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

// newNeighborFinder returns the finder named in the configuration.
func newNeighborFinder(c Config) NeighborFinder {
	if c.Neighbors == NeighborsAllPairs {
		return &AllPairs{Radius: c.SearchRadius}
	}
	return &Grid{Radius: c.SearchRadius}
}
