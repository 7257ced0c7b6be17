// Package vicsek runs Vicsek-style simulations of self-propelled particles
// confined to a domain made of two overlapping disks.
//
// A fixed number of point particles move at constant speed.
// At each step every particle adopts the mean direction of the particles
// within a search radius, itself included, perturbed by Gaussian noise.
// Particles about to leave the domain are reflected off the wall of the
// lobe they crossed.
package vicsek

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"
)

// State is the lifecycle state of a Simulation.
type State int

const (
	Uninitialized State = iota
	Running
	Finished
	Failed // a step returned an error, no further step is run
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// A Simulation contains all the state and parameters of a simulation.
// The swarm is double buffered: a step reads the committed state and
// writes the next one, then the buffers are swapped.
type Simulation struct {
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger

	conf     Config
	state    State
	t        int // index of the next step
	cur      []Particle
	next     []Particle
	pos      []r2.Vec
	finder   NeighborFinder
	confiner Confiner
	chunks   []chunk
	err      error // error of the failed step
}

// chunk is the slice of particles handled by one goroutine, with its scratch space.
type chunk struct {
	lo, hi    int
	nbrs      []int
	angles    []float64
	src       *rand.PCG
	rng       *rand.Rand
	reflected int
}

// NewSimulation validates conf and returns a simulation starting from swarm.
// The swarm is copied. It must contain conf.SwarmSize particles, all inside the domain.
func NewSimulation(conf Config, swarm []Particle) (*Simulation, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if len(swarm) != conf.SwarmSize {
		return nil, &ConfigurationError{"initial swarm size", len(swarm), fmt.Sprintf("want %d particles", conf.SwarmSize)}
	}
	for i, p := range swarm {
		if !conf.Domain.Contains(p.Pos()) {
			return nil, &ConfigurationError{"initial position", p.Pos(), fmt.Sprintf("particle %d is outside the domain", i)}
		}
	}

	s := &Simulation{
		conf:   conf,
		state:  Running,
		cur:    make([]Particle, len(swarm)),
		next:   make([]Particle, len(swarm)),
		pos:    make([]r2.Vec, len(swarm)),
		finder: newNeighborFinder(conf),
		confiner: Confiner{
			Domain:    conf.Domain,
			Speed:     conf.Speed,
			MaxPasses: conf.maxPasses(),
		},
	}
	for i, p := range swarm {
		s.cur[i] = Particle{X: p.X, Y: p.Y, Theta: NormAngle(p.Theta)}
	}
	if conf.Steps == 0 {
		s.state = Finished
	}

	w := conf.Workers
	if w == 0 {
		w = runtime.GOMAXPROCS(0)
	}
	w = min(w, len(swarm))
	s.chunks = make([]chunk, w)
	for k := range s.chunks {
		c := &s.chunks[k]
		c.lo, c.hi = k*len(swarm)/w, (k+1)*len(swarm)/w
		c.src = rand.NewPCG(conf.Seed, 0)
		c.rng = rand.New(c.src)
	}
	return s, nil
}

// Config returns the configuration of the simulation.
func (s *Simulation) Config() Config {
	return s.conf
}

// State returns the lifecycle state of the simulation.
func (s *Simulation) State() State {
	return s.state
}

// Time returns the index of the next step.
func (s *Simulation) Time() int {
	return s.t
}

// Swarm returns the committed state of the swarm.
// It must not be modified and is only valid until the next step.
func (s *Simulation) Swarm() []Particle {
	return s.cur
}

// Reflections returns the number of particles reflected off a wall during the last step.
func (s *Simulation) Reflections() int {
	var n int
	for _, c := range s.chunks {
		n += c.reflected
	}
	return n
}

// stream returns the key of the random stream of particle i at step t.
// Streams do not depend on how particles are split between goroutines.
func stream(t, i int) uint64 {
	return uint64(t)<<32 | uint64(uint32(i))
}

// Step runs a single simulation step: every particle moves along its current
// direction, aligns with its neighbors, and is reflected if it left the domain.
// A failed step is not committed and leaves the simulation Failed.
func (s *Simulation) Step() error {
	switch s.state {
	case Uninitialized:
		return ErrUninitialized
	case Finished:
		return ErrFinished
	case Failed:
		return s.failure()
	}

	for i, p := range s.cur {
		s.pos[i] = p.Pos()
	}
	s.finder.Reset(s.pos)

	var g errgroup.Group
	for k := range s.chunks {
		c := &s.chunks[k]
		g.Go(func() error { return s.update(c) })
	}
	if err := g.Wait(); err != nil {
		s.state, s.err = Failed, err
		return err
	}

	s.cur, s.next = s.next, s.cur
	s.t++
	if s.t == s.conf.Steps {
		s.state = Finished
	}
	if s.Logger != nil && s.Reflections() > 0 {
		s.Logger.Debug("reflections", "step", s.t-1, "count", s.Reflections())
	}
	return nil
}

// failure returns the error of a Failed simulation.
func (s *Simulation) failure() error {
	return fmt.Errorf("%w: %w", ErrFailed, s.err)
}

// update computes the next state of the particles of chunk c.
func (s *Simulation) update(c *chunk) error {
	c.reflected = 0
	for i := c.lo; i < c.hi; i++ {
		c.src.Seed(s.conf.Seed, stream(s.t, i))
		old := s.cur[i]

		cand := Advance(old, s.conf.Speed)
		c.nbrs = s.finder.Within(i, c.nbrs)
		var θ float64
		θ, c.angles = align(c.angles, s.cur, c.nbrs, s.conf.Noise, c.rng.NormFloat64())

		p, reflected, err := s.confiner.Confine(old, cand, θ, c.rng)
		if err != nil {
			e := err.(*ConfinementError)
			e.Particle, e.Step = i, s.t
			return e
		}
		if reflected {
			c.reflected++
		}
		s.next[i] = p
	}
	return nil
}

// Run runs all remaining steps. Before each step the current state is
// recorded to sink under the index of that step, so a full run records
// steps 0 to Steps-1. The context is checked between steps.
func (s *Simulation) Run(ctx context.Context, sink Sink) error {
	switch s.state {
	case Uninitialized:
		return ErrUninitialized
	case Failed:
		return s.failure()
	}
	if sink == nil {
		sink = Discard
	}
	for s.state == Running {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Record(s.t, s.cur); err != nil {
			return fmt.Errorf("vicsek: recording step %d: %w", s.t, err)
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	if s.Logger != nil {
		s.Logger.Info("run finished", "steps", s.t, "polarization", Polarization(s.cur))
	}
	return nil
}
