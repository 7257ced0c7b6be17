package vicsek

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

// testConfig is a peanut with a narrow waist.
func testConfig() Config {
	return Config{
		SwarmSize:    200,
		Speed:        0.5,
		SearchRadius: 1,
		Noise:        0.2,
		Domain:       Domain{Radius: 8, Separation: 12},
		Steps:        300,
		Seed:         7,
	}
}

func newTestSimulation(t *testing.T, c Config) *Simulation {
	t.Helper()
	swarm, err := NewSwarm(c)
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	s, err := NewSimulation(c, swarm)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return s
}

func TestRunKeepsInvariants(t *testing.T) {
	c := testConfig()
	s := newTestSimulation(t, c)

	var steps []int
	sink := SinkFunc(func(step int, swarm []Particle) error {
		steps = append(steps, step)
		if len(swarm) != c.SwarmSize {
			t.Fatalf("step %d: %d particles", step, len(swarm))
		}
		for i, p := range swarm {
			if !c.Domain.Contains(p.Pos()) {
				t.Fatalf("step %d: particle %d at %v is outside", step, i, p.Pos())
			}
			if p.Theta <= -math.Pi || p.Theta > math.Pi {
				t.Fatalf("step %d: particle %d direction %g out of (-π, π]", step, i, p.Theta)
			}
		}
		return nil
	})
	if err := s.Run(context.Background(), sink); err != nil {
		t.Fatal(err)
	}

	if len(steps) != c.Steps {
		t.Fatalf("recorded %d steps, want %d", len(steps), c.Steps)
	}
	for i, k := range steps {
		if k != i {
			t.Fatalf("recorded step %d at position %d", k, i)
		}
	}
	if s.State() != Finished || s.Time() != c.Steps {
		t.Errorf("after run: state %v, time %d", s.State(), s.Time())
	}
	for i, p := range s.Swarm() {
		if !c.Domain.Contains(p.Pos()) {
			t.Fatalf("final particle %d at %v is outside", i, p.Pos())
		}
	}
}

func TestRunRecordsStateBeforeStep(t *testing.T) {
	c := testConfig()
	c.Steps = 1
	swarm, _ := NewSwarm(c)
	s, err := NewSimulation(c, swarm)
	if err != nil {
		t.Fatal(err)
	}
	var recorded []Particle
	err = s.Run(context.Background(), SinkFunc(func(step int, p []Particle) error {
		recorded = slices.Clone(p)
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(recorded, swarm) {
		t.Error("step 0 should record the initial swarm")
	}
	if slices.Equal(s.Swarm(), swarm) {
		t.Error("swarm did not move")
	}
}

func TestStepIsDeterministic(t *testing.T) {
	variants := []struct {
		name    string
		workers int
		finder  string
	}{
		{"one worker", 1, NeighborsGrid},
		{"three workers", 3, NeighborsGrid},
		{"many workers", 64, NeighborsGrid},
		{"all pairs", 5, NeighborsAllPairs},
	}

	c := testConfig()
	c.Steps = 50
	c.Workers = 2
	ref := newTestSimulation(t, c)
	if err := ref.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			c := c
			c.Workers = v.workers
			c.Neighbors = v.finder
			s := newTestSimulation(t, c)
			if err := s.Run(context.Background(), nil); err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(s.Swarm(), ref.Swarm()) {
				t.Error("final swarm differs from the reference run")
			}
		})
	}

	c.Seed++
	other := newTestSimulation(t, c)
	if err := other.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if slices.Equal(other.Swarm(), ref.Swarm()) {
		t.Error("different seeds gave identical runs")
	}
}

func TestIsolatedParticleKeepsNoisyDirection(t *testing.T) {
	c := Config{
		SwarmSize:    2,
		Speed:        0.1,
		SearchRadius: 0.5,
		Noise:        0.8,
		Domain:       Domain{Radius: 10, Separation: 0},
		Steps:        1,
		Seed:         99,
	}
	swarm := []Particle{{X: -3, Y: 0, Theta: 2.5}, {X: 3, Y: 0, Theta: -3}}
	s, err := NewSimulation(c, swarm)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	for i, p := range s.Swarm() {
		ξ := rand.New(rand.NewPCG(c.Seed, stream(0, i))).NormFloat64()
		want := NormAngle(swarm[i].Theta + c.Noise*ξ)
		if math.IsNaN(p.Theta) || math.Abs(diffAngle(p.Theta, want)) > 1e-12 {
			t.Errorf("particle %d direction %g, want %g", i, p.Theta, want)
		}
	}
}

func TestStateMachine(t *testing.T) {
	var zero Simulation
	if err := zero.Step(); !errors.Is(err, ErrUninitialized) {
		t.Errorf("zero Step() = %v, want ErrUninitialized", err)
	}
	if zero.State() != Uninitialized {
		t.Errorf("zero state = %v", zero.State())
	}

	c := testConfig()
	c.Steps = 3
	s := newTestSimulation(t, c)
	for k := 0; k < 3; k++ {
		if s.State() != Running {
			t.Fatalf("state before step %d = %v", k, s.State())
		}
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if s.State() != Finished {
		t.Fatalf("state after last step = %v", s.State())
	}
	if err := s.Step(); !errors.Is(err, ErrFinished) {
		t.Errorf("Step() after finish = %v, want ErrFinished", err)
	}

	c.Steps = 0
	if s := newTestSimulation(t, c); s.State() != Finished {
		t.Errorf("empty run state = %v, want finished", s.State())
	}
}

func TestNewSimulationRejectsBadConfig(t *testing.T) {
	good := testConfig()
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"no particles", func(c *Config) { c.SwarmSize = 0 }, "swarm size"},
		{"negative particles", func(c *Config) { c.SwarmSize = -3 }, "swarm size"},
		{"zero speed", func(c *Config) { c.Speed = 0 }, "speed"},
		{"NaN speed", func(c *Config) { c.Speed = math.NaN() }, "speed"},
		{"zero radius", func(c *Config) { c.SearchRadius = 0 }, "search radius"},
		{"negative domain", func(c *Config) { c.Domain.Radius = -1 }, "domain radius"},
		{"negative steps", func(c *Config) { c.Steps = -1 }, "steps"},
		{"negative noise", func(c *Config) { c.Noise = -0.1 }, "noise"},
		{"negative separation", func(c *Config) { c.Domain.Separation = -1 }, "lobe separation"},
		{"unknown finder", func(c *Config) { c.Neighbors = "kdtree" }, "neighbor finder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := good
			tt.edit(&c)
			_, err := NewSimulation(c, make([]Particle, max(c.SwarmSize, 0)))
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *ConfigurationError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}

	// initial conditions are checked too
	c := good
	c.SwarmSize = 2
	if _, err := NewSimulation(c, []Particle{{}}); err == nil {
		t.Error("accepted a swarm of the wrong size")
	}
	if _, err := NewSimulation(c, []Particle{{}, {X: 100}}); err == nil {
		t.Error("accepted a particle outside the domain")
	}
}

func TestConfinementErrorIsFatal(t *testing.T) {
	c := Config{
		SwarmSize:    3,
		Speed:        10,
		SearchRadius: 1,
		Domain:       Domain{Radius: 1},
		Steps:        5,
		Workers:      1,
		MaxPasses:    4,
	}
	s := newTestSimulation(t, c)
	err := s.Step()
	var ce *ConfinementError
	if !errors.As(err, &ce) {
		t.Fatalf("Step() = %v, want *ConfinementError", err)
	}
	if ce.Particle != 0 || ce.Step != 0 {
		t.Errorf("error reports particle %d at step %d, want 0 at 0", ce.Particle, ce.Step)
	}
	if s.Time() != 0 {
		t.Error("failed step was committed")
	}
	if s.State() != Failed {
		t.Fatalf("state after failure = %v, want failed", s.State())
	}
	err = s.Step()
	if !errors.Is(err, ErrFailed) || !errors.As(err, &ce) {
		t.Errorf("Step() after failure = %v, want ErrFailed wrapping the confinement error", err)
	}
	if err := s.Run(context.Background(), nil); !errors.Is(err, ErrFailed) {
		t.Errorf("Run() after failure = %v, want ErrFailed", err)
	}
	if s.Time() != 0 {
		t.Error("failed simulation kept stepping")
	}
}

func TestRunStopsOnSinkError(t *testing.T) {
	s := newTestSimulation(t, testConfig())
	boom := errors.New("disk full")
	err := s.Run(context.Background(), SinkFunc(func(step int, _ []Particle) error {
		if step == 4 {
			return boom
		}
		return nil
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want %v", err, boom)
	}
	if s.Time() != 4 {
		t.Errorf("stopped at step %d, want 4", s.Time())
	}
}

func TestRunHonorsContext(t *testing.T) {
	s := newTestSimulation(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}

func TestMultiSink(t *testing.T) {
	var a, b int
	boom := errors.New("boom")
	sink := MultiSink(
		SinkFunc(func(int, []Particle) error { a++; return boom }),
		SinkFunc(func(int, []Particle) error { b++; return nil }),
	)
	if err := sink.Record(0, nil); !errors.Is(err, boom) {
		t.Errorf("Record() = %v", err)
	}
	if a != 1 || b != 1 {
		t.Errorf("sinks called %d and %d times", a, b)
	}
}

// Four fully connected noiseless particles in a disk align after one step,
// then translate rigidly until they hit the wall.
func TestFlockAlignsAndBounces(t *testing.T) {
	c := Config{
		SwarmSize:    4,
		Speed:        1,
		SearchRadius: 100,
		Noise:        0,
		Domain:       Domain{Radius: 50, Separation: 0},
		Steps:        400,
		Seed:         1,
	}
	// Headings symmetric about 0 align on θ = 0 after one step, leaving the
	// particles at (cos θ, sin θ). All of them then cross x² + y² = r² during
	// the same step.
	swarm := []Particle{
		{Theta: 0.2},
		{Theta: -0.2},
		{Theta: 0.4},
		{Theta: -0.4},
	}
	s, err := NewSimulation(c, swarm)
	if err != nil {
		t.Fatal(err)
	}

	aligned := func() bool {
		p := s.Swarm()
		for _, q := range p[1:] {
			if q.Theta != p[0].Theta {
				return false
			}
		}
		return true
	}

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if !aligned() {
		t.Fatalf("not aligned after one step: %+v", s.Swarm())
	}

	var bounced bool
	prevAligned := true
	for s.State() == Running {
		before := slices.Clone(s.Swarm())
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
		after := s.Swarm()
		for i, p := range after {
			if !c.Domain.Contains(p.Pos()) {
				t.Fatalf("step %d: particle %d outside", s.Time(), i)
			}
		}
		if n := s.Reflections(); n > 0 {
			if !bounced && n != c.SwarmSize {
				t.Fatalf("step %d: %d of %d particles reflected", s.Time()-1, n, c.SwarmSize)
			}
			bounced = true
			prevAligned = false
			continue
		}
		if !aligned() {
			t.Fatalf("step %d: directions diverged without reflection", s.Time())
		}
		if prevAligned {
			// rigid translation: pairwise offsets are kept
			for i := 1; i < len(after); i++ {
				dx0, dy0 := before[i].X-before[0].X, before[i].Y-before[0].Y
				dx1, dy1 := after[i].X-after[0].X, after[i].Y-after[0].Y
				if math.Abs(dx1-dx0) > 1e-9 || math.Abs(dy1-dy0) > 1e-9 {
					t.Fatalf("step %d: flock deformed", s.Time())
				}
			}
		}
		prevAligned = true
	}
	if !bounced {
		t.Error("flock never reached the wall")
	}
}
