package vicsek

import "errors"

// A Sink receives the state of the swarm once per step.
// The slice is only valid during the call: implementations
// must copy whatever they keep.
type Sink interface {
	Record(step int, swarm []Particle) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(step int, swarm []Particle) error

// Record calls f(step, swarm).
func (f SinkFunc) Record(step int, swarm []Particle) error {
	return f(step, swarm)
}

// Discard is a Sink that drops everything.
var Discard Sink = SinkFunc(func(int, []Particle) error { return nil })

// MultiSink returns a Sink recording to every sink in turn.
// All sinks are called even if some fail and the errors are joined.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(step int, swarm []Particle) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Record(step, swarm); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
