package devs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/simtest/internal/event"
)

// ErrBadTimeAdvance is the panic value (wrapped) when a component returns a
// negative or NaN time advance.
var ErrBadTimeAdvance = errors.New("time advance must be >= 0")

// TransitionKind names the transition a component went through.
type TransitionKind string

const (
	TransitionInternal  TransitionKind = "internal"
	TransitionExternal  TransitionKind = "external"
	TransitionConfluent TransitionKind = "confluent"
)

// Listener observes kernel activity. Calls happen on the kernel goroutine,
// in step order; listeners must not retain event pointers past the call.
type Listener interface {
	OutputEvent(seq int64, t float64, component string, pv event.PortValue)
	Transition(seq int64, t float64, component string, kind TransitionKind)
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithListener adds a listener. Listeners are notified in the order added.
func WithListener(l Listener) Option {
	return func(s *Simulator) {
		s.listeners = append(s.listeners, l)
	}
}

// WithLogger sets the kernel logger (default: discard).
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

// WithClock sets the logical clock (default: NewClock()).
func WithClock(c *Clock) Option {
	return func(s *Simulator) {
		s.clock = c
	}
}

type node struct {
	name  string
	model Atomic
	tL    float64
	tN    float64
	input event.Bag
}

// Simulator is a sequential kernel for a Digraph.
//
// CRITICAL: Must be driven from exactly one goroutine.
type Simulator struct {
	graph     *Digraph
	nodes     []*node
	byName    map[string]*node
	now       float64
	clock     *Clock
	listeners []Listener
	logger    *slog.Logger
}

// NewSimulator initializes every component of g at time 0.
func NewSimulator(g *Digraph, opts ...Option) *Simulator {
	s := &Simulator{
		graph:  g,
		byName: make(map[string]*node),
		clock:  NewClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, name := range g.Names() {
		model, _ := g.Component(name)
		n := &node{name: name, model: model}
		n.tN = checkedAdvance(name, 0, model.TimeAdvance())
		s.nodes = append(s.nodes, n)
		s.byName[name] = n
	}
	return s
}

// Now returns the time of the last executed step.
func (s *Simulator) Now() float64 {
	return s.now
}

// Clock returns the logical step clock.
func (s *Simulator) Clock() *Clock {
	return s.clock
}

// NextEventTime returns the time of the next step, or Infinity.
func (s *Simulator) NextEventTime() float64 {
	next := Infinity
	for _, n := range s.nodes {
		if n.tN < next {
			next = n.tN
		}
	}
	return next
}

// Step executes every event scheduled at NextEventTime.
// Returns the step time and false when nothing is scheduled.
func (s *Simulator) Step() (float64, bool) {
	t := s.NextEventTime()
	if math.IsInf(t, 1) {
		return t, false
	}
	seq := s.clock.Next()

	// Outputs of imminent components, routed to receivers.
	var imminent []*node
	for _, n := range s.nodes {
		if n.tN == t {
			imminent = append(imminent, n)
		}
	}
	outputs := make([]event.Bag, len(imminent))
	for i, n := range imminent {
		yb := n.model.Output()
		outputs[i] = yb
		for _, pv := range yb {
			for _, l := range s.listeners {
				l.OutputEvent(seq, t, n.name, pv)
			}
			for _, dst := range s.graph.Route(Endpoint{Component: n.name, Channel: pv.Channel}) {
				recv := s.byName[dst.Component]
				recv.input = append(recv.input, event.PortValue{Channel: dst.Channel, Value: pv.Value})
			}
		}
	}

	// One transition per affected component.
	for _, n := range s.nodes {
		isImminent := n.tN == t
		xb := n.input
		n.input = nil

		var kind TransitionKind
		switch {
		case isImminent && len(xb) > 0:
			n.model.ConfluentTransition(xb)
			kind = TransitionConfluent
		case isImminent:
			n.model.InternalTransition()
			kind = TransitionInternal
		case len(xb) > 0:
			n.model.ExternalTransition(t-n.tL, xb)
			kind = TransitionExternal
		default:
			continue
		}
		n.tL = t
		n.tN = t + checkedAdvance(n.name, t, n.model.TimeAdvance())

		for _, l := range s.listeners {
			l.Transition(seq, t, n.name, kind)
		}
	}

	// Delivery is complete; emitters may free their bags.
	for i, n := range imminent {
		n.model.ReleaseOutputs(outputs[i])
	}

	s.now = t
	s.logger.Debug("kernel step", "seq", seq, "t", t, "imminent", len(imminent))
	return t, true
}

// RunUntil steps the simulation while the next event time is <= tEnd.
//
// after, if non-nil, is called after every step with the step time; an error
// from after stops the run and is returned. The context is checked between
// steps only, transitions are never interrupted.
func (s *Simulator) RunUntil(ctx context.Context, tEnd float64, after func(t float64) error) error {
	for s.NextEventTime() <= tEnd {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t, ok := s.Step()
		if !ok {
			return nil
		}
		if after != nil {
			if err := after(t); err != nil {
				return fmt.Errorf("after step at t=%g: %w", t, err)
			}
		}
	}
	return nil
}

func checkedAdvance(component string, t, ta float64) float64 {
	if math.IsNaN(ta) || ta < 0 {
		panic(fmt.Errorf("%w: component %s returned %g at t=%g", ErrBadTimeAdvance, component, ta, t))
	}
	return ta
}
