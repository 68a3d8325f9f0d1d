package devs

import (
	"fmt"

	"github.com/roach88/simtest/internal/event"
)

// Endpoint names one channel of one component in a Digraph.
type Endpoint struct {
	Component string
	Channel   event.Channel
}

// String formats the endpoint as component.channel.
func (e Endpoint) String() string {
	return e.Component + "." + e.Channel.String()
}

// Coupling connects an output endpoint to an input endpoint.
type Coupling struct {
	From Endpoint
	To   Endpoint
}

// Digraph is a coupled model: named atomic components and the couplings
// between their channels.
//
// INVARIANTS:
//   - component names are unique
//   - registration order never changes (it fixes the kernel's step order)
//   - couplings only reference registered components
type Digraph struct {
	names      []string
	components map[string]Atomic
	couplings  []Coupling
}

// NewDigraph creates an empty coupled model.
func NewDigraph() *Digraph {
	return &Digraph{components: make(map[string]Atomic)}
}

// Add registers a component under name.
func (g *Digraph) Add(name string, a Atomic) error {
	if name == "" {
		return fmt.Errorf("add component: empty name")
	}
	if a == nil {
		return fmt.Errorf("add component %q: nil model", name)
	}
	if _, dup := g.components[name]; dup {
		return fmt.Errorf("add component %q: duplicate name", name)
	}
	g.names = append(g.names, name)
	g.components[name] = a
	return nil
}

// Couple connects from.channel to to.channel.
func (g *Digraph) Couple(from string, fromCh event.Channel, to string, toCh event.Channel) error {
	if _, ok := g.components[from]; !ok {
		return fmt.Errorf("couple: unknown source component %q", from)
	}
	if _, ok := g.components[to]; !ok {
		return fmt.Errorf("couple: unknown destination component %q", to)
	}
	c := Coupling{
		From: Endpoint{Component: from, Channel: fromCh},
		To:   Endpoint{Component: to, Channel: toCh},
	}
	for _, existing := range g.couplings {
		if existing == c {
			return fmt.Errorf("couple: duplicate coupling %s -> %s", c.From, c.To)
		}
	}
	g.couplings = append(g.couplings, c)
	return nil
}

// Component returns the component registered under name.
func (g *Digraph) Component(name string) (Atomic, bool) {
	a, ok := g.components[name]
	return a, ok
}

// Names returns component names in registration order.
func (g *Digraph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Couplings returns all couplings in declaration order.
func (g *Digraph) Couplings() []Coupling {
	out := make([]Coupling, len(g.couplings))
	copy(out, g.couplings)
	return out
}

// Route returns the input endpoints fed by from, in declaration order.
func (g *Digraph) Route(from Endpoint) []Endpoint {
	var out []Endpoint
	for _, c := range g.couplings {
		if c.From == from {
			out = append(out, c.To)
		}
	}
	return out
}
