package devs

import (
	"math"

	"github.com/roach88/simtest/internal/event"
)

// Infinity is the time advance of a component that never fires on its own.
var Infinity = math.Inf(1)

// Atomic is the state-machine contract every simulation component satisfies.
//
// The kernel guarantees at most one of InternalTransition,
// ExternalTransition and ConfluentTransition per component per instant, and
// that Output is called immediately before an internal or confluent
// transition.
type Atomic interface {
	// TimeAdvance returns how long the component stays in its current state
	// absent input. Must be >= 0 or Infinity.
	TimeAdvance() float64

	// InternalTransition is called when TimeAdvance elapses with no input.
	InternalTransition()

	// ExternalTransition is called when input arrives before TimeAdvance
	// elapses. elapsed is the time since the component's last transition.
	ExternalTransition(elapsed float64, xb event.Bag)

	// ConfluentTransition is called when input arrives exactly as
	// TimeAdvance elapses.
	ConfluentTransition(xb event.Bag)

	// Output returns the events emitted just before an internal or
	// confluent transition. Ownership passes to the kernel until
	// ReleaseOutputs.
	Output() event.Bag

	// ReleaseOutputs frees a bag previously returned by Output, once the
	// kernel has delivered it to every receiver.
	ReleaseOutputs(yb event.Bag)
}

// Stateful components expose a textual snapshot of their state.
type Stateful interface {
	State() string
}
