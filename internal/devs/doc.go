// Package devs defines the contract between atomic simulation components and
// a discrete-event kernel, plus a small sequential kernel that drives it.
//
// ARCHITECTURE:
//
// Components never call each other. Each one exposes the six-function Atomic
// contract and the kernel decides when to call what:
//
//  1. t = smallest next-event time across components
//  2. Output() of every imminent component, routed through Digraph couplings
//  3. exactly one transition per affected component:
//     imminent + input  -> ConfluentTransition
//     imminent only     -> InternalTransition
//     input only        -> ExternalTransition(t - lastEventTime)
//  4. next-event times recomputed from TimeAdvance()
//  5. ReleaseOutputs() on each emitter's own bag, after delivery
//
// Receivers share the emitter's event pointers read-only; only the emitter
// releases them. All of this runs on one goroutine. Step order across
// components follows registration order so runs are reproducible.
package devs
