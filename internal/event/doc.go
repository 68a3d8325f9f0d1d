// Package event defines the data exchanged between simulation components.
//
// Events are immutable values tagged with the piece of equipment they concern
// (EquipmentKind + unit number) and carrying one of a closed set of payloads:
//
//   - sample: no payload, used to request a state report
//   - OnOff: an actuation command (mode 0 = off, anything else = on)
//   - Temperature: a sensor reading in degrees Celsius
//
// Payloads are read through checked accessors. A component that receives a
// payload variant it does not expect on a channel is looking at a wiring bug,
// so the Must* accessors panic with a ContractViolation instead of returning
// zero values.
//
// OWNERSHIP:
//
// Emitted events are allocated from an Arena and must be released exactly
// once, by the component that emitted them, after the kernel has delivered
// them to every receiver. Receivers read events but never release them.
// The Arena panics with a LifetimeViolation on double release, so a mistake
// shows up at the offending call rather than as silent state corruption.
package event
