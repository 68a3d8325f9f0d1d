// Package harness contains the two components that drive a control
// algorithm inside a simulation: SampleGenerator, which requests a building
// sample at a fixed frequency, and ControlHarness, which turns temperature
// reports into proxy updates, runs the algorithm, and emits the equipment
// commands it requested.
//
// # Channels
//
//	SampleGenerator   out: event.Sample
//	ControlHarness    in:  event.Sample, event.TempData   out: event.OnOffCmd
//
// # Timing
//
// The harness runs control immediately on every sample and otherwise when
// the interval returned by the previous control step has elapsed. Commands
// queued on the proxy are emitted at the next instant with time advance 0.
// An instant caused only by queued commands flushes them without running
// control again.
//
// Malformed input panics with *event.ContractViolation. The panic is not
// recovered: the network wiring is wrong and the run must stop.
package harness
