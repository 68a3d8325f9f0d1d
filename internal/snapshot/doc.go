// Package snapshot records the state of a running test network.
//
// Each snapshot instant produces one Record per Stream: the controller
// (harness/algorithm), the building proxy, and the building model. Records
// are written to a Sink; FileSink keeps the classic three text streams
// (cntrl.dat, bldgp.dat, bldgm.dat) with lines of the form
//
//	<time> <state text>
//
// State text is NFC-normalized and flattened to a single line so streams
// stay line-oriented whatever a component's State method returns.
package snapshot
