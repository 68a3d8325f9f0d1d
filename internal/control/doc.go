// Package control defines the contract between the control harness and a
// building-control decision algorithm, and ships a reference deadband
// thermostat.
//
// An Algorithm reads a Building (the harness's proxy of the simulated
// building), may request equipment changes through it, and returns the time
// until it wants to run again.
package control
