// Package metrics exposes counters for simulation runs.
//
// A Recorder is injected into the network and kernel; NoopRecorder is the
// default when metrics are not configured.
package metrics

import "time"

// Recorder defines observability hooks for a simulation run.
type Recorder interface {
	IncStep()
	IncTransition(component, kind string)
	IncOutput(component, channel string)
	IncSnapshot(stream string)
	SetSimTime(t float64)
	SetLiveEvents(n int)
	ObserveRunDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncStep()                         {}
func (NoopRecorder) IncTransition(string, string)     {}
func (NoopRecorder) IncOutput(string, string)         {}
func (NoopRecorder) IncSnapshot(string)               {}
func (NoopRecorder) SetSimTime(float64)               {}
func (NoopRecorder) SetLiveEvents(int)                {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
