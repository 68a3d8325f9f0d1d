package testutil

import (
	"fmt"

	"github.com/roach88/simtest/internal/control"
)

// ZoneReading is what an algorithm saw for one zone.
type ZoneReading struct {
	Temp  float64
	Lower float64
	Upper float64
}

// Observation is one control step as seen by RecordingAlgorithm.
type Observation struct {
	Outdoor float64
	Zones   map[int]ZoneReading
}

// RecordingAlgorithm is a control.Algorithm that records the building state
// at every step, optionally acts on it, and returns a fixed interval.
//
// Act receives the 1-based step number. A nil Act issues no commands.
type RecordingAlgorithm struct {
	Interval     float64
	Act          func(step int, b control.Building)
	Observations []Observation
}

// NewRecordingAlgorithm returns an algorithm that reschedules itself every
// interval.
func NewRecordingAlgorithm(interval float64) *RecordingAlgorithm {
	return &RecordingAlgorithm{Interval: interval}
}

// Control implements control.Algorithm.
func (a *RecordingAlgorithm) Control(b control.Building) float64 {
	obs := Observation{Outdoor: b.OutdoorTemp(), Zones: make(map[int]ZoneReading)}
	for _, z := range b.Zones() {
		obs.Zones[z] = ZoneReading{
			Temp:  b.ThermostatTemp(z),
			Lower: b.ThermostatLowerLimit(z),
			Upper: b.ThermostatUpperLimit(z),
		}
	}
	a.Observations = append(a.Observations, obs)
	if a.Act != nil {
		a.Act(len(a.Observations), b)
	}
	return a.Interval
}

// Steps returns how many times Control ran.
func (a *RecordingAlgorithm) Steps() int {
	return len(a.Observations)
}

// Last returns the most recent observation. It panics if Control never ran.
func (a *RecordingAlgorithm) Last() Observation {
	return a.Observations[len(a.Observations)-1]
}

// State implements control.Algorithm.
func (a *RecordingAlgorithm) State() string {
	return fmt.Sprintf("recording steps=%d", len(a.Observations))
}
