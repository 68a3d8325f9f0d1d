package harness

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/simtest/internal/event"
)

// ErrInvalidFrequency is returned for a non-positive or non-finite sample
// frequency.
var ErrInvalidFrequency = errors.New("sample frequency must be positive and finite")

// SampleGenerator emits a sample request at time 0 and then every 1/freq
// time units.
type SampleGenerator struct {
	arena  *event.Arena
	freq   float64
	period float64
	armed  bool
}

// NewSampleGenerator creates an armed generator.
func NewSampleGenerator(freq float64, arena *event.Arena) (*SampleGenerator, error) {
	if !(freq > 0) || math.IsInf(freq, 1) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidFrequency, freq)
	}
	return &SampleGenerator{
		arena:  arena,
		freq:   freq,
		period: 1 / freq,
		armed:  true,
	}, nil
}

// Frequency returns the configured sample frequency.
func (g *SampleGenerator) Frequency() float64 { return g.freq }

// TimeAdvance is 0 until the first sample fires, then the period.
func (g *SampleGenerator) TimeAdvance() float64 {
	if g.armed {
		return 0
	}
	return g.period
}

// InternalTransition leaves the armed state for good.
func (g *SampleGenerator) InternalTransition() {
	g.armed = false
}

// ExternalTransition ignores input; the generator has no input channels.
func (g *SampleGenerator) ExternalTransition(float64, event.Bag) {}

// ConfluentTransition ignores input.
func (g *SampleGenerator) ConfluentTransition(event.Bag) {}

// Output emits one sample event.
func (g *SampleGenerator) Output() event.Bag {
	return event.Bag{{Channel: event.Sample, Value: g.arena.New(event.NewSample())}}
}

// ReleaseOutputs releases the events emitted by Output.
func (g *SampleGenerator) ReleaseOutputs(yb event.Bag) {
	g.arena.ReleaseBag(yb)
}
