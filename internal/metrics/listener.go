package metrics

import (
	"github.com/roach88/simtest/internal/devs"
	"github.com/roach88/simtest/internal/event"
)

// KernelListener forwards kernel activity to a Recorder.
type KernelListener struct {
	rec     Recorder
	lastSeq int64
}

// NewKernelListener creates a listener; a nil rec records nothing.
func NewKernelListener(rec Recorder) *KernelListener {
	if rec == nil {
		rec = NoopRecorder{}
	}
	return &KernelListener{rec: rec}
}

// OutputEvent implements devs.Listener.
func (l *KernelListener) OutputEvent(seq int64, t float64, component string, pv event.PortValue) {
	l.step(seq, t)
	l.rec.IncOutput(component, pv.Channel.String())
}

// Transition implements devs.Listener.
func (l *KernelListener) Transition(seq int64, t float64, component string, kind devs.TransitionKind) {
	l.step(seq, t)
	l.rec.IncTransition(component, string(kind))
}

// Every step transitions at least one component, so the first call carrying
// a new seq marks a new step.
func (l *KernelListener) step(seq int64, t float64) {
	if seq == l.lastSeq {
		return
	}
	l.lastSeq = seq
	l.rec.IncStep()
	l.rec.SetSimTime(t)
}
