package devs

import (
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/simtest/internal/event"
)

// TraceEntry is one observed kernel action.
type TraceEntry struct {
	Seq       int64   `json:"seq"`
	Time      float64 `json:"time"`
	Component string  `json:"component"`
	Type      string  `json:"type"` // "output" or a TransitionKind
	Channel   string  `json:"channel,omitempty"`
	Event     string  `json:"event,omitempty"`
}

// Trace is a Listener that records every output and transition in order.
// Event values are formatted at observation time, so the trace never holds
// event pointers past their release.
type Trace struct {
	Entries []TraceEntry
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{Entries: []TraceEntry{}}
}

// OutputEvent implements Listener.
func (tr *Trace) OutputEvent(seq int64, t float64, component string, pv event.PortValue) {
	entry := TraceEntry{
		Seq:       seq,
		Time:      t,
		Component: component,
		Type:      "output",
		Channel:   pv.Channel.String(),
	}
	if pv.Value != nil {
		entry.Event = pv.Value.String()
	}
	tr.Entries = append(tr.Entries, entry)
}

// Transition implements Listener.
func (tr *Trace) Transition(seq int64, t float64, component string, kind TransitionKind) {
	tr.Entries = append(tr.Entries, TraceEntry{
		Seq:       seq,
		Time:      t,
		Component: component,
		Type:      string(kind),
	})
}

// Count returns the number of entries for component with the given type.
func (tr *Trace) Count(component, typ string) int {
	n := 0
	for _, e := range tr.Entries {
		if e.Component == component && e.Type == typ {
			n++
		}
	}
	return n
}

// WriteText writes one line per entry: "seq time component type [channel event]".
func (tr *Trace) WriteText(w io.Writer) error {
	for _, e := range tr.Entries {
		line := strconv.FormatInt(e.Seq, 10) + " " +
			strconv.FormatFloat(e.Time, 'g', -1, 64) + " " +
			e.Component + " " + e.Type
		if e.Channel != "" {
			line += " " + e.Channel + " " + e.Event
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
