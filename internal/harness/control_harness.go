package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/simtest/internal/control"
	"github.com/roach88/simtest/internal/event"
)

const controlHarnessName = "control_harness"

// ErrBadInterval is the panic cause when an algorithm returns a negative or
// NaN interval.
var ErrBadInterval = errors.New("control interval must be >= 0")

// Proxy is the harness's side of a building proxy: the algorithm's view
// plus the setters and the pending command queue. *building.Proxy
// implements it.
type Proxy interface {
	control.Building

	SetOutdoorTemp(degC float64)
	SetThermostatTemp(zone int, degC float64)
	SetThermostatUpperLimit(zone int, degC float64)
	SetThermostatLowerLimit(zone int, degC float64)

	GetPendingEvents(out *event.Bag)
	ClearPendingEvents()
	HasPendingEvents() bool
}

// ControlHarness adapts a control.Algorithm to the simulation.
//
// timeLeft is the time until the next periodic control step; it starts at
// Infinity so the first step waits for a sample. sigma is the time advance
// currently in force, kept so an internal transition can subtract what
// actually elapsed after Output has already drained the proxy.
type ControlHarness struct {
	alg    control.Algorithm
	proxy  Proxy
	arena  *event.Arena
	logger *slog.Logger

	timeLeft      float64
	runControlNow bool
	sigma         float64
	runs          int
}

// HarnessOption configures a ControlHarness.
type HarnessOption func(*ControlHarness)

// WithLogger sets the harness logger.
func WithLogger(l *slog.Logger) HarnessOption {
	return func(h *ControlHarness) {
		h.logger = l
	}
}

// NewControlHarness creates a harness that waits for its first sample.
// Emitted commands are released into arena.
func NewControlHarness(alg control.Algorithm, proxy Proxy, arena *event.Arena, opts ...HarnessOption) *ControlHarness {
	h := &ControlHarness{
		alg:      alg,
		proxy:    proxy,
		arena:    arena,
		logger:   slog.Default(),
		timeLeft: math.Inf(1),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", controlHarnessName)
	h.sigma = h.advance()
	return h
}

// TimeAdvance is 0 while a control step is due now or commands are
// waiting, otherwise the time left until the next periodic step.
func (h *ControlHarness) TimeAdvance() float64 {
	return h.sigma
}

func (h *ControlHarness) advance() float64 {
	if h.runControlNow || h.proxy.HasPendingEvents() {
		return 0
	}
	return h.timeLeft
}

// InternalTransition consumes the elapsed time advance and runs control if
// it is due. An instant reached only because commands were waiting is a
// flush: Output has emitted them and control does not run.
func (h *ControlHarness) InternalTransition() {
	h.timeLeft -= h.sigma
	if h.runControlNow || h.timeLeft <= 0 {
		h.runControl()
	}
	h.sigma = h.advance()
}

// ExternalTransition applies temperature reports to the proxy and
// schedules a control step for every sample.
func (h *ControlHarness) ExternalTransition(elapsed float64, xb event.Bag) {
	h.timeLeft -= elapsed
	h.absorb(xb)
	h.sigma = h.advance()
}

// ConfluentTransition applies the input first so a control step at this
// instant sees it, then performs the internal transition.
func (h *ControlHarness) ConfluentTransition(xb event.Bag) {
	h.absorb(xb)
	h.InternalTransition()
}

// Output drains the proxy's queued commands.
func (h *ControlHarness) Output() event.Bag {
	var yb event.Bag
	h.proxy.GetPendingEvents(&yb)
	h.proxy.ClearPendingEvents()
	return yb
}

// ReleaseOutputs releases the commands returned by Output.
func (h *ControlHarness) ReleaseOutputs(yb event.Bag) {
	h.arena.ReleaseBag(yb)
}

// State returns the algorithm's state text.
func (h *ControlHarness) State() string {
	return h.alg.State()
}

// ControlRuns returns how many control steps have run.
func (h *ControlHarness) ControlRuns() int {
	return h.runs
}

func (h *ControlHarness) runControl() {
	next := h.alg.Control(h.proxy)
	if next < 0 || math.IsNaN(next) {
		panic(fmt.Errorf("%w: got %g", ErrBadInterval, next))
	}
	h.runs++
	h.timeLeft = next
	h.runControlNow = false
	h.logger.Debug("control step", "run", h.runs, "next", next, "pending", h.proxy.HasPendingEvents())
}

func (h *ControlHarness) absorb(xb event.Bag) {
	for _, pv := range xb {
		switch pv.Channel {
		case event.Sample:
			h.runControlNow = true
		case event.TempData:
			h.applyTemperature(pv)
		default:
			event.UnknownChannel(controlHarnessName, pv)
		}
	}
}

func (h *ControlHarness) applyTemperature(pv event.PortValue) {
	t := event.MustTemperature(controlHarnessName, pv)
	unit := pv.Value.Unit()
	switch pv.Value.Kind() {
	case event.KindThermostatThermometer:
		h.proxy.SetThermostatTemp(unit, t.DegreesC)
	case event.KindOutdoorThermometer:
		h.proxy.SetOutdoorTemp(t.DegreesC)
	case event.KindThermostatUpperSetpoint:
		h.proxy.SetThermostatUpperLimit(unit, t.DegreesC)
	case event.KindThermostatLowerSetpoint:
		h.proxy.SetThermostatLowerLimit(unit, t.DegreesC)
	default:
		event.WrongKind(controlHarnessName, pv)
	}
}
