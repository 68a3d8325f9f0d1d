package building

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/simtest/internal/event"
)

// ActivationHook observes an actuation request after it has been queued.
// Hooks add side effects (bookkeeping, logging); they cannot cancel the
// request.
type ActivationHook func(ev event.Event)

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithActivationHook registers h. Hooks run in registration order.
func WithActivationHook(h ActivationHook) ProxyOption {
	return func(p *Proxy) {
		p.hooks = append(p.hooks, h)
	}
}

type zoneState struct {
	temp  float64
	upper float64
	lower float64
}

// Proxy is the control harness's record of a simulated building.
//
// Setters are called by the harness when temperature reports arrive; the
// control algorithm reads the same state and requests equipment changes
// through ActivateHeatingUnit/ActivateCoolingUnit. Requests are buffered in a
// PendingQueue until the harness's next output step.
//
// Zones and units are sparse: any index is accepted and reads of an index
// never written return 0.
type Proxy struct {
	outdoor float64
	zones   map[int]*zoneState
	heating map[int]int
	cooling map[int]int
	pending *PendingQueue
	hooks   []ActivationHook
}

// NewProxy creates an empty proxy whose pending events are allocated from
// arena.
func NewProxy(arena *event.Arena, opts ...ProxyOption) *Proxy {
	p := &Proxy{
		zones:   make(map[int]*zoneState),
		heating: make(map[int]int),
		cooling: make(map[int]int),
		pending: NewPendingQueue(arena),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Proxy) zone(z int) *zoneState {
	zs, ok := p.zones[z]
	if !ok {
		zs = &zoneState{}
		p.zones[z] = zs
	}
	return zs
}

// SetOutdoorTemp sets the outdoor air temperature in degrees Celsius.
func (p *Proxy) SetOutdoorTemp(degC float64) { p.outdoor = degC }

// SetThermostatTemp sets the measured temperature of zone.
func (p *Proxy) SetThermostatTemp(zone int, degC float64) { p.zone(zone).temp = degC }

// SetThermostatUpperLimit sets the upper setpoint of zone.
func (p *Proxy) SetThermostatUpperLimit(zone int, degC float64) { p.zone(zone).upper = degC }

// SetThermostatLowerLimit sets the lower setpoint of zone.
func (p *Proxy) SetThermostatLowerLimit(zone int, degC float64) { p.zone(zone).lower = degC }

// OutdoorTemp returns the outdoor air temperature.
func (p *Proxy) OutdoorTemp() float64 { return p.outdoor }

// ThermostatTemp returns the measured temperature of zone.
func (p *Proxy) ThermostatTemp(zone int) float64 {
	if zs, ok := p.zones[zone]; ok {
		return zs.temp
	}
	return 0
}

// ThermostatUpperLimit returns the upper setpoint of zone.
func (p *Proxy) ThermostatUpperLimit(zone int) float64 {
	if zs, ok := p.zones[zone]; ok {
		return zs.upper
	}
	return 0
}

// ThermostatLowerLimit returns the lower setpoint of zone.
func (p *Proxy) ThermostatLowerLimit(zone int) float64 {
	if zs, ok := p.zones[zone]; ok {
		return zs.lower
	}
	return 0
}

// Zones returns the indices of every zone written so far, ascending.
func (p *Proxy) Zones() []int {
	return sortedKeys(p.zones)
}

// HeatingStage returns the last stage requested for a heating unit.
func (p *Proxy) HeatingStage(unit int) int { return p.heating[unit] }

// CoolingStage returns the last stage requested for a cooling unit.
func (p *Proxy) CoolingStage(unit int) int { return p.cooling[unit] }

// ActivateCoolingUnit queues an on/off command for a cooling unit.
// Stage 0 turns the unit off; the stage is carried as the event mode.
func (p *Proxy) ActivateCoolingUnit(unit, stage int) {
	p.cooling[unit] = stage
	p.activate(event.NewOnOff(event.KindCoolingUnit, unit, stage))
}

// ActivateHeatingUnit queues an on/off command for a heating unit.
// Stage 0 turns the unit off; the stage is carried as the event mode.
func (p *Proxy) ActivateHeatingUnit(unit, stage int) {
	p.heating[unit] = stage
	p.activate(event.NewOnOff(event.KindHeatingUnit, unit, stage))
}

// activate enqueues unconditionally, then runs hooks.
func (p *Proxy) activate(ev event.Event) {
	p.pending.Push(event.OnOffCmd, ev)
	for _, h := range p.hooks {
		h(ev)
	}
}

// GetPendingEvents appends every queued command to out, on the OnOffCmd
// channel, without clearing the queue.
func (p *Proxy) GetPendingEvents(out *event.Bag) {
	p.pending.CopyTo(out)
}

// ClearPendingEvents empties the queue. Events not copied out by
// GetPendingEvents are released.
func (p *Proxy) ClearPendingEvents() {
	p.pending.Clear()
}

// HasPendingEvents reports whether commands are waiting. O(1).
func (p *Proxy) HasPendingEvents() bool {
	return !p.pending.Empty()
}

// State returns a one-line snapshot: outdoor temperature, every zone as
// temp[lower,upper], every unit's last stage and the pending count.
func (p *Proxy) State() string {
	var b strings.Builder
	fmt.Fprintf(&b, "outdoor=%.2f", p.outdoor)
	for _, z := range sortedKeys(p.zones) {
		zs := p.zones[z]
		fmt.Fprintf(&b, " zone%d=%.2f[%.2f,%.2f]", z, zs.temp, zs.lower, zs.upper)
	}
	for _, u := range sortedKeys(p.heating) {
		fmt.Fprintf(&b, " heat%d=%d", u, p.heating[u])
	}
	for _, u := range sortedKeys(p.cooling) {
		fmt.Fprintf(&b, " cool%d=%d", u, p.cooling[u])
	}
	fmt.Fprintf(&b, " pending=%d", p.pending.Len())
	return b.String()
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
