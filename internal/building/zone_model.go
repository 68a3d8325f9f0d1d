package building

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/roach88/simtest/internal/devs"
	"github.com/roach88/simtest/internal/event"
)

const zoneModelName = "zone_model"

// ZoneModelConfig parameterizes a ZoneModel.
type ZoneModelConfig struct {
	Zones    int     // number of zones; unit i heats/cools zone i
	OutdoorC float64 // constant outdoor temperature
	InitialC float64 // starting temperature of every zone
	LowerC   float64 // reported lower setpoint
	UpperC   float64 // reported upper setpoint
	LeakRate float64 // 1/time: pull toward outdoor temperature
	HeatRate float64 // degC/time per heating stage
	CoolRate float64 // degC/time per cooling stage
}

// Validate checks the configuration.
func (c ZoneModelConfig) Validate() error {
	var errs []error
	if c.Zones < 1 {
		errs = append(errs, fmt.Errorf("zones must be >= 1, got %d", c.Zones))
	}
	if c.LeakRate < 0 {
		errs = append(errs, fmt.Errorf("leak rate must be >= 0, got %g", c.LeakRate))
	}
	if c.HeatRate < 0 || c.CoolRate < 0 {
		errs = append(errs, fmt.Errorf("heat and cool rates must be >= 0"))
	}
	if c.LowerC > c.UpperC {
		errs = append(errs, fmt.Errorf("lower setpoint %g above upper setpoint %g", c.LowerC, c.UpperC))
	}
	return errors.Join(errs...)
}

// ZoneModel is a first-order thermal model of a multi-zone building.
//
// Each zone relaxes toward the outdoor temperature at LeakRate and is pushed
// by its heating and cooling unit in proportion to the commanded stage.
// Between events the inputs are constant, so the model integrates each
// elapsed interval in closed form:
//
//	Teq = Tout + (HeatRate*heat - CoolRate*cool) / LeakRate
//	T   = Teq + (T - Teq) * exp(-LeakRate * dt)
//
// The model is passive: it only produces output (at time advance 0) after a
// sample request.
type ZoneModel struct {
	cfg    ZoneModelConfig
	arena  *event.Arena
	logger *slog.Logger

	now    float64
	temps  []float64
	heat   []int
	cool   []int
	report bool
}

// NewZoneModel creates a model in its initial state.
func NewZoneModel(cfg ZoneModelConfig, arena *event.Arena, logger *slog.Logger) (*ZoneModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("zone model config: %w", err)
	}
	m := &ZoneModel{
		cfg:    cfg,
		arena:  arena,
		logger: logger.With("component", zoneModelName),
		temps:  make([]float64, cfg.Zones),
		heat:   make([]int, cfg.Zones),
		cool:   make([]int, cfg.Zones),
	}
	for i := range m.temps {
		m.temps[i] = cfg.InitialC
	}
	return m, nil
}

// TimeAdvance implements devs.Atomic.
func (m *ZoneModel) TimeAdvance() float64 {
	if m.report {
		return 0
	}
	return devs.Infinity
}

// InternalTransition implements devs.Atomic. The report has been emitted.
func (m *ZoneModel) InternalTransition() {
	m.report = false
}

// ExternalTransition implements devs.Atomic.
func (m *ZoneModel) ExternalTransition(elapsed float64, xb event.Bag) {
	m.integrate(elapsed)
	for _, pv := range xb {
		switch pv.Channel {
		case event.Sample:
			m.report = true
		case event.OnOffCmd:
			m.apply(pv)
		default:
			event.UnknownChannel(zoneModelName, pv)
		}
	}
}

// ConfluentTransition implements devs.Atomic.
func (m *ZoneModel) ConfluentTransition(xb event.Bag) {
	m.InternalTransition()
	m.ExternalTransition(0, xb)
}

// Output implements devs.Atomic: the outdoor temperature, then for each zone
// its temperature, lower and upper setpoint.
func (m *ZoneModel) Output() event.Bag {
	if !m.report {
		return nil
	}
	yb := make(event.Bag, 0, 1+3*len(m.temps))
	yb = append(yb, m.emit(event.NewTemperature(event.KindOutdoorThermometer, -1, m.cfg.OutdoorC)))
	for z, temp := range m.temps {
		yb = append(yb,
			m.emit(event.NewTemperature(event.KindThermostatThermometer, z, temp)),
			m.emit(event.NewTemperature(event.KindThermostatLowerSetpoint, z, m.cfg.LowerC)),
			m.emit(event.NewTemperature(event.KindThermostatUpperSetpoint, z, m.cfg.UpperC)),
		)
	}
	return yb
}

// ReleaseOutputs implements devs.Atomic.
func (m *ZoneModel) ReleaseOutputs(yb event.Bag) {
	m.arena.ReleaseBag(yb)
}

// Temperature returns the current temperature of zone z.
func (m *ZoneModel) Temperature(z int) float64 {
	return m.temps[z]
}

// State implements Model.
func (m *ZoneModel) State() string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%g outdoor=%.2f", m.now, m.cfg.OutdoorC)
	for z, temp := range m.temps {
		fmt.Fprintf(&b, " zone%d=%.2f heat%d=%d cool%d=%d", z, temp, z, m.heat[z], z, m.cool[z])
	}
	return b.String()
}

func (m *ZoneModel) emit(ev event.Event) event.PortValue {
	return event.PortValue{Channel: event.TempData, Value: m.arena.New(ev)}
}

func (m *ZoneModel) apply(pv event.PortValue) {
	cmd := event.MustOnOff(zoneModelName, pv)
	unit := pv.Value.Unit()
	if unit < 0 || unit >= len(m.temps) {
		event.BadUnit(zoneModelName, pv)
	}
	stage := cmd.Mode
	if stage < 0 {
		stage = -stage
	}
	switch pv.Value.Kind() {
	case event.KindHeatingUnit:
		m.heat[unit] = stage
	case event.KindCoolingUnit:
		m.cool[unit] = stage
	default:
		event.WrongKind(zoneModelName, pv)
	}
	m.logger.Debug("command applied", "kind", pv.Value.Kind().String(), "unit", unit, "mode", cmd.Mode, "t", m.now)
}

func (m *ZoneModel) integrate(dt float64) {
	if dt <= 0 {
		return
	}
	m.now += dt
	k := m.cfg.LeakRate
	for z := range m.temps {
		drive := m.cfg.HeatRate*float64(m.heat[z]) - m.cfg.CoolRate*float64(m.cool[z])
		if k == 0 {
			m.temps[z] += drive * dt
			continue
		}
		teq := m.cfg.OutdoorC + drive/k
		m.temps[z] = teq + (m.temps[z]-teq)*math.Exp(-k*dt)
	}
}
