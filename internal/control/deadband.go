package control

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/simtest/internal/devs"
)

// Mode is the action a deadband controller holds for a zone.
type Mode int

const (
	ModeOff Mode = iota
	ModeHeat
	ModeCool
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeHeat:
		return "heat"
	case ModeCool:
		return "cool"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DeadbandConfig parameterizes a Deadband controller.
type DeadbandConfig struct {
	// Interval between periodic control steps. Zero means control runs
	// only when the harness is sampled.
	Interval float64
	// Stage commanded to a unit that is switched on.
	Stage int
}

// Validate checks the configuration.
func (c DeadbandConfig) Validate() error {
	var errs []error
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must be >= 0, got %g", c.Interval))
	}
	if c.Stage < 1 {
		errs = append(errs, fmt.Errorf("stage must be >= 1, got %d", c.Stage))
	}
	return errors.Join(errs...)
}

// Deadband is a thermostat controller: a zone below its lower limit is
// heated, a zone above its upper limit is cooled, and a zone inside the band
// has both units off. Heating and cooling unit i serve zone i.
//
// Commands are issued only when a zone's mode changes, so a steady building
// produces no traffic after the first step.
type Deadband struct {
	cfg    DeadbandConfig
	logger *slog.Logger

	steps int
	modes map[int]Mode
}

// NewDeadband creates a controller with no zone history.
func NewDeadband(cfg DeadbandConfig, logger *slog.Logger) (*Deadband, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("deadband config: %w", err)
	}
	return &Deadband{
		cfg:    cfg,
		logger: logger.With("component", "deadband"),
		modes:  make(map[int]Mode),
	}, nil
}

// Decide returns the mode for a zone reading.
func Decide(temp, lower, upper float64) Mode {
	switch {
	case temp < lower:
		return ModeHeat
	case temp > upper:
		return ModeCool
	default:
		return ModeOff
	}
}

// Control implements Algorithm.
func (d *Deadband) Control(b Building) float64 {
	d.steps++
	for _, z := range b.Zones() {
		temp := b.ThermostatTemp(z)
		mode := Decide(temp, b.ThermostatLowerLimit(z), b.ThermostatUpperLimit(z))
		if prev, ok := d.modes[z]; ok && prev == mode {
			continue
		}
		d.modes[z] = mode

		heat, cool := 0, 0
		switch mode {
		case ModeHeat:
			heat = d.cfg.Stage
		case ModeCool:
			cool = d.cfg.Stage
		}
		b.ActivateHeatingUnit(z, heat)
		b.ActivateCoolingUnit(z, cool)
		d.logger.Debug("mode change", "zone", z, "mode", mode.String(), "temp", temp, "step", d.steps)
	}
	if d.cfg.Interval == 0 {
		return devs.Infinity
	}
	return d.cfg.Interval
}

// Mode returns the mode last commanded for zone z.
func (d *Deadband) Mode(z int) Mode {
	return d.modes[z]
}

// State implements Algorithm.
func (d *Deadband) State() string {
	var b strings.Builder
	fmt.Fprintf(&b, "steps=%d", d.steps)
	zones := make([]int, 0, len(d.modes))
	for z := range d.modes {
		zones = append(zones, z)
	}
	sort.Ints(zones)
	for _, z := range zones {
		fmt.Fprintf(&b, " zone%d=%s", z, d.modes[z])
	}
	return b.String()
}
