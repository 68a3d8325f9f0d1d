package control

// Building is the view of the simulated building an algorithm works with.
// *building.Proxy implements it.
type Building interface {
	OutdoorTemp() float64
	Zones() []int
	ThermostatTemp(zone int) float64
	ThermostatUpperLimit(zone int) float64
	ThermostatLowerLimit(zone int) float64

	ActivateHeatingUnit(unit, stage int)
	ActivateCoolingUnit(unit, stage int)
}

// Algorithm is a building-control decision procedure.
//
// Control runs one decision step against b and returns the interval until
// the next step. Returning devs.Infinity means "only on the next sample".
// The interval must not be negative.
type Algorithm interface {
	Control(b Building) float64
	State() string
}
