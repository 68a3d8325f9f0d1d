package event

import "fmt"

// EquipmentKind identifies the physical role an event concerns.
type EquipmentKind int

const (
	KindNone EquipmentKind = iota
	KindHeatingUnit
	KindCoolingUnit
	KindThermostatUpperSetpoint
	KindThermostatLowerSetpoint
	KindThermostatThermometer
	KindOutdoorThermometer
)

var kindNames = [...]string{
	KindNone:                    "none",
	KindHeatingUnit:             "heating_unit",
	KindCoolingUnit:             "cooling_unit",
	KindThermostatUpperSetpoint: "thermostat_upper_setpoint",
	KindThermostatLowerSetpoint: "thermostat_lower_setpoint",
	KindThermostatThermometer:   "thermostat_thermometer",
	KindOutdoorThermometer:      "outdoor_thermometer",
}

// String returns the stable snake_case name used in logs and snapshots.
func (k EquipmentKind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k EquipmentKind) Valid() bool {
	return k >= KindNone && int(k) < len(kindNames)
}

// Channel identifies a named conduit between components.
//
// The set is closed; a component's direction on each channel is fixed by
// the component (see the harness and building packages).
type Channel uint8

const (
	// Sample carries requests to take a sample. Payload is ignored.
	Sample Channel = iota + 1
	// OnOffCmd carries actuation commands (OnOff payload).
	OnOffCmd
	// TempData carries temperature reports (Temperature payload).
	TempData
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case Sample:
		return "sample"
	case OnOffCmd:
		return "onOffCmd"
	case TempData:
		return "tempData"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}
