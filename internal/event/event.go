package event

import "fmt"

// Variant discriminates the payload carried by an Event.
type Variant uint8

const (
	// VariantSample has no payload.
	VariantSample Variant = iota
	// VariantOnOff carries an OnOff payload.
	VariantOnOff
	// VariantTemperature carries a Temperature payload.
	VariantTemperature
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantSample:
		return "sample"
	case VariantOnOff:
		return "on_off"
	case VariantTemperature:
		return "temperature"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// Payload is the sealed set of event payloads.
// Only OnOff and Temperature implement it.
type Payload interface {
	variant() Variant
}

// OnOff is an actuation command.
//
// Mode 0 means off. Any other value means on; a model may give distinct
// nonzero modes (e.g. heating stages) richer meaning, but harness code only
// ever asks IsOn/IsOff.
type OnOff struct {
	Mode int
}

func (OnOff) variant() Variant { return VariantOnOff }

// IsOn reports whether the command turns the equipment on.
func (o OnOff) IsOn() bool { return o.Mode != 0 }

// IsOff reports whether the command turns the equipment off.
func (o OnOff) IsOff() bool { return o.Mode == 0 }

// Temperature is a sensor reading.
type Temperature struct {
	DegreesC float64
}

func (Temperature) variant() Variant { return VariantTemperature }

// Event is an immutable building event.
//
// Fields are unexported so an event cannot be mutated after construction;
// use the constructors below.
type Event struct {
	kind    EquipmentKind
	unit    int
	payload Payload // nil for sample events
}

// NewSample returns a payload-free event with kind none and unit -1.
func NewSample() Event {
	return Event{kind: KindNone, unit: -1}
}

// NewOnOff returns an actuation event.
func NewOnOff(kind EquipmentKind, unit, mode int) Event {
	return Event{kind: kind, unit: unit, payload: OnOff{Mode: mode}}
}

// NewOnOffBool returns an actuation event with mode 1 (on) or 0 (off).
func NewOnOffBool(kind EquipmentKind, unit int, on bool) Event {
	mode := 0
	if on {
		mode = 1
	}
	return NewOnOff(kind, unit, mode)
}

// NewTemperature returns a temperature report.
func NewTemperature(kind EquipmentKind, unit int, degC float64) Event {
	return Event{kind: kind, unit: unit, payload: Temperature{DegreesC: degC}}
}

// Kind returns the equipment kind.
func (e Event) Kind() EquipmentKind { return e.kind }

// Unit returns the unit number, or -1 when unset.
func (e Event) Unit() int { return e.unit }

// Variant returns the payload discriminator.
func (e Event) Variant() Variant {
	if e.payload == nil {
		return VariantSample
	}
	return e.payload.variant()
}

// OnOff returns the OnOff payload and true, or false for any other variant.
func (e Event) OnOff() (OnOff, bool) {
	o, ok := e.payload.(OnOff)
	return o, ok
}

// Temperature returns the Temperature payload and true, or false for any
// other variant.
func (e Event) Temperature() (Temperature, bool) {
	t, ok := e.payload.(Temperature)
	return t, ok
}

// String formats the event for logs and traces.
func (e Event) String() string {
	switch p := e.payload.(type) {
	case OnOff:
		return fmt.Sprintf("on_off(%s,%d,mode=%d)", e.kind, e.unit, p.Mode)
	case Temperature:
		return fmt.Sprintf("temperature(%s,%d,%gC)", e.kind, e.unit, p.DegreesC)
	default:
		return fmt.Sprintf("sample(%s,%d)", e.kind, e.unit)
	}
}
