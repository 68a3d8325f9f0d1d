package event

import (
	"errors"
	"fmt"
)

// ViolationCode categorizes contract and lifetime violations.
type ViolationCode string

const (
	// ErrCodeWrongVariant indicates a payload variant the channel does not carry.
	ErrCodeWrongVariant ViolationCode = "WRONG_VARIANT"

	// ErrCodeWrongKind indicates an equipment kind the receiver cannot apply.
	ErrCodeWrongKind ViolationCode = "WRONG_KIND"

	// ErrCodeUnknownChannel indicates input on a channel the component does not read.
	ErrCodeUnknownChannel ViolationCode = "UNKNOWN_CHANNEL"

	// ErrCodeNilEvent indicates a port value without an event.
	ErrCodeNilEvent ViolationCode = "NIL_EVENT"

	// ErrCodeBadUnit indicates a unit number outside the receiver's equipment.
	ErrCodeBadUnit ViolationCode = "BAD_UNIT"

	// ErrCodeDoubleRelease indicates an event released twice or by a non-owner.
	ErrCodeDoubleRelease ViolationCode = "DOUBLE_RELEASE"

	// ErrCodeNilRelease indicates a release of a nil event.
	ErrCodeNilRelease ViolationCode = "NIL_RELEASE"
)

// ContractViolation reports a malformed input delivered to a component.
//
// Contract violations are programming errors in the network wiring. They are
// raised with panic and are never recovered by the kernel: a component that
// kept running would make control decisions on stale data.
type ContractViolation struct {
	Code      ViolationCode
	Component string
	Channel   Channel
	Variant   Variant
	Kind      EquipmentKind
	Message   string
}

// Error implements the error interface.
func (e *ContractViolation) Error() string {
	return fmt.Sprintf("%s: %s (component=%s, channel=%s, variant=%s, kind=%s)",
		e.Code, e.Message, e.Component, e.Channel, e.Variant, e.Kind)
}

// LifetimeViolation reports an event released twice or never owned.
type LifetimeViolation struct {
	Code    ViolationCode
	Message string
	Event   string
}

// Error implements the error interface.
func (e *LifetimeViolation) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.Event)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsContractViolation returns true if err is (or wraps) a ContractViolation.
func IsContractViolation(err error) bool {
	var cv *ContractViolation
	return errors.As(err, &cv)
}

// IsLifetimeViolation returns true if err is (or wraps) a LifetimeViolation.
func IsLifetimeViolation(err error) bool {
	var lv *LifetimeViolation
	return errors.As(err, &lv)
}

// MustTemperature returns the Temperature payload of pv or panics with a
// ContractViolation attributed to component.
func MustTemperature(component string, pv PortValue) Temperature {
	ev := mustValue(component, pv)
	t, ok := ev.Temperature()
	if !ok {
		panic(&ContractViolation{
			Code:      ErrCodeWrongVariant,
			Component: component,
			Channel:   pv.Channel,
			Variant:   ev.Variant(),
			Kind:      ev.Kind(),
			Message:   "expected temperature event",
		})
	}
	return t
}

// MustOnOff returns the OnOff payload of pv or panics with a
// ContractViolation attributed to component.
func MustOnOff(component string, pv PortValue) OnOff {
	ev := mustValue(component, pv)
	o, ok := ev.OnOff()
	if !ok {
		panic(&ContractViolation{
			Code:      ErrCodeWrongVariant,
			Component: component,
			Channel:   pv.Channel,
			Variant:   ev.Variant(),
			Kind:      ev.Kind(),
			Message:   "expected on/off event",
		})
	}
	return o
}

// UnknownChannel panics with a ContractViolation for input on ch.
func UnknownChannel(component string, pv PortValue) {
	cv := &ContractViolation{
		Code:      ErrCodeUnknownChannel,
		Component: component,
		Channel:   pv.Channel,
		Message:   "input on channel the component does not read",
	}
	if pv.Value != nil {
		cv.Variant = pv.Value.Variant()
		cv.Kind = pv.Value.Kind()
	}
	panic(cv)
}

// WrongKind panics with a ContractViolation for an event whose kind the
// component cannot apply.
func WrongKind(component string, pv PortValue) {
	ev := mustValue(component, pv)
	panic(&ContractViolation{
		Code:      ErrCodeWrongKind,
		Component: component,
		Channel:   pv.Channel,
		Variant:   ev.Variant(),
		Kind:      ev.Kind(),
		Message:   "equipment kind not accepted on this channel",
	})
}

// BadUnit panics with a ContractViolation for an event addressed to a unit
// the component does not have.
func BadUnit(component string, pv PortValue) {
	ev := mustValue(component, pv)
	panic(&ContractViolation{
		Code:      ErrCodeBadUnit,
		Component: component,
		Channel:   pv.Channel,
		Variant:   ev.Variant(),
		Kind:      ev.Kind(),
		Message:   fmt.Sprintf("unit %d out of range", ev.Unit()),
	})
}

func mustValue(component string, pv PortValue) *Event {
	if pv.Value == nil {
		panic(&ContractViolation{
			Code:      ErrCodeNilEvent,
			Component: component,
			Channel:   pv.Channel,
			Message:   "port value without event",
		})
	}
	return pv.Value
}
