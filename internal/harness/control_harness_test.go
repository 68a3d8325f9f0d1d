package harness

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simtest/internal/building"
	"github.com/roach88/simtest/internal/control"
	"github.com/roach88/simtest/internal/event"
	"github.com/roach88/simtest/internal/testutil"
)

type fixture struct {
	arena   *event.Arena
	proxy   *building.Proxy
	alg     *testutil.RecordingAlgorithm
	harness *ControlHarness
}

func newFixture(interval float64) *fixture {
	arena := event.NewArena()
	proxy := building.NewProxy(arena)
	alg := testutil.NewRecordingAlgorithm(interval)
	h := NewControlHarness(alg, proxy, arena,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return &fixture{arena: arena, proxy: proxy, alg: alg, harness: h}
}

// Inputs belong to their sender, so they are not allocated from the
// harness's arena.
func (f *fixture) sample() event.PortValue {
	ev := event.NewSample()
	return event.PortValue{Channel: event.Sample, Value: &ev}
}

func (f *fixture) temp(kind event.EquipmentKind, unit int, degC float64) event.PortValue {
	ev := event.NewTemperature(kind, unit, degC)
	return event.PortValue{Channel: event.TempData, Value: &ev}
}

// fire performs what the kernel does when the harness is imminent without
// input: Output, InternalTransition, ReleaseOutputs.
func (f *fixture) fire() []string {
	yb := f.harness.Output()
	f.harness.InternalTransition()
	out := make([]string, 0, len(yb))
	for _, pv := range yb {
		out = append(out, pv.Value.String())
	}
	f.harness.ReleaseOutputs(yb)
	return out
}

func recoverViolation(t *testing.T, fn func()) *event.ContractViolation {
	t.Helper()
	var cv *event.ContractViolation
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a contract violation panic")
			err, ok := r.(error)
			require.True(t, ok, "panic value must be an error, got %T", r)
			require.True(t, errors.As(err, &cv), "got %v", err)
		}()
		fn()
	}()
	return cv
}

func TestControlHarness_WaitsForFirstSample(t *testing.T) {
	f := newFixture(10)

	assert.True(t, math.IsInf(f.harness.TimeAdvance(), 1))
	assert.Empty(t, f.harness.Output())
	assert.Equal(t, 0, f.alg.Steps())
}

func TestControlHarness_SampleRunsControlImmediately(t *testing.T) {
	f := newFixture(10)

	f.harness.ExternalTransition(3, event.Bag{f.sample()})
	assert.Equal(t, 0.0, f.harness.TimeAdvance())

	assert.Empty(t, f.fire())
	assert.Equal(t, 1, f.alg.Steps())
	assert.Equal(t, 1, f.harness.ControlRuns())
	assert.Equal(t, 10.0, f.harness.TimeAdvance())
}

func TestControlHarness_PeriodicControl(t *testing.T) {
	f := newFixture(10)
	f.harness.ExternalTransition(0, event.Bag{f.sample()})
	f.fire()

	// Input without a sample shortens the wait by the elapsed time.
	f.harness.ExternalTransition(4, event.Bag{f.temp(event.KindOutdoorThermometer, -1, 2)})
	assert.Equal(t, 6.0, f.harness.TimeAdvance())
	assert.Equal(t, 1, f.alg.Steps())

	f.fire()
	assert.Equal(t, 2, f.alg.Steps())
	assert.Equal(t, 2.0, f.alg.Last().Outdoor)
	assert.Equal(t, 10.0, f.harness.TimeAdvance())
}

func TestControlHarness_FlushDoesNotRerunControl(t *testing.T) {
	f := newFixture(10)
	f.alg.Act = func(step int, b control.Building) {
		b.ActivateCoolingUnit(2, 1)
		b.ActivateHeatingUnit(0, 3)
	}

	f.harness.ExternalTransition(0, event.Bag{f.sample()})
	assert.Empty(t, f.fire(), "commands are queued during the control step")
	assert.Equal(t, 0.0, f.harness.TimeAdvance(), "queued commands are due now")

	assert.Equal(t, []string{
		"on_off(cooling_unit,2,mode=1)",
		"on_off(heating_unit,0,mode=3)",
	}, f.fire())
	assert.Equal(t, 1, f.alg.Steps(), "a flush instant does not run control")
	assert.False(t, f.proxy.HasPendingEvents())
	assert.Equal(t, 10.0, f.harness.TimeAdvance())
	assert.Equal(t, 0, f.arena.Live())
}

func TestControlHarness_ConfluentEmptyEqualsInternal(t *testing.T) {
	scenarios := map[string]func(f *fixture){
		"sample due": func(f *fixture) {
			f.harness.ExternalTransition(0, event.Bag{f.sample()})
		},
		"period expired": func(f *fixture) {
			f.harness.ExternalTransition(0, event.Bag{f.sample()})
			f.fire()
		},
		"flush due": func(f *fixture) {
			f.alg.Act = func(int, control.Building) { f.proxy.ActivateHeatingUnit(0, 1) }
			f.harness.ExternalTransition(0, event.Bag{f.sample()})
			f.fire()
		},
	}

	for name, prepare := range scenarios {
		t.Run(name, func(t *testing.T) {
			a, b := newFixture(5), newFixture(5)
			prepare(a)
			prepare(b)

			ya := a.harness.Output()
			a.harness.ConfluentTransition(nil)
			yb := b.harness.Output()
			b.harness.InternalTransition()

			assert.Equal(t, len(ya), len(yb))
			assert.Equal(t, a.alg.Steps(), b.alg.Steps())
			assert.Equal(t, a.harness.TimeAdvance(), b.harness.TimeAdvance())
			assert.Equal(t, a.harness.State(), b.harness.State())
			assert.Equal(t, a.proxy.State(), b.proxy.State())
			a.harness.ReleaseOutputs(ya)
			b.harness.ReleaseOutputs(yb)
		})
	}
}

func TestControlHarness_ConfluentAppliesInputBeforeControl(t *testing.T) {
	f := newFixture(5)
	f.harness.ExternalTransition(0, event.Bag{f.sample(), f.temp(event.KindThermostatThermometer, 0, 18)})
	f.fire()
	require.Equal(t, 18.0, f.alg.Last().Zones[0].Temp)
	require.Equal(t, 5.0, f.harness.TimeAdvance())

	// The periodic step and a new report with a sample arrive together.
	f.harness.ConfluentTransition(event.Bag{
		f.temp(event.KindThermostatThermometer, 0, 25),
		f.sample(),
	})

	assert.Equal(t, 2, f.alg.Steps(), "one control step for the instant")
	assert.Equal(t, 25.0, f.alg.Last().Zones[0].Temp)
	assert.Equal(t, 5.0, f.harness.TimeAdvance())
}

func TestControlHarness_TemperatureRouting(t *testing.T) {
	f := newFixture(5)
	f.harness.ExternalTransition(0, event.Bag{
		f.temp(event.KindOutdoorThermometer, -1, -4),
		f.temp(event.KindThermostatThermometer, 1, 21.5),
		f.temp(event.KindThermostatLowerSetpoint, 1, 20),
		f.temp(event.KindThermostatUpperSetpoint, 1, 24),
	})

	assert.Equal(t, -4.0, f.proxy.OutdoorTemp())
	assert.Equal(t, 21.5, f.proxy.ThermostatTemp(1))
	assert.Equal(t, 20.0, f.proxy.ThermostatLowerLimit(1))
	assert.Equal(t, 24.0, f.proxy.ThermostatUpperLimit(1))
	assert.True(t, math.IsInf(f.harness.TimeAdvance(), 1), "reports alone do not trigger control")
}

func TestControlHarness_ContractViolations(t *testing.T) {
	t.Run("on/off on tempData", func(t *testing.T) {
		f := newFixture(5)
		pv := event.PortValue{Channel: event.TempData, Value: f.arena.New(event.NewOnOff(event.KindHeatingUnit, 0, 1))}
		cv := recoverViolation(t, func() { f.harness.ExternalTransition(0, event.Bag{pv}) })
		assert.Equal(t, event.ErrCodeWrongVariant, cv.Code)
		assert.Equal(t, "control_harness", cv.Component)
		assert.Equal(t, event.TempData, cv.Channel)
		assert.Equal(t, event.VariantOnOff, cv.Variant)
	})

	t.Run("temperature of an actuator kind", func(t *testing.T) {
		f := newFixture(5)
		pv := f.temp(event.KindHeatingUnit, 0, 30)
		cv := recoverViolation(t, func() { f.harness.ExternalTransition(0, event.Bag{pv}) })
		assert.Equal(t, event.ErrCodeWrongKind, cv.Code)
	})

	t.Run("input on output channel", func(t *testing.T) {
		f := newFixture(5)
		pv := event.PortValue{Channel: event.OnOffCmd, Value: f.arena.New(event.NewOnOff(event.KindHeatingUnit, 0, 1))}
		cv := recoverViolation(t, func() { f.harness.ConfluentTransition(event.Bag{pv}) })
		assert.Equal(t, event.ErrCodeUnknownChannel, cv.Code)
	})

	t.Run("nil event on tempData", func(t *testing.T) {
		f := newFixture(5)
		cv := recoverViolation(t, func() {
			f.harness.ExternalTransition(0, event.Bag{{Channel: event.TempData}})
		})
		assert.Equal(t, event.ErrCodeNilEvent, cv.Code)
	})
}

func TestControlHarness_NegativeIntervalPanics(t *testing.T) {
	f := newFixture(-1)
	f.harness.ExternalTransition(0, event.Bag{f.sample()})

	assert.PanicsWithError(t, "control interval must be >= 0: got -1", func() {
		f.harness.InternalTransition()
	})
}

func TestControlHarness_StateIsAlgorithmState(t *testing.T) {
	f := newFixture(5)
	f.harness.ExternalTransition(0, event.Bag{f.sample()})
	f.fire()

	assert.Equal(t, f.alg.State(), f.harness.State())
	assert.Equal(t, "recording steps=1", f.harness.State())
}
