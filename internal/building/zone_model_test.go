package building

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simtest/internal/devs"
	"github.com/roach88/simtest/internal/event"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testZoneConfig() ZoneModelConfig {
	return ZoneModelConfig{
		Zones:    2,
		OutdoorC: 0,
		InitialC: 20,
		LowerC:   19,
		UpperC:   23,
		LeakRate: 0.1,
		HeatRate: 1,
		CoolRate: 1,
	}
}

func sampleBag(arena *event.Arena) event.Bag {
	return event.Bag{{Channel: event.Sample, Value: arena.New(event.NewSample())}}
}

func TestZoneModel_PassiveUntilSampled(t *testing.T) {
	arena := event.NewArena()
	m, err := NewZoneModel(testZoneConfig(), arena, discardLogger())
	require.NoError(t, err)

	assert.True(t, math.IsInf(m.TimeAdvance(), 1))
	assert.Empty(t, m.Output())

	m.ExternalTransition(0, sampleBag(arena))
	assert.Equal(t, 0.0, m.TimeAdvance())
}

func TestZoneModel_ReportContents(t *testing.T) {
	arena := event.NewArena()
	m, err := NewZoneModel(testZoneConfig(), arena, discardLogger())
	require.NoError(t, err)
	m.ExternalTransition(0, sampleBag(arena))

	yb := m.Output()
	require.Len(t, yb, 7)
	for _, pv := range yb {
		assert.Equal(t, event.TempData, pv.Channel)
	}
	assert.Equal(t, event.KindOutdoorThermometer, yb[0].Value.Kind())
	assert.Equal(t, event.KindThermostatThermometer, yb[1].Value.Kind())
	assert.Equal(t, 0, yb[1].Value.Unit())
	assert.Equal(t, event.KindThermostatLowerSetpoint, yb[2].Value.Kind())
	assert.Equal(t, event.KindThermostatUpperSetpoint, yb[3].Value.Kind())
	assert.Equal(t, 1, yb[4].Value.Unit())

	m.InternalTransition()
	m.ReleaseOutputs(yb)
	assert.True(t, math.IsInf(m.TimeAdvance(), 1))
}

func TestZoneModel_RelaxesTowardOutdoor(t *testing.T) {
	arena := event.NewArena()
	m, err := NewZoneModel(testZoneConfig(), arena, discardLogger())
	require.NoError(t, err)

	m.ExternalTransition(10, sampleBag(arena))

	want := 20 * math.Exp(-1)
	assert.InDelta(t, want, m.Temperature(0), 1e-9)
}

func TestZoneModel_HeatingRaisesEquilibrium(t *testing.T) {
	arena := event.NewArena()
	cfg := testZoneConfig()
	m, err := NewZoneModel(cfg, arena, discardLogger())
	require.NoError(t, err)

	on := arena.New(event.NewOnOff(event.KindHeatingUnit, 1, 3))
	m.ExternalTransition(0, event.Bag{{Channel: event.OnOffCmd, Value: on}})
	m.ExternalTransition(1000, sampleBag(arena))

	// Teq = 0 + 1*3/0.1 = 30
	assert.InDelta(t, 30, m.Temperature(1), 1e-6)
	assert.InDelta(t, 0, m.Temperature(0), 1e-6)
	assert.Contains(t, m.State(), "heat1=3")
}

func TestZoneModel_NoLeakIntegratesLinearly(t *testing.T) {
	arena := event.NewArena()
	cfg := testZoneConfig()
	cfg.LeakRate = 0
	m, err := NewZoneModel(cfg, arena, discardLogger())
	require.NoError(t, err)

	cool := arena.New(event.NewOnOff(event.KindCoolingUnit, 0, 1))
	m.ExternalTransition(0, event.Bag{{Channel: event.OnOffCmd, Value: cool}})
	m.ExternalTransition(2, nil)

	assert.InDelta(t, 18, m.Temperature(0), 1e-12)
}

func TestZoneModel_ContractViolations(t *testing.T) {
	arena := event.NewArena()
	m, err := NewZoneModel(testZoneConfig(), arena, discardLogger())
	require.NoError(t, err)

	temp := arena.New(event.NewTemperature(event.KindOutdoorThermometer, -1, 3))
	assert.Panics(t, func() {
		m.ExternalTransition(0, event.Bag{{Channel: event.OnOffCmd, Value: temp}})
	}, "temperature on onOffCmd")

	badUnit := arena.New(event.NewOnOff(event.KindHeatingUnit, 9, 1))
	assert.Panics(t, func() {
		m.ExternalTransition(0, event.Bag{{Channel: event.OnOffCmd, Value: badUnit}})
	}, "unit out of range")

	wrongKind := arena.New(event.NewOnOff(event.KindThermostatThermometer, 0, 1))
	assert.Panics(t, func() {
		m.ExternalTransition(0, event.Bag{{Channel: event.OnOffCmd, Value: wrongKind}})
	}, "thermometer cannot be switched")

	assert.Panics(t, func() {
		m.ExternalTransition(0, event.Bag{{Channel: event.TempData, Value: temp}})
	}, "model does not read tempData")
}

func TestZoneModel_ConfigValidation(t *testing.T) {
	cfg := testZoneConfig()
	cfg.Zones = 0
	cfg.LowerC = 30
	_, err := NewZoneModel(cfg, event.NewArena(), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zones must be >= 1")
	assert.Contains(t, err.Error(), "above upper setpoint")
}

func TestZoneModel_SatisfiesModel(t *testing.T) {
	var _ Model = (*ZoneModel)(nil)
	var _ devs.Atomic = (*ZoneModel)(nil)
}
