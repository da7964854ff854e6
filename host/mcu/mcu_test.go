package mcu

import (
	"testing"

	"pwmdual/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectSim(t *testing.T, opts ...core.Option) (*MCU, *Simulator) {
	t.Helper()
	sim := NewSimulator(opts...)
	m := NewMCU()
	m.ConnectPort(sim.Port())
	t.Cleanup(func() {
		m.Close()
		sim.Close()
	})
	require.NoError(t, m.RetrieveDictionary())
	return m, sim
}

func TestRetrieveDictionary(t *testing.T) {
	m, sim := connectSim(t)

	dict := m.Dictionary()
	require.NotNil(t, dict)
	assert.Equal(t, "pwmdual-0.1.0", dict.Version)
	assert.Equal(t, "tm4c123", dict.Config["MCU"])
	assert.Equal(t, "3", dict.Config["PWM_MIN_PERIOD"])
	assert.Equal(t, 2, dict.Commands["config_dual_pwm period=%hu duty=%hu"])
	assert.Equal(t, 5, dict.Responses["dual_pwm_state state=%c load=%hu compare=%hu"])

	assert.Equal(t, sim.Firmware.Dictionary.Generate(), m.DictionaryRaw())
}

func TestConfigureAndQuery(t *testing.T) {
	m, sim := connectSim(t)

	require.NoError(t, m.ConfigureDualPWM(64, 32))
	assert.Equal(t, uint32(63), sim.Registers.Peek(core.PWM0_0_LOAD))
	assert.Equal(t, uint32(31), sim.Registers.Peek(core.PWM0_0_CMPA))

	st, err := m.QueryState()
	require.NoError(t, err)
	assert.Equal(t, core.StateRunning, st.State)
	assert.Equal(t, uint32(63), st.Load)
	assert.Equal(t, uint32(31), st.Compare)
	assert.Equal(t, uint32(64), st.Period())

	require.NoError(t, m.SetPeriod(80))
	st, err = m.QueryState()
	require.NoError(t, err)
	assert.Equal(t, uint32(79), st.Compare)
	assert.Equal(t, uint32(63), st.Load, "load untouched by a period update")
}

func TestQueryBeforeConfigure(t *testing.T) {
	m, _ := connectSim(t)

	st, err := m.QueryState()
	require.NoError(t, err)
	assert.Equal(t, core.StateUninitialized, st.State)
	assert.Zero(t, st.Load)
}

func TestFirmwareErrorsMapToSentinels(t *testing.T) {
	m, _ := connectSim(t)

	assert.ErrorIs(t, m.SetPeriod(64), core.ErrNotRunning)
	assert.ErrorIs(t, m.ConfigureDualPWM(2, 1), core.ErrPeriodRange)
	assert.ErrorIs(t, m.ConfigureDualPWM(64, 64), core.ErrDutyRange)

	require.NoError(t, m.ConfigureDualPWM(64, 32))
	assert.ErrorIs(t, m.ConfigureDualPWM(64, 32), core.ErrAlreadyInitialized)
	assert.ErrorIs(t, m.SetPeriod(0), core.ErrPeriodRange)

	// Connection stays usable after rejections
	st, err := m.QueryState()
	require.NoError(t, err)
	assert.Equal(t, uint32(31), st.Compare)
}

func TestPeripheralNotReady(t *testing.T) {
	m, sim := connectSim(t, core.WithWaiter(core.PollLimit(3)))
	sim.Registers.SetAutoReady(false)

	assert.ErrorIs(t, m.ConfigureDualPWM(64, 32), core.ErrPeripheralNotReady)

	sim.Registers.SetAutoReady(true)
	require.NoError(t, m.ConfigureDualPWM(64, 32))
}

func TestSimulatorTrace(t *testing.T) {
	m, sim := connectSim(t)
	require.NoError(t, m.ConfigureDualPWM(64, 32))

	out1, out2 := core.DutyCycle(sim.Trace(256))
	assert.InDelta(t, 0.5, out1, 1e-9)
	assert.InDelta(t, 0.5, out2, 1e-9)
}

func TestNotConnected(t *testing.T) {
	m := NewMCU()

	assert.ErrorIs(t, m.RetrieveDictionary(), ErrNotConnected)
	assert.ErrorIs(t, m.ConfigureDualPWM(64, 32), ErrNotConnected)
	_, err := m.QueryState()
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, m.Close())
}

func TestNoDictionary(t *testing.T) {
	sim := NewSimulator()
	defer sim.Close()
	m := NewMCU()
	m.ConnectPort(sim.Port())
	defer m.Close()

	assert.ErrorIs(t, m.SetPeriod(64), ErrNoDictionary)
}

func TestMessageName(t *testing.T) {
	assert.Equal(t, "config_dual_pwm", messageName("config_dual_pwm period=%hu duty=%hu"))
	assert.Equal(t, "get_dual_pwm_state", messageName("get_dual_pwm_state"))
}
