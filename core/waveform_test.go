package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateComplementaryOutputs(t *testing.T) {
	pwm, regs := newTestPWM(t)
	require.NoError(t, pwm.Initialize(64, 32))

	samples := Simulate(regs, 640)
	require.Len(t, samples, 640)
	for _, s := range samples {
		assert.NotEqual(t, s.Out1, s.Out2, "tick %d", s.Tick)
	}

	out1, out2 := DutyCycle(samples)
	assert.InDelta(t, 0.5, out1, 1e-9)
	assert.InDelta(t, 0.5, out2, 1e-9)
}

func TestSimulatePeriodFollowsLoad(t *testing.T) {
	pwm, regs := newTestPWM(t)
	require.NoError(t, pwm.Initialize(10, 3))

	samples := Simulate(regs, 30)
	for _, s := range samples {
		assert.Equal(t, uint32(9-s.Tick%10), s.Count, "tick %d", s.Tick)
	}

	// Output 1 is high for duty clocks per period
	out1, _ := DutyCycle(samples)
	assert.InDelta(t, 0.3, out1, 1e-9)
}

func TestSimulateAfterCompareUpdate(t *testing.T) {
	pwm, regs := newTestPWM(t)
	require.NoError(t, pwm.Initialize(64, 32))
	require.NoError(t, pwm.UpdatePeriod(48))

	samples := Simulate(regs, 64*4)
	out1, out2 := DutyCycle(samples)
	assert.InDelta(t, 48.0/64.0, out1, 1e-9)
	assert.InDelta(t, 16.0/64.0, out2, 1e-9)
}

func TestSimulateCompareBeyondLoad(t *testing.T) {
	pwm, regs := newTestPWM(t)
	require.NoError(t, pwm.Initialize(64, 32))
	require.NoError(t, pwm.UpdatePeriod(80))

	// The counter never reaches compare 79, so the load action holds
	samples := Simulate(regs, 64*2)
	for _, s := range samples {
		assert.False(t, s.Out1, "tick %d", s.Tick)
		assert.True(t, s.Out2, "tick %d", s.Tick)
	}
}

func TestSimulateStopped(t *testing.T) {
	regs := NewRegisterFile()

	samples := Simulate(regs, 8)
	for _, s := range samples {
		assert.False(t, s.Out1)
		assert.False(t, s.Out2)
		assert.Zero(t, s.Count)
	}

	out1, out2 := DutyCycle(nil)
	assert.Zero(t, out1)
	assert.Zero(t, out2)
}

func TestSimulateOutputEnableGate(t *testing.T) {
	pwm, regs := newTestPWM(t)
	require.NoError(t, pwm.Initialize(64, 32))
	regs.Preset(PWM0_ENABLE, PWM_ENABLE_PWM0EN)

	samples := Simulate(regs, 64)
	out1, out2 := DutyCycle(samples)
	assert.InDelta(t, 0.5, out1, 1e-9)
	assert.Zero(t, out2)
}
