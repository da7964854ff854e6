//go:build tinygo && tm4c123

package main

import (
	"device/arm"

	"pwmdual/core"
)

// Default waveform: 64 PWM clocks per cycle, square
const (
	defaultPeriod = 64
	defaultDuty   = 32
)

func main() {
	pwm := core.NewDualPWM(core.MMIO{}, core.WithDivider(core.Div2))

	// Arguments are constants inside the valid range; the unbounded poll
	// is the only way this can fail to return.
	if err := pwm.Initialize(defaultPeriod, defaultDuty); err != nil {
		for {
			arm.Asm("bkpt #0")
		}
	}

	// The generator free-runs from here on
	for {
		arm.Asm("wfi")
	}
}
