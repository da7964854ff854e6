//go:build tinygo

package core

import "runtime/interrupt"

// irqState is the saved PRIMASK
type irqState = interrupt.State

// disableInterrupts masks interrupts and returns the previous state
func disableInterrupts() irqState {
	return interrupt.Disable()
}

// restoreInterrupts restores the saved interrupt state
func restoreInterrupts(state irqState) {
	interrupt.Restore(state)
}
