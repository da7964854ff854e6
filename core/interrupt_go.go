//go:build !tinygo

package core

// irqState stands in for the saved interrupt mask on hosted builds
type irqState uintptr

// disableInterrupts is a no-op on hosted builds; RegisterFile locks itself
func disableInterrupts() irqState {
	return 0
}

func restoreInterrupts(state irqState) {}
