package core

// RegisterBus is the abstract 32-bit register interface the PWM code uses.
// Platform code provides MMIO on hardware; hosted code uses a RegisterFile.
type RegisterBus interface {
	// Read returns the current value of the register at addr
	Read(addr uint32) uint32

	// Write stores value into the register at addr
	Write(addr uint32, value uint32)
}

// The SYSCTL and port B registers are shared with other drivers, so each
// read-modify-write runs with interrupts masked.

// setBits performs a read-modify-write that sets mask bits
func setBits(bus RegisterBus, addr, mask uint32) {
	state := disableInterrupts()
	bus.Write(addr, bus.Read(addr)|mask)
	restoreInterrupts(state)
}

// clearBits performs a read-modify-write that clears mask bits
func clearBits(bus RegisterBus, addr, mask uint32) {
	state := disableInterrupts()
	bus.Write(addr, bus.Read(addr)&^mask)
	restoreInterrupts(state)
}

// replaceField clears mask and ORs in value in one read-modify-write
func replaceField(bus RegisterBus, addr, mask, value uint32) {
	state := disableInterrupts()
	bus.Write(addr, (bus.Read(addr)&^mask)|(value&mask))
	restoreInterrupts(state)
}
