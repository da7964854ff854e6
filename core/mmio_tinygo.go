//go:build tinygo

package core

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the memory-mapped register bus of the running chip
type MMIO struct{}

// Read implements RegisterBus
func (MMIO) Read(addr uint32) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(addr))).Get()
}

// Write implements RegisterBus
func (MMIO) Write(addr uint32, value uint32) {
	(*volatile.Register32)(unsafe.Pointer(uintptr(addr))).Set(value)
}
