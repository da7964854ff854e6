// Package serial opens the link between the host tool and the PWM firmware
package serial

import (
	"io"
)

// Port represents a serial port interface
// Implementations: native serial (github.com/tarm/serial) and in-memory
// pipes used by the simulator and tests.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (the TM4C123 UART0 bridge defaults to 250000 here)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the default configuration for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}
