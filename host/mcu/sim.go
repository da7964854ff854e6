package mcu

import (
	"io"
	"net"

	"pwmdual/core"
	"pwmdual/protocol"
)

// Simulator runs the firmware command stack against a simulated register
// file, reachable through an in-memory serial link.
type Simulator struct {
	Registers *core.RegisterFile
	PWM       *core.DualPWM
	Firmware  *core.Firmware

	host net.Conn
	mcu  net.Conn
	done chan struct{}
}

// NewSimulator starts a simulated MCU. opts are applied to the generator.
func NewSimulator(opts ...core.Option) *Simulator {
	regs := core.NewRegisterFile()
	pwm := core.NewDualPWM(regs, opts...)
	hostEnd, mcuEnd := net.Pipe()

	s := &Simulator{
		Registers: regs,
		PWM:       pwm,
		Firmware:  core.NewFirmware(pwm),
		host:      hostEnd,
		mcu:       mcuEnd,
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

// Port returns the host end of the simulated serial link
func (s *Simulator) Port() io.ReadWriteCloser {
	return s.host
}

// Trace replays the current register state for ticks PWM clocks
func (s *Simulator) Trace(ticks int) []core.Sample {
	return core.Simulate(s.Registers, ticks)
}

// Close shuts down the simulated MCU
func (s *Simulator) Close() error {
	s.host.Close()
	err := s.mcu.Close()
	<-s.done
	return err
}

// run is the firmware main loop: read, dispatch, flush
func (s *Simulator) run() {
	defer close(s.done)

	output := protocol.NewScratchOutput()
	transport := protocol.NewTransport(output, s.Firmware.Dispatch)
	s.Firmware.SetResponseSender(transport.SendCommand)

	input := protocol.NewFifoBuffer(1024)
	buf := make([]byte, 256)
	for {
		n, err := s.mcu.Read(buf)
		if err != nil {
			return
		}
		input.Write(buf[:n])
		transport.Receive(input)

		if out := output.Result(); len(out) > 0 {
			if _, err := s.mcu.Write(out); err != nil {
				return
			}
			output.Reset()
		}
	}
}
