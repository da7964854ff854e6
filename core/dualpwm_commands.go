package core

import (
	"pwmdual/protocol"
)

// ResponseSender encodes and queues a response message for the host
type ResponseSender func(msgID uint16, args func(output protocol.OutputBuffer))

// Firmware binds the dual PWM generator to the host command protocol
type Firmware struct {
	Registry   *CommandRegistry
	Dictionary *Dictionary
	PWM        *DualPWM

	send ResponseSender

	idIdentifyResponse uint16
	idState            uint16
	idError            uint16
}

// NewFirmware registers the command set for pwm.
// Registration order fixes the IDs: identify_response must be 0 and
// identify must be 1 so a host can bootstrap without a dictionary.
func NewFirmware(pwm *DualPWM) *Firmware {
	f := &Firmware{
		Registry: NewCommandRegistry(),
		PWM:      pwm,
		send:     func(uint16, func(protocol.OutputBuffer)) {},
	}
	r := f.Registry

	f.idIdentifyResponse = r.RegisterResponse("identify_response", "offset=%u data=%.*s") // ID 0
	r.Register("identify", "offset=%u count=%c", f.handleIdentify)                        // ID 1

	r.Register("config_dual_pwm", "period=%hu duty=%hu", f.handleConfigDualPWM)
	r.Register("set_dual_pwm_period", "period=%hu", f.handleSetDualPWMPeriod)
	r.Register("get_dual_pwm_state", "", f.handleGetDualPWMState)

	f.idState = r.RegisterResponse("dual_pwm_state", "state=%c load=%hu compare=%hu")
	f.idError = r.RegisterResponse("dual_pwm_error", "code=%c")

	f.Dictionary = NewDictionary(r, protocol.Version)
	f.Dictionary.AddConstant("PWM_MIN_PERIOD", PWM_MIN_PERIOD)
	f.Dictionary.AddConstant("PWM_MAX_PERIOD", PWM_MAX_PERIOD)
	f.Dictionary.AddConstant("PWM_DIVIDER", pwm.Divider().Divisor())
	f.Dictionary.AddStringConstant("MCU", "tm4c123")

	return f
}

// SetResponseSender sets where responses are written (usually the transport)
func (f *Firmware) SetResponseSender(send ResponseSender) {
	f.send = send
}

// Dispatch runs the handler for cmdID; it matches protocol.CommandHandler
func (f *Firmware) Dispatch(cmdID uint16, data *[]byte) error {
	return f.Registry.Dispatch(cmdID, data)
}

// handleIdentify returns chunks of the data dictionary
// Format: identify offset=%u count=%c
func (f *Firmware) handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := f.Dictionary.GetChunk(offset, uint8(count))
	f.send(f.idIdentifyResponse, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

// handleConfigDualPWM initializes the generator
// Format: config_dual_pwm period=%hu duty=%hu
func (f *Firmware) handleConfigDualPWM(data *[]byte) error {
	period, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	duty, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	if err := f.PWM.Initialize(period, duty); err != nil {
		f.reject(err)
	}
	return nil
}

// handleSetDualPWMPeriod rewrites the compare threshold of a running generator
// Format: set_dual_pwm_period period=%hu
func (f *Firmware) handleSetDualPWMPeriod(data *[]byte) error {
	period, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	if err := f.PWM.UpdatePeriod(period); err != nil {
		f.reject(err)
	}
	return nil
}

// handleGetDualPWMState reports state, load and compare
// Format: get_dual_pwm_state
func (f *Firmware) handleGetDualPWMState(data *[]byte) error {
	snap := f.PWM.Snapshot()
	f.send(f.idState, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(snap.State))
		protocol.EncodeVLQUint(output, snap.Load)
		protocol.EncodeVLQUint(output, snap.Compare)
	})
	return nil
}

// reject reports a generator error to the host. Errors are answered rather
// than returned so the transport keeps processing the rest of the frame.
func (f *Firmware) reject(err error) {
	code := ErrorCode(err)
	RecordEvent(EvtReject, uint32(code), 0)
	DebugPrintln("[PWM] command rejected: " + err.Error())
	f.send(f.idError, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(code))
	})
}
