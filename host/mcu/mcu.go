package mcu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pwmdual/core"
	"pwmdual/host/serial"
	"pwmdual/protocol"
)

// Bootstrap message IDs, fixed before the dictionary is known
const (
	idIdentifyResponse = 0
	idIdentify         = 1
)

var (
	ErrNotConnected   = errors.New("not connected to MCU")
	ErrNoDictionary   = errors.New("dictionary not retrieved")
	ErrUnknownCommand = errors.New("command not in dictionary")
)

// MCU represents a connection to the PWM firmware
type MCU struct {
	transport *protocol.HostTransport

	dictionary     *Dictionary
	dictionaryData []byte
	ids            map[string]uint16

	// pending holds responses drained while checking for errors
	pending []*protocol.Message

	// ResponseTimeout bounds waits for query responses
	ResponseTimeout time.Duration

	// Debug receives protocol trace messages when set
	Debug core.DebugWriter
}

// Dictionary represents the parsed MCU dictionary
type Dictionary struct {
	Version   string            `json:"version"`
	Config    map[string]string `json:"config"`
	Commands  map[string]int    `json:"commands"`
	Responses map[string]int    `json:"responses"`
}

// PWMState is the decoded dual_pwm_state response
type PWMState struct {
	State   core.GeneratorState
	Load    uint32
	Compare uint32
}

// Period returns the counter period in PWM clocks
func (s PWMState) Period() uint32 {
	return s.Load + 1
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{
		ResponseTimeout: time.Second,
	}
}

// Connect connects to an MCU via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to an MCU with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.ConnectPort(port)
	return nil
}

// ConnectPort attaches the MCU to an already open port
func (m *MCU) ConnectPort(port io.ReadWriteCloser) {
	m.transport = protocol.NewHostTransport(port)
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	if m.transport == nil {
		return nil
	}
	err := m.transport.Close()
	m.transport = nil
	return err
}

// RetrieveDictionary fetches the data dictionary in identify chunks
func (m *MCU) RetrieveDictionary() error {
	if m.transport == nil {
		return ErrNotConnected
	}

	var dict bytes.Buffer
	const chunkSize = 40
	for offset := uint32(0); ; {
		chunk, err := m.sendIdentify(offset, chunkSize)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		dict.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < chunkSize {
			break
		}
	}

	var parsed Dictionary
	if err := json.Unmarshal(dict.Bytes(), &parsed); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}

	m.dictionaryData = dict.Bytes()
	m.dictionary = &parsed
	m.ids = make(map[string]uint16)
	for format, id := range parsed.Commands {
		m.ids[messageName(format)] = uint16(id)
	}
	for format, id := range parsed.Responses {
		m.ids[messageName(format)] = uint16(id)
	}
	m.debugf("dictionary: %d bytes, %d commands, %d responses",
		len(m.dictionaryData), len(parsed.Commands), len(parsed.Responses))
	return nil
}

func (m *MCU) sendIdentify(offset uint32, count uint8) ([]byte, error) {
	err := m.transport.SendCommand(idIdentify, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, err
	}

	args, err := m.waitFor(idIdentifyResponse)
	if err != nil {
		return nil, err
	}
	gotOffset, err := protocol.DecodeVLQUint(&args)
	if err != nil {
		return nil, err
	}
	if gotOffset != offset {
		return nil, fmt.Errorf("identify offset mismatch: sent %d, got %d", offset, gotOffset)
	}
	return protocol.DecodeVLQBytes(&args)
}

// Dictionary returns the parsed dictionary, nil before RetrieveDictionary
func (m *MCU) Dictionary() *Dictionary {
	return m.dictionary
}

// DictionaryRaw returns the raw dictionary JSON
func (m *MCU) DictionaryRaw() []byte {
	return m.dictionaryData
}

// ConfigureDualPWM starts the generator with period and duty in PWM clocks
func (m *MCU) ConfigureDualPWM(period, duty uint32) error {
	return m.command("config_dual_pwm", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, period)
		protocol.EncodeVLQUint(output, duty)
	})
}

// SetPeriod rewrites the compare threshold of the running generator
func (m *MCU) SetPeriod(period uint32) error {
	return m.command("set_dual_pwm_period", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, period)
	})
}

// QueryState reads back the generator state
func (m *MCU) QueryState() (*PWMState, error) {
	if err := m.command("get_dual_pwm_state", nil); err != nil {
		return nil, err
	}
	stateID, err := m.lookup("dual_pwm_state")
	if err != nil {
		return nil, err
	}
	args, err := m.waitFor(stateID)
	if err != nil {
		return nil, err
	}

	var vals [3]uint32
	for i := range vals {
		if vals[i], err = protocol.DecodeVLQUint(&args); err != nil {
			return nil, fmt.Errorf("malformed dual_pwm_state: %w", err)
		}
	}
	return &PWMState{
		State:   core.GeneratorState(vals[0]),
		Load:    vals[1],
		Compare: vals[2],
	}, nil
}

// command sends a dictionary command and surfaces a dual_pwm_error reply.
// The firmware queues the error ahead of the ACK, so it is already waiting
// once SendCommand returns.
func (m *MCU) command(name string, args func(output protocol.OutputBuffer)) error {
	if m.transport == nil {
		return ErrNotConnected
	}
	id, err := m.lookup(name)
	if err != nil {
		return err
	}
	errID, err := m.lookup("dual_pwm_error")
	if err != nil {
		return err
	}

	m.debugf("send %s (id %d)", name, id)
	if err := m.transport.SendCommand(id, args); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	for {
		msg, ok := m.transport.PollResponse()
		if !ok {
			return nil
		}
		msgID, data, err := msg.Decode()
		if err != nil {
			continue
		}
		if msgID != errID {
			m.pending = append(m.pending, msg)
			continue
		}
		code, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return fmt.Errorf("%s: malformed error response: %w", name, err)
		}
		if cause := core.ErrorFromCode(uint8(code)); cause != nil {
			return fmt.Errorf("%s rejected: %w", name, cause)
		}
		return fmt.Errorf("%s rejected with code %d", name, code)
	}
}

// waitFor returns the arguments of the next response with the given ID,
// discarding others
func (m *MCU) waitFor(id uint16) ([]byte, error) {
	for len(m.pending) > 0 {
		msg := m.pending[0]
		m.pending = m.pending[1:]
		if msgID, data, err := msg.Decode(); err == nil && msgID == id {
			return data, nil
		}
	}

	deadline := time.Now().Add(m.ResponseTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, protocol.ErrResponseTimeout
		}
		msg, err := m.transport.ReceiveResponse(remaining)
		if err != nil {
			return nil, err
		}
		msgID, data, err := msg.Decode()
		if err != nil {
			continue
		}
		if msgID == id {
			return data, nil
		}
		m.debugf("skipping response id %d", msgID)
	}
}

func (m *MCU) lookup(name string) (uint16, error) {
	if m.ids == nil {
		return 0, ErrNoDictionary
	}
	id, ok := m.ids[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return id, nil
}

func (m *MCU) debugf(format string, args ...interface{}) {
	if m.Debug != nil {
		m.Debug(fmt.Sprintf(format, args...))
	}
}

// messageName extracts the message name from a dictionary format string
func messageName(format string) string {
	if i := strings.IndexByte(format, ' '); i >= 0 {
		return format[:i]
	}
	return format
}
