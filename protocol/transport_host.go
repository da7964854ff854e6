package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	ErrAckTimeout       = errors.New("ack timeout")
	ErrResponseTimeout  = errors.New("response timeout")
	ErrTransportClosed  = errors.New("transport closed")
	ErrSequenceMismatch = errors.New("sequence mismatch")
)

// DefaultAckTimeout is used by SendCommand
const DefaultAckTimeout = 2 * time.Second

// Message is a received frame
type Message struct {
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
}

// Decode splits the payload into message ID and argument bytes
func (m *Message) Decode() (uint16, []byte, error) {
	data := m.Payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return 0, nil, err
	}
	return uint16(id), data, nil
}

// HostTransport is the host side of the protocol: it sends commands, waits
// for their ACK and queues responses from the MCU.
type HostTransport struct {
	port io.ReadWriteCloser

	writeMu    sync.Mutex
	currentSeq uint8

	scanner frameScanner
	input   *FifoBuffer

	ackChan      chan *Message
	responseChan chan *Message

	closeOnce sync.Once
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewHostTransport creates a host transport and starts its read loop
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		currentSeq:   MessageDest,
		scanner:      frameScanner{synchronized: true, checkDest: true},
		input:        NewFifoBuffer(1024),
		ackChan:      make(chan *Message, 4),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends a command to the MCU and waits for ACK
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, DefaultAckTimeout)
}

// SendCommandWithTimeout sends a command with a custom ACK timeout
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}

	msg, err := EncodeMessage(t.currentSeq, scratch.Result())
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	t.drainAcks()
	if _, err := t.port.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	expected := nextSeq(t.currentSeq)
	if err := t.waitForAck(expected, timeout); err != nil {
		return err
	}
	t.currentSeq = expected
	return nil
}

// waitForAck waits for an ACK carrying the expected next sequence
func (t *HostTransport) waitForAck(expected uint8, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-t.ackChan:
			if ack.Sequence == expected {
				return nil
			}
			// A NAK naming our own sequence means the frame was not accepted
			if ack.Sequence == t.currentSeq {
				return fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrSequenceMismatch, expected, ack.Sequence)
			}
		case <-timer.C:
			return fmt.Errorf("%w after %v", ErrAckTimeout, timeout)
		case <-t.stopChan:
			return ErrTransportClosed
		}
	}
}

func (t *HostTransport) drainAcks() {
	for {
		select {
		case <-t.ackChan:
		default:
			return
		}
	}
}

// ReceiveResponse waits up to timeout for the next response message
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrResponseTimeout, timeout)
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// PollResponse returns a queued response without blocking
func (t *HostTransport) PollResponse() (*Message, bool) {
	select {
	case resp := <-t.responseChan:
		return resp, true
	default:
		return nil, false
	}
}

// readLoop reads from the port and routes frames until the port fails
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)
	for {
		n, err := t.port.Read(buffer)
		if n > 0 {
			t.input.Write(buffer[:n])
			consumed := t.scanner.scan(t.input.Data(), t.dispatch)
			t.input.Pop(consumed)
		}
		if err != nil {
			select {
			case <-t.stopChan:
				return
			default:
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return
			}
			// Serial read timeouts surface as io.EOF; keep reading
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// dispatch routes a frame to the ACK or response channel
func (t *HostTransport) dispatch(seq uint8, payload []byte) {
	msg := &Message{Sequence: seq, Payload: append([]byte(nil), payload...)}

	if len(payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	select {
	case t.responseChan <- msg:
	default:
		// Full: drop the oldest response
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the transport and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}
