package protocol

import "sync/atomic"

// CommandHandler is a function type for handling decoded commands
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware side of the protocol: it validates incoming
// frames, dispatches the commands they carry and acknowledges each frame.
type Transport struct {
	scanner      frameScanner
	nextSequence uint32 // atomic uint8 stored as uint32
	output       OutputBuffer
	handler      CommandHandler

	resetCallback func()
	errorCallback func(cmdID uint16, err error)
}

// NewTransport creates a new Transport instance
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		scanner:      frameScanner{synchronized: true, checkDest: true},
		nextSequence: MessageDest,
		output:       output,
		handler:      handler,
	}
}

// Receive processes all complete frames in input and pops the consumed bytes
func (t *Transport) Receive(input InputBuffer) {
	consumed := t.scanner.scan(input.Data(), func(seq uint8, frame []byte) {
		expected := uint8(atomic.LoadUint32(&t.nextSequence))

		// Sequence back at the start means the host restarted
		if seq == MessageDest && expected != MessageDest {
			atomic.StoreUint32(&t.nextSequence, MessageDest)
			expected = MessageDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if seq == expected {
			atomic.StoreUint32(&t.nextSequence, uint32(nextSeq(seq)))
			t.parseFrame(frame)
		}
		// ACK on match, NAK with the expected sequence otherwise
		t.encodeAckNak()
	})
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// parseFrame dispatches every command in the frame.
// A malformed command ID abandons the rest of the frame.
func (t *Transport) parseFrame(frame []byte) {
	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			if t.errorCallback != nil {
				t.errorCallback(uint16(cmdID), err)
			}
			return
		}
	}
}

func (t *Transport) encodeAckNak() {
	ns := uint8(atomic.LoadUint32(&t.nextSequence))
	msg, _ := EncodeMessage(ns, nil)
	t.output.Output(msg)
}

// EncodeFrame writes a frame whose payload is produced by frameData
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	// Patch length, then append CRC and sync
	changed := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// SendCommand sends a message with arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset restores the initial sequence state
func (t *Transport) Reset() {
	t.scanner.synchronized = true
	atomic.StoreUint32(&t.nextSequence, MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets a callback to be called when host reset is detected
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetErrorCallback sets a callback for command handler errors
func (t *Transport) SetErrorCallback(callback func(cmdID uint16, err error)) {
	t.errorCallback = callback
}
