package protocol

import (
	"errors"
	"fmt"
)

var ErrMessageTooLong = errors.New("message too long")

// EncodeMessage builds a complete frame around payload
func EncodeMessage(seq uint8, payload []byte) ([]byte, error) {
	msgLen := MessageLengthMin + len(payload)
	if msgLen > MessageLengthMax {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLong, msgLen, MessageLengthMax)
	}

	msg := make([]byte, 0, msgLen)
	msg = append(msg, uint8(msgLen), seq)
	msg = append(msg, payload...)
	crc := CRC16(msg)
	msg = append(msg, uint8(crc>>8), uint8(crc&0xFF), MessageValueSync)
	return msg, nil
}

// frameScanner splits a byte stream into validated frames
type frameScanner struct {
	synchronized bool

	// checkDest rejects frames whose sequence lacks the destination bits
	checkDest bool
}

// scan walks data, calling fn for every valid frame, and returns the number
// of bytes consumed. An incomplete trailing frame is left unconsumed.
// Any framing error drops synchronization until the next sync byte.
func (s *frameScanner) scan(data []byte, fn func(seq uint8, payload []byte)) int {
	total := len(data)

	for len(data) > 0 {
		if !s.synchronized {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			s.synchronized = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			s.synchronized = false
			continue
		}

		seq := data[MessagePositionSeq]
		if s.checkDest && seq&^MessageSeqMask != MessageDest {
			s.synchronized = false
			continue
		}

		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			s.synchronized = false
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			s.synchronized = false
			continue
		}

		fn(seq, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		data = data[msgLen:]
	}

	return total - len(data)
}
