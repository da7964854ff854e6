// Package protocol implements the Klipper-style framed serial protocol used
// between the host tool and the PWM firmware
package protocol

// Version represents the firmware version reported in the dictionary
const Version = "pwmdual-0.1.0"

// Frame layout: [len][seq][payload...][crc_hi][crc_lo][sync]
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1

	MessageValueSync = 0x7E
	MessageDest      = 0x10
	MessageSeqMask   = 0x0F

	// OutputMax is the size of a firmware scratch output buffer
	OutputMax = 512
)

// nextSeq returns the sequence that follows seq
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
