package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scannedFrame struct {
	seq     uint8
	payload []byte
}

func scanAll(s *frameScanner, data []byte) ([]scannedFrame, int) {
	var frames []scannedFrame
	n := s.scan(data, func(seq uint8, payload []byte) {
		frames = append(frames, scannedFrame{seq, append([]byte(nil), payload...)})
	})
	return frames, n
}

func mustEncode(t *testing.T, seq uint8, payload []byte) []byte {
	t.Helper()
	msg, err := EncodeMessage(seq, payload)
	require.NoError(t, err)
	return msg
}

func TestEncodeMessage(t *testing.T) {
	assert.Equal(t, []byte{5, 0x10, 0x9E, 0x81, 0x7E}, mustEncode(t, 0x10, nil))
	assert.Equal(t, []byte{5, 0x11, 0x8F, 0x08, 0x7E}, mustEncode(t, 0x11, nil))
	assert.Equal(t, []byte{8, 0x10, 2, 64, 32, 0x7B, 0xD5, 0x7E}, mustEncode(t, 0x10, []byte{2, 64, 32}))
}

func TestEncodeMessageTooLong(t *testing.T) {
	_, err := EncodeMessage(0x10, make([]byte, MessagePayloadMax+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	msg, err := EncodeMessage(0x10, make([]byte, MessagePayloadMax))
	require.NoError(t, err)
	assert.Len(t, msg, MessageLengthMax)
}

func TestNextSeq(t *testing.T) {
	assert.Equal(t, uint8(0x11), nextSeq(0x10))
	assert.Equal(t, uint8(0x1F), nextSeq(0x1E))
	assert.Equal(t, uint8(0x10), nextSeq(0x1F))
}

func TestScanFrames(t *testing.T) {
	s := &frameScanner{synchronized: true, checkDest: true}
	data := append(mustEncode(t, 0x10, []byte{1, 2}), mustEncode(t, 0x11, nil)...)

	frames, n := scanAll(s, data)
	assert.Equal(t, len(data), n)
	assert.Equal(t, []scannedFrame{
		{0x10, []byte{1, 2}},
		{0x11, nil},
	}, frames)
}

func TestScanPartialFrame(t *testing.T) {
	s := &frameScanner{synchronized: true, checkDest: true}
	msg := mustEncode(t, 0x10, []byte{1, 2, 3})

	frames, n := scanAll(s, msg[:4])
	assert.Empty(t, frames)
	assert.Equal(t, 0, n, "incomplete frame is left for the next read")

	frames, n = scanAll(s, msg)
	assert.Len(t, frames, 1)
	assert.Equal(t, len(msg), n)
}

func TestScanResyncAfterCorruption(t *testing.T) {
	s := &frameScanner{synchronized: true, checkDest: true}
	bad := mustEncode(t, 0x10, []byte{9, 9})
	bad[2] ^= 0xFF // CRC mismatch
	good := mustEncode(t, 0x11, []byte{7})

	data := append(bad, good...)
	frames, n := scanAll(s, data)
	assert.Equal(t, len(data), n)
	assert.Equal(t, []scannedFrame{{0x11, []byte{7}}}, frames)
	assert.True(t, s.synchronized)
}

func TestScanRejectsWrongDestination(t *testing.T) {
	s := &frameScanner{synchronized: true, checkDest: true}
	frames, _ := scanAll(s, mustEncode(t, 0x20, nil))
	assert.Empty(t, frames)

	s = &frameScanner{synchronized: true}
	frames, _ = scanAll(s, mustEncode(t, 0x20, nil))
	assert.Len(t, frames, 1)
}

func TestScanSkipsNoise(t *testing.T) {
	s := &frameScanner{synchronized: true, checkDest: true}
	data := append([]byte{0x7E, 0x7E, 0x01, 0x02}, MessageValueSync)
	data = append(data, mustEncode(t, 0x10, []byte{5})...)

	frames, _ := scanAll(s, data)
	assert.Equal(t, []scannedFrame{{0x10, []byte{5}}}, frames)
}
