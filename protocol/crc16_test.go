package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		{data: []byte{}, expected: 0xFFFF},
		{data: []byte("123456789"), expected: 0x6F91},
		{data: []byte{5, MessageDest}, expected: 0x9E81},
		{data: []byte{0xFF}, expected: 0x00FF},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, CRC16(tc.data), "CRC16(%v)", tc.data)
	}
}

func TestCRC16Different(t *testing.T) {
	// Single-bit change must alter the checksum
	assert.NotEqual(t, CRC16([]byte{0x01, 0x02, 0x03}), CRC16([]byte{0x01, 0x02, 0x04}))
}
