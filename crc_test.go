package mbcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// RTU Read Holdings request.
func TestCrc16RTU_S1(t *testing.T) {
	body := []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03}
	crc := crc16RTU(body, crc16ModbusSeed)
	assert.Equal(t, byte(0x76), byte(crc))
	assert.Equal(t, byte(0x87), byte(crc>>8))
}

// RTU Write Single Coil request.
func TestCrc16RTU_S3(t *testing.T) {
	body := []byte{0x11, 0x05, 0x00, 0xAC, 0xFF, 0x00}
	crc := crc16RTU(body, crc16ModbusSeed)
	assert.Equal(t, byte(0x4E), byte(crc))
	assert.Equal(t, byte(0x8B), byte(crc>>8))
}

// Folding region by region equals folding the whole slice at once.
func TestCrc16RTU_Incremental(t *testing.T) {
	body := []byte{0x11, 0x03, 0x06, 0x02, 0x2B, 0x00, 0x00, 0x00, 0x64}
	whole := crc16RTU(body, crc16ModbusSeed)

	running := crc16ModbusSeed
	for _, b := range body {
		running = crc16RTU([]byte{b}, running)
	}
	assert.Equal(t, whole, running)
}
