package mbcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func driveTx(t *testing.T, w Writer, codec *codecState, mode Mode, f *Frame, shape Shape) {
	t.Helper()
	var tx txFramer
	tx.reset()
	for i := 0; i < 1000; i++ {
		done, err := tx.step(w, codec, mode, f, shape)
		require.NoError(t, err)
		if done {
			return
		}
	}
	t.Fatal("tx framer did not complete")
}

// RTU Read Holdings request.
func TestTx_S1_RTU(t *testing.T) {
	f := &Frame{Address: 0x11, Function: FuncReadHoldingRegisters, RegAddr: 0x006B, RegValueCount: 0x0003}
	codec := &codecState{mode: ModeRTU}
	w := &chunkWriter{maxChunk: 1}
	driveTx(t, w, codec, ModeRTU, f, shapeFor(f.Function, true))
	require.Equal(t, []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03, 0x76, 0x87}, w.data)
}

// RTU Write Single Coil request.
func TestTx_S3_RTU(t *testing.T) {
	f := &Frame{Address: 0x11, Function: FuncWriteSingleCoil, RegAddr: 0x00AC, RegValueCount: 0xFF00}
	codec := &codecState{mode: ModeRTU}
	w := &chunkWriter{}
	driveTx(t, w, codec, ModeRTU, f, shapeFor(f.Function, true))
	require.Equal(t, []byte{0x11, 0x05, 0x00, 0xAC, 0xFF, 0x00, 0x4E, 0x8B}, w.data)
}

// ASCII Read Coils request.
func TestTx_S4_ASCII(t *testing.T) {
	f := &Frame{Address: 0x01, Function: FuncReadCoils, RegAddr: 0x0013, RegValueCount: 0x000D}
	codec := &codecState{mode: ModeASCII}
	w := &chunkWriter{maxChunk: 1}
	driveTx(t, w, codec, ModeASCII, f, shapeFor(f.Function, true))
	require.Equal(t, ":01010013000DDE\r\n", string(w.data))
}
