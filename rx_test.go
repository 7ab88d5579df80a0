package mbcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func driveRx(t *testing.T, r Reader, codec *codecState, mode Mode, f *Frame, isRequest bool) error {
	t.Helper()
	var rx rxFramer
	rx.reset()
	for i := 0; i < 10000; i++ {
		done, err := rx.step(r, codec, mode, f, isRequest)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	t.Fatal("rx framer did not complete")
	return nil
}

// RTU Read Holdings response.
func TestRx_S2_RTU(t *testing.T) {
	wire := []byte{0x11, 0x03, 0x06, 0x02, 0x2B, 0x00, 0x00, 0x00, 0x64, 0xC8, 0xBA}
	f := &Frame{Payload: make([]byte, 8), BufferSize: 8}
	codec := &codecState{mode: ModeRTU}
	err := driveRx(t, &chunkReader{data: wire}, codec, ModeRTU, f, false)
	require.NoError(t, err)
	require.Equal(t, byte(0x11), f.Address)
	require.Equal(t, byte(0x03), f.Function)
	require.Equal(t, byte(0x06), f.LengthCode)
	require.Equal(t, []byte{0x02, 0x2B, 0x00, 0x00, 0x00, 0x64}, f.Payload[:6])

	data, itemCount, itemSize, _ := ResponseData(f)
	require.Equal(t, 3, itemCount)
	require.Equal(t, 2, itemSize)
	var regs []uint16
	regs = UnpackRegisters(regs, data)
	require.Equal(t, []uint16{0x022B, 0x0000, 0x0064}, regs)
}

// The decoder reassembles a frame regardless of how the transport splits
// it, down to one byte at a time.
func TestRx_S2_SurvivesArbitrarySplits(t *testing.T) {
	wire := []byte{0x11, 0x03, 0x06, 0x02, 0x2B, 0x00, 0x00, 0x00, 0x64, 0xC8, 0xBA}
	for chunk := 1; chunk <= len(wire); chunk++ {
		f := &Frame{Payload: make([]byte, 8), BufferSize: 8}
		codec := &codecState{mode: ModeRTU}
		err := driveRx(t, &chunkReader{data: wire, maxChunk: chunk}, codec, ModeRTU, f, false)
		require.NoError(t, err, "chunk size %d", chunk)
		require.Equal(t, byte(0x11), f.Address, "chunk size %d", chunk)
		require.Equal(t, []byte{0x02, 0x2B, 0x00, 0x00, 0x00, 0x64}, f.Payload[:6], "chunk size %d", chunk)
	}
}

// Decoding what the encoder wrote for the Read Holdings request
// reproduces the original request fields.
func TestRx_IdempotentWithTx_RTU(t *testing.T) {
	want := &Frame{Address: 0x11, Function: FuncReadHoldingRegisters, RegAddr: 0x006B, RegValueCount: 0x0003}
	w := &chunkWriter{}
	wcodec := &codecState{mode: ModeRTU}
	driveTx(t, w, wcodec, ModeRTU, want, shapeFor(want.Function, true))

	got := &Frame{Payload: make([]byte, 8), BufferSize: 8}
	rcodec := &codecState{mode: ModeRTU}
	err := driveRx(t, &chunkReader{data: w.data}, rcodec, ModeRTU, got, true)
	require.NoError(t, err)
	require.Equal(t, want.Address, got.Address)
	require.Equal(t, want.Function, got.Function)
	require.Equal(t, want.RegAddr, got.RegAddr)
	require.Equal(t, want.RegValueCount, got.RegValueCount)
}

// The illegal-function scenario's wire bytes, decoded directly: a
// request for an unmatched function the server will turn into an
// exception.
func TestRx_S5_RTURequest(t *testing.T) {
	wire := []byte{0x05, 0x04, 0x00, 0x00, 0x00, 0x01, 0x30, 0x4E}
	f := &Frame{Payload: make([]byte, 8), BufferSize: 8}
	codec := &codecState{mode: ModeRTU}
	err := driveRx(t, &chunkReader{data: wire}, codec, ModeRTU, f, true)
	require.NoError(t, err)
	require.Equal(t, byte(0x05), f.Address)
	require.Equal(t, byte(0x04), f.Function)
	require.Equal(t, uint16(0x0000), f.RegAddr)
	require.Equal(t, uint16(0x0001), f.RegValueCount)
}

// Framing errors in RTU are soft: a checksum mismatch never surfaces as
// a hard error, it falls through to the stage-12 resync scan and waits
// on more bytes (or, ultimately, the session controller's rx-timeout)
// instead.
func TestRx_ChecksumMismatchIsSoftInRTU(t *testing.T) {
	wire := []byte{0x11, 0x05, 0x00, 0xAC, 0xFF, 0x00, 0x00, 0x00} // corrupted trailing CRC
	f := &Frame{Payload: make([]byte, 8), BufferSize: 8}
	codec := &codecState{mode: ModeRTU}
	r := &chunkReader{data: wire}

	var rx rxFramer
	rx.reset()
	for i := 0; i < 100; i++ {
		done, err := rx.step(r, codec, ModeRTU, f, true)
		require.NoError(t, err)
		if done {
			break
		}
	}
}

// The same mismatch is a hard, immediately-reported error in ASCII,
// where there is no resync scan to fall back to.
func TestRx_ChecksumMismatchIsHardInASCII(t *testing.T) {
	wire := []byte(":01010013000DFF\r\n") // wrong LRC (want DE)
	f := &Frame{Payload: make([]byte, 8), BufferSize: 8}
	codec := &codecState{mode: ModeASCII}
	err := driveRx(t, &chunkReader{data: wire}, codec, ModeASCII, f, true)
	require.ErrorIs(t, err, errChecksumMismatch)
}
